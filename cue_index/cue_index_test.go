package cue_index

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIndex(t *testing.T) Interface {
	t.Helper()

	idx := New()
	require.NoError(t, idx.Set(256, 0, "cue open"))
	require.NoError(t, idx.Set(256, 1, "and now the numbers"))
	require.NoError(t, idx.Set(257, 0, "cue open"))
	require.NoError(t, idx.Set(300, 0, "thank you"))

	return idx
}

func TestLookup(t *testing.T) {
	idx := sampleIndex(t)

	tests := []struct {
		name   string
		slide  int
		step   int
		want   string
		wantOK bool
	}{
		{name: "first step", slide: 256, step: 0, want: "cue open", wantOK: true},
		{name: "second step", slide: 256, step: 1, want: "and now the numbers", wantOK: true},
		{name: "step past the end", slide: 256, step: 2},
		{name: "negative step", slide: 256, step: -1},
		{name: "unknown slide", slide: 999, step: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Lookup(tt.slide, tt.step)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty index never fails", func(t *testing.T) {
		_, ok := New().Lookup(0, 0)
		assert.False(t, ok)
	})
}

func TestFlattenAll(t *testing.T) {
	idx := sampleIndex(t)

	assert.ElementsMatch(t, []string{"cue open", "and now the numbers", "thank you"}, idx.FlattenAll())
	assert.Empty(t, New().FlattenAll())
}

func TestSet(t *testing.T) {
	idx := sampleIndex(t)

	t.Run("replace an existing step", func(t *testing.T) {
		require.NoError(t, idx.Set(256, 1, "  the numbers  "))
		got, _ := idx.Lookup(256, 1)
		assert.Equal(t, "the numbers", got)
	})

	t.Run("a gap between steps is refused", func(t *testing.T) {
		err := idx.Set(256, 5, "too far")
		assert.ErrorIs(t, err, ErrStepOutOfRange)
	})

	t.Run("empty cue is refused", func(t *testing.T) {
		assert.Error(t, idx.Set(256, 0, "   "))
	})

	t.Run("remove a slide", func(t *testing.T) {
		idx.Remove(300)
		assert.Equal(t, []int{256, 257}, idx.Slides())
		assert.Empty(t, idx.Cues(300))
	})
}

func TestSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx := sampleIndex(t)

	require.NoError(t, idx.Save(fs, "data/cues.yaml"))

	loaded, err := Load(fs, "data/cues.yaml")
	require.NoError(t, err)

	assert.Equal(t, idx.Slides(), loaded.Slides())
	for _, slide := range idx.Slides() {
		assert.Equal(t, idx.Cues(slide), loaded.Cues(slide))
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file is an empty index", func(t *testing.T) {
		idx, err := Load(afero.NewMemMapFs(), "cues.yaml")
		require.NoError(t, err)
		assert.Empty(t, idx.Slides())
	})

	t.Run("hand written file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := "slides:\n  - slide: 3\n    cues:\n      - \" first \"\n      - second\n"
		require.NoError(t, afero.WriteFile(fs, "cues.yaml", []byte(content), 0644))

		idx, err := Load(fs, "cues.yaml")
		require.NoError(t, err)

		got, ok := idx.Lookup(3, 0)
		assert.True(t, ok)
		assert.Equal(t, "first", got)
	})

	t.Run("malformed file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "cues.yaml", []byte("slides: [oops"), 0644))

		_, err := Load(fs, "cues.yaml")
		assert.Error(t, err)
	})

	t.Run("nil filesystem", func(t *testing.T) {
		_, err := Load(nil, "cues.yaml")
		assert.Error(t, err)
	})
}
