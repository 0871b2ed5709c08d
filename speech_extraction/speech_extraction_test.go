package speech_extraction

import (
	"math"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chunk = 1600

func silence() []int16 {
	return make([]int16, chunk)
}

func tone() []int16 {
	out := make([]int16, chunk)
	for i := range out {
		out[i] = int16(0.5 * math.MaxInt16 * math.Sin(2*math.Pi*500*float64(i)/DefaultSampleRate))
	}
	return out
}

func repeat(f func() []int16, n int) [][]int16 {
	out := make([][]int16, n)
	for i := range out {
		out[i] = f()
	}
	return out
}

func feedAll(s Interface, chunks ...[][]int16) []*audio.IntBuffer {
	var utterances []*audio.IntBuffer
	for _, group := range chunks {
		for _, c := range group {
			if buf, ok := s.Feed(c); ok {
				utterances = append(utterances, buf)
			}
		}
	}
	return utterances
}

func newSegmenter(t *testing.T, cfg Config) Interface {
	t.Helper()

	cfg.ChunkSize = chunk
	s, err := New(&cfg)
	require.NoError(t, err)

	return s
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{QuietTime: -1})
	assert.Error(t, err)
}

func TestSegmenter_QuietEndsUtterance(t *testing.T) {
	s := newSegmenter(t, Config{})

	utterances := feedAll(s, repeat(silence, 3), repeat(tone, 8), repeat(silence, 5))

	require.Len(t, utterances, 1)
	assert.Len(t, utterances[0].Data, 5*chunk)
	assert.Equal(t, DefaultSampleRate, utterances[0].Format.SampleRate)
	assert.Equal(t, 1, utterances[0].Format.NumChannels)
}

func TestSegmenter_SilenceNeverOpens(t *testing.T) {
	s := newSegmenter(t, Config{})

	assert.Empty(t, feedAll(s, repeat(silence, 20)))

	_, ok := s.Flush()
	assert.False(t, ok)
}

func TestSegmenter_MaxTime(t *testing.T) {
	s := newSegmenter(t, Config{QuietTime: 10 * time.Second, MaxTime: 250 * time.Millisecond})

	utterances := feedAll(s, repeat(silence, 1), repeat(tone, 4))

	require.Len(t, utterances, 1)
	assert.Len(t, utterances[0].Data, 4*chunk)
}

func TestSegmenter_Flush(t *testing.T) {
	s := newSegmenter(t, Config{})

	assert.Empty(t, feedAll(s, repeat(silence, 1), repeat(tone, 2)))

	buf, ok := s.Flush()
	require.True(t, ok)
	assert.Len(t, buf.Data, 2*chunk)

	_, ok = s.Flush()
	assert.False(t, ok)
}

func TestCapture(t *testing.T) {
	fs := afero.NewMemMapFs()

	capture, err := NewCapture(fs, "captures")
	require.NoError(t, err)

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: DefaultSampleRate},
		Data:   make([]int, chunk),
	}

	first, err := capture.Write(buf)
	require.NoError(t, err)
	second, err := capture.Write(buf)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	info, err := fs.Stat(first)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(2*chunk))

	_, err = NewCapture(nil, "captures")
	assert.Error(t, err)
}
