package cue_index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var ErrStepOutOfRange = errors.New("cue step out of range")

type indexImpl struct {
	mu     sync.RWMutex
	slides map[int][]string
}

type cueFile struct {
	Slides []slideCues `yaml:"slides"`
}

type slideCues struct {
	Slide int      `yaml:"slide"`
	Cues  []string `yaml:"cues"`
}

// New returns an empty index.
func New() Interface {
	return &indexImpl{slides: make(map[int][]string)}
}

// Load reads a cue file. A missing file yields an empty index.
func Load(fileSys afero.Fs, path string) (Interface, error) {
	if fileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	data, err := afero.ReadFile(fileSys, path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cue file %s: %w", path, err)
	}

	var file cueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cue file %s: %w", path, err)
	}

	idx := &indexImpl{slides: make(map[int][]string, len(file.Slides))}
	for _, s := range file.Slides {
		cues := make([]string, 0, len(s.Cues))
		for _, c := range s.Cues {
			cues = append(cues, strings.TrimSpace(c))
		}

		idx.slides[s.Slide] = append(idx.slides[s.Slide], cues...)
	}

	return idx, nil
}

func (i *indexImpl) Save(fileSys afero.Fs, path string) error {
	if fileSys == nil {
		return fmt.Errorf("fileSys is nil")
	}

	i.mu.RLock()
	file := cueFile{Slides: make([]slideCues, 0, len(i.slides))}
	for _, id := range i.sortedSlides() {
		file.Slides = append(file.Slides, slideCues{Slide: id, Cues: append([]string(nil), i.slides[id]...)})
	}
	i.mu.RUnlock()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to encode cues: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fileSys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cue directory: %w", err)
		}
	}

	if err := afero.WriteFile(fileSys, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cue file %s: %w", path, err)
	}

	return nil
}

func (i *indexImpl) Lookup(slideID int, step int) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	cues, ok := i.slides[slideID]
	if !ok || step < 0 || step >= len(cues) {
		return "", false
	}

	return cues[step], true
}

func (i *indexImpl) FlattenAll() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, cues := range i.slides {
		for _, c := range cues {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}

	sort.Strings(out)

	return out
}

// Set stores the cue for a step. Steps stay dense: step may replace an
// existing cue or append right after the last one.
func (i *indexImpl) Set(slideID int, step int, cue string) error {
	cue = strings.TrimSpace(cue)
	if cue == "" {
		return fmt.Errorf("cue is empty")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	cues := i.slides[slideID]
	switch {
	case step >= 0 && step < len(cues):
		cues[step] = cue
	case step == len(cues):
		i.slides[slideID] = append(cues, cue)
	default:
		return fmt.Errorf("%w: slide %d has %d cues, cannot set step %d", ErrStepOutOfRange, slideID, len(cues), step)
	}

	return nil
}

func (i *indexImpl) Remove(slideID int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.slides, slideID)
}

func (i *indexImpl) Slides() []int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.sortedSlides()
}

func (i *indexImpl) Cues(slideID int) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return append([]string(nil), i.slides[slideID]...)
}

func (i *indexImpl) sortedSlides() []int {
	ids := make([]int, 0, len(i.slides))
	for id := range i.slides {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids
}
