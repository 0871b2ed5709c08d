package cue_index

import "github.com/spf13/afero"

// Interface maps (slide, step) positions to the spoken cue expected there.
type Interface interface {
	// Lookup never fails: an unknown slide or step reports ok == false.
	Lookup(slideID int, step int) (cue string, ok bool)
	// FlattenAll returns every distinct cue across all slides.
	FlattenAll() []string
	Set(slideID int, step int, cue string) error
	Remove(slideID int)
	Slides() []int
	Cues(slideID int) []string
	Save(fileSys afero.Fs, path string) error
}
