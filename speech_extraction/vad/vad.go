// Package vad measures spectral flux, the amount of new energy that appears
// in the spectrum from one chunk of audio to the next. Speech onsets show up
// as flux spikes.
package vad

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

type VAD struct {
	size     int
	samples  []float64
	spectrum []float64
	previous []float64
	primed   bool
}

// New returns a detector for chunks of size samples. Shorter chunks are zero
// padded and longer ones truncated.
func New(size int) *VAD {
	bins := size/2 + 1

	return &VAD{
		size:     size,
		samples:  make([]float64, size),
		spectrum: make([]float64, bins),
		previous: make([]float64, bins),
	}
}

// Flux returns the positive spectral difference between in and the previous
// chunk, averaged over the frequency bins. The first chunk after New or Reset
// is compared against silence.
func (v *VAD) Flux(in []int16) float64 {
	for i := range v.samples {
		if i < len(in) {
			v.samples[i] = float64(in[i]) / math.MaxInt16
		} else {
			v.samples[i] = 0
		}
	}

	window.Apply(v.samples, window.Hann)

	coefficients := fft.FFTReal(v.samples)
	for i := range v.spectrum {
		v.spectrum[i] = cmplx.Abs(coefficients[i])
	}

	var flux float64
	for i, magnitude := range v.spectrum {
		if diff := magnitude - v.previous[i]; diff > 0 {
			flux += diff
		}
	}

	v.spectrum, v.previous = v.previous, v.spectrum
	v.primed = true

	return flux / float64(len(v.spectrum))
}

// Primed reports whether Flux has seen at least one chunk since the last reset.
func (v *VAD) Primed() bool {
	return v.primed
}

func (v *VAD) Reset() {
	for i := range v.previous {
		v.previous[i] = 0
	}
	v.primed = false
}
