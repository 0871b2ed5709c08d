package speech_extraction

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-audio/audio"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
)

// Capture writes utterances to WAV files, one per utterance.
type Capture struct {
	fileSys afero.Fs
	dir     string
	now     func() time.Time
	count   int
}

func NewCapture(fileSys afero.Fs, dir string) (*Capture, error) {
	if fileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if err := fileSys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	return &Capture{fileSys: fileSys, dir: dir, now: time.Now}, nil
}

// Write stores buf and returns the file name it used.
func (c *Capture) Write(buf *audio.IntBuffer) (string, error) {
	c.count++
	waveFilename := filepath.Join(c.dir, "utterance"+strconv.FormatInt(c.now().Unix(), 10)+"-"+strconv.Itoa(c.count)+".wav")

	waveFile, err := c.fileSys.Create(waveFilename)
	if err != nil {
		return "", err
	}

	sampleRate := DefaultSampleRate
	if buf.Format != nil && buf.Format.SampleRate != 0 {
		sampleRate = buf.Format.SampleRate
	}

	param := wave.WriterParam{
		Out:           waveFile,
		Channel:       1,
		SampleRate:    sampleRate,
		BitsPerSample: 16,
	}

	waveWriter, err := wave.NewWriter(param)
	if err != nil {
		waveFile.Close()
		return "", err
	}

	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}

	if _, err = waveWriter.WriteSample16(samples); err != nil {
		waveWriter.Close()
		return "", err
	}

	if err = waveWriter.Close(); err != nil {
		return "", err
	}

	return waveFilename, nil
}
