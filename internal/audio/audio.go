// Package audio records the sound timer output as a square wave and writes
// it as a WAV file. The samples are kept in memory until written.
package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Output format of the recording.
const (
	SampleRate      = 44100
	BitDepth        = 16
	ToneFrequency   = 440
	SamplesPerFrame = SampleRate / 60

	amplitude    = 8000
	wavFormatPCM = 1
	channelsMono = 1
)

// Recorder collects one frame of samples per call to AddFrame.
type Recorder struct {
	samples []int
	phase   int
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

// AddFrame appends one frame of samples, a tone if sounding is set and
// silence otherwise. The tone phase continues across frames.
func (r *Recorder) AddFrame(sounding bool) {
	for range SamplesPerFrame {
		value := 0
		if sounding {
			value = -amplitude
			if (r.phase*2*ToneFrequency/SampleRate)%2 == 0 {
				value = amplitude
			}
		}
		r.samples = append(r.samples, value)
		r.phase++
	}
}

// Samples returns the number of recorded samples.
func (r *Recorder) Samples() int {
	return len(r.samples)
}

// Write encodes all recorded samples as a mono 16 bit PCM WAV stream.
func (r *Recorder) Write(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, SampleRate, BitDepth, channelsMono, wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channelsMono,
			SampleRate:  SampleRate,
		},
		Data:           r.samples,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing wav encoder: %w", err)
	}
	return nil
}

// WriteFile writes the recording to the named file.
func (r *Recorder) WriteFile(path string) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("closing file '%s': %w", path, err)
		}
	}()

	return r.Write(f)
}
