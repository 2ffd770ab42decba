// Package audiofmt inspects uploaded audio payloads.
package audiofmt

import (
	"bytes"
	"errors"
	"time"

	"github.com/go-audio/wav"
)

// headerLen is the shortest prefix that can carry a RIFF/WAVE
// container signature.
const headerLen = 12

// IsWAV reports whether data begins with a RIFF/WAVE container header.
// It inspects bytes only and never decodes the payload.
func IsWAV(data []byte) bool {
	if len(data) < headerLen {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// Info describes a decoded WAV header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// Duration of the audio. Zero when the data chunk could not be
	// sized, which happens with streamed or truncated payloads.
	Duration time.Duration
}

// Probe reads the WAV header of data. Payloads without a RIFF/WAVE
// signature or with a corrupt header return an error.
func Probe(data []byte) (Info, error) {
	if !IsWAV(data) {
		return Info{}, errors.New("not a RIFF/WAVE payload")
	}
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, err
	}
	if dec.SampleRate == 0 {
		return Info{}, errors.New("wav header missing fmt chunk")
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if d, err := dec.Duration(); err == nil {
		info.Duration = d
	}
	return info, nil
}
