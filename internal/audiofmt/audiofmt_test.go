package audiofmt

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// makeWAV builds a minimal 16-bit PCM WAV payload with the given number
// of samples at 16 kHz mono.
func makeWAV(t *testing.T, samples int) []byte {
	t.Helper()
	const (
		sampleRate    = 16000
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := samples * channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bitsPerSample/8))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestIsWAV(t *testing.T) {
	if !IsWAV(makeWAV(t, 160)) {
		t.Fatal("valid WAV not recognized")
	}
	cases := map[string][]byte{
		"empty":        nil,
		"short":        []byte("RIFF"),
		"mp3":          append([]byte{0xFF, 0xFB, 0x90, 0x00}, make([]byte, 64)...),
		"ogg":          append([]byte("OggS"), make([]byte, 64)...),
		"riff-no-wave": append([]byte("RIFF\x00\x00\x00\x00AVI "), make([]byte, 64)...),
	}
	for name, data := range cases {
		if IsWAV(data) {
			t.Errorf("%s payload misidentified as WAV", name)
		}
	}
}

func TestIsWAVEncoderOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, 16000),
		SourceBitDepth: 16,
	}
	if err := enc.Write(pcm); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !IsWAV(data) {
		t.Fatal("encoder output not recognized as WAV")
	}
	info, err := Probe(data)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitDepth != 16 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Duration != time.Second {
		t.Fatalf("expected 1s duration, got %v", info.Duration)
	}
}

func TestProbe(t *testing.T) {
	// One second of 16 kHz mono audio.
	info, err := Probe(makeWAV(t, 16000))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitDepth != 16 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Duration != time.Second {
		t.Fatalf("expected 1s duration, got %v", info.Duration)
	}
}

func TestProbeRejectsNonWAV(t *testing.T) {
	if _, err := Probe([]byte("ID3\x03 not audio at all")); err == nil {
		t.Fatal("expected error for non-WAV payload")
	}
}

func TestProbeRejectsTruncatedHeader(t *testing.T) {
	data := makeWAV(t, 160)[:20]
	if _, err := Probe(data); err == nil {
		t.Fatal("expected error for truncated header")
	}
}
