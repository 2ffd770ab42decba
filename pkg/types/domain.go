package types

// Model represents a discoverable whisper model file on disk.
type Model struct {
	// Stable identifier for the model, derived from the file name.
	// example: ggml-base.en
	ID string `json:"id" example:"ggml-base.en"`
	// Human-friendly name.
	// example: Base (English)
	Name string `json:"name" example:"Base (English)"`
	// Absolute path to the model file on disk.
	// example: /home/user/.openwhispr/models/ggml-base.en.bin
	Path string `json:"path" example:"/home/user/.openwhispr/models/ggml-base.en.bin"`
	// File size in megabytes.
	// example: 142
	SizeMB int64 `json:"size_mb" example:"142"`
}

// Segment is one timed span of a transcript, as reported by the
// inference server.
type Segment struct {
	// Segment text.
	// example: Hello world.
	Text string `json:"text" example:"Hello world."`
	// Segment start offset in seconds.
	// example: 0.0
	Start float64 `json:"start" example:"0.0"`
	// Segment end offset in seconds.
	// example: 1.48
	End float64 `json:"end" example:"1.48"`
}

// Transcription is the parsed result of one inference call.
type Transcription struct {
	// Full transcript text.
	// example: Hello world.
	Text string `json:"text" example:"Hello world."`
	// Optional per-segment timing, when the server reports it.
	Segments []Segment `json:"segments,omitempty"`
	// Detected or requested language code.
	// example: en
	Language string `json:"language,omitempty" example:"en"`
}
