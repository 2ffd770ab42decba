package types

// StartRequest is the payload for POST /api/server/start.
type StartRequest struct {
	// Absolute path to the whisper model file to serve.
	// example: /home/user/.openwhispr/models/ggml-base.en.bin
	ModelPath string `json:"model_path" example:"/home/user/.openwhispr/models/ggml-base.en.bin"`
	// Request the GPU-accelerated server variant. When the variant is not
	// installed the daemon falls back to CPU and reports it in status.
	// example: true
	UseGPU bool `json:"use_gpu,omitempty" example:"true"`
	// Default language hint passed to the server (ISO 639-1, or "auto").
	// example: en
	Language string `json:"language,omitempty" example:"en"`
	// Number of inference threads; 0 lets the server decide.
	// example: 4
	Threads int `json:"threads,omitempty" example:"4"`
}

// ModelsResponse wraps the list of models returned by GET /api/models.
type ModelsResponse struct {
	// List of model files found in the models directory.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model file not found
	Error string `json:"error" example:"model file not found"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// StatusResponse is returned by GET /api/server/status.
type StatusResponse struct {
	// Lifecycle state of the managed server (stopped, starting, ready,
	// degraded, stopping).
	// example: ready
	State string `json:"state" example:"ready"`
	// Process ID of the managed server, 0 when stopped.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// TCP port the managed server listens on, 0 when stopped.
	// example: 8090
	Port int `json:"port,omitempty" example:"8090"`
	// Model file the running server was started with.
	// example: /home/user/.openwhispr/models/ggml-base.en.bin
	ModelPath string `json:"model_path,omitempty" example:"/home/user/.openwhispr/models/ggml-base.en.bin"`
	// Binary variant in use: cpu or cuda.
	// example: cpu
	Variant string `json:"variant,omitempty" example:"cpu"`
	// True when GPU acceleration was requested for the current run.
	// example: true
	AccelRequested bool `json:"accel_requested,omitempty" example:"true"`
	// True when acceleration was requested but the run fell back to CPU.
	// example: false
	AccelFallback bool `json:"accel_fallback,omitempty" example:"false"`
	// True when a transcoder (ffmpeg) was found, so non-WAV uploads are
	// accepted and converted by the server.
	// example: true
	CanConvert bool `json:"can_convert,omitempty" example:"true"`
	// Uptime of the managed server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds,omitempty" example:"3600"`
	// Unix time of the last successful health probe.
	// example: 1700000000
	LastHealthUnix int64 `json:"last_health_unix,omitempty" example:"1700000000"`
	// Last startup or crash error observed by the supervisor, if any.
	LastError string `json:"last_error,omitempty"`
	// True when an NVIDIA accelerator was detected on the host.
	// example: false
	AcceleratorPresent bool `json:"accelerator_present" example:"false"`
	// True when the accelerated server binary is installed.
	// example: false
	AcceleratedBinary bool `json:"accelerated_binary" example:"false"`
	// Daemon time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total managed-server starts since daemon boot.
	// example: 2
	StartsTotal uint64 `json:"starts_total" example:"2"`
	// Total unexpected managed-server exits since daemon boot.
	// example: 0
	CrashesTotal uint64 `json:"crashes_total" example:"0"`
}

// TranscriptionResponse is returned by POST /api/transcribe.
type TranscriptionResponse struct {
	// Identifier of the stored history entry for this transcription.
	// example: 7b9f3c1e-8a2d-4f6b-9c0d-2e5a1b4c7d8e
	ID string `json:"id,omitempty" example:"7b9f3c1e-8a2d-4f6b-9c0d-2e5a1b4c7d8e"`
	Transcription
	// Wall-clock processing time in milliseconds.
	// example: 850
	TookMS int64 `json:"took_ms" example:"850"`
	// Duration of the uploaded audio in seconds, when it could be read
	// from the WAV header.
	// example: 4.2
	AudioSeconds float64 `json:"audio_seconds,omitempty" example:"4.2"`
}

// HistoryEntry is one stored transcription, returned by GET /api/history.
type HistoryEntry struct {
	// Entry identifier.
	// example: 7b9f3c1e-8a2d-4f6b-9c0d-2e5a1b4c7d8e
	ID string `json:"id" example:"7b9f3c1e-8a2d-4f6b-9c0d-2e5a1b4c7d8e"`
	// Creation time in unix seconds.
	// example: 1700000000
	CreatedAtUnix int64 `json:"created_at_unix" example:"1700000000"`
	// Model file used for this transcription.
	// example: /home/user/.openwhispr/models/ggml-base.en.bin
	ModelPath string `json:"model_path" example:"/home/user/.openwhispr/models/ggml-base.en.bin"`
	// Language reported by the server, if any.
	// example: en
	Language string `json:"language,omitempty" example:"en"`
	// Size of the uploaded audio in bytes.
	// example: 352844
	AudioBytes int64 `json:"audio_bytes" example:"352844"`
	// Duration of the uploaded audio in seconds, 0 when unknown.
	// example: 4.2
	AudioSeconds float64 `json:"audio_seconds,omitempty" example:"4.2"`
	// Processing time in milliseconds.
	// example: 850
	TookMS int64 `json:"took_ms" example:"850"`
	// Transcript text.
	// example: Hello world.
	Text string `json:"text" example:"Hello world."`
}

// HistoryResponse wraps the list returned by GET /api/history.
type HistoryResponse struct {
	// Most recent transcriptions, newest first.
	Entries []HistoryEntry `json:"entries"`
}
