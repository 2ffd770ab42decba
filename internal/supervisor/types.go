package supervisor

// State represents the lifecycle state of the managed server.
type State string

const (
	// StateStopped means no child process exists.
	StateStopped State = "stopped"
	// StateStarting means a spawn is in flight and readiness has not
	// been observed yet.
	StateStarting State = "starting"
	// StateReady means the last health probe succeeded.
	StateReady State = "ready"
	// StateDegraded means the process is alive but a recent health
	// probe failed. Transcriptions are still attempted.
	StateDegraded State = "degraded"
	// StateStopping means a graceful shutdown is in progress.
	StateStopping State = "stopping"
)

// TranscribeOptions carries per-request parameters for Transcribe.
type TranscribeOptions struct {
	// Language is an ISO 639-1 hint ("auto" or empty lets the model
	// detect).
	Language string
	// Prompt biases decoding towards the given vocabulary.
	Prompt string
	// Filename is the upload's original name, used in the multipart
	// form. Empty picks a generic name.
	Filename string
}
