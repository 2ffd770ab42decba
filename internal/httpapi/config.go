package httpapi

import "golang.org/x/sync/semaphore"

// maxBodyBytes caps JSON request bodies.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum JSON request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// maxAudioBytes bounds audio uploads on /api/transcribe. Whisper input
// is raw PCM more often than not, so this is far above the JSON limit.
var maxAudioBytes int64 = 64 << 20

// SetMaxAudioBytes allows configuring the maximum audio upload size.
func SetMaxAudioBytes(n int64) {
	if n <= 0 {
		maxAudioBytes = 64 << 20
		return
	}
	maxAudioBytes = n
}

// transcribeSem bounds concurrent transcriptions. The upstream server
// processes one request at a time; overflow is rejected with 429
// instead of queueing minutes-long requests.
var transcribeSem = semaphore.NewWeighted(4)

// SetMaxTranscriptions configures how many transcription requests may
// be in flight at once.
func SetMaxTranscriptions(n int64) {
	if n <= 0 {
		n = 4
	}
	transcribeSem = semaphore.NewWeighted(n)
}

// CORS is opt-in; when disabled the middleware is not mounted at all.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions enables CORS with the given allow-lists.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
