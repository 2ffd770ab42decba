// Package supervisor owns the lifecycle of the local whisper-server
// process: binary selection, spawning, readiness, ongoing health,
// transcription calls, and shutdown. It is structured into small files
// by concern:
//
//   - supervisor.go: core Supervisor type, constructor, simple getters.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: lifecycle State and TranscribeOptions.
//   - errors.go: error types and helpers (IsModelNotFound, IsServerNotRunning, ...).
//   - ports.go: loopback port allocation within the configured range.
//   - capture.go: bounded capture of child stdout/stderr.
//   - start.go: Start entry point, single-flight coordination, spawn and
//     readiness wait.
//   - stop.go: graceful stop with SIGTERM, then SIGKILL after a grace period.
//   - health.go: liveness probe and the background health monitor.
//   - transcribe.go: multipart /inference client and response decoding.
//   - status.go: StatusResponse snapshot for the HTTP layer.
//   - metrics.go: prometheus series for starts, crashes, and inference.
//   - events.go: lifecycle event publishing.
//
// At most one whisper-server child exists at a time. External packages
// should treat this package as the process-orchestration layer and use
// public methods only (New, Start, Stop, Status, Transcribe, Close).
package supervisor
