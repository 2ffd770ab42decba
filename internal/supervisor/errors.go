package supervisor

import (
	"fmt"
	"net/http"
	"time"
)

// Every error type below implements StatusCode so the HTTP layer can
// map supervisor failures without a type switch per route.

// binaryNotFoundError signals that no server binary exists for the
// requested variant.
type binaryNotFoundError struct{ variant string }

func (e binaryNotFoundError) Error() string {
	return fmt.Sprintf("whisper-server binary not found (variant %s)", e.variant)
}
func (e binaryNotFoundError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrBinaryNotFound constructs a binaryNotFoundError.
func ErrBinaryNotFound(variant string) error { return binaryNotFoundError{variant: variant} }

// IsBinaryNotFound reports whether err indicates a missing server binary.
func IsBinaryNotFound(err error) bool {
	_, ok := err.(binaryNotFoundError)
	return ok
}

// modelNotFoundError signals that the requested model file does not exist.
type modelNotFoundError struct{ path string }

func (e modelNotFoundError) Error() string   { return "model file not found: " + e.path }
func (e modelNotFoundError) StatusCode() int { return http.StatusNotFound }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(path string) error { return modelNotFoundError{path: path} }

// IsModelNotFound reports whether err indicates a missing model file.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// noPortAvailableError signals that every port in the configured range
// was taken.
type noPortAvailableError struct{ start, end int }

func (e noPortAvailableError) Error() string {
	return fmt.Sprintf("no free port in range %d-%d", e.start, e.end)
}
func (e noPortAvailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrNoPortAvailable constructs a noPortAvailableError.
func ErrNoPortAvailable(start, end int) error { return noPortAvailableError{start: start, end: end} }

// IsNoPortAvailable reports whether err indicates port-range exhaustion.
func IsNoPortAvailable(err error) bool {
	_, ok := err.(noPortAvailableError)
	return ok
}

// startupFailedError signals that the child spawned but never became
// ready: it exited early or missed the startup deadline.
type startupFailedError struct {
	reason     string
	exitCode   int // -1 when unknown or not exited
	stderrTail string
}

func (e startupFailedError) Error() string {
	msg := "server startup failed: " + e.reason
	if e.stderrTail != "" {
		msg += "; stderr tail: " + e.stderrTail
	}
	return msg
}
func (e startupFailedError) StatusCode() int { return http.StatusInternalServerError }

// ErrStartupFailed constructs a startupFailedError. exitCode -1 means
// the process had not exited (timeout path).
func ErrStartupFailed(reason string, exitCode int, stderrTail string) error {
	return startupFailedError{reason: reason, exitCode: exitCode, stderrTail: stderrTail}
}

// IsStartupFailed reports whether err indicates a failed server start.
func IsStartupFailed(err error) bool {
	_, ok := err.(startupFailedError)
	return ok
}

// processCrashedError signals that the child exited unexpectedly after
// having been ready.
type processCrashedError struct {
	exitCode   int
	stderrTail string
}

func (e processCrashedError) Error() string {
	msg := fmt.Sprintf("server process exited unexpectedly (code %d)", e.exitCode)
	if e.stderrTail != "" {
		msg += "; stderr tail: " + e.stderrTail
	}
	return msg
}
func (e processCrashedError) StatusCode() int { return http.StatusBadGateway }

// ErrProcessCrashed constructs a processCrashedError.
func ErrProcessCrashed(exitCode int, stderrTail string) error {
	return processCrashedError{exitCode: exitCode, stderrTail: stderrTail}
}

// IsProcessCrashed reports whether err indicates an unexpected child exit.
func IsProcessCrashed(err error) bool {
	_, ok := err.(processCrashedError)
	return ok
}

// serverNotRunningError signals a transcription attempt without a
// ready server.
type serverNotRunningError struct{ state State }

func (e serverNotRunningError) Error() string {
	return "server is not running (state " + string(e.state) + ")"
}
func (e serverNotRunningError) StatusCode() int { return http.StatusConflict }

// ErrServerNotRunning constructs a serverNotRunningError.
func ErrServerNotRunning(state State) error { return serverNotRunningError{state: state} }

// IsServerNotRunning reports whether err indicates no running server.
func IsServerNotRunning(err error) bool {
	_, ok := err.(serverNotRunningError)
	return ok
}

// unsupportedFormatError signals a non-WAV payload with no transcoder
// installed to convert it.
type unsupportedFormatError struct{}

func (unsupportedFormatError) Error() string {
	return "audio is not RIFF/WAVE and no transcoder (ffmpeg) is installed"
}
func (unsupportedFormatError) StatusCode() int { return http.StatusUnsupportedMediaType }

// ErrUnsupportedFormat constructs an unsupportedFormatError.
func ErrUnsupportedFormat() error { return unsupportedFormatError{} }

// IsUnsupportedFormat reports whether err indicates an unconvertible
// audio payload.
func IsUnsupportedFormat(err error) bool {
	_, ok := err.(unsupportedFormatError)
	return ok
}

// inferenceError signals a non-2xx response from the inference server.
type inferenceError struct {
	status int
	body   string
}

func (e inferenceError) Error() string {
	return fmt.Sprintf("inference failed with status %d: %s", e.status, e.body)
}
func (e inferenceError) StatusCode() int { return http.StatusBadGateway }

// ErrInference constructs an inferenceError from the upstream status
// and a bounded body excerpt.
func ErrInference(status int, body string) error { return inferenceError{status: status, body: body} }

// IsInference reports whether err is an upstream inference failure.
func IsInference(err error) bool {
	_, ok := err.(inferenceError)
	return ok
}

// malformedResponseError signals a 2xx response whose body could not be
// decoded as a transcription.
type malformedResponseError struct{ cause error }

func (e malformedResponseError) Error() string {
	return "malformed inference response: " + e.cause.Error()
}
func (e malformedResponseError) Unwrap() error   { return e.cause }
func (e malformedResponseError) StatusCode() int { return http.StatusBadGateway }

// ErrMalformedResponse constructs a malformedResponseError.
func ErrMalformedResponse(cause error) error { return malformedResponseError{cause: cause} }

// IsMalformedResponse reports whether err indicates an undecodable
// inference response.
func IsMalformedResponse(err error) bool {
	_, ok := err.(malformedResponseError)
	return ok
}

// requestFailedError signals a transport-level failure talking to the
// inference server.
type requestFailedError struct{ cause error }

func (e requestFailedError) Error() string   { return "inference request failed: " + e.cause.Error() }
func (e requestFailedError) Unwrap() error   { return e.cause }
func (e requestFailedError) StatusCode() int { return http.StatusBadGateway }

// ErrRequestFailed constructs a requestFailedError.
func ErrRequestFailed(cause error) error { return requestFailedError{cause: cause} }

// IsRequestFailed reports whether err is a transport failure.
func IsRequestFailed(err error) bool {
	_, ok := err.(requestFailedError)
	return ok
}

// requestTimedOutError signals that one inference call exceeded its
// deadline.
type requestTimedOutError struct{ timeout time.Duration }

func (e requestTimedOutError) Error() string {
	return fmt.Sprintf("inference request timed out after %s", e.timeout)
}
func (e requestTimedOutError) StatusCode() int { return http.StatusGatewayTimeout }

// ErrRequestTimedOut constructs a requestTimedOutError.
func ErrRequestTimedOut(timeout time.Duration) error { return requestTimedOutError{timeout: timeout} }

// IsRequestTimedOut reports whether err is an inference deadline miss.
func IsRequestTimedOut(err error) bool {
	_, ok := err.(requestTimedOutError)
	return ok
}
