package supervisor

import (
	"net/http"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/b2tsrl/openwhispr/internal/gpu"
	"github.com/b2tsrl/openwhispr/internal/locate"
)

// Supervisor manages at most one whisper-server child process.
type Supervisor struct {
	cfg       Config
	log       zerolog.Logger
	locator   *locate.Locator
	gpu       *gpu.Prober
	publisher EventPublisher
	// Intentionally Timeout=0: probes and inference calls carry their
	// own context deadlines.
	httpClient *http.Client

	mu      sync.Mutex
	state   State
	child   *child
	pending *startOp
	lastErr string
	closed  bool

	startsTotal  atomic.Uint64
	crashesTotal atomic.Uint64
}

// child is the handle for one spawned server process. Once the process
// is reaped, done is closed and waitErr holds the Wait result.
type child struct {
	cmd  *exec.Cmd
	pid  int
	port int

	modelPath      string
	variant        locate.Variant
	accelRequested bool
	accelFallback  bool
	canConvert     bool

	startedAt      time.Time
	lastHealthUnix int64 // guarded by Supervisor.mu

	stdout *captureWriter
	stderr *captureWriter

	monitorStop chan struct{} // guarded by Supervisor.mu; nil once closed

	done    chan struct{}
	waitErr error // valid after done is closed
}

// startOp is the shared handle for one in-flight start. Concurrent
// callers await done and read err afterwards.
type startOp struct {
	done chan struct{}
	err  error
}

// New constructs a Supervisor. Unset Config fields get package
// defaults.
func New(cfg Config, log zerolog.Logger) *Supervisor {
	cfg = cfg.withDefaults()
	return &Supervisor{
		cfg: cfg,
		log: log,
		locator: locate.New(cfg.ResourcesDir, cfg.DevBinDir,
			log.With().Str("component", "locate").Logger()),
		gpu:        gpu.New(log.With().Str("component", "gpu").Logger()),
		publisher:  noopPublisher{},
		httpClient: &http.Client{Timeout: 0},
		state:      StateStopped,
	}
}

// SetPublisher installs an EventPublisher. Call before the first Start.
func (s *Supervisor) SetPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.publisher = p
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether a server process is serving (ready or
// degraded).
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady || s.state == StateDegraded
}

// InvalidateAccelerated drops the cached CUDA binary path, used after
// an accelerated bundle is installed or removed mid-session.
func (s *Supervisor) InvalidateAccelerated() {
	s.locator.InvalidateAccelerated()
}

// exitCode reads the child's exit code after done is closed; -1 when
// unknown.
func exitCode(c *child) int {
	if st := c.cmd.ProcessState; st != nil {
		return st.ExitCode()
	}
	return -1
}
