package supervisor

import "time"

// Defaults applied when corresponding Config fields are unset.
const (
	defaultHost              = "127.0.0.1"
	defaultPortStart         = 8090
	defaultPortEnd           = 8110
	defaultStartupTimeout    = 30 * time.Second
	defaultReadinessInterval = 250 * time.Millisecond
	defaultHealthInterval    = 10 * time.Second
	defaultHealthTimeout     = 2 * time.Second
	defaultStopGrace         = 5 * time.Second
	defaultInferenceTimeout  = 10 * time.Minute
)

// stderrTailLimit bounds the retained child stderr used in failure
// diagnostics.
const stderrTailLimit = 8 * 1024

// Config encapsulates all tunables for Supervisor construction.
type Config struct {
	// Host the child binds to. Always a loopback address.
	Host string
	// PortStart..PortEnd is the inclusive port range scanned for a
	// free port, ascending.
	PortStart int
	PortEnd   int
	// ResourcesDir holds the bundled server binaries and ffmpeg.
	ResourcesDir string
	// DevBinDir is an optional extra binary directory for development
	// checkouts.
	DevBinDir string
	// Threads passed to the child via --threads; 0 lets it decide.
	Threads int

	// StartupTimeout bounds the wait for the child to become ready.
	StartupTimeout time.Duration
	// ReadinessInterval is the delay between readiness probes.
	ReadinessInterval time.Duration
	// HealthInterval is the period of the background health monitor.
	HealthInterval time.Duration
	// HealthTimeout bounds each individual health probe.
	HealthTimeout time.Duration
	// StopGrace is how long a SIGTERM may take before SIGKILL.
	StopGrace time.Duration
	// InferenceTimeout bounds one /inference round trip. Whisper on
	// CPU with a large model is slow, so this is generous.
	InferenceTimeout time.Duration
}

// withDefaults returns cfg with unset fields replaced by package
// defaults.
func (cfg Config) withDefaults() Config {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.PortStart <= 0 {
		cfg.PortStart = defaultPortStart
	}
	if cfg.PortEnd < cfg.PortStart {
		cfg.PortEnd = cfg.PortStart + (defaultPortEnd - defaultPortStart)
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ReadinessInterval <= 0 {
		cfg.ReadinessInterval = defaultReadinessInterval
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = defaultHealthTimeout
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = defaultInferenceTimeout
	}
	return cfg
}
