package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/b2tsrl/openwhispr/internal/common/fsutil"
	"github.com/b2tsrl/openwhispr/internal/config"
	"github.com/b2tsrl/openwhispr/internal/daemon"
	"github.com/b2tsrl/openwhispr/internal/httpapi"
	"github.com/b2tsrl/openwhispr/internal/supervisor"
)

func main() {
	// Optional .env in the working directory, loaded before flag
	// defaults are read from the environment.
	_ = godotenv.Load()

	// Flags with environment variable defaults.
	addr := flag.String("addr", envOr("OPENWHISPR_ADDR", "127.0.0.1:8484"), "HTTP listen address, e.g. 127.0.0.1:8484")
	cfgPath := flag.String("config", envOr("OPENWHISPR_CONFIG", ""), "Optional config file (.yaml, .json or .toml)")
	modelsDir := flag.String("models-dir", envOr("OPENWHISPR_MODELS_DIR", "~/.openwhispr/models"), "Directory to scan for whisper model files")
	resourcesDir := flag.String("resources-dir", envOr("OPENWHISPR_RESOURCES_DIR", ""), "Directory holding bundled whisper-server binaries and ffmpeg")
	devBinDir := flag.String("dev-bin-dir", envOr("OPENWHISPR_DEV_BIN_DIR", ""), "Extra binary directory searched first, for development checkouts")
	historyDB := flag.String("history-db", envOr("OPENWHISPR_HISTORY_DB", "~/.openwhispr/history.db"), "Sqlite file for transcription history (empty disables)")
	logLevel := flag.String("log-level", envOr("OPENWHISPR_LOG_LEVEL", "info"), "Log level: trace, debug, info, warn, error")
	logFile := flag.String("log-file", envOr("OPENWHISPR_LOG_FILE", ""), "Log to this file (with rotation) instead of stderr")
	flag.Parse()

	flagSet := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { flagSet[f.Name] = true })

	var fileCfg config.Config
	if *cfgPath != "" {
		var err error
		fileCfg, err = config.Load(expandPath(*cfgPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "whisprd: load config: %v\n", err)
			os.Exit(1)
		}
	}
	// Explicit flags win over the config file; environment variables
	// seed the flag defaults.
	pick := func(name, flagVal, fileVal string) string {
		if flagSet[name] || fileVal == "" {
			return flagVal
		}
		return fileVal
	}
	listenAddr := pick("addr", *addr, fileCfg.Addr)
	level := pick("log-level", *logLevel, fileCfg.LogLevel)
	logPath := pick("log-file", *logFile, fileCfg.LogFile)

	log := newLogger(level, logPath, fileCfg.LogFileMaxMB)

	dcfg := daemon.Config{
		ModelsDir:    expandPath(pick("models-dir", *modelsDir, fileCfg.ModelsDir)),
		HistoryDB:    pick("history-db", *historyDB, fileCfg.HistoryDB),
		HistoryLimit: fileCfg.HistoryLimit,
		Supervisor: supervisor.Config{
			PortStart:        fileCfg.PortStart,
			PortEnd:          fileCfg.PortEnd,
			ResourcesDir:     expandPath(pick("resources-dir", *resourcesDir, fileCfg.ResourcesDir)),
			DevBinDir:        expandPath(pick("dev-bin-dir", *devBinDir, fileCfg.DevBinDir)),
			StartupTimeout:   secs(fileCfg.StartupTimeoutSec),
			StopGrace:        secs(fileCfg.StopGraceSec),
			HealthInterval:   secs(fileCfg.HealthIntervalSec),
			InferenceTimeout: secs(fileCfg.InferenceTimeoutSec),
		},
	}
	// Unconfigured binary dirs fall back to the bundle layout: bin/
	// next to the daemon executable, plus resources/bin in a
	// development checkout.
	if dcfg.Supervisor.ResourcesDir == "" {
		if exe, err := os.Executable(); err == nil {
			dcfg.Supervisor.ResourcesDir = filepath.Join(filepath.Dir(exe), "bin")
		}
	}
	if dcfg.Supervisor.DevBinDir == "" {
		dcfg.Supervisor.DevBinDir = filepath.Join("resources", "bin")
	}
	if dcfg.HistoryDB != "" {
		dcfg.HistoryDB = expandPath(dcfg.HistoryDB)
		if err := os.MkdirAll(filepath.Dir(dcfg.HistoryDB), 0o755); err != nil {
			log.Warn().Err(err).Msg("cannot create history directory, disabling history")
			dcfg.HistoryDB = ""
		}
	}

	d, err := daemon.New(dcfg, log.With().Str("component", "daemon").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("daemon init failed")
	}
	d.SetPublisher(supervisor.NewLogPublisher(log.With().Str("component", "lifecycle").Logger()))

	// Daemon-level context: canceling it aborts in-flight starts and
	// transcriptions during shutdown.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(baseCtx)
	if fileCfg.MaxTranscriptions > 0 {
		httpapi.SetMaxTranscriptions(int64(fileCfg.MaxTranscriptions))
	}
	if origins := splitCSV(envOr("OPENWHISPR_CORS_ORIGINS", "")); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Content-Type", "X-Log-Level"})
	}

	// Warm the accelerator probe and surface the hardware facts once.
	boot := d.Status(baseCtx)
	log.Info().
		Bool("accelerator_present", boot.AcceleratorPresent).
		Bool("accelerated_binary", boot.AcceleratedBinary).
		Str("models_dir", dcfg.ModelsDir).
		Msg("whisprd starting")

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           httpapi.NewMux(d),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", listenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := d.Close(); err != nil {
		log.Warn().Err(err).Msg("daemon close error")
	}
}

// newLogger builds the root logger: pretty console output on a
// terminal, JSON otherwise, rotated file when configured.
func newLogger(level, file string, maxMB int) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if file != "" {
		if maxMB <= 0 {
			maxMB = 20
		}
		w = &lumberjack.Logger{
			Filename:   expandPath(file),
			MaxSize:    maxMB,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	} else if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// envOr returns the environment value when the variable is set (even
// if empty), otherwise def.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// expandPath resolves a leading '~'. When the home directory cannot be
// determined the path is returned as-is and surfaces later as an open
// error.
func expandPath(p string) string {
	out, err := fsutil.ExpandHome(p)
	if err != nil {
		return p
	}
	return out
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

// splitCSV splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
