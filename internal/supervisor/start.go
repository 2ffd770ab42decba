package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/b2tsrl/openwhispr/internal/common/fsutil"
	"github.com/b2tsrl/openwhispr/internal/locate"
	"github.com/b2tsrl/openwhispr/pkg/types"
)

// Start brings up a whisper-server for the requested model. Only one
// start runs at a time: callers arriving while one is in flight await
// it and share its outcome. If a server is already ready with the same
// model and accelerator preference, Start returns immediately.
//
// The spawn itself is not bound to ctx: once underway it runs to
// readiness or to StartupTimeout, so that a caller hanging up does not
// strand joined callers.
func (s *Supervisor) Start(ctx context.Context, req types.StartRequest) error {
	if strings.TrimSpace(req.ModelPath) == "" {
		return errors.New("modelPath is empty")
	}
	modelPath, err := fsutil.ExpandHome(req.ModelPath)
	if err != nil {
		return fmt.Errorf("resolve model path: %w", err)
	}
	req.ModelPath = modelPath

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("supervisor is closed")
	}
	if op := s.pending; op != nil {
		s.mu.Unlock()
		select {
		case <-op.done:
			return op.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c := s.child; c != nil && s.state == StateReady &&
		c.modelPath == req.ModelPath &&
		c.accelRequested == req.UseGPU {
		s.mu.Unlock()
		return nil
	}
	op := &startOp{done: make(chan struct{})}
	s.pending = op
	s.mu.Unlock()

	err = s.doStart(req)

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	op.err = err
	close(op.done)
	return err
}

func (s *Supervisor) doStart(req types.StartRequest) error {
	// A different model or accelerator preference replaces the running
	// server: stop the old child before spawning the new one.
	s.mu.Lock()
	cur := s.child
	if cur != nil {
		s.state = StateStopping
	}
	s.mu.Unlock()
	if cur != nil {
		s.log.Info().
			Str("model", cur.modelPath).
			Int("pid", cur.pid).
			Msg("stopping server before restart")
		s.terminate(cur)
	}

	s.mu.Lock()
	s.state = StateStarting
	s.mu.Unlock()

	err := s.spawnAndWaitReady(req)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		if s.child == nil {
			s.state = StateStopped
		}
		s.mu.Unlock()
	}
	return err
}

func (s *Supervisor) spawnAndWaitReady(req types.StartRequest) error {
	modelPath := req.ModelPath
	if !fsutil.PathExists(modelPath) {
		return ErrModelNotFound(modelPath)
	}

	variant := locate.VariantCPU
	accelFallback := false
	var binPath string
	if req.UseGPU {
		if p, ok := s.locator.Server(locate.VariantCUDA); ok {
			binPath = p
			variant = locate.VariantCUDA
		} else {
			accelFallback = true
			s.log.Warn().Msg("accelerated server binary not installed, falling back to CPU")
			s.publisher.Publish(Event{
				Name:  EventAccelFallback,
				Model: modelPath,
			})
		}
	}
	if binPath == "" {
		p, ok := s.locator.Server(locate.VariantCPU)
		if !ok {
			return ErrBinaryNotFound(string(locate.VariantCPU))
		}
		binPath = p
	}

	port, err := pickPortInRange(s.cfg.Host, s.cfg.PortStart, s.cfg.PortEnd)
	if err != nil {
		return err
	}

	ffmpegPath, canConvert := s.locator.Transcoder()

	args := []string{
		"--model", modelPath,
		"--host", s.cfg.Host,
		"--port", strconv.Itoa(port),
	}
	threads := req.Threads
	if threads <= 0 {
		threads = s.cfg.Threads
	}
	if threads > 0 {
		args = append(args, "--threads", strconv.Itoa(threads))
	}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if canConvert {
		args = append(args, "--convert")
	}

	cmd := exec.Command(binPath, args...)
	cmd.Env = childEnv(os.Environ(), filepath.Dir(binPath), ffmpegPath)
	stdout := newCaptureWriter(s.log, "stdout", 0)
	stderr := newCaptureWriter(s.log, "stderr", 0)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	s.log.Info().
		Str("bin", binPath).
		Str("model", modelPath).
		Str("variant", string(variant)).
		Int("port", port).
		Bool("convert", canConvert).
		Msg("spawning whisper-server")
	if err := cmd.Start(); err != nil {
		return ErrStartupFailed("spawn: "+err.Error(), -1, "")
	}

	c := &child{
		cmd:            cmd,
		pid:            cmd.Process.Pid,
		port:           port,
		modelPath:      modelPath,
		variant:        variant,
		accelRequested: req.UseGPU,
		accelFallback:  accelFallback,
		canConvert:     canConvert,
		startedAt:      time.Now(),
		stdout:         stdout,
		stderr:         stderr,
		done:           make(chan struct{}),
	}
	s.mu.Lock()
	s.child = c
	s.mu.Unlock()
	s.publisher.Publish(Event{
		Name:  EventSpawnStart,
		Model: modelPath,
		Fields: map[string]any{
			"pid":     c.pid,
			"port":    port,
			"variant": string(variant),
		},
	})
	go s.watch(c)

	if err := s.waitReady(c); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateReady
	s.lastErr = ""
	c.lastHealthUnix = time.Now().Unix()
	stop := make(chan struct{})
	c.monitorStop = stop
	s.mu.Unlock()
	s.startsTotal.Add(1)
	metricStarts.WithLabelValues(string(variant)).Inc()
	go s.monitor(c, stop)

	s.log.Info().
		Int("pid", c.pid).
		Int("port", port).
		Dur("took", time.Since(c.startedAt)).
		Msg("whisper-server ready")
	s.publisher.Publish(Event{
		Name:  EventSpawnReady,
		Model: modelPath,
		Fields: map[string]any{
			"pid":  c.pid,
			"port": port,
		},
	})
	return nil
}

// waitReady polls the child's HTTP endpoint until it answers, the
// process exits, or StartupTimeout passes.
func (s *Supervisor) waitReady(c *child) error {
	deadline := time.Now().Add(s.cfg.StartupTimeout)
	for {
		select {
		case <-c.done:
			code := exitCode(c)
			metricStartFailures.Inc()
			return ErrStartupFailed(
				fmt.Sprintf("server exited before becoming ready (exit code %d)", code),
				code, c.stderr.Tail())
		default:
		}
		if time.Now().After(deadline) {
			s.log.Error().
				Int("pid", c.pid).
				Dur("timeout", s.cfg.StartupTimeout).
				Msg("whisper-server not ready in time, killing")
			s.publisher.Publish(Event{Name: EventSpawnTimeout, Model: c.modelPath})
			_ = c.cmd.Process.Kill()
			<-c.done
			metricStartFailures.Inc()
			return ErrStartupFailed(
				fmt.Sprintf("server not ready within %s", s.cfg.StartupTimeout),
				-1, c.stderr.Tail())
		}
		if s.probe(context.Background(), c.port) {
			return nil
		}
		select {
		case <-c.done:
		case <-time.After(s.cfg.ReadinessInterval):
		}
	}
}

// watch reaps the child and owns post-exit cleanup. Every spawned
// process gets exactly one watcher.
func (s *Supervisor) watch(c *child) {
	werr := c.cmd.Wait()
	c.stdout.Flush()
	c.stderr.Flush()

	s.mu.Lock()
	c.waitErr = werr
	owned := s.child == c
	crashed := false
	if owned {
		s.child = nil
		if c.monitorStop != nil {
			close(c.monitorStop)
			c.monitorStop = nil
		}
		crashed = s.state == StateReady || s.state == StateDegraded
		s.state = StateStopped
		if crashed {
			s.lastErr = ErrProcessCrashed(exitCode(c), c.stderr.Tail()).Error()
		}
	}
	s.mu.Unlock()

	code := exitCode(c)
	if crashed {
		s.crashesTotal.Add(1)
		metricCrashes.Inc()
		s.log.Error().
			Int("pid", c.pid).
			Int("exit_code", code).
			Str("stderr_tail", c.stderr.Tail()).
			Msg("whisper-server exited unexpectedly")
	} else {
		s.log.Info().
			Int("pid", c.pid).
			Int("exit_code", code).
			Msg("whisper-server exited")
	}
	if owned {
		s.publisher.Publish(Event{
			Name:  EventSpawnExit,
			Model: c.modelPath,
			Fields: map[string]any{
				"pid":       c.pid,
				"exit_code": code,
				"crashed":   crashed,
			},
		})
	}
	close(c.done)
}

// childEnv augments the parent environment so the server finds its
// shared libraries and bundled tools. The server directory and the
// transcoder directory are prepended to PATH; on Linux the server
// directory is also prepended to LD_LIBRARY_PATH.
func childEnv(base []string, serverDir, ffmpegPath string) []string {
	pathDirs := []string{serverDir}
	if ffmpegPath != "" {
		if d := filepath.Dir(ffmpegPath); d != serverDir {
			pathDirs = append(pathDirs, d)
		}
	}
	env := prependEnvList(base, "PATH", pathDirs)
	if runtime.GOOS == "linux" {
		env = prependEnvList(env, "LD_LIBRARY_PATH", []string{serverDir})
	}
	return env
}

// prependEnvList prepends dirs to the list-valued variable name,
// keeping any existing value after the new entries.
func prependEnvList(env []string, name string, dirs []string) []string {
	prefix := strings.Join(dirs, string(os.PathListSeparator))
	key := name + "="
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if !found && strings.HasPrefix(kv, key) {
			found = true
			val := kv[len(key):]
			if val != "" {
				val = prefix + string(os.PathListSeparator) + val
			} else {
				val = prefix
			}
			out = append(out, key+val)
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, key+prefix)
	}
	return out
}
