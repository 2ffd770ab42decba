package supervisor

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"
)

// Stop shuts down the running server if there is one. A start in
// flight settles first so the two operations never race for the same
// process. Stopping an already stopped supervisor is a no-op.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	op := s.pending
	s.mu.Unlock()
	if op != nil {
		select {
		case <-op.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	c := s.child
	if c == nil {
		s.state = StateStopped
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	s.mu.Unlock()

	s.log.Info().
		Int("pid", c.pid).
		Str("model", c.modelPath).
		Msg("stopping whisper-server")
	s.terminate(c)
	s.publisher.Publish(Event{
		Name:  EventStop,
		Model: c.modelPath,
		Fields: map[string]any{
			"pid":    c.pid,
			"uptime": time.Since(c.startedAt).String(),
		},
	})
	return nil
}

// Close stops the supervisor for good. Further Start calls fail.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.Stop(context.Background())
}

// terminate asks the child to exit with SIGTERM and escalates to
// SIGKILL after StopGrace. It returns once the watcher has reaped the
// process.
func (s *Supervisor) terminate(c *child) {
	s.mu.Lock()
	if c.monitorStop != nil {
		close(c.monitorStop)
		c.monitorStop = nil
	}
	s.mu.Unlock()

	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			s.log.Debug().Int("pid", c.pid).Msg("process already finished")
		} else {
			s.log.Warn().Err(err).Int("pid", c.pid).Msg("SIGTERM failed")
		}
	}
	select {
	case <-c.done:
	case <-time.After(s.cfg.StopGrace):
		s.log.Warn().
			Int("pid", c.pid).
			Dur("grace", s.cfg.StopGrace).
			Msg("whisper-server ignored SIGTERM, killing")
		_ = c.cmd.Process.Kill()
		<-c.done
	}
}
