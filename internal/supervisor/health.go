package supervisor

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// probe checks whether the server answers HTTP on port. Any response
// counts as alive: depending on the build, whisper-server serves an
// HTML page or a 404 at its root.
func (s *Supervisor) probe(ctx context.Context, port int) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.HealthTimeout)
	defer cancel()
	url := "http://" + net.JoinHostPort(s.cfg.Host, strconv.Itoa(port)) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
	_ = resp.Body.Close()
	return true
}

// monitor re-probes the child on HealthInterval and flips the state
// between ready and degraded. It exits when stop is closed or the
// child is reaped.
func (s *Supervisor) monitor(c *child, stop <-chan struct{}) {
	t := time.NewTicker(s.cfg.HealthInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case <-t.C:
		}

		alive := s.probe(context.Background(), c.port)

		s.mu.Lock()
		if s.child != c {
			s.mu.Unlock()
			return
		}
		if alive {
			c.lastHealthUnix = time.Now().Unix()
			if s.state == StateDegraded {
				s.state = StateReady
				s.mu.Unlock()
				s.log.Info().Int("pid", c.pid).Msg("whisper-server health recovered")
				s.publisher.Publish(Event{Name: EventHealthRecovered, Model: c.modelPath})
				continue
			}
		} else if s.state == StateReady {
			s.state = StateDegraded
			s.mu.Unlock()
			s.log.Warn().Int("pid", c.pid).Msg("whisper-server health probe failed")
			s.publisher.Publish(Event{Name: EventHealthDegraded, Model: c.modelPath})
			continue
		}
		s.mu.Unlock()
	}
}
