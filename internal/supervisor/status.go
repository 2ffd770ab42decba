package supervisor

import (
	"context"
	"time"

	"github.com/b2tsrl/openwhispr/internal/locate"
	"github.com/b2tsrl/openwhispr/pkg/types"
)

// Status reports the current process state plus environment facts the
// UI needs: whether an accelerator is present and whether the
// accelerated binary is installed.
func (s *Supervisor) Status(ctx context.Context) types.StatusResponse {
	accelPresent := s.gpu.Present(ctx)
	_, accelBin := s.locator.Server(locate.VariantCUDA)

	s.mu.Lock()
	defer s.mu.Unlock()

	st := types.StatusResponse{
		State:              string(s.state),
		LastError:          s.lastErr,
		AcceleratorPresent: accelPresent,
		AcceleratedBinary:  accelBin,
		ServerTimeUnix:     time.Now().Unix(),
		StartsTotal:        s.startsTotal.Load(),
		CrashesTotal:       s.crashesTotal.Load(),
	}
	if c := s.child; c != nil {
		st.PID = c.pid
		st.Port = c.port
		st.ModelPath = c.modelPath
		st.Variant = string(c.variant)
		st.AccelRequested = c.accelRequested
		st.AccelFallback = c.accelFallback
		st.CanConvert = c.canConvert
		st.UptimeSeconds = int64(time.Since(c.startedAt).Seconds())
		st.LastHealthUnix = c.lastHealthUnix
	}
	return st
}
