package supervisor

import (
	"net"
	"strconv"
)

// pickPortInRange returns the first port in [start, end] that accepts a
// loopback bind, scanning ascending. Best effort: the probe listener is
// closed again before the child binds.
func pickPortInRange(host string, start, end int) (int, error) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return p, nil
	}
	return 0, ErrNoPortAvailable(start, end)
}
