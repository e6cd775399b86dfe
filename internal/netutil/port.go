// Package netutil picks the API listen address, falling back to nearby
// ports when the configured one is taken.
package netutil

import (
	"fmt"
	"net"
	"strconv"
)

// PickPort probes host:port and up to attempts-1 successors, returning the
// first port that can be listened on.
func PickPort(host string, port, attempts int) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	for p := port; p < port+attempts; p++ {
		if addrAvailable(net.JoinHostPort(host, strconv.Itoa(p))) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("no free port between %d and %d on %s", port, port+attempts-1, host)
}

func addrAvailable(addr string) bool {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
