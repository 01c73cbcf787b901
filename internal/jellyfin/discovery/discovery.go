// Package discovery finds media servers on the local network.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	broadcastAddr = "255.255.255.255:7359"
	probeMessage  = "who is JellyfinServer?"
	defaultTTL    = 5 * time.Minute
)

// Server is a media server that answered the discovery probe.
type Server struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	LastSeen time.Time `json:"last_seen"`
}

type probeResponse struct {
	Address         string `json:"Address"`
	ID              string `json:"Id"`
	Name            string `json:"Name"`
	EndpointAddress string `json:"EndpointAddress"`
}

// Discovery broadcasts probes and caches the servers that answer.
type Discovery struct {
	timeout time.Duration
	ttl     time.Duration
	target  string

	mu      sync.RWMutex
	servers map[string]*Server // keyed by server id
}

// NewDiscovery creates a new Discovery instance.
func NewDiscovery(timeout time.Duration) *Discovery {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &Discovery{
		timeout: timeout,
		ttl:     defaultTTL,
		target:  broadcastAddr,
		servers: make(map[string]*Server),
	}
}

// Discover probes the network and returns every server that answered
// before the timeout.
func (d *Discovery) Discover(ctx context.Context) ([]*Server, error) {
	addr, err := net.ResolveUDPAddr("udp4", d.target)
	if err != nil {
		return nil, fmt.Errorf("resolve probe addr: %w", err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(d.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetReadDeadline(deadline)

	if _, err := conn.WriteToUDP([]byte(probeMessage), addr); err != nil {
		return nil, fmt.Errorf("send probe: %w", err)
	}

	var servers []*Server
	seen := make(map[string]bool)
	buf := make([]byte, 2048)

	for {
		select {
		case <-ctx.Done():
			return servers, ctx.Err()
		default:
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}
			continue
		}

		server, err := parseResponse(buf[:n])
		if err != nil || seen[server.ID] {
			continue
		}
		seen[server.ID] = true
		server.LastSeen = time.Now()
		servers = append(servers, server)

		d.mu.Lock()
		d.servers[server.ID] = server
		d.mu.Unlock()
	}

	return servers, nil
}

// Cached returns a previously discovered server by id or name.
func (d *Discovery) Cached(identifier string) *Server {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if s, ok := d.servers[identifier]; ok && time.Since(s.LastSeen) < d.ttl {
		return s
	}
	for _, s := range d.servers {
		if time.Since(s.LastSeen) < d.ttl && strings.EqualFold(s.Name, identifier) {
			return s
		}
	}
	return nil
}

func parseResponse(data []byte) (*Server, error) {
	var resp probeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.Address == "" {
		return nil, fmt.Errorf("incomplete discovery response")
	}
	return &Server{
		ID:      resp.ID,
		Name:    resp.Name,
		Address: strings.TrimRight(resp.Address, "/"),
	}, nil
}
