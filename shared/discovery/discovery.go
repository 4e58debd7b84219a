// Package discovery implements multicast worker discovery: periodic
// announcer datagrams from each worker, and the orchestrator's bounded
// listening window that freezes the roster once it closes.
package discovery

import (
	"bytes"
	"context"
	"encoding/gob"
	"log"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/shared/wire"
)

// AdvertiseAddr derives the address a worker should announce for addr. A
// listener bound on the unspecified address reports "[::]:PORT", which
// peers on another host cannot dial; substitute the host's first
// non-loopback IPv4, falling back to loopback for a single-host setup.
func AdvertiseAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || (tcp.IP != nil && !tcp.IP.IsUnspecified()) {
		return addr.String()
	}

	host := "127.0.0.1"
	if ifaceAddrs, err := net.InterfaceAddrs(); err == nil {
		for _, a := range ifaceAddrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil || ipNet.IP.IsLoopback() {
				continue
			}
			host = ipNet.IP.String()
			break
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}

// Announcer periodically multicasts a worker's Announcement. Pause stops the
// datagrams without stopping the loop, so a later Resume (triggered by a
// Registration control message) picks the announcements back up.
type Announcer struct {
	paused atomic.Bool
}

// NewAnnouncer returns an Announcer in the announcing (unpaused) state.
func NewAnnouncer() *Announcer {
	return &Announcer{}
}

// Pause silences the announcer. Sent by the orchestrator as a Deregistration
// once the discovery roster freezes.
func (a *Announcer) Pause() {
	a.paused.Store(true)
}

// Resume lets the announcer multicast again.
func (a *Announcer) Resume() {
	a.paused.Store(false)
}

// Run multicasts an Announcement for (role, addr) every cfg.AnnounceEvery
// until ctx is cancelled, skipping ticks while paused. It never returns nil;
// callers run it in a goroutine and log the error on exit.
func (a *Announcer) Run(ctx context.Context, cfg config.Config, role wire.Role, addr string) error {
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: cfg.MulticastGroup, Port: cfg.MulticastPort})
	if err != nil {
		return err
	}
	defer conn.Close()

	msg := wire.Announcement{Role: role, Addr: addr}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return err
	}
	payload := buf.Bytes()

	ticker := time.NewTicker(cfg.AnnounceEvery)
	defer ticker.Stop()

	log.Printf("discovery: announcing %s worker at %s every %s", role, addr, cfg.AnnounceEvery)
	for {
		if !a.paused.Load() {
			if _, err := conn.Write(payload); err != nil {
				log.Printf("discovery: announce failed: %v", err)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
// Roster is the frozen set of workers the orchestrator discovered, keyed by
// role.
type Roster struct {
	ObjectWorkers []string
	RayWorkers    []string
}

// Listen opens the discovery group and collects announcements until the
// window closes: cfg.QuietWindow elapses without any announcement datagram
// arriving (a repeat of an already-seen pair also restarts the quiet
// window), or cfg.AbsoluteCap is reached, whichever comes first. Duplicate
// pairs are not added to the roster again.
func Listen(ctx context.Context, cfg config.Config) (Roster, error) {
	conn, err := net.ListenMulticastUDP("udp4", nil, &net.UDPAddr{IP: cfg.MulticastGroup, Port: cfg.MulticastPort})
	if err != nil {
		return Roster{}, err
	}
	defer conn.Close()

	deadline := time.Now().Add(cfg.AbsoluteCap)
	conn.SetReadDeadline(deadline)

	seen := make(map[wire.Announcement]bool)
	var roster Roster

	buf := make([]byte, 1024)
	for {
		select {
		case <-ctx.Done():
			return roster, ctx.Err()
		default:
		}

		quietDeadline := time.Now().Add(cfg.QuietWindow)
		if quietDeadline.Before(deadline) {
			conn.SetReadDeadline(quietDeadline)
		} else {
			conn.SetReadDeadline(deadline)
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			return roster, err
		}

		var msg wire.Announcement
		if err := gob.NewDecoder(bytes.NewReader(buf[:n])).Decode(&msg); err != nil {
			log.Printf("discovery: dropped malformed announcement: %v", err)
			continue
		}
		if seen[msg] {
			continue
		}
		seen[msg] = true

		switch msg.Role {
		case wire.RoleObject:
			roster.ObjectWorkers = append(roster.ObjectWorkers, msg.Addr)
		case wire.RoleRay:
			roster.RayWorkers = append(roster.RayWorkers, msg.Addr)
		}
		log.Printf("discovery: found %s worker at %s (object=%d ray=%d)", msg.Role, msg.Addr, len(roster.ObjectWorkers), len(roster.RayWorkers))

		if time.Now().After(deadline) {
			break
		}
	}

	log.Printf("discovery: window closed, roster object=%v ray=%v", roster.ObjectWorkers, roster.RayWorkers)
	return roster, nil
}
