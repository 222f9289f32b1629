//go:build linux

package rebinded

import (
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const mprisPrefix = "org.mpris.MediaPlayer2."

// MPRISBackend talks to MPRIS2-compliant media players over the session
// D-Bus, in the same request/reply style
// Xuanwo-nomad-driver-systemd-nspawn's systemd.go uses for its own
// systemd1/machine1/import1 calls: open a connection once, issue blocking
// method calls against a well-known bus name and object path.
type MPRISBackend struct {
	conn *dbus.Conn
}

// NewMPRISBackend connects to the session bus.
func NewMPRISBackend() (*MPRISBackend, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &MPRISBackend{conn: conn}, nil
}

// Close releases the bus connection.
func (b *MPRISBackend) Close() error {
	return b.conn.Close()
}

// ListCandidates enumerates every currently running MPRIS2 player and
// queries its identity and playback status.
func (b *MPRISBackend) ListCandidates() ([]PlayerCandidate, error) {
	var names []string
	bus := b.conn.BusObject()
	if err := bus.Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, err
	}

	var candidates []PlayerCandidate
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		c, err := b.queryCandidate(name)
		if err != nil {
			// A player that has gone away mid-enumeration is skipped,
			// matching the "query failure never propagates" rule.
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (b *MPRISBackend) queryCandidate(busName string) (PlayerCandidate, error) {
	obj := b.conn.Object(busName, "/org/mpris/MediaPlayer2")

	identity, _ := obj.GetProperty("org.mpris.MediaPlayer2.Identity")
	statusVariant, _ := obj.GetProperty("org.mpris.MediaPlayer2.Player.PlaybackStatus")

	status := StatusStopped
	if statusVariant.Value() != nil {
		switch s, _ := statusVariant.Value().(string); s {
		case "Playing":
			status = StatusPlaying
		case "Paused":
			status = StatusPaused
		}
	}

	idStr := ""
	if identity.Value() != nil {
		idStr, _ = identity.Value().(string)
	}

	return PlayerCandidate{
		ServiceName: busName,
		Identity:    idStr,
		Status:      status,
	}, nil
}

// Send issues a transport command against a specific player.
func (b *MPRISBackend) Send(busName string, cmd MediaCommand) error {
	obj := b.conn.Object(busName, "/org/mpris/MediaPlayer2")
	method := ""
	switch cmd {
	case MediaPlayPause:
		method = "org.mpris.MediaPlayer2.Player.PlayPause"
	case MediaNext:
		method = "org.mpris.MediaPlayer2.Player.Next"
	case MediaPrevious:
		method = "org.mpris.MediaPlayer2.Player.Previous"
	case MediaStop:
		method = "org.mpris.MediaPlayer2.Player.Stop"
	default:
		return nil
	}
	return obj.Call(method, 0).Err
}

// PollLoop refreshes the candidate list at most every 5s and the
// focus/playing history every 0.5s, per the cadence spec'd for the
// background poller, until stop is closed.
func (b *MPRISBackend) PollLoop(selector *TargetSelector, activeWindow func() WindowInfo, stop <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var candidates []PlayerCandidate
	var lastRefresh time.Time

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if now.Sub(lastRefresh) >= 5*time.Second || lastRefresh.IsZero() {
				if c, err := b.ListCandidates(); err == nil {
					candidates = c
				}
				lastRefresh = now
			}
			w := activeWindow()
			for _, c := range candidates {
				if c.Status == StatusPlaying {
					selector.RecordPlaying(c.ServiceName, now)
				}
				if windowMatchesCandidate(w, c) {
					selector.RecordFocus(c.ServiceName, now)
				}
			}
		}
	}
}
