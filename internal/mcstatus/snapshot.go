package mcstatus

import "fmt"

// Unknown replaces upstream fields that were missing or empty
const Unknown = "Unknown"

// Snapshot is the normalized status of a Minecraft server at one poll.
// It is built once per fetch and never modified afterwards.
type Snapshot struct {
	Reachable     bool
	Host          string // the queried address
	Name          string // hostname reported upstream, or Host
	HasPlayers    bool // false when upstream sent no players object
	PlayersOnline int
	PlayersMax    int
	Version       string
	MOTD          string
	Protocol      string
	Icon          []byte // PNG bytes, nil when absent or undecodable
}

// Players returns the "online/max" label shown on the status card, or
// Unknown when the server did not report players
func (s *Snapshot) Players() string {
	if !s.HasPlayers {
		return Unknown
	}
	return fmt.Sprintf("%d/%d", s.PlayersOnline, s.PlayersMax)
}

// HasIcon reports whether the snapshot carries a decoded server icon
func (s *Snapshot) HasIcon() bool {
	return len(s.Icon) > 0
}
