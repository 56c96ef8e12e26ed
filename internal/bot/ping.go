package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

const probeTimeout = 5 * time.Second

var errNoReply = errors.New("no reply")

// hostProber measures the round trip time to a host
type hostProber func(ctx context.Context, host string) (time.Duration, error)

// probeHost sends a single unprivileged (UDP) echo request to host
func probeHost(ctx context.Context, host string) (time.Duration, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	pinger.Count = 1
	pinger.Timeout = probeTimeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to ping %s: %w", host, err)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("ping %s: %w", host, errNoReply)
	}
	return stats.AvgRtt, nil
}
