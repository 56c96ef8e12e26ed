package mcstatus

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the mcsrvstat.us v2 endpoint
	DefaultBaseURL = "https://api.mcsrvstat.us/2"

	userAgent = "mcstatus-bot/1.0"
)

// ErrUnreachable means the server is offline or its status could not be read.
// Transport errors, timeouts, non-200 answers and undecodable bodies all
// collapse into it.
var ErrUnreachable = errors.New("server unreachable")

// statusResponse mirrors the fields of the mcsrvstat.us answer that the card uses
type statusResponse struct {
	Online   bool   `json:"online"`
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
	Protocol any    `json:"protocol"`
	Icon     string `json:"icon"`
	MOTD     *struct {
		Clean []string `json:"clean"`
	} `json:"motd"`
	Players *struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	} `json:"players"`
}

// Client fetches server status from the mcsrvstat.us API
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a status client. Requests time out after timeout and are
// never retried; the caller's schedule is the retry.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &Client{httpClient: client}
}

// Fetch issues one status request for host
func (c *Client) Fetch(ctx context.Context, host string) (*Snapshot, error) {
	var body statusResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("host", host).
		SetResult(&body).
		Get("/{host}")
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrUnreachable, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: API error: status %d", ErrUnreachable, resp.StatusCode())
	}

	if !body.Online {
		return nil, fmt.Errorf("%w: %s is offline", ErrUnreachable, host)
	}

	return normalize(host, &body), nil
}

func normalize(host string, body *statusResponse) *Snapshot {
	snap := &Snapshot{
		Reachable: true,
		Host:      host,
		Name:      orDefault(body.Hostname, host),
		Version:   orDefault(body.Version, Unknown),
		MOTD:      Unknown,
		Protocol:  formatProtocol(body.Protocol),
		Icon:      decodeIcon(body.Icon),
	}

	if body.Players != nil {
		snap.HasPlayers = true
		snap.PlayersOnline = body.Players.Online
		snap.PlayersMax = body.Players.Max
	}

	if body.MOTD != nil {
		lines := make([]string, 0, len(body.MOTD.Clean))
		for _, line := range body.MOTD.Clean {
			lines = append(lines, strings.TrimSpace(line))
		}
		if motd := strings.TrimSpace(strings.Join(lines, "\n")); motd != "" {
			snap.MOTD = motd
		}
	}

	return snap
}

// formatProtocol accepts the numeric v2 form as well as the {version,name}
// object newer API versions return.
func formatProtocol(v any) string {
	switch p := v.(type) {
	case float64:
		return strconv.Itoa(int(p))
	case string:
		return orDefault(p, Unknown)
	case map[string]any:
		if name, ok := p["name"].(string); ok && name != "" {
			return name
		}
		if version, ok := p["version"].(float64); ok {
			return strconv.Itoa(int(version))
		}
	}
	return Unknown
}

// decodeIcon turns a "data:image/png;base64,..." URI into bytes. Anything it
// cannot decode yields nil.
func decodeIcon(icon string) []byte {
	if icon == "" {
		return nil
	}

	payload := icon
	if _, after, ok := strings.Cut(icon, ","); ok {
		payload = after
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
