package telemetry

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform classifies the origin of an inbound request by user agent.
type Platform string

const (
	PlatformRoblox  Platform = "roblox"
	PlatformWeb     Platform = "web"
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform classifies a user agent string. Game clients identify
// themselves with a roblox token; everything browser-like counts as web.
func DetectPlatform(userAgent string) Platform {
	if strings.Contains(strings.ToLower(userAgent), "roblox") {
		return PlatformRoblox
	}
	if strings.Contains(userAgent, "Mozilla") ||
		strings.Contains(userAgent, "Chrome") ||
		strings.Contains(userAgent, "Safari") {
		return PlatformWeb
	}
	return PlatformUnknown
}

// Entry is one immutable usage log record.
type Entry struct {
	ID             string    `json:"id"`
	Endpoint       string    `json:"endpoint"`
	Method         string    `json:"method"`
	UserAgent      string    `json:"userAgent"`
	IP             string    `json:"ip"`
	Timestamp      time.Time `json:"timestamp"`
	ResponseTimeMs int64     `json:"responseTime"`
	StatusCode     int       `json:"statusCode"`
	Platform       Platform  `json:"platform"`
	GameID         string    `json:"gameId,omitempty"`
	UserID         string    `json:"userId,omitempty"`
}

// NewEntry assigns an id and derives the platform from the user agent.
func NewEntry(endpoint, method, userAgent, ip string, timestamp time.Time, responseTime time.Duration, statusCode int) Entry {
	return Entry{
		ID:             uuid.NewString(),
		Endpoint:       endpoint,
		Method:         method,
		UserAgent:      userAgent,
		IP:             ip,
		Timestamp:      timestamp,
		ResponseTimeMs: responseTime.Milliseconds(),
		StatusCode:     statusCode,
		Platform:       DetectPlatform(userAgent),
	}
}

// Success reports whether the entry counts toward the success ratio.
func (e Entry) Success() bool {
	return e.StatusCode >= 200 && e.StatusCode < 400
}
