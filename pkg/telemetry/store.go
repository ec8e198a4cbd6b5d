package telemetry

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultCapacity bounds the usage log; the oldest entries are dropped
	// silently once the log is full.
	DefaultCapacity = 10000

	// RecentLogMaxLimit caps how many entries one RecentLog read returns.
	RecentLogMaxLimit = 500

	// healthSampleSize is how many recent entries per endpoint feed the
	// health classification.
	healthSampleSize = 100

	// healthErrorThreshold is the error count above which a sampled
	// endpoint is classified degraded.
	healthErrorThreshold = 10
)

// KnownEndpoints are the logical endpoints reported by EndpointHealth,
// including those that have never been hit.
var KnownEndpoints = []string{
	"/api/roblox/user",
	"/api/roblox/universes",
	"/api/roblox/gamepasses",
	"/api/roblox/clothing",
	"/api/roblox/ugc",
	"/api/roblox/all-assets",
}

// HealthStatus classifies one endpoint from its recent entries.
type HealthStatus string

const (
	HealthUnknown  HealthStatus = "unknown"
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
)

// Stats are the derived rolling-window figures of the usage log.
type Stats struct {
	TotalRequests24h  int            `json:"totalRequests24h"`
	RequestsPerHour   int            `json:"requestsPerHour"`
	RequestsPerMinute int            `json:"requestsPerMinute"`
	PlatformCounts    map[string]int `json:"platformCounts"`
	EndpointCounts    map[string]int `json:"endpointCounts"`
	AvgResponseTimeMs int64          `json:"avgResponseTime"`
	SuccessRate       float64        `json:"successRate"`
}

// EndpointHealth is the classification of one logical endpoint derived from
// its most recent entries.
type EndpointHealth struct {
	Endpoint          string       `json:"endpoint"`
	Status            HealthStatus `json:"status"`
	AvgResponseTimeMs int64        `json:"avgResponseTime"`
	RecentRequests    int          `json:"recentRequests"`
	ErrorRate         int          `json:"errorRate"`
}

// Store is the append-only, capacity-bounded usage log. Entries are held
// newest first; all reporting figures are computed on read.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	logger   zerolog.Logger
}

// NewStore creates a usage log with the given capacity; zero or negative
// selects DefaultCapacity.
func NewStore(capacity int, logger zerolog.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Record prepends an entry, dropping the oldest once the log is full.
func (s *Store) Record(entry Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, Entry{})
	copy(s.entries[1:], s.entries)
	s.entries[0] = entry
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
	count := len(s.entries)
	s.mu.Unlock()

	requestsRecorded.WithLabelValues(entry.Endpoint, strconv.Itoa(entry.StatusCode), string(entry.Platform)).Inc()
	requestDuration.WithLabelValues(entry.Endpoint).Observe(float64(entry.ResponseTimeMs) / 1000)
	logEntries.Set(float64(count))

	s.logger.Debug().
		Str("endpoint", entry.Endpoint).
		Int("status", entry.StatusCode).
		Str("platform", string(entry.Platform)).
		Int64("duration_ms", entry.ResponseTimeMs).
		Msg("request recorded")
}

// Len returns the current number of entries in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RecentLog returns up to limit newest entries; limit is clamped to
// RecentLogMaxLimit.
func (s *Store) RecentLog(limit int) []Entry {
	if limit <= 0 || limit > RecentLogMaxLimit {
		limit = RecentLogMaxLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]Entry, limit)
	copy(out, s.entries[:limit])
	return out
}

// Stats derives the rolling-window figures relative to now. An empty 24h
// window reports a success rate of 100.
func (s *Store) Stats(now time.Time) Stats {
	last24h := now.Add(-24 * time.Hour)
	lastHour := now.Add(-time.Hour)
	lastMinute := now.Add(-time.Minute)

	stats := Stats{
		PlatformCounts: make(map[string]int),
		EndpointCounts: make(map[string]int),
		SuccessRate:    100,
	}

	var totalResponseTime int64
	var successes int

	s.mu.RLock()
	for _, entry := range s.entries {
		if !entry.Timestamp.After(last24h) {
			continue
		}
		stats.TotalRequests24h++
		stats.PlatformCounts[string(entry.Platform)]++
		stats.EndpointCounts[entry.Endpoint]++
		totalResponseTime += entry.ResponseTimeMs
		if entry.Success() {
			successes++
		}
		if entry.Timestamp.After(lastHour) {
			stats.RequestsPerHour++
		}
		if entry.Timestamp.After(lastMinute) {
			stats.RequestsPerMinute++
		}
	}
	s.mu.RUnlock()

	if stats.TotalRequests24h > 0 {
		stats.AvgResponseTimeMs = int64(math.Round(float64(totalResponseTime) / float64(stats.TotalRequests24h)))
		stats.SuccessRate = math.Round(float64(successes)/float64(stats.TotalRequests24h)*100*100) / 100
	}
	return stats
}

// EndpointHealths classifies every known endpoint from its most recent
// entries. Endpoints with no entries are unknown rather than healthy.
func (s *Store) EndpointHealths() []EndpointHealth {
	s.mu.RLock()
	samples := make(map[string][]Entry, len(KnownEndpoints))
	for _, entry := range s.entries {
		if len(samples[entry.Endpoint]) < healthSampleSize {
			samples[entry.Endpoint] = append(samples[entry.Endpoint], entry)
		}
	}
	s.mu.RUnlock()

	out := make([]EndpointHealth, 0, len(KnownEndpoints))
	for _, endpoint := range KnownEndpoints {
		sample := samples[endpoint]
		health := EndpointHealth{
			Endpoint:       endpoint,
			Status:         HealthUnknown,
			RecentRequests: len(sample),
		}
		if len(sample) > 0 {
			var errorCount int
			var totalTime int64
			for _, entry := range sample {
				if entry.StatusCode >= 400 {
					errorCount++
				}
				totalTime += entry.ResponseTimeMs
			}
			health.Status = HealthHealthy
			if errorCount > healthErrorThreshold {
				health.Status = HealthDegraded
			}
			health.AvgResponseTimeMs = int64(math.Round(float64(totalTime) / float64(len(sample))))
			health.ErrorRate = int(math.Round(float64(errorCount) / float64(len(sample)) * 100))
		}
		out = append(out, health)
	}
	return out
}
