package policy

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ActionLogCapacity bounds the admin action log.
const ActionLogCapacity = 1000

var (
	apiEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexus_api_enabled",
		Help: "Whether the proxy currently accepts aggregation requests (1 enabled, 0 disabled)",
	})
	blockedEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexus_blocked_entities",
		Help: "Current number of blocked game or session entities",
	})
	adminActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_admin_actions_total",
		Help: "Administrative actions performed against the proxy",
	}, []string{"action"})
)

// Status is the global API enabled flag with toggle provenance.
type Status struct {
	mu          sync.RWMutex
	enabled     bool
	lastToggled time.Time
	toggledBy   string
	logger      zerolog.Logger
}

// StatusSnapshot is a point-in-time read of the flag.
type StatusSnapshot struct {
	Enabled     bool      `json:"enabled"`
	LastToggled time.Time `json:"lastToggled"`
	ToggledBy   string    `json:"toggledBy"`
}

// NewStatus creates the flag in the enabled state.
func NewStatus(logger zerolog.Logger) *Status {
	apiEnabled.Set(1)
	return &Status{
		enabled:     true,
		lastToggled: time.Now(),
		toggledBy:   "system",
		logger:      logger,
	}
}

// Enabled reports whether aggregation requests are accepted.
func (s *Status) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Toggle sets the flag and records who changed it.
func (s *Status) Toggle(enabled bool, by string) {
	s.mu.Lock()
	s.enabled = enabled
	s.lastToggled = time.Now()
	s.toggledBy = by
	s.mu.Unlock()

	if enabled {
		apiEnabled.Set(1)
	} else {
		apiEnabled.Set(0)
	}
	s.logger.Info().Bool("enabled", enabled).Str("by", by).Msg("api status toggled")
}

// Snapshot returns the current flag state.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{
		Enabled:     s.enabled,
		LastToggled: s.lastToggled,
		ToggledBy:   s.toggledBy,
	}
}

// BlockedEntity is one blocked game or session.
type BlockedEntity struct {
	Key       string    `json:"key"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blockedAt"`
	BlockedBy string    `json:"blockedBy"`
}

// BlockList is the keyed set of blocked entities. Game blocks use the
// GameKey form; session blocks use the raw session id.
type BlockList struct {
	mu      sync.RWMutex
	entries map[string]BlockedEntity
	logger  zerolog.Logger
}

// NewBlockList creates an empty block list.
func NewBlockList(logger zerolog.Logger) *BlockList {
	return &BlockList{
		entries: make(map[string]BlockedEntity),
		logger:  logger,
	}
}

// GameKey derives the block-list key for a game id.
func GameKey(gameID string) string {
	return "game_" + gameID
}

// Block adds an entity to the list, overwriting an existing block.
func (b *BlockList) Block(key, reason, by string) {
	b.mu.Lock()
	b.entries[key] = BlockedEntity{
		Key:       key,
		Reason:    reason,
		BlockedAt: time.Now(),
		BlockedBy: by,
	}
	count := len(b.entries)
	b.mu.Unlock()

	blockedEntities.Set(float64(count))
	b.logger.Info().Str("key", key).Str("reason", reason).Str("by", by).Msg("entity blocked")
}

// Unblock removes an entity; removing an absent key is a no-op.
func (b *BlockList) Unblock(key string) {
	b.mu.Lock()
	delete(b.entries, key)
	count := len(b.entries)
	b.mu.Unlock()

	blockedEntities.Set(float64(count))
	b.logger.Info().Str("key", key).Msg("entity unblocked")
}

// IsBlocked reports whether a key is in the list.
func (b *BlockList) IsBlocked(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, blocked := b.entries[key]
	return blocked
}

// List returns all blocked entities in unspecified order.
func (b *BlockList) List() []BlockedEntity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]BlockedEntity, 0, len(b.entries))
	for _, entity := range b.entries {
		out = append(out, entity)
	}
	return out
}

// ActionEntry is one recorded administrative action.
type ActionEntry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performedBy"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActionLog is the bounded, newest-first log of administrative actions.
type ActionLog struct {
	mu      sync.RWMutex
	entries []ActionEntry
}

// NewActionLog creates an empty action log.
func NewActionLog() *ActionLog {
	return &ActionLog{entries: make([]ActionEntry, 0, ActionLogCapacity)}
}

// Record prepends an action, dropping the oldest past capacity.
func (l *ActionLog) Record(action, performedBy, details string) {
	entry := ActionEntry{
		ID:          uuid.NewString(),
		Action:      action,
		PerformedBy: performedBy,
		Details:     details,
		Timestamp:   time.Now(),
	}

	l.mu.Lock()
	l.entries = append(l.entries, ActionEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	if len(l.entries) > ActionLogCapacity {
		l.entries = l.entries[:ActionLogCapacity]
	}
	l.mu.Unlock()

	adminActions.WithLabelValues(action).Inc()
}

// Entries returns all recorded actions, newest first.
func (l *ActionLog) Entries() []ActionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ActionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
