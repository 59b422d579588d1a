package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const roomIDLength = 8

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces the uuid based room id generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// Registry owns every live room. Its lock only guards the map; each
// session has its own lock and the registry lock is always taken first.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rules    Rules
	now      func() time.Time
	newID    func() string
	logger   *zap.Logger
}

func NewRegistry(rules Rules, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		rules:    rules,
		now:      time.Now,
		newID:    func() string { return uuid.NewString()[:roomIDLength] },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Rules() Rules { return r.rules }

// Now はレジストリの時計
func (r *Registry) Now() time.Time { return r.now() }

// Create は新しいルームを作り、ルームIDとホスト用シークレットを返す
func (r *Registry) Create() (roomID, hostSecret string) {
	hostSecret = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	// 衝突しないIDが出るまで生成し直す
	for {
		roomID = r.newID()
		if _, exists := r.sessions[roomID]; !exists {
			break
		}
	}
	r.sessions[roomID] = newSession(roomID, hostSecret, r.rules, r.now, r.logger)
	r.logger.Info("room created", zap.String("roomID", roomID), zap.Int("rooms", len(r.sessions)))
	return roomID, hostSecret
}

func (r *Registry) Get(roomID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[roomID]
	return s, ok
}

// Remove closes a room immediately, e.g. when its host disconnects.
func (r *Registry) Remove(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[roomID]
	if !ok {
		return false
	}
	s.close()
	delete(r.sessions, roomID)
	r.logger.Info("room removed", zap.String("roomID", roomID))
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) RoomIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Sweep evicts rooms idle for longer than roomIdle and drops users idle for
// longer than playerIdle. A room left without players or spectators is
// evicted as well. It returns the evicted room ids.
func (r *Registry) Sweep(now time.Time, roomIdle, playerIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, s := range r.sessions {
		dropped, evict := s.pruneIdle(now, roomIdle, playerIdle)
		if len(dropped) > 0 {
			r.logger.Info("inactive users removed", zap.String("roomID", id), zap.Strings("users", dropped))
		}
		if evict {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	if len(evicted) > 0 {
		r.logger.Info("inactive rooms removed", zap.Strings("roomIDs", evicted), zap.Int("rooms", len(r.sessions)))
	}
	return evicted
}
