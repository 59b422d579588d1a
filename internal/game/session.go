package game

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const maxUsernameLength = 20

// Session is one room. Every exported method takes the session lock, so
// rooms progress independently of each other.
type Session struct {
	mu     sync.Mutex
	id     string
	secret string
	rules  Rules
	now    func() time.Time
	logger *zap.Logger

	closed       bool
	host         string
	players      []string
	spectators   []string
	seen         map[string]time.Time
	state        State
	config       RoundConfig
	currentRound int
	results      []RoundResult
	round        *Round
	createdAt    time.Time
	lastActiveAt time.Time
}

func newSession(id, secret string, rules Rules, now func() time.Time, logger *zap.Logger) *Session {
	at := now()
	return &Session{
		id:           id,
		secret:       secret,
		rules:        rules,
		now:          now,
		logger:       logger.With(zap.String("roomID", id)),
		seen:         make(map[string]time.Time),
		state:        StateLobby,
		config:       rules.defaultConfig(),
		createdAt:    at,
		lastActiveAt: at,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) checkSecret(secret string) error {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// open は破棄済みのルームへの操作を弾く
func (s *Session) open() error {
	if s.closed {
		return ErrRoomNotFound
	}
	return nil
}

func (s *Session) touch(username string, at time.Time) {
	s.lastActiveAt = at
	if username != "" {
		s.seen[username] = at
	}
}

func (s *Session) roleOf(username string) (Role, bool) {
	if username == s.host && s.host != "" {
		return RoleHost, true
	}
	if indexOf(s.players, username) >= 0 {
		return RolePlayer, true
	}
	if indexOf(s.spectators, username) >= 0 {
		return RoleSpectator, true
	}
	return 0, false
}

// Role は username の現在の役割を返す
func (s *Session) Role(username string) (Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roleOf(username)
}

func (s *Session) Host() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

// Join adds a user to the room. The first user becomes the host. A player
// request is downgraded to spectator when the table is full or a round is
// being played.
func (s *Session) Join(username string, asSpectator bool) (JoinOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return JoinOutcome{}, err
	}

	username = strings.TrimSpace(username)
	if username == "" || !utf8.ValidString(username) || utf8.RuneCountInString(username) > maxUsernameLength {
		return JoinOutcome{}, newError(KindInvalidInput,
			fmt.Sprintf("username must be 1 to %d characters", maxUsernameLength))
	}
	if _, taken := s.roleOf(username); taken {
		return JoinOutcome{}, newError(KindInvalidInput, "username already taken in this room")
	}

	var role Role
	switch {
	case s.host == "":
		s.host = username
		role = RoleHost
	case asSpectator || len(s.players) >= s.rules.MaxPlayers || s.state == StateActive:
		s.spectators = append(s.spectators, username)
		role = RoleSpectator
	default:
		s.players = append(s.players, username)
		role = RolePlayer
	}
	s.touch(username, s.now())

	return JoinOutcome{
		Username:   username,
		Role:       role,
		Host:       s.host,
		Players:    append([]string(nil), s.players...),
		Spectators: append([]string(nil), s.spectators...),
	}, nil
}

// ChangeRole moves a user between players and spectators. The host keeps
// its seat.
func (s *Session) ChangeRole(username string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}

	current, ok := s.roleOf(username)
	if !ok {
		return ErrUserNotFound
	}
	if current == RoleHost {
		return newError(KindInvalidInput, "host cannot change role")
	}
	if role != RolePlayer && role != RoleSpectator {
		return newError(KindInvalidInput, "role must be player or spectator")
	}
	if role == RolePlayer && current != RolePlayer && len(s.players) >= s.rules.MaxPlayers {
		return newError(KindInvalidState, "player limit reached")
	}
	now := s.now()
	s.touch(username, now)
	if role == current {
		return nil
	}

	if role == RolePlayer {
		s.spectators = remove(s.spectators, username)
		s.players = append(s.players, username)
	} else {
		s.players = remove(s.players, username)
		s.spectators = append(s.spectators, username)
	}
	s.playersChanged(now)
	return nil
}

// Leave removes a player or spectator from the room.
func (s *Session) Leave(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	role, ok := s.roleOf(username)
	if !ok {
		return ErrUserNotFound
	}
	if role == RoleHost {
		return newError(KindInvalidInput, "host cannot leave; close the room instead")
	}
	s.removeUser(username)
	s.playersChanged(s.now())
	return nil
}

// Touch records activity for a connected user.
func (s *Session) Touch(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	if _, ok := s.roleOf(username); !ok {
		return ErrUserNotFound
	}
	s.touch(username, s.now())
	return nil
}

func (s *Session) removeUser(username string) {
	s.players = remove(s.players, username)
	s.spectators = remove(s.spectators, username)
	delete(s.seen, username)
}

// playersChanged はラウンド中にプレイヤー構成が変わったらコインを配り直す
func (s *Session) playersChanged(at time.Time) {
	if s.state != StateActive || s.round == nil {
		return
	}
	if len(s.players) == 0 {
		s.logger.Info("no players left, returning to lobby", zap.Int("round", s.currentRound))
		s.resetRounds()
		return
	}
	s.round = newRound(s.currentRound, s.players, s.rules.TotalCoins, s.round.ledger.BatchSize(), at)
	s.logger.Info("players changed, round restarted",
		zap.Int("round", s.currentRound), zap.Strings("players", s.players))
}

// ConfigureRound stores the host's round configuration. Only allowed in the
// lobby; it clears any previous results.
func (s *Session) ConfigureRound(secret string, cfg RoundConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	if err := s.checkSecret(secret); err != nil {
		return err
	}
	if s.state != StateLobby {
		return newError(KindInvalidState, "round configuration can only change in the lobby")
	}
	cfg, err := s.rules.checkConfig(cfg)
	if err != nil {
		return err
	}
	s.config = cfg
	s.currentRound = 0
	s.results = nil
	s.touch("", s.now())
	return nil
}

// Start begins the first round.
func (s *Session) Start(secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	if err := s.checkSecret(secret); err != nil {
		return err
	}
	if s.state != StateLobby {
		return newError(KindInvalidState, "game already started")
	}
	if len(s.players) < s.config.RequiredPlayers {
		return newError(KindInvalidState,
			fmt.Sprintf("need %d players to start, have %d", s.config.RequiredPlayers, len(s.players)))
	}
	if s.currentRound >= len(s.rules.Sequence(s.config)) {
		return newError(KindInvalidState, "no rounds left to play")
	}
	s.beginRound()
	return nil
}

// StartNext begins the following round of the sequence.
func (s *Session) StartNext(secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	if err := s.checkSecret(secret); err != nil {
		return err
	}
	if s.state != StateRoundComplete {
		return newError(KindInvalidState, "no completed round to continue from")
	}
	if s.currentRound >= len(s.rules.Sequence(s.config)) {
		return newError(KindInvalidState, "no rounds left to play")
	}
	if len(s.players) == 0 {
		return newError(KindInvalidState, "no players in room")
	}
	s.beginRound()
	return nil
}

func (s *Session) beginRound() {
	now := s.now()
	s.currentRound++
	batch := s.rules.Sequence(s.config)[s.currentRound-1]
	s.round = newRound(s.currentRound, s.players, s.rules.TotalCoins, batch, now)
	s.state = StateActive
	s.touch("", now)
	s.logger.Info("round started",
		zap.Int("round", s.currentRound),
		zap.Int("batchSize", batch),
		zap.Int("players", len(s.players)),
	)
}

func (s *Session) playable(username string) error {
	if err := s.open(); err != nil {
		return err
	}
	if s.state != StateActive || s.round == nil {
		return ErrNotActive
	}
	if indexOf(s.players, username) < 0 {
		return ErrNotAPlayer
	}
	return nil
}

// Flip turns one of the player's coins active.
func (s *Session) Flip(username string, index int) (ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.playable(username); err != nil {
		return ActionResult{}, err
	}
	now := s.now()
	if err := s.round.Flip(username, index, now); err != nil {
		return ActionResult{}, err
	}
	s.touch(username, now)
	return s.settle(now, SentBatch{}), nil
}

// Send passes one batch of active coins to the next player.
func (s *Session) Send(username string) (ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.playable(username); err != nil {
		return ActionResult{}, err
	}
	now := s.now()
	batch, err := s.round.Send(username, now)
	if err != nil {
		return ActionResult{}, err
	}
	s.touch(username, now)
	return s.settle(now, batch), nil
}

// settle はアクション後にラウンド終了を判定して結果を組み立てる
func (s *Session) settle(at time.Time, batch SentBatch) ActionResult {
	var finished *RoundResult
	if s.round.IsOver() {
		result := s.round.complete(at)
		s.results = append(s.results, result)
		// 履歴と呼び出し側でTimersの配列を共有しない
		out := result
		out.Timers = append([]PlayerTimer(nil), result.Timers...)
		finished = &out
		if s.currentRound < len(s.rules.Sequence(s.config)) {
			s.state = StateRoundComplete
		} else {
			s.state = StateResults
		}
		s.logger.Info("round complete",
			zap.Int("round", result.RoundNumber),
			zap.Duration("duration", result.Duration),
			zap.Duration("leadTime", result.LeadTime),
			zap.Bool("gameOver", s.state == StateResults),
		)
	}

	r := s.round
	return ActionResult{
		Success:        true,
		RoundComplete:  finished != nil,
		GameOver:       s.state == StateResults,
		Coins:          r.ledger.Holdings(),
		Sent:           r.ledger.History(),
		TotalCompleted: r.ledger.TotalCompleted(),
		State:          s.state,
		CurrentRound:   s.currentRound,
		Timers:         r.timers.Snapshot(),
		LeadTime:       r.LeadTime(),
		GameDuration:   r.Duration(),
		Batch:          batch,
		Result:         finished,
	}
}

// Reset returns the room to the lobby. Roster and round configuration stay.
func (s *Session) Reset(secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	if err := s.checkSecret(secret); err != nil {
		return err
	}
	s.resetRounds()
	s.touch("", s.now())
	s.logger.Info("game reset")
	return nil
}

func (s *Session) resetRounds() {
	s.state = StateLobby
	s.round = nil
	s.currentRound = 0
	s.results = nil
}

// Snapshot copies the whole room state.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		RoomID:       s.id,
		Host:         s.host,
		Players:      append([]string(nil), s.players...),
		Spectators:   append([]string(nil), s.spectators...),
		State:        s.state,
		Config:       s.config,
		CurrentRound: s.currentRound,
		BatchSizes:   s.rules.Sequence(s.config),
		RoundResults: copyResults(s.results),
		CreatedAt:    s.createdAt,
		LastActiveAt: s.lastActiveAt,
		Coins:        map[string][]bool{},
		Sent:         map[string][]SentBatch{},
	}
	snap.TotalRounds = len(snap.BatchSizes)
	if r := s.round; r != nil {
		snap.BatchSize = r.ledger.BatchSize()
		snap.Coins = r.ledger.Holdings()
		snap.Sent = r.ledger.History()
		snap.TotalCompleted = r.ledger.TotalCompleted()
		snap.InactiveRemaining = r.ledger.InactiveRemaining()
		snap.Timers = r.timers.Snapshot()
		snap.LeadTime = r.LeadTime()
		snap.GameDuration = r.Duration()
	}
	return snap, nil
}

// close marks the session evicted. Called by the registry under its lock.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// pruneIdle は playerIdle を超えて無反応のプレイヤーと観戦者を外す。
// ルーム自体が roomIdle を超えているか、外した結果誰もいなくなれば
// セッションを閉じて evict を返す。
func (s *Session) pruneIdle(now time.Time, roomIdle, playerIdle time.Duration) (removed []string, evict bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	if now.Sub(s.lastActiveAt) > roomIdle {
		s.closed = true
		return nil, true
	}

	for _, name := range append(append([]string(nil), s.players...), s.spectators...) {
		if now.Sub(s.seen[name]) > playerIdle {
			s.removeUser(name)
			removed = append(removed, name)
		}
	}
	if len(removed) == 0 {
		return nil, false
	}
	if len(s.players)+len(s.spectators) == 0 {
		s.closed = true
		return removed, true
	}
	s.playersChanged(now)
	return removed, false
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return -1
}

func remove(list []string, name string) []string {
	i := indexOf(list, name)
	if i < 0 {
		return list
	}
	return append(list[:i:i], list[i+1:]...)
}
