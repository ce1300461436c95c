package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/telemetry"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	tracer   trace.Tracer
	logger   zerolog.Logger
	now      func() time.Time
	mu       sync.RWMutex
}

// Option customizes a GameService
type Option func(*gameServiceImpl)

// WithTracer sets the tracer used for per-operation spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *gameServiceImpl) { s.tracer = tracer }
}

// WithLogger sets the logger; the global zerolog logger is used otherwise
func WithLogger(logger zerolog.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = logger }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		tracer:   telemetry.Tracer("service"),
		logger:   log.Logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session on the named map, or the default map
func (s *gameServiceImpl) CreateSession(ctx context.Context, mapName string) (info *SessionInfo, err error) {
	ctx, span := s.startSpan(ctx, "CreateSession", attribute.String("map.name", mapName))
	defer func() { endSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mapID := strings.TrimSpace(mapName)
	if mapID == "" {
		mapID = s.configs.DefaultName()
	}

	// Load configuration
	board, err := s.configs.LoadBoard(mapID)
	if err != nil {
		// Provide helpful error message with available options
		if available := s.availableMaps(); len(available) > 0 {
			return nil, fmt.Errorf("failed to load map '%s' (available maps: %s): %w",
				mapID, strings.Join(available, ", "), err)
		}
		return nil, fmt.Errorf("failed to load map '%s': %w", mapID, err)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", mapID, board)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	span.SetAttributes(attribute.String("session.id", sess.ID))
	state := sess.Engine.GetState()
	s.logger.Info().
		Str("session", sess.ID).
		Str("map", mapID).
		Str("start", state.Start).
		Str("destination", state.Destination).
		Msg("game started")

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (info *SessionInfo, err error) {
	_, span := s.startSpan(ctx, "GetSession", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) (infos []*SessionInfo, err error) {
	_, span := s.startSpan(ctx, "ListSessions")
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for i := range sessions {
		result = append(result, sessionInfo(&sessions[i]))
	}

	span.SetAttributes(attribute.Int("session.count", len(result)))
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) (err error) {
	_, span := s.startSpan(ctx, "DeleteSession", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session '%s': %w", sessionID, err)
	}
	return nil
}

// Execute parses and applies one player command
func (s *gameServiceImpl) Execute(ctx context.Context, sessionID, command string) (result *CommandResult, err error) {
	ctx, span := s.startSpan(ctx, "Execute",
		attribute.String("session.id", sessionID),
		attribute.String("command.input", command))
	defer func() { endSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd, err := engine.ParseCommand(command)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("command", string(cmd)))

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	before := sess.Engine.GetState()
	after, applied := sess.Engine.Execute(cmd)
	snapshot := sess.Engine.Snapshot()

	result = &CommandResult{
		Command:  cmd,
		Applied:  applied,
		Snapshot: &snapshot,
		Message:  after.Message,
		Events:   s.buildEvents(cmd, before, after, applied),
		LastMove: sess.Engine.GetLastMove(),
	}

	span.SetAttributes(
		attribute.Bool("command.applied", applied),
		attribute.Int("game.moves", len(after.Moves)),
		attribute.Bool("game.completed", after.Completed),
	)
	s.logger.Debug().
		Str("session", sess.ID).
		Str("command", string(cmd)).
		Bool("applied", applied).
		Str("heading", after.Heading.String()).
		Int("row", after.Position.Row).
		Int("col", after.Position.Col).
		Msg("command executed")
	if after.Completed && !before.Completed {
		s.logger.Info().
			Str("session", sess.ID).
			Str("destination", after.Destination).
			Int("moves", len(after.Moves)).
			Msg("game completed")
	}

	return result, nil
}

// Reset starts a new game in an existing session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (snapshot *engine.Snapshot, err error) {
	_, span := s.startSpan(ctx, "Reset", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset()
	s.logger.Info().
		Str("session", sess.ID).
		Str("start", state.Start).
		Str("destination", state.Destination).
		Msg("game reset")

	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// GetGameState returns the current snapshot of a session's game
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (snapshot *engine.Snapshot, err error) {
	_, span := s.startSpan(ctx, "GetGameState", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// GetMoveHistory returns one page of the move log
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (resp *HistoryResponse, err error) {
	_, span := s.startSpan(ctx, "GetMoveHistory",
		attribute.String("session.id", sessionID),
		attribute.Int("history.page", opts.Page),
		attribute.Int("history.limit", opts.Limit),
		attribute.String("history.order", opts.Order))
	defer func() { endSpan(span, err) }()

	opts, err = normalizeHistoryOptions(opts)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

// Hint plans the shortest way to finish the game from its current state
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (hint *HintResult, err error) {
	_, span := s.startSpan(ctx, "Hint", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	near := sess.Engine.IsNearDestination()
	route, ok := sess.Engine.Hint()
	if !ok {
		return &HintResult{
			Route:           []engine.Command{},
			NearDestination: near,
			Message:         "The game is already completed. Start a new game to play again.",
		}, nil
	}

	span.SetAttributes(attribute.Int("hint.steps", route.Len()))

	state := sess.Engine.GetState()
	board := sess.Engine.GetBoard()
	dest, _ := board.Landmark(state.Destination)
	var message string
	if near {
		message = fmt.Sprintf("You're in the %s's column. Try %s.", state.Destination, route.Next())
	} else {
		message = fmt.Sprintf("%d commands to reach the %s. Next: %s.", route.Len(), state.Destination, route.Next())
	}

	return &HintResult{
		Next:            route.Next(),
		Route:           []engine.Command(route),
		Steps:           route.Len(),
		ColumnsAway:     engine.ColumnDistance(board, state),
		Distance:        engine.ManhattanDistance(state.Position, dest.Position()),
		NearDestination: near,
		Message:         message,
	}, nil
}

// ListConfigs returns available map configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) (configs []*ConfigInfo, err error) {
	_, span := s.startSpan(ctx, "ListConfigs")
	defer func() { endSpan(span, err) }()

	return s.configs.ListConfigs()
}

// LoadConfig loads a specific map configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, mapName string) (config *engine.MapConfig, err error) {
	_, span := s.startSpan(ctx, "LoadConfig", attribute.String("map.name", mapName))
	defer func() { endSpan(span, err) }()

	return s.configs.LoadConfig(mapName)
}

// lookup marks a session accessed and returns a copy of its metadata; called
// with s.mu held, which also serializes access to the shared engine
func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Touch(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session '%s': %w", sessionID, err)
	}
	return &sess, nil
}

// availableMaps lists map identifiers for error messages
func (s *gameServiceImpl) availableMaps() []string {
	configs, err := s.configs.ListConfigs()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(configs))
	for _, c := range configs {
		ids = append(ids, c.ConfigID)
	}
	return ids
}

// buildEvents describes what a command did
func (s *gameServiceImpl) buildEvents(cmd engine.Command, before, after engine.GameState, applied bool) []GameEvent {
	now := s.now()
	event := func(typ, msg string) GameEvent {
		return GameEvent{
			Type:      typ,
			Message:   msg,
			Timestamp: now,
			Position:  after.Position,
			Heading:   after.Heading,
		}
	}

	if cmd == engine.CommandReset {
		return []GameEvent{event(EventReset,
			fmt.Sprintf("New game: from %s to %s", after.Start, after.Destination))}
	}

	if before.Completed {
		return []GameEvent{event(EventRejected, "Game already completed. Start a new game.")}
	}

	switch cmd {
	case engine.CommandAdvance:
		if !applied {
			return []GameEvent{event(EventRejected, "Can't go straight: edge of the map")}
		}
		return []GameEvent{event(EventMove,
			fmt.Sprintf("Moved to (%d,%d)", after.Position.Row, after.Position.Col))}

	case engine.CommandTurnLeft, engine.CommandTurnRight:
		return []GameEvent{event(EventTurn, "Now facing "+after.Heading.Label())}

	case engine.CommandJudgeLeft, engine.CommandJudgeRight:
		if !applied {
			return []GameEvent{event(EventRejected, after.Message)}
		}
		events := []GameEvent{event(EventJudgment, after.Moves[len(after.Moves)-1].Description)}
		if after.Completed {
			events = append(events, event(EventCompleted, after.Message))
		}
		return events
	}

	return []GameEvent{}
}

func (s *gameServiceImpl) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func sessionInfo(sess *Session) *SessionInfo {
	snap := sess.Engine.Snapshot()
	return &SessionInfo{
		ID:             sess.ID,
		MapName:        sess.MapName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Snapshot:       &snap,
	}
}

// normalizeHistoryOptions applies defaults and bounds
func normalizeHistoryOptions(opts HistoryOptions) (HistoryOptions, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > engine.MaxHistoryLimit {
		opts.Limit = engine.MaxHistoryLimit
	}

	opts.Order = strings.ToLower(strings.TrimSpace(opts.Order))
	switch opts.Order {
	case "":
		opts.Order = OrderDesc
	case OrderAsc, OrderDesc:
	default:
		return opts, fmt.Errorf("invalid order '%s': use 'asc' or 'desc'", opts.Order)
	}
	return opts, nil
}

// paginateHistory slices history according to already normalized options
func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	// Get the slice of moves
	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == OrderDesc {
			// Reverse order (most recent first)
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}
