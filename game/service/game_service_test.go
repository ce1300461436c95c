package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wricardo/mcp-training/citynav/game/config"
	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
	"github.com/wricardo/mcp-training/citynav/game/session"
)

var (
	errMockNotFound    = errors.New("session not found")
	errMockMapNotFound = errors.New("configuration not found")
)

// seqSource replays draws in order
type seqSource struct {
	draws []int
	i     int
}

func (s *seqSource) IntN(n int) int {
	v := s.draws[s.i%len(s.draws)]
	s.i++
	return v % n
}

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	draws    []int
}

// NewMockSessionManager creates sessions whose first game is always
// Book Store (5,3) -> Megi cafe (1,1)
func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		draws:    []int{17, 0, 5, 16},
	}
}

func (m *MockSessionManager) Create(id, mapName string, board *engine.Board) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(board, &seqSource{draws: m.draws})
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		MapName:        mapName,
		Engine:         eng,
		Board:          board,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errMockNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, mapName string, board *engine.Board) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, mapName, board)
}

func (m *MockSessionManager) List() []service.Session {
	result := make([]service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, *session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errMockNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) Touch(id string) (service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return *session, nil
	}
	return service.Session{}, errMockNotFound
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.MapConfig
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*engine.MapConfig{
			engine.DefaultMapName: engine.DefaultMapConfig(),
			"tiny": {
				Name: "Tiny",
				Rows: 2,
				Cols: 2,
				Landmarks: []engine.Landmark{
					{Name: "A", Row: 0, Col: 0},
					{Name: "B", Row: 1, Col: 1},
				},
			},
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.MapConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errMockMapNotFound
	}
	return config, nil
}

func (m *MockConfigManager) LoadBoard(name string) (*engine.Board, error) {
	config, err := m.LoadConfig(name)
	if err != nil {
		return nil, err
	}
	return engine.NewBoard(config)
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{
		{ConfigID: engine.DefaultMapName, Name: engine.DefaultMapName, Rows: 7, Cols: 9, Landmarks: 24, BuiltIn: true},
		{ConfigID: "tiny", Name: "Tiny", Rows: 2, Cols: 2, Landmarks: 2},
	}, nil
}

func (m *MockConfigManager) DefaultName() string {
	return engine.DefaultMapName
}

func newTestService(t *testing.T, opts ...service.Option) (service.GameService, *MockSessionManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	opts = append([]service.Option{service.WithLogger(zerolog.Nop())}, opts...)
	return service.NewGameService(sessions, NewMockConfigManager(), opts...), sessions
}

func eventTypes(events []service.GameEvent) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestGameService_CreateSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("default map", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, engine.DefaultMapName, info.MapName)
		require.NotNil(t, info.Snapshot)
		assert.Equal(t, "Book Store", info.Snapshot.Start)
		assert.Equal(t, "Megi cafe", info.Snapshot.Destination)
		assert.Equal(t, engine.East, info.Snapshot.Heading)
		assert.Equal(t, engine.StatusInProgress, info.Snapshot.Status)
	})

	t.Run("named map", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "tiny")
		require.NoError(t, err)
		assert.Equal(t, "tiny", info.MapName)
		assert.Equal(t, 2, info.Snapshot.Rows)
	})

	t.Run("unknown map lists alternatives", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "atlantis")
		require.Error(t, err)
		assert.ErrorIs(t, err, errMockMapNotFound)
		assert.Contains(t, err.Error(), "bookstore, tiny")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.CreateSession(cancelled, "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGameService_Execute(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	// Book Store (5,3) facing East, Megi cafe at (1,1)
	steps := []struct {
		command     string
		wantApplied bool
		wantEvents  []string
		wantMessage string
	}{
		{"judge_left", false, []string{service.EventRejected}, engine.DefaultTooFarMessage},
		// Feedback stays on screen until the next judgment replaces it
		{"left", true, []string{service.EventTurn}, engine.DefaultTooFarMessage},
		{"turn_left", true, []string{service.EventTurn}, engine.DefaultTooFarMessage},
		{"straight", true, []string{service.EventMove}, engine.DefaultTooFarMessage},
		{"go", true, []string{service.EventMove}, engine.DefaultTooFarMessage},
		{"on_left", true, []string{service.EventJudgment}, engine.DefaultLeftWrongMessage},
		{"judge_right", true, []string{service.EventJudgment, service.EventCompleted}, "🎉 Perfect! The Megi cafe is on your right!"},
		{"advance", false, []string{service.EventRejected}, "🎉 Perfect! The Megi cafe is on your right!"},
	}

	for _, step := range steps {
		result, err := svc.Execute(ctx, info.ID, step.command)
		require.NoError(t, err, step.command)
		assert.Equal(t, step.wantApplied, result.Applied, step.command)
		assert.Equal(t, step.wantEvents, eventTypes(result.Events), step.command)
		assert.Equal(t, step.wantMessage, result.Message, step.command)
	}

	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, engine.StatusCompleted, state.Status)
	assert.Equal(t, []string{
		engine.LogTurnLeft,
		engine.LogTurnLeft,
		engine.LogGoStraight,
		engine.LogGoStraight,
		engine.LogLeftWrong,
		engine.LogRightCorrect,
	}, state.Moves)
}

func TestGameService_ExecuteAtEdge(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "")

	// Row 5 facing South: one step to the bottom edge, then blocked
	_, err := svc.Execute(ctx, info.ID, "right")
	require.NoError(t, err)

	moved, err := svc.Execute(ctx, info.ID, "advance")
	require.NoError(t, err)
	assert.True(t, moved.Applied)
	assert.Equal(t, engine.Position{Row: 6, Col: 3}, moved.Snapshot.Position)
	require.NotNil(t, moved.LastMove)
	assert.Equal(t, 2, moved.LastMove.MoveNumber)

	blocked, err := svc.Execute(ctx, info.ID, "advance")
	require.NoError(t, err)
	assert.False(t, blocked.Applied)
	assert.Equal(t, []string{service.EventRejected}, eventTypes(blocked.Events))
	assert.Equal(t, engine.Position{Row: 6, Col: 3}, blocked.Snapshot.Position)
	assert.Len(t, blocked.Snapshot.Moves, 2)
}

func TestGameService_ExecuteErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "")

	_, err := svc.Execute(ctx, info.ID, "fly")
	assert.ErrorIs(t, err, engine.ErrUnknownCommand)

	_, err = svc.Execute(ctx, "missing", "advance")
	assert.ErrorIs(t, err, errMockNotFound)
}

func TestGameService_Reset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "")

	_, err := svc.Execute(ctx, info.ID, "advance")
	require.NoError(t, err)

	snapshot, err := svc.Reset(ctx, info.ID)
	require.NoError(t, err)
	// Second draw pair: SCHOOL -> Book Store
	assert.Equal(t, "SCHOOL", snapshot.Start)
	assert.Equal(t, "Book Store", snapshot.Destination)
	assert.Empty(t, snapshot.Moves)
	assert.Equal(t, engine.Position{Row: 2, Col: 3}, snapshot.Position)
	assert.True(t, snapshot.NearDestination)

	result, err := svc.Execute(ctx, info.ID, "new_game")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, []string{service.EventReset}, eventTypes(result.Events))
	assert.Equal(t, "Book Store", result.Snapshot.Start)

	_, err = svc.Reset(ctx, "missing")
	assert.Error(t, err)
}

func TestGameService_GetMoveHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "")

	for i := 0; i < 5; i++ {
		_, err := svc.Execute(ctx, info.ID, "turn_right")
		require.NoError(t, err)
	}

	tests := []struct {
		name        string
		opts        service.HistoryOptions
		wantNumbers []int
		wantPage    int
		wantSize    int
		wantPages   int
		wantNext    bool
		wantPrev    bool
	}{
		{"defaults are newest first", service.HistoryOptions{}, []int{5, 4, 3, 2, 1}, 1, 20, 1, false, false},
		{"ascending page two", service.HistoryOptions{Page: 2, Limit: 2, Order: "asc"}, []int{3, 4}, 2, 2, 3, true, true},
		{"descending last page", service.HistoryOptions{Page: 3, Limit: 2, Order: "DESC"}, []int{1}, 3, 2, 3, false, true},
		{"limit is capped", service.HistoryOptions{Limit: 500, Order: "asc"}, []int{1, 2, 3, 4, 5}, 1, 100, 1, false, false},
		{"page past the end", service.HistoryOptions{Page: 9, Limit: 2}, []int{}, 9, 2, 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetMoveHistory(ctx, info.ID, tt.opts)
			require.NoError(t, err)

			numbers := make([]int, len(resp.Moves))
			for i, m := range resp.Moves {
				numbers[i] = m.MoveNumber
			}
			assert.Equal(t, tt.wantNumbers, numbers)
			assert.Equal(t, 5, resp.TotalMoves)
			assert.Equal(t, tt.wantPage, resp.Page)
			assert.Equal(t, tt.wantSize, resp.PageSize)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
			assert.Equal(t, tt.wantNext, resp.HasNext)
			assert.Equal(t, tt.wantPrev, resp.HasPrevious)
		})
	}

	_, err := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Order: "sideways"})
	assert.Error(t, err)
}

func TestGameService_Hint(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "")

	hint, err := svc.Hint(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.CommandTurnLeft, hint.Next)
	assert.Equal(t, []engine.Command{
		engine.CommandTurnLeft,
		engine.CommandTurnLeft,
		engine.CommandAdvance,
		engine.CommandAdvance,
		engine.CommandJudgeRight,
	}, hint.Route)
	assert.Equal(t, 5, hint.Steps)
	assert.Equal(t, 2, hint.ColumnsAway)
	assert.Equal(t, 6, hint.Distance)
	assert.False(t, hint.NearDestination)
	assert.Contains(t, hint.Message, "Megi cafe")

	// Following the hint finishes the game
	for _, cmd := range hint.Route {
		_, err := svc.Execute(ctx, info.ID, string(cmd))
		require.NoError(t, err)
	}
	state, _ := svc.GetGameState(ctx, info.ID)
	assert.True(t, state.Completed)

	done, err := svc.Hint(ctx, info.ID)
	require.NoError(t, err)
	assert.Empty(t, done.Route)
	assert.Contains(t, done.Message, "already completed")
}

func TestGameService_Sessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, _ := svc.CreateSession(ctx, "")
	second, _ := svc.CreateSession(ctx, "tiny")

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	got, err := svc.GetSession(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "tiny", got.MapName)

	require.NoError(t, svc.DeleteSession(ctx, first.ID))
	_, err = svc.GetSession(ctx, first.ID)
	assert.ErrorIs(t, err, errMockNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, first.ID), errMockNotFound)

	sessions, _ = svc.ListSessions(ctx)
	assert.Len(t, sessions, 1)
}

// Run with -race: readers share the service read lock while every call marks
// the session accessed, and the cleanup routine scans sessions on its own.
func TestGameService_ConcurrentReaders(t *testing.T) {
	configs, err := config.NewManager("")
	require.NoError(t, err)
	sessions := session.NewManagerWithSources(session.SeededSources(3))
	svc := service.NewGameService(sessions, configs, service.WithLogger(zerolog.Nop()))
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	const workers, rounds = 8, 100
	var wg sync.WaitGroup
	errs := make(chan error, (workers+2)*rounds*4)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				got, err := svc.GetSession(ctx, info.ID)
				if err != nil {
					errs <- err
					continue
				}
				if got.LastAccessedAt.IsZero() {
					errs <- fmt.Errorf("worker %d: zero last access time", w)
				}
				if _, err := svc.GetGameState(ctx, info.ID); err != nil {
					errs <- err
				}
				if _, err := svc.ListSessions(ctx); err != nil {
					errs <- err
				}
			}
		}(w)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			sessions.CleanupExpiredSessions(time.Hour)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := svc.Execute(ctx, info.ID, "turn_right"); err != nil {
				errs <- err
			}
			if _, err := svc.Hint(ctx, info.ID); err != nil {
				errs <- err
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent call failed: %v", err)
	}

	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, rounds, len(state.Moves), "every turn is logged exactly once")
}

func TestGameService_Configs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	configs, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.True(t, configs[0].BuiltIn)

	config, err := svc.LoadConfig(ctx, "tiny")
	require.NoError(t, err)
	assert.Equal(t, "Tiny", config.Name)

	_, err = svc.LoadConfig(ctx, "atlantis")
	assert.ErrorIs(t, err, errMockMapNotFound)
}

func TestGameService_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	svc, _ := newTestService(t, service.WithTracer(tp.Tracer("test")))
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = svc.Execute(ctx, info.ID, "go")
	require.NoError(t, err)
	_, err = svc.GetGameState(ctx, "missing")
	require.Error(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 3)

	assert.Equal(t, "service.CreateSession", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("session.id", info.ID))

	assert.Equal(t, "service.Execute", ended[1].Name())
	assert.Contains(t, ended[1].Attributes(), attribute.String("command", "advance"))
	assert.Contains(t, ended[1].Attributes(), attribute.Bool("command.applied", true))
	assert.Equal(t, codes.Unset, ended[1].Status().Code)

	assert.Equal(t, "service.GetGameState", ended[2].Name())
	assert.Equal(t, codes.Error, ended[2].Status().Code)
}

func TestGameService_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	svc, _ := newTestService(t, service.WithLogger(logger))
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "")
	for _, cmd := range []string{"left", "left", "go", "go", "judge_right"} {
		_, err := svc.Execute(ctx, info.ID, cmd)
		require.NoError(t, err)
	}

	out := buf.String()
	assert.Contains(t, out, `"message":"game started"`)
	assert.Contains(t, out, `"message":"game completed"`)
	assert.NotContains(t, out, "command executed", "debug lines are filtered at info level")
}
