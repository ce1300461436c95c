package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/citynav/game/config"
	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
	"github.com/wricardo/mcp-training/citynav/game/session"
)

type fixture struct {
	srv       *Server
	svc       service.GameService
	sessionID string
}

// newFixture serves a session pinned to Apartment -> Book Store, facing East
// from the Apartment
func newFixture(t *testing.T) *fixture {
	t.Helper()

	sessions := session.NewManagerWithSources(session.SeededSources(3))
	configs, err := config.NewManager("")
	require.NoError(t, err)
	svc := service.NewGameService(sessions, configs, service.WithLogger(zerolog.Nop()))

	info, err := svc.CreateSession(context.Background(), "")
	require.NoError(t, err)
	sess, err := sessions.Get(info.ID)
	require.NoError(t, err)
	require.NoError(t, sess.Engine.SetState(engine.GameState{
		GameID:      "pinned",
		Start:       "Apartment",
		Destination: "Book Store",
		Position:    engine.Position{Row: 5, Col: 1},
		Heading:     engine.East,
		Message:     engine.DefaultWelcomeMessage,
	}))

	srv := NewServer(svc, "test")
	initialize(t, srv)
	return &fixture{srv: srv, svc: svc, sessionID: info.ID}
}

func rpc(t *testing.T, srv *Server, method string, params interface{}) json.RawMessage {
	t.Helper()
	msg, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := srv.GetMCPServer().HandleMessage(context.Background(), msg)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Nil(t, envelope.Error, "rpc %s failed: %s", method, raw)
	return envelope.Result
}

func initialize(t *testing.T, srv *Server) {
	t.Helper()
	rpc(t, srv, "initialize", map[string]interface{}{
		"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "test", "version": "0"},
	})
}

// call invokes a tool and returns its text and error flag
func (f *fixture) call(t *testing.T, name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	if args == nil {
		args = map[string]interface{}{}
	}
	raw := rpc(t, f.srv, "tools/call", map[string]interface{}{"name": name, "arguments": args})

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	require.NotEmpty(t, result.Content, "tool %s returned no content", name)
	return result.Content[0].Text, result.IsError
}

func (f *fixture) session() map[string]interface{} {
	return map[string]interface{}{"session_id": f.sessionID}
}

func TestNewServer(t *testing.T) {
	f := newFixture(t)
	require.NotNil(t, f.srv.GetMCPServer())
}

func TestToolsList(t *testing.T) {
	f := newFixture(t)
	raw := rpc(t, f.srv, "tools/list", map[string]interface{}{})

	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))

	names := make([]string, len(list.Tools))
	for i, tool := range list.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{
		"create_session", "list_sessions", "get_session", "delete_session",
		"game_state", "advance", "turn_left", "turn_right", "judge_left", "judge_right",
		"new_game", "bulk_command", "move_history", "hint", "list_maps", "game_instructions",
	}, names)
}

func TestCreateSessionTool(t *testing.T) {
	f := newFixture(t)

	text, isErr := f.call(t, "create_session", map[string]interface{}{"map_name": "bookstore"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Created session: ")
	assert.Contains(t, text, "Map: bookstore")
	assert.Contains(t, text, "Where is the ")

	text, isErr = f.call(t, "create_session", map[string]interface{}{"map_name": "atlantis"})
	assert.True(t, isErr)
	assert.Contains(t, text, "available maps: bookstore")
}

func TestPlayThroughTools(t *testing.T) {
	f := newFixture(t)

	text, isErr := f.call(t, "advance", f.session())
	require.False(t, isErr, text)
	assert.Contains(t, text, "✓ advance applied")
	assert.Contains(t, text, "Step: 1. Go straight (5,1)→(5,2) facing East")
	assert.Contains(t, text, "- move: Moved to (5,2)")

	text, _ = f.call(t, "judge_left", f.session())
	assert.Contains(t, text, "✗ judge_left had no effect")
	assert.Contains(t, text, engine.DefaultTooFarMessage)

	f.call(t, "advance", map[string]interface{}{"session_id": f.sessionID, "intent": "reach column 3"})

	text, _ = f.call(t, "judge_right", f.session())
	assert.Contains(t, text, engine.DefaultRightWrongMessage)

	text, isErr = f.call(t, "judge_left", f.session())
	require.False(t, isErr, text)
	assert.Contains(t, text, "✓ judge_left applied")
	assert.Contains(t, text, "- completed: 🎉 Perfect! The Book Store is on your left!")
	assert.Contains(t, text, "CONGRATULATIONS")

	text, _ = f.call(t, "turn_left", f.session())
	assert.Contains(t, text, "rejected: Game already completed")
}

func TestCommandToolLogsIntent(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.srv.logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	args := f.session()
	args["intent"] = "head toward the Book Store column"
	_, isErr := f.call(t, "advance", args)
	require.False(t, isErr)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool command", entry["message"])
	assert.Equal(t, f.sessionID, entry["session"])
	assert.Equal(t, "advance", entry["command"])
	assert.Equal(t, "head toward the Book Store column", entry["intent"])
}

func TestNewGameTool(t *testing.T) {
	f := newFixture(t)
	f.call(t, "advance", f.session())

	text, isErr := f.call(t, "new_game", f.session())
	require.False(t, isErr, text)
	assert.Contains(t, text, "- reset: New game: from ")

	snap, err := f.svc.GetGameState(context.Background(), f.sessionID)
	require.NoError(t, err)
	assert.Empty(t, snap.Moves)
}

func TestBulkCommandTool(t *testing.T) {
	f := newFixture(t)

	t.Run("stops on completion", func(t *testing.T) {
		text, isErr := f.call(t, "bulk_command", map[string]interface{}{
			"session_id": f.sessionID,
			"commands":   []interface{}{"advance", "advance", "judge_left", "advance"},
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Executed 3/4 commands")
		assert.Contains(t, text, "Stopped: game completed")
		assert.Contains(t, text, "1. advance: Moved to (5,2) ✓")
	})

	t.Run("unknown command rejects the batch", func(t *testing.T) {
		g := newFixture(t)
		text, isErr := g.call(t, "bulk_command", map[string]interface{}{
			"session_id": g.sessionID,
			"commands":   []interface{}{"advance", "fly"},
		})
		assert.True(t, isErr)
		assert.Contains(t, text, "command 2:")

		snap, err := g.svc.GetGameState(context.Background(), g.sessionID)
		require.NoError(t, err)
		assert.Empty(t, snap.Moves, "nothing runs when the batch is rejected")
	})

	t.Run("empty", func(t *testing.T) {
		text, isErr := f.call(t, "bulk_command", map[string]interface{}{
			"session_id": f.sessionID,
			"commands":   []interface{}{},
		})
		assert.True(t, isErr)
		assert.Contains(t, text, "cannot be empty")
	})
}

func TestMoveHistoryTool(t *testing.T) {
	f := newFixture(t)
	f.call(t, "advance", f.session())
	f.call(t, "advance", f.session())

	tests := []struct {
		name     string
		args     map[string]interface{}
		wantErr  bool
		contains []string
	}{
		{
			name:     "ascending page with string numbers",
			args:     map[string]interface{}{"page": "1", "limit": "1", "order": "asc"},
			contains: []string{"Move History (Page 1/2) - Total: 2", "1. Go straight (5,1)→(5,2) facing East", "More moves on page 2"},
		},
		{
			name:     "defaults newest first",
			args:     map[string]interface{}{},
			contains: []string{"Move History (Page 1/1) - Total: 2", "2. Go straight (5,2)→(5,3)"},
		},
		{
			name:     "bad page",
			args:     map[string]interface{}{"page": "abc"},
			wantErr:  true,
			contains: []string{"page must be an integer"},
		},
		{
			name:    "bad order",
			args:    map[string]interface{}{"order": "sideways"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := f.session()
			for k, v := range tt.args {
				args[k] = v
			}
			text, isErr := f.call(t, "move_history", args)
			assert.Equal(t, tt.wantErr, isErr, text)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestHintTool(t *testing.T) {
	f := newFixture(t)

	text, isErr := f.call(t, "hint", f.session())
	require.False(t, isErr, text)
	assert.Contains(t, text, "Hint: 3 commands to reach the Book Store. Next: advance.")
	assert.Contains(t, text, "Route (3 commands): advance, advance, judge_left")
	assert.Contains(t, text, "Columns to go: 2, Blocks away: 2")
}

func TestSessionTools(t *testing.T) {
	f := newFixture(t)

	text, _ := f.call(t, "list_sessions", nil)
	assert.Contains(t, text, "Active Sessions (1):")
	assert.Contains(t, text, f.sessionID)
	assert.Contains(t, text, "Apartment → Book Store, Status: in_progress")

	text, isErr := f.call(t, "get_session", f.session())
	require.False(t, isErr, text)
	assert.Contains(t, text, "Session: "+f.sessionID)
	assert.Contains(t, text, "Destination: Book Store at (5,3)")

	text, isErr = f.call(t, "game_state", f.session())
	require.False(t, isErr, text)
	assert.Contains(t, text, "+--->---+---*---+")
	assert.Contains(t, text, "Landmarks:\n")
	assert.Contains(t, text, "* Book Store (5,3)")
	assert.Contains(t, text, "# Apartment (5,1)")

	text, isErr = f.call(t, "delete_session", f.session())
	require.False(t, isErr, text)

	text, isErr = f.call(t, "game_state", f.session())
	assert.True(t, isErr)
	assert.Contains(t, text, "session not found")
}

func TestMissingSessionID(t *testing.T) {
	f := newFixture(t)

	for _, tool := range []string{"get_session", "game_state", "advance", "judge_right", "move_history", "hint", "delete_session"} {
		t.Run(tool, func(t *testing.T) {
			text, isErr := f.call(t, tool, map[string]interface{}{"session_id": "  "})
			assert.True(t, isErr)
			assert.Equal(t, "session_id is required", text)
		})
	}
}

func TestListMapsTool(t *testing.T) {
	f := newFixture(t)

	text, isErr := f.call(t, "list_maps", nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "(map_name: bookstore)")
	assert.Contains(t, text, "Grid: 7x9, Landmarks: 24")
}

func TestGameInstructionsTool(t *testing.T) {
	f := newFixture(t)

	text, isErr := f.call(t, "game_instructions", nil)
	require.False(t, isErr)

	for _, content := range []string{
		"City Navigator - Complete Instructions",
		"GAME OBJECTIVE:",
		"MAP LEGEND:",
		"COMMANDS:",
		"FINDING THE DESTINATION:",
		"Good luck helping Santa!",
	} {
		assert.True(t, strings.Contains(text, content), "Expected '%s' in instructions", content)
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	text := formatHistory(&service.HistoryResponse{Page: 1, TotalPages: 1})
	assert.Contains(t, text, "(no moves yet)")
}
