package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
	"github.com/wricardo/mcp-training/citynav/render"
)

// Instructions is the full rule text returned by game_instructions
const Instructions = `🎅 City Navigator - Complete Instructions

GAME OBJECTIVE:
Santa starts at one landmark and has to find another one, the destination.
Drive along the roads until you are in the destination's column, then tell
whether the destination is on your left or on your right.

THE MAP:
• The city is a grid of road intersections (7 rows x 9 columns on the built-in map)
• Row 0 is the top (north) edge, column 0 the left (west) edge
• Landmarks sit on fixed intersections; every game picks a new start and destination

MAP LEGEND:
• ^ > v < - Santa, drawn as the direction he faces
• * - The destination
• # - Other landmarks
• + - Empty intersection
• - and | - Roads

COMMANDS:
• advance - Go straight one intersection. At the edge of the map nothing happens.
• turn_left / turn_right - Turn 90 degrees in place
• judge_left / judge_right - Answer where the destination is
• new_game - Start over with a new start and destination

FINDING THE DESTINATION:
• You are "near" once your column equals the destination's column
• Judging anywhere else only tells you that you are too far away
• In the column, a destination below you (larger row) counts as on your left
  and one above you (smaller row) as on your right, whatever your heading
• Standing right on the destination: left when facing East or South,
  right when facing West or North
• A right answer ends the game with "🎉 Perfect!"; a wrong one lets you try again

STRATEGY:
1. Read the destination's (row, col) from game_state
2. Turn to face East or West and drive to its column
3. Compare your row with the destination's row and judge
4. Use hint to see the shortest remaining sequence of commands

SESSION MANAGEMENT:
- Multiple game sessions can run simultaneously
- Each session has unique 4-character ID
- Sessions maintain independent state and map

Good luck helping Santa! 🎄`

func formatSnapshot(snapshot *engine.Snapshot) string {
	if snapshot == nil {
		return "No game state available"
	}

	var b strings.Builder
	b.WriteString(render.Text(*snapshot))
	b.WriteString("\nDestination: ")
	b.WriteString(fmt.Sprintf("%s at (%d,%d)", snapshot.Destination, snapshot.DestinationPos.Row, snapshot.DestinationPos.Col))
	return b.String()
}

func formatLandmarks(snapshot *engine.Snapshot) string {
	return "Landmarks:\n" + strings.Join(render.Landmarks(*snapshot), "\n")
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nMap: %s\nCreated: %s\n\n%s",
		session.ID, session.MapName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSnapshot(session.Snapshot))
}

func formatSessionList(sessions []*service.SessionInfo) string {
	result := fmt.Sprintf("Active Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		status := ""
		if s.Snapshot != nil {
			status = fmt.Sprintf(", %s → %s, Status: %s", s.Snapshot.Start, s.Snapshot.Destination, s.Snapshot.Status)
		}
		result += fmt.Sprintf("- %s (Map: %s, Created: %s%s)\n",
			s.ID, s.MapName, s.CreatedAt.Format("15:04:05"), status)
	}
	return result
}

func formatCommandResult(result *service.CommandResult) string {
	var b strings.Builder
	if result.Applied {
		b.WriteString(fmt.Sprintf("✓ %s applied\n", result.Command))
	} else {
		b.WriteString(fmt.Sprintf("✗ %s had no effect\n", result.Command))
	}

	if result.LastMove != nil && result.Applied {
		m := result.LastMove
		b.WriteString(fmt.Sprintf("Step: %d. %s (%d,%d)→(%d,%d) facing %s\n",
			m.MoveNumber, m.Description, m.From.Row, m.From.Col, m.To.Row, m.To.Col, m.Heading))
	}

	writeEvents(&b, result.Events)

	b.WriteString("\n")
	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}

func formatBulkResult(sessionID string, requested int, results []*service.CommandResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Session: %s\n", sessionID))
	b.WriteString(fmt.Sprintf("Executed %d/%d commands\n", len(results), requested))
	if len(results) < requested {
		b.WriteString("Stopped: game completed\n")
	}

	b.WriteString("\nSteps (this call):\n")
	for i, r := range results {
		status := "✓"
		if !r.Applied {
			status = "✗"
		}
		line := string(r.Command)
		if len(r.Events) > 0 {
			line += ": " + r.Events[0].Message
		}
		b.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, line, status))
	}

	if len(results) > 0 {
		b.WriteString("\n")
		b.WriteString(formatSnapshot(results[len(results)-1].Snapshot))
	}
	return b.String()
}

func writeEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		b.WriteString(fmt.Sprintf("- %s: %s\n", event.Type, event.Message))
	}
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		return result + "(no moves yet)"
	}
	for _, move := range history.Moves {
		result += fmt.Sprintf("%d. %s (%d,%d)→(%d,%d) facing %s\n",
			move.MoveNumber, move.Description,
			move.From.Row, move.From.Col, move.To.Row, move.To.Col, move.Heading)
	}
	if history.HasNext {
		result += fmt.Sprintf("\nMore moves on page %d\n", history.Page+1)
	}
	return result
}

func formatHint(hint *service.HintResult) string {
	result := "Hint: " + hint.Message + "\n"
	if len(hint.Route) > 0 {
		route := make([]string, len(hint.Route))
		for i, c := range hint.Route {
			route[i] = string(c)
		}
		result += fmt.Sprintf("Route (%d commands): %s\n", hint.Steps, strings.Join(route, ", "))
		result += fmt.Sprintf("Columns to go: %d, Blocks away: %d\n", hint.ColumnsAway, hint.Distance)
	}
	return result
}
