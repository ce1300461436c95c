package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned by ParseCommand for input no command matches
var ErrUnknownCommand = errors.New("unknown command")

var commandAliases = map[string]Command{
	"advance":     CommandAdvance,
	"go":          CommandAdvance,
	"straight":    CommandAdvance,
	"go_straight": CommandAdvance,
	"forward":     CommandAdvance,
	"turn_left":   CommandTurnLeft,
	"left":        CommandTurnLeft,
	"turn_right":  CommandTurnRight,
	"right":       CommandTurnRight,
	"judge_left":  CommandJudgeLeft,
	"on_left":     CommandJudgeLeft,
	"judge_right": CommandJudgeRight,
	"on_right":    CommandJudgeRight,
	"reset":       CommandReset,
	"new_game":    CommandReset,
	"new":         CommandReset,
}

// ParseCommand maps dispatcher input to a Command. Spaces and dashes are
// treated as underscores, so "turn-left" and "Turn Left" both parse.
func ParseCommand(s string) (Command, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if cmd, ok := commandAliases[key]; ok {
		return cmd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Advance moves one intersection along the current heading. A step that would
// leave the grid is silently ignored.
func Advance(b *Board, s GameState) GameState {
	if s.Completed {
		return s
	}

	dRow, dCol := s.Heading.Delta()
	candidate := Position{Row: s.Position.Row + dRow, Col: s.Position.Col + dCol}
	if !b.InBounds(candidate) {
		return s
	}

	next := s.clone()
	next.Position = candidate
	next.appendMove(CommandAdvance, LogGoStraight, s.Position)
	return next
}

// TurnRight rotates the heading clockwise
func TurnRight(b *Board, s GameState) GameState {
	if s.Completed {
		return s
	}
	next := s.clone()
	next.Heading = s.Heading.Right()
	next.appendMove(CommandTurnRight, LogTurnRight, s.Position)
	return next
}

// TurnLeft rotates the heading counter-clockwise
func TurnLeft(b *Board, s GameState) GameState {
	if s.Completed {
		return s
	}
	next := s.clone()
	next.Heading = s.Heading.Left()
	next.appendMove(CommandTurnLeft, LogTurnLeft, s.Position)
	return next
}

// IsNearDestination gates the judgment commands. Only the column is compared,
// so any distance along the destination's column counts as near.
func IsNearDestination(b *Board, s GameState) bool {
	dest, ok := b.Landmark(s.Destination)
	if !ok {
		return false
	}
	sameCol := s.Position.Col == dest.Col
	samePosition := s.Position == dest.Position()
	return sameCol || samePosition
}

// JudgeLeft claims the destination is on the player's left
func JudgeLeft(b *Board, s GameState) GameState {
	return judge(b, s, true)
}

// JudgeRight claims the destination is on the player's right
func JudgeRight(b *Board, s GameState) GameState {
	return judge(b, s, false)
}

// Reset discards the current game and draws a new one
func Reset(b *Board, rng RandomSource) GameState {
	return NewGame(b, rng)
}

// Apply dispatches cmd. applied reports whether the command changed anything
// beyond the message; rejected moves and far judgments report false.
func Apply(b *Board, s GameState, cmd Command, rng RandomSource) (next GameState, applied bool) {
	switch cmd {
	case CommandAdvance:
		next = Advance(b, s)
	case CommandTurnLeft:
		next = TurnLeft(b, s)
	case CommandTurnRight:
		next = TurnRight(b, s)
	case CommandJudgeLeft:
		next = JudgeLeft(b, s)
	case CommandJudgeRight:
		next = JudgeRight(b, s)
	case CommandReset:
		return Reset(b, rng), true
	default:
		return s, false
	}
	return next, len(next.Moves) != len(s.Moves)
}

// CorrectJudgment returns the judgment command that would succeed from s.
// ok is false when s is not near the destination or the game is over.
func CorrectJudgment(b *Board, s GameState) (cmd Command, ok bool) {
	if s.Completed || !IsNearDestination(b, s) {
		return "", false
	}
	dest, _ := b.Landmark(s.Destination)
	if isOnSide(dest.Position(), s, true) {
		return CommandJudgeLeft, true
	}
	return CommandJudgeRight, true
}

func judge(b *Board, s GameState, left bool) GameState {
	if s.Completed {
		return s
	}

	next := s.clone()
	if !IsNearDestination(b, s) {
		next.Message = b.messages.TooFar
		return next
	}

	dest, _ := b.Landmark(s.Destination)
	correct := isOnSide(dest.Position(), s, left)

	switch {
	case left && correct:
		next.Completed = true
		next.Message = fmt.Sprintf(b.messages.LeftCorrect, s.Destination)
		next.appendMove(CommandJudgeLeft, LogLeftCorrect, s.Position)
	case left:
		next.Message = b.messages.LeftWrong
		next.appendMove(CommandJudgeLeft, LogLeftWrong, s.Position)
	case correct:
		next.Completed = true
		next.Message = fmt.Sprintf(b.messages.RightCorrect, s.Destination)
		next.appendMove(CommandJudgeRight, LogRightCorrect, s.Position)
	default:
		next.Message = b.messages.RightWrong
		next.appendMove(CommandJudgeRight, LogRightWrong, s.Position)
	}
	return next
}

// isOnSide decides a judgment from a near state. Standing exactly on the
// destination, the answer depends on heading alone: left for East or South,
// right for West or North. Otherwise a destination to the South is on the left
// and one to the North is on the right.
func isOnSide(dest Position, s GameState, left bool) bool {
	if s.Position == dest {
		if left {
			return s.Heading == East || s.Heading == South
		}
		return s.Heading == West || s.Heading == North
	}

	rowDiff := dest.Row - s.Position.Row
	if left {
		return rowDiff > 0
	}
	return rowDiff < 0
}

// clone copies s so the returned value shares no slice with the caller's state
func (s GameState) clone() GameState {
	next := s
	next.Moves = make([]MoveHistoryEntry, len(s.Moves), len(s.Moves)+1)
	copy(next.Moves, s.Moves)
	return next
}

func (s *GameState) appendMove(cmd Command, description string, from Position) {
	s.Moves = append(s.Moves, MoveHistoryEntry{
		MoveNumber:  len(s.Moves) + 1,
		Command:     cmd,
		Description: description,
		From:        from,
		To:          s.Position,
		Heading:     s.Heading,
	})
}
