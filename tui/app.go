// Package tui is the interactive terminal front end. It drives one game
// session through the service layer and redraws the whole screen after every
// key press.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
	"github.com/wricardo/mcp-training/citynav/telemetry"
)

// HelpLine lists the key bindings shown at the bottom of the screen
const HelpLine = "↑/w go straight  ←/a turn left  →/d turn right  z on left  x on right  h hint  n new game  q quit"

// action is what a key press asks the app to do
type action int

const (
	actionNone action = iota
	actionCommand
	actionHint
	actionNewGame
	actionQuit
)

// App is the terminal game loop
type App struct {
	screen    tcell.Screen
	svc       service.GameService
	tracer    trace.Tracer
	mapName   string
	sessionID string
	snapshot  *engine.Snapshot
	notice    string
	failed    bool
	commands  int
	running   bool
}

// NewApp creates an app that plays mapName on screen. The screen must already
// be initialized.
func NewApp(screen tcell.Screen, svc service.GameService, mapName string) *App {
	return &App{
		screen:  screen,
		svc:     svc,
		tracer:  telemetry.Tracer("tui"),
		mapName: mapName,
		running: true,
	}
}

// SessionID returns the session the app plays, empty before Start
func (a *App) SessionID() string {
	return a.sessionID
}

// Snapshot returns the last state the app drew
func (a *App) Snapshot() *engine.Snapshot {
	return a.snapshot
}

// Notice returns the hint or error line currently shown
func (a *App) Notice() string {
	return a.notice
}

// Running reports whether the loop will keep reading keys
func (a *App) Running() bool {
	return a.running
}

// Start creates the game session
func (a *App) Start(ctx context.Context) error {
	info, err := a.svc.CreateSession(ctx, a.mapName)
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	a.sessionID = info.ID
	a.snapshot = info.Snapshot
	return nil
}

// Refresh reloads the snapshot from the service
func (a *App) Refresh(ctx context.Context) error {
	snap, err := a.svc.GetGameState(ctx, a.sessionID)
	if err != nil {
		return err
	}
	a.snapshot = snap
	return nil
}

// Run draws the game and processes key presses until the player quits or
// ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "tui.run")
	defer span.End()

	if a.sessionID == "" {
		if err := a.Start(ctx); err != nil {
			return err
		}
	}
	span.SetAttributes(attribute.String("session.id", a.sessionID))

	// Wake PollEvent when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	for a.running {
		a.Draw()

		ev := a.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			break
		}
		a.HandleEvent(ctx, ev)
	}

	span.SetAttributes(attribute.Int("tui.commands", a.commands))
	log.Debug().Str("session", a.sessionID).Int("commands", a.commands).Msg("terminal game finished")
	return nil
}

// HandleEvent processes a single terminal event
func (a *App) HandleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		a.screen.Sync()
	}
}

func (a *App) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	act, cmd := keyAction(ev)
	switch act {
	case actionQuit:
		a.running = false
	case actionCommand:
		a.execute(ctx, string(cmd))
	case actionHint:
		a.hint(ctx)
	case actionNewGame:
		a.execute(ctx, string(engine.CommandReset))
	}
}

// keyAction maps a key press to an action and, for game commands, the command
func keyAction(ev *tcell.EventKey) (action, engine.Command) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit, ""
	case tcell.KeyUp:
		return actionCommand, engine.CommandAdvance
	case tcell.KeyLeft:
		return actionCommand, engine.CommandTurnLeft
	case tcell.KeyRight:
		return actionCommand, engine.CommandTurnRight
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W', 'k', 'K':
			return actionCommand, engine.CommandAdvance
		case 'a', 'A':
			return actionCommand, engine.CommandTurnLeft
		case 'd', 'D':
			return actionCommand, engine.CommandTurnRight
		case 'z', 'Z':
			return actionCommand, engine.CommandJudgeLeft
		case 'x', 'X':
			return actionCommand, engine.CommandJudgeRight
		case 'h', 'H':
			return actionHint, ""
		case 'n', 'N':
			return actionNewGame, ""
		case 'q', 'Q':
			return actionQuit, ""
		}
	}
	return actionNone, ""
}

func (a *App) execute(ctx context.Context, command string) {
	result, err := a.svc.Execute(ctx, a.sessionID, command)
	if err != nil {
		a.showError(err)
		return
	}
	a.commands++
	a.snapshot = result.Snapshot
	a.notice = ""
	a.failed = false
}

func (a *App) hint(ctx context.Context) {
	h, err := a.svc.Hint(ctx, a.sessionID)
	if err != nil {
		a.showError(err)
		return
	}
	a.notice = "Hint: " + h.Message
	a.failed = false
}

func (a *App) showError(err error) {
	if errors.Is(err, context.Canceled) {
		a.running = false
		return
	}
	log.Warn().Err(err).Str("session", a.sessionID).Msg("terminal command failed")
	a.notice = "Error: " + err.Error()
	a.failed = true
}
