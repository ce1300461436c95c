// Command citynav runs City Navigator, the "Where is the bookstore?" puzzle.
//
// It supports four subcommands:
//  1. "play" (default) – interactive terminal game
//  2. "mcp" – serves the game as MCP tools over stdio
//  3. "maps" – lists the built-in map and the maps found in --map-dir
//  4. "validate" – checks map files and reports how hard their trips are
//
// Flags (or CITYNAV_* environment variables, also read from .env) select the
// map directory, the default map, the random seed and the log level.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/citynav/game/config"
	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
	"github.com/wricardo/mcp-training/citynav/game/session"
	"github.com/wricardo/mcp-training/citynav/telemetry"
	"github.com/wricardo/mcp-training/citynav/transport/mcp"
	"github.com/wricardo/mcp-training/citynav/tui"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "City Navigator"
)

// Session retention in mcp mode
const (
	cleanupInterval = 1 * time.Hour
	sessionMaxAge   = 24 * time.Hour
)

// main loads .env, then hands the arguments to the command tree.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "citynav: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "citynav",
		Usage:          "Where is the bookstore? Drive Santa to a landmark and tell left from right",
		Version:        Version,
		DefaultCommand: "play",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "map-dir",
				Usage:   "Directory with extra .json/.yaml maps (empty for the built-in map only)",
				Sources: cli.EnvVars("CITYNAV_MAP_DIR"),
			},
			&cli.StringFlag{
				Name:    "map",
				Usage:   "Map to play by default",
				Sources: cli.EnvVars("CITYNAV_MAP"),
			},
			&cli.StringFlag{
				Name:    "seed",
				Usage:   "Random seed for start/destination draws (0 or empty: time-seeded)",
				Sources: cli.EnvVars("CITYNAV_SEED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error, disabled)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Write logs to this file (play mode logs nowhere without it)",
				Sources: cli.EnvVars("CITYNAV_LOG_FILE"),
			},
		},
		Commands: []*cli.Command{
			playCommand(),
			mcpCommand(),
			mapsCommand(),
			validateCommand(),
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play in the terminal",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// The terminal belongs to the game, so logs only go to --log-file
			var out io.Writer = io.Discard
			if path := cmd.String("log-file"); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := configureLogging(cmd.String("log-level"), out); err != nil {
				return err
			}

			shutdown, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			gameService, _, _, err := initializeServices(cmd)
			if err != nil {
				return err
			}

			screen, err := tui.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to open terminal: %w", err)
			}
			defer screen.Fini()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().Str("version", Version).Msg("starting terminal game")
			return tui.NewApp(screen, gameService, cmd.String("map")).Run(ctx)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Serve the game as MCP tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// stdout carries the protocol; logs go to stderr
			if err := configureLogging(cmd.String("log-level"), os.Stderr); err != nil {
				return err
			}

			shutdown, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			gameService, sessions, configs, err := initializeServices(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go maintenanceRoutine(ctx, sessions, configs, cleanupInterval, sessionMaxAge)

			log.Info().Str("version", Version).Msg("MCP stdio server ready")
			if err := mcp.NewServer(gameService, Version).ServeStdio(); err != nil {
				return fmt.Errorf("MCP stdio server error: %w", err)
			}
			return nil
		},
	}
}

func mapsCommand() *cli.Command {
	return &cli.Command{
		Name:  "maps",
		Usage: "List available maps",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := configureLogging(cmd.String("log-level"), os.Stderr); err != nil {
				return err
			}

			configs, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			infos, err := configs.ListConfigs()
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			for _, info := range infos {
				marker := ""
				if info.ConfigID == configs.DefaultName() {
					marker = " (default)"
				}
				source := "built-in"
				if !info.BuiltIn {
					source = info.Filename
				}
				fmt.Fprintf(out, "• %s%s [%s]\n  %s\n  Grid: %dx%d, Landmarks: %d\n",
					info.ConfigID, marker, source, info.Description, info.Rows, info.Cols, info.Landmarks)
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate map files and report trip lengths",
		ArgsUsage: "[FILE...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := configureLogging(cmd.String("log-level"), os.Stderr); err != nil {
				return err
			}

			files := cmd.Args().Slice()
			if len(files) == 0 {
				dir := cmd.String("map-dir")
				if dir == "" {
					return fmt.Errorf("no map files given and --map-dir is not set")
				}
				var err error
				if files, err = findMapFiles(dir); err != nil {
					return err
				}
			}

			out := cmd.Root().Writer
			invalid := 0
			for _, file := range files {
				fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), filepath.Base(file))
				if !validateMapFile(out, file) {
					invalid++
				}
			}

			fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
			if invalid > 0 {
				fmt.Fprintf(out, "❌ %d of %d maps have errors\n", invalid, len(files))
				return fmt.Errorf("%d invalid map(s)", invalid)
			}
			fmt.Fprintln(out, "✅ All maps are valid!")
			return nil
		},
	}
}

// validateMapFile prints a report for one map file and reports whether it is valid
func validateMapFile(out io.Writer, path string) bool {
	mapConfig, err := engine.LoadMapConfig(path)
	if err != nil {
		fmt.Fprintln(out, "❌ INVALID")
		fmt.Fprintf(out, "  ❌ %v\n", err)
		return false
	}

	board, err := engine.NewBoard(mapConfig)
	if err != nil {
		fmt.Fprintln(out, "❌ INVALID")
		fmt.Fprintf(out, "  ❌ %v\n", err)
		return false
	}

	report := engine.AnalyzeBoard(board)
	fmt.Fprintln(out, "✅ VALID")
	fmt.Fprintf(out, "  Name: %s\n", board.Name())
	fmt.Fprintf(out, "  Grid: %dx%d, Landmarks: %d\n", board.Rows(), board.Cols(), len(board.Landmarks()))
	fmt.Fprintf(out, "  Trips: %d, Average route: %.1f commands\n", report.Trips, report.Average)
	fmt.Fprintf(out, "  Longest route: %d commands (%s → %s facing %s)\n",
		report.Longest, report.LongestFrom, report.LongestTo, report.LongestHeading)
	if report.BusiestColumn >= 0 {
		fmt.Fprintf(out, "  Busiest column: %d (%d landmarks)\n", report.BusiestColumn, report.BusiestCount)
	}
	if report.Unsolvable > 0 {
		fmt.Fprintf(out, "  ⚠️  %d trips cannot be finished\n", report.Unsolvable)
	}
	return true
}

func findMapFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("error finding map files: %w", err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no map files in %s", dir)
	}
	return files, nil
}

// configureLogging points the global zerolog logger at w with the given level
func configureLogging(level string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	return nil
}

// setupTelemetry installs the tracer provider; ended spans are logged at debug level
func setupTelemetry(ctx context.Context) (func(), error) {
	shutdown, err := telemetry.Setup(ctx, telemetry.NewLogProcessor(log.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}, nil
}

func parseSeed(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	seed, err := cast.ToUint64E(s)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: %w", s, err)
	}
	return seed, nil
}

func newConfigManager(cmd *cli.Command) (*config.Manager, error) {
	configManager, err := config.NewManager(cmd.String("map-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if name := cmd.String("map"); name != "" {
		if err := configManager.SetDefault(name); err != nil {
			return nil, fmt.Errorf("default map: %w", err)
		}
	}
	return configManager, nil
}

// initializeServices wires session/config managers and the game service.
func initializeServices(cmd *cli.Command) (service.GameService, *session.Manager, *config.Manager, error) {
	configManager, err := newConfigManager(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	seed, err := parseSeed(cmd.String("seed"))
	if err != nil {
		return nil, nil, nil, err
	}

	sessionManager := session.NewManagerWithSources(session.SeededSources(seed))
	return service.NewGameService(sessionManager, configManager), sessionManager, configManager, nil
}

// maintenanceRoutine periodically removes sessions that have not been accessed
// within the provided retention window and drops cached maps so edited map
// files are picked up by new sessions.
func maintenanceRoutine(ctx context.Context, sessions *session.Manager, configs *config.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.CleanupExpiredSessions(maxAge)
			configs.RefreshCache()
		}
	}
}
