package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// mapExtensions are tried in order when a map name has no extension
var mapExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles map configuration loading and caching. The built-in map is
// always available; a directory adds JSON and YAML maps on top of it.
type Manager struct {
	mapDir      string
	defaultName string
	configs     map[string]*engine.MapConfig // by requested name and by file name
	boards      map[*engine.MapConfig]*engine.Board
	mu          sync.RWMutex
}

// NewManager creates a new configuration manager. An empty mapDir serves the
// built-in map only.
func NewManager(mapDir string) (*Manager, error) {
	if mapDir != "" {
		info, err := os.Stat(mapDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("map directory does not exist: %s", mapDir)
			}
			return nil, fmt.Errorf("failed to read map directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("map path is not a directory: %s", mapDir)
		}
	}

	m := &Manager{
		mapDir:      mapDir,
		defaultName: engine.DefaultMapName,
		configs:     make(map[string]*engine.MapConfig),
		boards:      make(map[*engine.MapConfig]*engine.Board),
	}
	m.configs[engine.DefaultMapName] = engine.DefaultMapConfig()

	return m, nil
}

// LoadConfig loads a configuration by name. An empty name means the default map.
func (m *Manager) LoadConfig(name string) (*engine.MapConfig, error) {
	id := m.resolveName(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	path, err := m.findMapFile(id)
	if err != nil {
		return nil, err
	}

	// "downtown" and "downtown.json" share one entry when they name the same file
	file := filepath.Base(path)
	if config, exists := m.configs[file]; exists {
		m.configs[id] = config
		return config, nil
	}

	config, err := engine.LoadMapConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// Cache the config
	m.configs[file] = config
	m.configs[id] = config
	return config, nil
}

// LoadBoard returns the compiled board for a map, building it once
func (m *Manager) LoadBoard(name string) (*engine.Board, error) {
	config, err := m.LoadConfig(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	if board, exists := m.boards[config]; exists {
		m.mu.RUnlock()
		return board, nil
	}
	m.mu.RUnlock()

	board, err := engine.NewBoard(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, exists := m.boards[config]; exists {
		return existing, nil
	}
	m.boards[config] = board
	return board, nil
}

// ListConfigs returns information about all available configurations, the
// built-in map first. Invalid map files are skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	builtin, _ := m.LoadConfig(engine.DefaultMapName)
	configs := []*service.ConfigInfo{newConfigInfo("", engine.DefaultMapName, builtin, true)}

	if m.mapDir == "" {
		return configs, nil
	}

	entries, err := os.ReadDir(m.mapDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read map directory: %w", err)
	}

	seen := map[string]bool{engine.DefaultMapName: true}
	for _, entry := range entries {
		if entry.IsDir() || !isMapFile(entry.Name()) {
			continue
		}

		// Remove extension for map name
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if seen[id] {
			continue
		}
		seen[id] = true

		// Try to load the config to get details
		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping map")
			continue
		}

		configs = append(configs, newConfigInfo(entry.Name(), id, config, false))
	}

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.MapConfig {
	config, err := m.LoadConfig(m.DefaultName())
	if err != nil {
		// SetDefault only accepts loadable maps, so this is the built-in fallback
		return engine.DefaultMapConfig()
	}
	return config
}

// DefaultName returns the map used when no name is given
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	id := m.resolveName(name)
	if _, err := m.LoadConfig(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = id
	return nil
}

// RefreshCache drops cached map files so edits on disk are picked up
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs = map[string]*engine.MapConfig{engine.DefaultMapName: engine.DefaultMapConfig()}
	m.boards = make(map[*engine.MapConfig]*engine.Board)
}

// resolveName maps user input to a cache key: the default for "", the
// trimmed input otherwise. An extension is kept so "downtown.yaml" never
// resolves to downtown.json.
func (m *Manager) resolveName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return m.DefaultName()
	}
	return name
}

// findMapFile locates the file for a map id; called with m.mu held
func (m *Manager) findMapFile(id string) (string, error) {
	if m.mapDir == "" {
		return "", fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}
	if id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}

	// A map file name is loaded exactly as given
	if isMapFile(id) {
		path := filepath.Join(m.mapDir, id)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}

	for _, ext := range mapExtensions {
		path := filepath.Join(m.mapDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, id)
}

func isMapFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range mapExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func newConfigInfo(filename, id string, config *engine.MapConfig, builtin bool) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:    filename,
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		Rows:        config.Rows,
		Cols:        config.Cols,
		Landmarks:   len(config.Landmarks),
		BuiltIn:     builtin,
	}
}
