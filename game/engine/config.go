package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidMap is wrapped by every map validation failure
var ErrInvalidMap = errors.New("invalid map")

// Default player-facing texts
const (
	DefaultWelcomeMessage      = "🎅 Santa is very slow. Help Santa go to his place!"
	DefaultTooFarMessage       = "❌ You're too far! Get closer to the destination first."
	DefaultLeftCorrectMessage  = "🎉 Perfect! The %s is on your left!"
	DefaultRightCorrectMessage = "🎉 Perfect! The %s is on your right!"
	DefaultLeftWrongMessage    = "❌ No, it's not on your left. Try again!"
	DefaultRightWrongMessage   = "❌ No, it's not on your right. Try again!"
)

// DefaultMapName identifies the built-in map
const DefaultMapName = "bookstore"

// DefaultMapConfig returns the built-in 7x9 town with its 24 landmarks
func DefaultMapConfig() *MapConfig {
	return &MapConfig{
		Name:        DefaultMapName,
		Description: "Where is the bookstore? Santa's home town, 24 landmarks on a 7x9 road grid",
		Rows:        DefaultRows,
		Cols:        DefaultCols,
		Landmarks: []Landmark{
			{Name: "Megi cafe", Row: 1, Col: 1},
			{Name: "Nolbu's House", Row: 1, Col: 3},
			{Name: "Heung-bu House", Row: 1, Col: 5},
			{Name: "Choco House", Row: 1, Col: 7},
			{Name: "GYM", Row: 2, Col: 1},
			{Name: "SCHOOL", Row: 2, Col: 3},
			{Name: "MARKET", Row: 2, Col: 5},
			{Name: "Cafe Juny", Row: 2, Col: 7},
			{Name: "Andy's House", Row: 3, Col: 1},
			{Name: "집게리아", Row: 3, Col: 3},
			{Name: "Chicken house", Row: 3, Col: 5},
			{Name: "BUS STOP", Row: 3, Col: 7},
			{Name: "OLIVE", Row: 4, Col: 1},
			{Name: "Park", Row: 4, Col: 3},
			{Name: "DU", Row: 4, Col: 5},
			{Name: "Hospital", Row: 4, Col: 7},
			{Name: "Apartment", Row: 5, Col: 1},
			{Name: "Book Store", Row: 5, Col: 3},
			{Name: "Brown House", Row: 5, Col: 5},
			{Name: "Pink House", Row: 5, Col: 7},
			{Name: "Church", Row: 6, Col: 1},
			{Name: "Candy Shop", Row: 6, Col: 3},
			{Name: "MUSEUM", Row: 6, Col: 5},
			{Name: "RIVER", Row: 6, Col: 7},
		},
	}
}

// ValidateMapConfig validates a map configuration for correctness and playability
func ValidateMapConfig(config *MapConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidMap)
	}
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMap)
	}

	if config.Rows < MinGridDimension || config.Rows > MaxGridDimension {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d",
			ErrInvalidMap, MinGridDimension, MaxGridDimension, config.Rows)
	}
	if config.Cols < MinGridDimension || config.Cols > MaxGridDimension {
		return fmt.Errorf("%w: cols must be between %d and %d, got %d",
			ErrInvalidMap, MinGridDimension, MaxGridDimension, config.Cols)
	}

	// A destination must differ from the start, so two landmarks is the floor
	if len(config.Landmarks) < MinLandmarks {
		return fmt.Errorf("%w: at least %d landmarks are required, got %d",
			ErrInvalidMap, MinLandmarks, len(config.Landmarks))
	}

	seen := make(map[string]bool, len(config.Landmarks))
	for i, l := range config.Landmarks {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("%w: landmark %d has no name", ErrInvalidMap, i+1)
		}
		if seen[l.Name] {
			return fmt.Errorf("%w: duplicate landmark name %q", ErrInvalidMap, l.Name)
		}
		seen[l.Name] = true

		if l.Row < 0 || l.Row >= config.Rows || l.Col < 0 || l.Col >= config.Cols {
			return fmt.Errorf("%w: landmark %q at (%d,%d) is outside the %dx%d grid",
				ErrInvalidMap, l.Name, l.Row, l.Col, config.Rows, config.Cols)
		}
	}

	if m := config.Messages.LeftCorrect; m != "" && !strings.Contains(m, "%s") {
		return fmt.Errorf("%w: messages.left_correct must contain %%s for the destination", ErrInvalidMap)
	}
	if m := config.Messages.RightCorrect; m != "" && !strings.Contains(m, "%s") {
		return fmt.Errorf("%w: messages.right_correct must contain %%s for the destination", ErrInvalidMap)
	}

	return nil
}

// LoadMapConfig reads a map from a .json, .yaml or .yml file and validates it
func LoadMapConfig(path string) (*MapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := ParseMapConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse map file '%s': %w", filepath.Base(path), err)
	}

	if err := ValidateMapConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseMapConfig decodes map data; ext selects the format (".json", ".yaml", ".yml")
func ParseMapConfig(data []byte, ext string) (*MapConfig, error) {
	var config MapConfig
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported map format %q", ext)
	}
	return &config, nil
}

// withDefaults fills unset messages with the built-in texts
func (m Messages) withDefaults() Messages {
	if m.Welcome == "" {
		m.Welcome = DefaultWelcomeMessage
	}
	if m.TooFar == "" {
		m.TooFar = DefaultTooFarMessage
	}
	if m.LeftCorrect == "" {
		m.LeftCorrect = DefaultLeftCorrectMessage
	}
	if m.RightCorrect == "" {
		m.RightCorrect = DefaultRightCorrectMessage
	}
	if m.LeftWrong == "" {
		m.LeftWrong = DefaultLeftWrongMessage
	}
	if m.RightWrong == "" {
		m.RightWrong = DefaultRightWrongMessage
	}
	return m
}
