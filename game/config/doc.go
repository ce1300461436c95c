// Package config provides map configuration management for City Navigator.
//
// The config package handles:
//   - The built-in "bookstore" map, always available
//   - Loading additional maps from JSON or YAML files in a directory
//   - Configuration validation through the engine package
//   - Configuration discovery and listing
//
// Configuration Format:
//
// A map file describes the road grid size in intersections, the landmarks
// placed on it and, optionally, replacements for the player-facing messages:
//
//	name: downtown
//	description: A small test town
//	rows: 4
//	cols: 5
//	landmarks:
//	  - {name: Library, row: 0, col: 1}
//	  - {name: Bakery, row: 3, col: 1}
//	messages:
//	  too_far: Keep driving!
//
// The file name without its extension is the map's identifier.
//
// Usage:
//
//	manager, err := config.NewManager("maps")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a compiled board for a session
//	board, err := manager.LoadBoard("downtown")
//
//	// List available maps
//	maps, err := manager.ListConfigs()
package config
