// Package level defines the JSON level format and the small JSON stores
// the game persists through (levels, player profile).
package level

import (
	"encoding/json"
	"log"
	"os"

	"github.com/pkg/errors"
)

// FormatVersion is the only schema gate: a level whose version doesn't
// match is rejected outright, leaving whatever was loaded before intact.
const FormatVersion = 1

// Building is one placed structure. Shape is "box" or "cylinder";
// Scale is the full extent on each axis.
type Building struct {
	Shape     string     `json:"shape"`
	Position  [3]float64 `json:"position"` // x, y, z of the base center
	Scale     [3]float64 `json:"scale"`    // width, height, depth
	Rotation  float64    `json:"rotation"` // Yaw degrees
	Color     string     `json:"color"`    // Hex like "#8a7f6d"
	Collision bool       `json:"collision"`
}

// Road is a flat polyline strip.
type Road struct {
	Points [][2]float64 `json:"points"` // x, z pairs
	Width  float64      `json:"width"`
}

// Level is the complete persisted level.
type Level struct {
	Version   int        `json:"version"`
	Name      string     `json:"name"`
	Spawn     [3]float64 `json:"spawn"`
	Buildings []Building `json:"buildings"`
	Roads     []Road     `json:"roads"`
}

// New returns an empty level at the current format version.
func New(name string) *Level {
	return &Level{Version: FormatVersion, Name: name}
}

// Encode serializes the level to pretty JSON.
func (l *Level) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding level")
	}
	return data, nil
}

// Decode parses level JSON. A version mismatch is an error - the caller
// keeps its prior state.
func Decode(data []byte) (*Level, error) {
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(err, "parsing level")
	}
	if l.Version != FormatVersion {
		return nil, errors.Errorf("level version %d, want %d", l.Version, FormatVersion)
	}
	return &l, nil
}

// Validate checks structural sanity beyond what JSON decoding enforces.
func (l *Level) Validate() error {
	for i, b := range l.Buildings {
		if b.Scale[0] <= 0 || b.Scale[1] <= 0 || b.Scale[2] <= 0 {
			return errors.Errorf("building %d has non-positive scale", i)
		}
		if b.Shape != "box" && b.Shape != "cylinder" {
			return errors.Errorf("building %d has unknown shape %q", i, b.Shape)
		}
	}
	for i, r := range l.Roads {
		if len(r.Points) < 2 {
			return errors.Errorf("road %d has fewer than 2 points", i)
		}
		if r.Width <= 0 {
			return errors.Errorf("road %d has non-positive width", i)
		}
	}
	return nil
}

// LoadFile reads and decodes a level file.
func LoadFile(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading level file")
	}
	l, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// SaveFile encodes and writes a level file.
func SaveFile(l *Level, path string) error {
	data, err := l.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "writing level file")
	}
	log.Printf("💾 Level %q saved: %d buildings, %d roads", l.Name, len(l.Buildings), len(l.Roads))
	return nil
}
