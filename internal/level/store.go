package level

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Store keeps named levels as files in a directory - the server-side
// stand-in for browser local storage. One level is the "current" slot
// that the editor autosaves into.
type Store struct {
	dir string
}

const currentSlot = "current"

// NewStore creates the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating level store dir")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	// Strip path separators so a level name can't escape the store dir
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '-'
		}
		return r
	}, name)
	return filepath.Join(s.dir, name+".json")
}

// Save writes a level under a name.
func (s *Store) Save(name string, l *Level) error {
	return SaveFile(l, s.path(name))
}

// Load reads a level by name.
func (s *Store) Load(name string) (*Level, error) {
	return LoadFile(s.path(name))
}

// SaveCurrent writes the editor autosave slot.
func (s *Store) SaveCurrent(l *Level) error {
	return s.Save(currentSlot, l)
}

// LoadCurrent reads the editor autosave slot.
func (s *Store) LoadCurrent() (*Level, error) {
	return s.Load(currentSlot)
}

// List returns stored level names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "listing level store")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
