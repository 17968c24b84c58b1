package agentcard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/stacklok/mcp-vgateway/pkg/logger"
)

// FileStore is a file-backed Card store: root/<name>/<version>.json, one
// file per card. Writes are serialized per-file with gofrs/flock so
// concurrent writers never interleave; Get and List do not take the lock.
type FileStore struct {
	root string
}

// NewFileStore creates (if absent) root and returns a store rooted there.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create agent card root %q: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) cardPath(name, version string) string {
	return filepath.Join(s.root, name, version+".json")
}

// Save writes card to root/<name>/<version>.json, overwriting any
// existing file for that (name, version) pair.
func (s *FileStore) Save(card *Card) error {
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}

	path := s.cardPath(card.Name, card.Version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create agent dir for %q: %w", card.Name, err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock agent card %s:%s: %w", card.Name, card.Version, err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return fmt.Errorf("encode agent card %s:%s: %w", card.Name, card.Version, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write agent card %s:%s: %w", card.Name, card.Version, err)
	}

	logger.Infof("saved agent card %s:%s to %s", card.Name, card.Version, path)
	return nil
}

// Get returns the stored card for (name, version), or (nil, nil) if no
// such card exists. A malformed file is a real error, not a miss.
func (s *FileStore) Get(name, version string) (*Card, error) {
	path := s.cardPath(name, version)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agent card %s:%s: %w", name, version, err)
	}

	var card Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("parse agent card %s:%s: %w", name, version, err)
	}
	return &card, nil
}

// List returns every stored card, optionally filtered to one agent name.
// Unreadable or malformed files are skipped with a warning rather than
// failing the whole listing.
func (s *FileStore) List(nameFilter string) ([]*Card, error) {
	var dirs []string
	if nameFilter != "" {
		p := filepath.Join(s.root, nameFilter)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
		return s.listDirs(dirs), nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list agent card root: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(s.root, e.Name()))
		}
	}
	return s.listDirs(dirs), nil
}

func (s *FileStore) listDirs(dirs []string) []*Card {
	var cards []*Card
	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			continue
		}
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				logger.Warnf("skipping unreadable agent card %s: %v", f, err)
				continue
			}
			var card Card
			if err := json.Unmarshal(data, &card); err != nil {
				logger.Warnf("skipping malformed agent card %s: %v", f, err)
				continue
			}
			cards = append(cards, &card)
		}
	}
	return cards
}
