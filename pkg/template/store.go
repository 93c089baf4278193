// Package template persists named watermark setups and the last-used
// session as JSON files under the application's config directory.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/photomark/photomark/pkg/export"
	"github.com/photomark/photomark/pkg/watermark"
	"github.com/photomark/photomark/util/log"
)

// ErrNotFound reports a template name with no stored file.
var ErrNotFound = errors.New("template not found")

// Session is everything needed to restore the working state: the watermark
// being edited and the export settings that go with it.
type Session struct {
	Descriptor watermark.Descriptor `json:"descriptor"`
	Options    export.Options       `json:"options"`
}

// DefaultSession returns the state used when nothing has been saved yet.
func DefaultSession() Session {
	return Session{
		Descriptor: watermark.DefaultDescriptor(),
		Options:    export.DefaultOptions(),
	}
}

// Store reads and writes templates in dir and the last-used session at
// lastUsedPath. Writes are atomic: encode to a sibling temp file, then rename.
type Store struct {
	mu           sync.RWMutex
	dir          string
	lastUsedPath string
}

// NewStore creates a store rooted at dir. The directory is created on the
// first save, not here.
func NewStore(dir, lastUsedPath string) *Store {
	return &Store{dir: dir, lastUsedPath: lastUsedPath}
}

// Save writes the session under the given template name, replacing any
// previous template with that name.
func (s *Store) Save(name string, sess Session) error {
	clean, err := sanitizeName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating template directory: %w", err)
	}
	return writeJSON(s.path(clean), sess)
}

// Load reads the named template. Unknown names return ErrNotFound.
func (s *Store) Load(name string) (Session, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sess Session
	data, err := os.ReadFile(s.path(clean))
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Session{}, fmt.Errorf("reading template %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("parsing template %s: %w", name, err)
	}
	return sess, nil
}

// Names lists the stored template names in sorted order.
func (s *Store) Names() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing templates: %w", err)
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

// Delete removes the named template. Unknown names return ErrNotFound.
func (s *Store) Delete(name string) error {
	clean, err := sanitizeName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(clean)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("deleting template %s: %w", name, err)
	}
	return nil
}

// SaveLastUsed persists the session restored on the next launch.
func (s *Store) SaveLastUsed(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.lastUsedPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return writeJSON(s.lastUsedPath, sess)
}

// LoadLastUsed returns the previously saved session. A missing or corrupt
// file falls back to defaults so startup never fails on bad state.
func (s *Store) LoadLastUsed() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.lastUsedPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Template store: failed to read last session: %v", err)
		}
		return DefaultSession()
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Printf("Template store: last session is corrupt, using defaults: %v", err)
		return DefaultSession()
	}
	if err := sess.Descriptor.Validate(); err != nil {
		log.Printf("Template store: last session is invalid, using defaults: %v", err)
		return DefaultSession()
	}
	return sess
}

func (s *Store) path(clean string) string {
	return filepath.Join(s.dir, clean+".json")
}

// writeJSON encodes v to a temp file next to path and renames it into place.
func writeJSON(path string, v interface{}) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// sanitizeName rejects empty names and strips path separators so a template
// name can never escape the template directory.
func sanitizeName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", errors.New("template name is empty")
	}
	clean = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, clean)
	if clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid template name %q", name)
	}
	return clean, nil
}
