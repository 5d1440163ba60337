package views

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/utils"
	"github.com/google/uuid"
)

const viewsFileName = "views.json"

// ErrNotFound is returned when no view matches a name or id.
var ErrNotFound = errors.New("view not found")

// View is a named, persisted filter selection.
type View struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Filter      dataset.Filter `json:"filter" yaml:"filter"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
}

// Store persists views as a single JSON document in a directory.
type Store struct {
	mu    sync.Mutex
	dir   string
	views map[string]*View
}

type document struct {
	Views []*View `json:"views"`
}

// Open loads the views file from dir. A missing file yields an empty store.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir, views: make(map[string]*View)}
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read views: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}
	for _, v := range doc.Views {
		if v == nil || v.ID == "" {
			continue
		}
		s.views[v.ID] = v
	}
	return s, nil
}

// Dir returns the on-disk directory of the store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path() string { return filepath.Join(s.dir, viewsFileName) }

// Save validates f and stores it under name, replacing any view with the same
// name (keeping its id and creation time). The file is written atomically.
func (s *Store) Save(name, description string, f dataset.Filter) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("view name is required")
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	v := s.byNameLocked(name)
	if v == nil {
		v = &View{ID: uuid.NewString(), Name: name, CreatedAt: now}
	}
	v.Description = strings.TrimSpace(description)
	v.Filter = f
	v.UpdatedAt = now
	s.views[v.ID] = v
	if err := s.flushLocked(); err != nil {
		return nil, err
	}
	out := *v
	return &out, nil
}

// Get finds a view by id or, failing that, by case-insensitive name.
func (s *Store) Get(nameOrID string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.lookupLocked(nameOrID)
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
	}
	out := *v
	return &out, nil
}

// List returns all views sorted by name.
func (s *Store) List() []View {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]View, 0, len(s.views))
	for _, v := range s.views {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Name, out[j].Name) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Delete removes a view by id or name.
func (s *Store) Delete(nameOrID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.lookupLocked(nameOrID)
	if v == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
	}
	delete(s.views, v.ID)
	return s.flushLocked()
}

func (s *Store) lookupLocked(nameOrID string) *View {
	key := strings.TrimSpace(nameOrID)
	if v, ok := s.views[key]; ok {
		return v
	}
	return s.byNameLocked(key)
}

func (s *Store) byNameLocked(name string) *View {
	for _, v := range s.views {
		if strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return nil
}

func (s *Store) flushLocked() error {
	if s.dir == "" {
		return errors.New("views directory not set")
	}
	doc := document{Views: make([]*View, 0, len(s.views))}
	for _, v := range s.views {
		doc.Views = append(doc.Views, v)
	}
	sort.Slice(doc.Views, func(i, j int) bool { return doc.Views[i].ID < doc.Views[j].ID })
	data, err := utils.PrettyJSON(doc)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(s.path(), data)
}
