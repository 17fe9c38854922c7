// Package memory keeps every record in process. It backs the calcctl CLI and tests and
// is loaded from YAML fixtures.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"print-calc/internal/storage"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Fixtures struct {
	Materials []storage.Material        `yaml:"materials"`
	Resources []storage.Resource        `yaml:"resources"`
	Templates []storage.ProductTemplate `yaml:"templates"`
	Users     []storage.User            `yaml:"users"`
	Orders    []storage.Order           `yaml:"orders"`
	Quotes    []storage.Quote           `yaml:"quotes"`
}

type resourceKey struct {
	typ storage.ResourceType
	id  int64
}

type state struct {
	materials map[int64]storage.Material
	resources map[resourceKey]storage.Resource
	templates map[int64]storage.ProductTemplate
	users     []storage.User
	orders    map[int64]storage.Order
	quotes    map[int64]storage.Quote
	steps     map[int64][]storage.ProductionStep
	lastID    int64
}

type Storage struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

func New() *Storage {
	return &Storage{
		st: &state{
			materials: map[int64]storage.Material{},
			resources: map[resourceKey]storage.Resource{},
			templates: map[int64]storage.ProductTemplate{},
			orders:    map[int64]storage.Order{},
			quotes:    map[int64]storage.Quote{},
			steps:     map[int64][]storage.ProductionStep{},
		},
		now: time.Now,
	}
}

func LoadFile(path string) (*Storage, error) {
	const op = "storage.memory.LoadFile"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}

	return s, nil
}

func Load(r io.Reader) (*Storage, error) {
	const op = "storage.memory.Load"

	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := New()
	if err := s.seed(fx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (s *Storage) seed(fx Fixtures) error {
	st := s.st

	for _, m := range fx.Materials {
		if _, dup := st.materials[m.ID]; dup {
			return fmt.Errorf("duplicate material id %d", m.ID)
		}
		st.materials[m.ID] = m
		st.bump(m.ID)
	}

	for _, r := range fx.Resources {
		switch r.Type {
		case storage.ResourceMachine, storage.ResourceFinishing, storage.ResourceLabor:
		default:
			return fmt.Errorf("resource %d: unknown type %q", r.ID, r.Type)
		}
		key := resourceKey{typ: r.Type, id: r.ID}
		if _, dup := st.resources[key]; dup {
			return fmt.Errorf("duplicate %s id %d", r.Type, r.ID)
		}
		st.resources[key] = r
		st.bump(r.ID)
	}

	for _, t := range fx.Templates {
		if _, dup := st.templates[t.ID]; dup {
			return fmt.Errorf("duplicate template id %d", t.ID)
		}
		st.templates[t.ID] = t
		st.bump(t.ID)
	}

	for _, u := range fx.Users {
		st.users = append(st.users, u)
		st.bump(u.ID)
	}

	for _, o := range fx.Orders {
		if o.Status == "" {
			o.Status = storage.OrderNew
		}
		st.orders[o.ID] = o
		st.bump(o.ID)
	}

	for _, q := range fx.Quotes {
		if _, ok := st.orders[q.OrderID]; !ok {
			return fmt.Errorf("quote %d: order %d: %w", q.ID, q.OrderID, storage.ErrNotFound)
		}
		if q.Status == "" {
			q.Status = storage.QuoteDraft
		}
		st.quotes[q.ID] = q
		st.bump(q.ID)
	}

	return nil
}

func (st *state) bump(id int64) {
	if id > st.lastID {
		st.lastID = id
	}
}

func (st *state) nextID() int64 {
	st.lastID++
	return st.lastID
}

func (st *state) clone() *state {
	c := &state{
		materials: make(map[int64]storage.Material, len(st.materials)),
		resources: make(map[resourceKey]storage.Resource, len(st.resources)),
		templates: make(map[int64]storage.ProductTemplate, len(st.templates)),
		users:     slices.Clone(st.users),
		orders:    make(map[int64]storage.Order, len(st.orders)),
		quotes:    make(map[int64]storage.Quote, len(st.quotes)),
		steps:     make(map[int64][]storage.ProductionStep, len(st.steps)),
		lastID:    st.lastID,
	}
	for k, v := range st.materials {
		c.materials[k] = v
	}
	for k, v := range st.resources {
		c.resources[k] = v
	}
	for k, v := range st.templates {
		c.templates[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	for k, v := range st.quotes {
		c.quotes[k] = v
	}
	for k, v := range st.steps {
		c.steps[k] = slices.Clone(v)
	}
	return c
}

func (s *Storage) GetTemplateByID(_ context.Context, id int64) (*storage.ProductTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.st.templates[id]
	if !ok {
		return nil, fmt.Errorf("storage.memory.GetTemplateByID: template %d: %w", id, storage.ErrNotFound)
	}
	return &t, nil
}

func (s *Storage) GetAllTemplates(_ context.Context) ([]*storage.ProductTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.ProductTemplate
	for _, t := range s.st.templates {
		if !t.IsActive {
			continue
		}
		t.WorkflowDefinition = nil
		out = append(out, &t)
	}

	slices.SortFunc(out, func(a, b *storage.ProductTemplate) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return out, nil
}

func (s *Storage) SaveTemplate(_ context.Context, t storage.ProductTemplate) (int64, error) {
	const op = "storage.memory.SaveTemplate"

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.DefaultMaterialID != nil {
		if _, ok := s.st.materials[*t.DefaultMaterialID]; !ok {
			return 0, fmt.Errorf("%s: default material %d: %w", op, *t.DefaultMaterialID, storage.ErrNotFound)
		}
	}

	if t.ID == 0 {
		t.ID = s.st.nextID()
	} else if _, ok := s.st.templates[t.ID]; !ok {
		return 0, fmt.Errorf("%s: template %d: %w", op, t.ID, storage.ErrNotFound)
	}

	s.st.templates[t.ID] = t
	return t.ID, nil
}

func (s *Storage) FindResourceByID(_ context.Context, resourceType storage.ResourceType, id int64) (*storage.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.st.resources[resourceKey{typ: resourceType, id: id}]
	if !ok {
		return nil, fmt.Errorf("storage.memory.FindResourceByID: %s %d: %w", resourceType, id, storage.ErrNotFound)
	}
	return &r, nil
}

func (s *Storage) FindMaterialByID(_ context.Context, id int64) (*storage.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.st.materials[id]
	if !ok {
		return nil, fmt.Errorf("storage.memory.FindMaterialByID: material %d: %w", id, storage.ErrNotFound)
	}
	return &m, nil
}

func (s *Storage) GetAllMaterials(_ context.Context) ([]*storage.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*storage.Material, 0, len(s.st.materials))
	for _, m := range s.st.materials {
		out = append(out, &m)
	}

	slices.SortFunc(out, func(a, b *storage.Material) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return out, nil
}
