package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
)

// In-memory doubles for the store interfaces. They honor the same error
// contracts as the postgres implementations so handler tests exercise the
// real conflict paths.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMemUserRepo(users ...*user.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*user.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return shared.ErrUsernameTaken
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username user.Username) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return shared.ErrUserNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) List(_ context.Context, opts user.ListOptions) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, u := range r.users {
		if opts.OnlyActive && !u.IsActive {
			continue
		}
		if opts.Role != "" && u.Role != opts.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memUserRepo) Count(ctx context.Context, opts user.ListOptions) (int, error) {
	list, err := r.List(ctx, opts)
	return len(list), err
}

type memRecordStore struct {
	mu      sync.Mutex
	byID    map[string]*attendance.Record
	mainKey map[string]string // userID|date -> recordID
	addKey  map[string]string // userID|date|role -> recordID
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{
		byID:    make(map[string]*attendance.Record),
		mainKey: make(map[string]string),
		addKey:  make(map[string]string),
	}
}

func mainKey(userID string, date shared.DateKey) string {
	return fmt.Sprintf("%s|%s", userID, date)
}

func addKey(userID string, date shared.DateKey, role shared.RoleLabel) string {
	return fmt.Sprintf("%s|%s|%s", userID, date, role)
}

func (s *memRecordStore) CreateIfAbsent(_ context.Context, rec *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Type == attendance.TypeMain {
		key := mainKey(rec.UserID, rec.Date)
		if _, taken := s.mainKey[key]; taken {
			return shared.ErrRecordExists
		}
		s.mainKey[key] = rec.ID
	} else {
		key := addKey(rec.UserID, rec.Date, rec.RoleTag())
		if _, taken := s.addKey[key]; taken {
			return shared.ErrDuplicateTask
		}
		s.addKey[key] = rec.ID
	}
	s.byID[rec.ID] = rec
	return nil
}

func (s *memRecordStore) Update(_ context.Context, rec *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.ID]; !ok {
		return shared.ErrRecordNotFound
	}
	s.byID[rec.ID] = rec
	return nil
}

func (s *memRecordStore) GetByID(_ context.Context, id string) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrRecordNotFound
	}
	return rec, nil
}

func (s *memRecordStore) FindMain(_ context.Context, userID string, date shared.DateKey) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.mainKey[mainKey(userID, date)]
	if !ok {
		return nil, nil
	}
	return s.byID[id], nil
}

func (s *memRecordStore) FindAdditional(_ context.Context, userID string, date shared.DateKey) ([]*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*attendance.Record
	for _, rec := range s.byID {
		if rec.Type == attendance.TypeAdditional && rec.UserID == userID && rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memRecordStore) List(_ context.Context, f attendance.Filter) ([]*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*attendance.Record
	for _, rec := range s.byID {
		if f.UserID != "" && rec.UserID != f.UserID {
			continue
		}
		if f.Type != "" && rec.Type != f.Type {
			continue
		}
		if f.Month != "" && rec.Date.Month() != f.Month {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type memConfigStore struct {
	mu  sync.Mutex
	cfg *school.Config
}

func newMemConfigStore(cfg *school.Config) *memConfigStore {
	return &memConfigStore{cfg: cfg}
}

func (s *memConfigStore) Load(_ context.Context) (*school.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return nil, shared.ErrConfigNotFound
	}
	return s.cfg, nil
}

func (s *memConfigStore) Save(_ context.Context, cfg *school.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

func (s *memConfigStore) SeedDefault(ctx context.Context) (*school.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		s.cfg = school.Default()
	}
	return s.cfg, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) published() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.Event(nil), p.events...)
}
