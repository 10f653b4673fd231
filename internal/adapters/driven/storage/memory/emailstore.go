package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.EmailStore    = (*EmailStore)(nil)
	_ driven.CategoryStore = (*CategoryStore)(nil)
)

// Store holds emails and categories in memory. Both views share one lock
// so that category deletes and email reassignment are atomic.
type Store struct {
	mu         sync.RWMutex
	emails     map[int64]domain.Email
	categories map[int64]domain.Category
	nextEmail  int64
	nextCat    int64
	now        func() time.Time
}

// NewStore creates a store seeded with the default categories.
func NewStore() *Store {
	s := &Store{
		emails:     make(map[int64]domain.Email),
		categories: make(map[int64]domain.Category),
		now:        time.Now,
	}
	for _, c := range domain.DefaultCategories() {
		s.nextCat++
		c.ID = s.nextCat
		c.CreatedAt = s.now()
		s.categories[c.ID] = c
	}
	return s
}

// Emails returns the email view of the store.
func (s *Store) Emails() *EmailStore { return &EmailStore{s: s} }

// Categories returns the category view of the store.
func (s *Store) Categories() *CategoryStore { return &CategoryStore{s: s} }

// EmailStore is the in-memory driven.EmailStore.
type EmailStore struct{ s *Store }

// NewEmailStore creates a standalone email store.
func NewEmailStore() *EmailStore { return NewStore().Emails() }

// Create stores a new email and returns its ID.
func (e *EmailStore) Create(_ context.Context, email *domain.Email) (int64, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEmail++
	rec := *email
	rec.ID = s.nextEmail
	// Monotonic creation times keep newest-first ordering stable.
	rec.CreatedAt = s.now().Add(time.Duration(rec.ID) * time.Nanosecond)
	if rec.Category == "" {
		rec.Category = domain.CategoryUnclassified
	}
	if rec.Status == "" {
		rec.Status = domain.StatusCompleted
	}
	s.emails[rec.ID] = rec
	return rec.ID, nil
}

// Get retrieves an email by ID.
func (e *EmailStore) Get(_ context.Context, id int64) (*domain.Email, error) {
	s := e.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.emails[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// List returns emails newest first.
func (e *EmailStore) List(_ context.Context, filter domain.EmailFilter) ([]domain.Email, error) {
	filter = filter.Normalise()
	s := e.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []domain.Email
	for _, rec := range s.emails {
		if filter.Category != "" && rec.Category != filter.Category {
			continue
		}
		all = append(all, rec)
	}
	sortNewestFirst(all)

	if filter.Offset >= len(all) {
		return []domain.Email{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

// ListPending returns deferred emails, oldest first.
func (e *EmailStore) ListPending(_ context.Context) ([]domain.Email, error) {
	s := e.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []domain.Email
	for _, rec := range s.emails {
		if rec.Status == domain.StatusPending {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

// UpdateCategory sets an email's category.
func (e *EmailStore) UpdateCategory(_ context.Context, id int64, category string) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.emails[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Category = category
	s.emails[id] = rec
	return nil
}

// UpdateClassification replaces an email's classification fields.
func (e *EmailStore) UpdateClassification(_ context.Context, id int64, result domain.ClassificationResult) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.emails[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Category = result.Category
	if result.Subject != "" {
		rec.Subject = result.Subject
	}
	rec.Summary = result.Summary
	rec.ExtractedDate = result.ExtractedDate
	rec.Status = result.Status
	s.emails[id] = rec
	return nil
}

// Delete removes an email.
func (e *EmailStore) Delete(_ context.Context, id int64) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.emails, id)
	return nil
}

func sortNewestFirst(emails []domain.Email) {
	sort.Slice(emails, func(i, j int) bool {
		if emails[i].CreatedAt.Equal(emails[j].CreatedAt) {
			return emails[i].ID > emails[j].ID
		}
		return emails[i].CreatedAt.After(emails[j].CreatedAt)
	})
}

// CategoryStore is the in-memory driven.CategoryStore.
type CategoryStore struct{ s *Store }

// List returns all categories ordered by ID.
func (c *CategoryStore) List(_ context.Context) ([]domain.Category, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a category by ID.
func (c *CategoryStore) Get(_ context.Context, id int64) (*domain.Category, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cat, nil
}

// Add creates a category.
func (c *CategoryStore) Add(_ context.Context, name, description string) (*domain.Category, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(name, 0) {
		return nil, domain.ErrAlreadyExists
	}
	s.nextCat++
	cat := domain.Category{ID: s.nextCat, Name: name, Description: description, CreatedAt: s.now()}
	s.categories[cat.ID] = cat
	return &cat, nil
}

// Update renames a category and moves its emails to the new name.
func (c *CategoryStore) Update(_ context.Context, id int64, name, description string) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.categories[id]
	if !ok {
		return domain.ErrNotFound
	}
	if s.nameTaken(name, id) {
		return domain.ErrAlreadyExists
	}
	old := cat.Name
	cat.Name = name
	cat.Description = description
	s.categories[id] = cat
	s.reassign(old, name)
	return nil
}

// Delete removes a category and moves its emails to Unclassified.
func (c *CategoryStore) Delete(_ context.Context, id int64) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.categories[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.reassign(cat.Name, domain.CategoryUnclassified)
	delete(s.categories, id)
	return nil
}

func (s *Store) nameTaken(name string, except int64) bool {
	for id, cat := range s.categories {
		if id != except && cat.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) reassign(from, to string) {
	if from == to {
		return
	}
	for id, rec := range s.emails {
		if rec.Category == from {
			rec.Category = to
			s.emails[id] = rec
		}
	}
}
