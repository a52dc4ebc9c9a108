// Package entitystore caches one backend collection client-side: a paginated list slot, a single "current"
// entity slot, and loading/error state. Mutations keep the cache consistent without refetching.
package entitystore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"quiz-platform/webclient/internal/platform/apierr"
)

// MaxPageLimit is the largest page size the backend accepts.
const MaxPageLimit = 100

// ErrStaleResponse is returned when a response arrives after a newer request for the same slot was issued.
// The response is discarded.
var ErrStaleResponse = errors.New("entitystore: stale response discarded")

// Backend performs the server calls for one entity type. C is the create input, P the update patch.
type Backend[T, C, P any] interface {
	List(ctx context.Context, skip, limit int) (items []T, total int, err error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, input C) (T, error)
	Update(ctx context.Context, id string, patch P) (T, error)
	Delete(ctx context.Context, id string) error
}

// Collection is a snapshot of the paginated list slot.
type Collection[T any] struct {
	Items   []T
	Total   int
	Skip    int
	Limit   int
	Loading bool
	Error   string
}

// Options configures a Store.
type Options[T any] struct {
	// ID returns the stable identifier of an entity. Required.
	ID func(T) string
	// SearchFields returns the text Filter matches against.
	SearchFields func(T) []string
	// PageLimit is the initial page size.
	PageLimit int
}

// Store is a concurrency-safe cache over a Backend.
type Store[T, C, P any] struct {
	backend Backend[T, C, P]
	id      func(T) string
	fields  func(T) []string

	mu         sync.Mutex
	coll       Collection[T]
	current    *T
	listSeq    uint64
	currentSeq uint64
}

// New returns an empty Store.
func New[T, C, P any](backend Backend[T, C, P], opts Options[T]) *Store[T, C, P] {
	limit := opts.PageLimit
	if limit < 1 || limit > MaxPageLimit {
		limit = 10
	}
	fields := opts.SearchFields
	if fields == nil {
		fields = func(T) []string { return nil }
	}
	return &Store[T, C, P]{
		backend: backend,
		id:      opts.ID,
		fields:  fields,
		coll:    Collection[T]{Limit: limit},
	}
}

// ValidatePage checks pagination parameters before they are sent.
func ValidatePage(skip, limit int) error {
	if skip < 0 {
		return apierr.Validation("skip", "must not be negative")
	}
	if limit < 1 || limit > MaxPageLimit {
		return apierr.Validation("limit", fmt.Sprintf("must be between 1 and %d", MaxPageLimit))
	}
	if skip%limit != 0 {
		return apierr.Validation("skip", "must be a multiple of limit")
	}
	return nil
}

// List fetches one page and replaces the list slot. On failure the previous items stay visible and the error is
// recorded. A response superseded by a newer List or SetPage is discarded with ErrStaleResponse.
func (s *Store[T, C, P]) List(ctx context.Context, skip, limit int) (Collection[T], error) {
	if err := ValidatePage(skip, limit); err != nil {
		return s.Collection(), err
	}
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.coll.Loading = true
	s.mu.Unlock()

	items, total, err := s.backend.List(ctx, skip, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		return s.snapshotLocked(), ErrStaleResponse
	}
	s.coll.Loading = false
	if err != nil {
		s.coll.Error = apierr.Message(err)
		return s.snapshotLocked(), err
	}
	if len(items) > limit {
		log.Printf("entitystore: backend returned %d items for limit %d; truncating", len(items), limit)
		items = items[:limit]
	}
	s.coll.Items = append([]T(nil), items...)
	s.coll.Total = total
	s.coll.Skip = skip
	s.coll.Limit = limit
	s.coll.Error = ""
	return s.snapshotLocked(), nil
}

// Reload fetches the page the store currently points at.
func (s *Store[T, C, P]) Reload(ctx context.Context) (Collection[T], error) {
	s.mu.Lock()
	skip, limit := s.coll.Skip, s.coll.Limit
	s.mu.Unlock()
	return s.List(ctx, skip, limit)
}

// GetByID fetches one entity into the current slot. The list slot is not touched.
func (s *Store[T, C, P]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := validateID(id); err != nil {
		return zero, err
	}
	s.mu.Lock()
	s.currentSeq++
	seq := s.currentSeq
	s.mu.Unlock()

	v, err := s.backend.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.currentSeq {
		return zero, ErrStaleResponse
	}
	if err != nil {
		s.coll.Error = apierr.Message(err)
		return zero, err
	}
	s.current = &v
	s.coll.Error = ""
	return v, nil
}

// Create creates an entity and prepends it to the list, incrementing Total. The list is not re-sorted or refetched;
// if the page is full its last item is dropped.
func (s *Store[T, C, P]) Create(ctx context.Context, input C) (T, error) {
	v, err := s.backend.Create(ctx, input)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.coll.Error = apierr.Message(err)
		var zero T
		return zero, err
	}
	items := make([]T, 0, len(s.coll.Items)+1)
	items = append(items, v)
	items = append(items, s.coll.Items...)
	if len(items) > s.coll.Limit {
		items = items[:s.coll.Limit]
	}
	s.coll.Items = items
	s.coll.Total++
	s.coll.Error = ""
	return v, nil
}

// Update applies patch and replaces the entity with the same id in the list and the current slot.
// Slots that do not hold the id are left alone.
func (s *Store[T, C, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var zero T
	if err := validateID(id); err != nil {
		return zero, err
	}
	v, err := s.backend.Update(ctx, id, patch)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.coll.Error = apierr.Message(err)
		return zero, err
	}
	for i := range s.coll.Items {
		if s.id(s.coll.Items[i]) == id {
			s.coll.Items[i] = v
		}
	}
	if s.current != nil && s.id(*s.current) == id {
		updated := v
		s.current = &updated
	}
	s.coll.Error = ""
	return v, nil
}

// Remove deletes the entity, drops it from the list, decrements Total and clears the current slot if it held it.
func (s *Store[T, C, P]) Remove(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	err := s.backend.Delete(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.coll.Error = apierr.Message(err)
		return err
	}
	kept := s.coll.Items[:0:0]
	for _, item := range s.coll.Items {
		if s.id(item) != id {
			kept = append(kept, item)
		}
	}
	s.coll.Items = kept
	if s.coll.Total > 0 {
		s.coll.Total--
	}
	if s.current != nil && s.id(*s.current) == id {
		s.current = nil
	}
	s.coll.Error = ""
	return nil
}

// SetPage points the store at another page without fetching it. In-flight list responses are invalidated and
// the visible items are trimmed to the new limit.
func (s *Store[T, C, P]) SetPage(skip, limit int) error {
	if err := ValidatePage(skip, limit); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	s.coll.Loading = false
	s.coll.Skip = skip
	s.coll.Limit = limit
	if len(s.coll.Items) > limit {
		s.coll.Items = append([]T(nil), s.coll.Items[:limit]...)
	}
	return nil
}

// ClearError forgets the last recorded error.
func (s *Store[T, C, P]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll.Error = ""
}

// ClearCurrent empties the current slot and discards an in-flight GetByID.
func (s *Store[T, C, P]) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSeq++
	s.current = nil
}

// Collection returns a snapshot of the list slot.
func (s *Store[T, C, P]) Collection() Collection[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Current returns the current entity, if any.
func (s *Store[T, C, P]) Current() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		var zero T
		return zero, false
	}
	return *s.current, true
}

// Filter returns the already-fetched items whose search fields contain query, case-insensitively.
// It only sees the current page. An empty query returns every item.
func (s *Store[T, C, P]) Filter(query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.coll.Items))
	for _, item := range s.coll.Items {
		if q == "" || s.matches(item, q) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store[T, C, P]) matches(item T, q string) bool {
	for _, f := range s.fields(item) {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *Store[T, C, P]) snapshotLocked() Collection[T] {
	c := s.coll
	c.Items = append([]T(nil), s.coll.Items...)
	return c
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apierr.Validation("id", "is required")
	}
	return nil
}
