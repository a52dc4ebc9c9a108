package entitystore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"quiz-platform/webclient/internal/platform/apierr"
)

type item struct {
	ID   string
	Name string
}

type patch struct{ Name string }

// fakeBackend is an in-memory server-side collection ordered newest first.
type fakeBackend struct {
	mu      sync.Mutex
	items   []item
	nextID  int
	failAll error
	// gate, if set, is received from before List returns, letting tests reorder responses.
	gate map[int]chan struct{}
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{}
	for i := 1; i <= n; i++ {
		b.items = append(b.items, item{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Company %d", i)})
	}
	b.nextID = n + 1
	return b
}

func (b *fakeBackend) List(ctx context.Context, skip, limit int) ([]item, int, error) {
	b.mu.Lock()
	gate := b.gate[skip]
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll != nil {
		return nil, 0, b.failAll
	}
	if skip >= len(b.items) {
		return []item{}, len(b.items), nil
	}
	end := min(skip+limit, len(b.items))
	return append([]item(nil), b.items[skip:end]...), len(b.items), nil
}

func (b *fakeBackend) Get(ctx context.Context, id string) (item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll != nil {
		return item{}, b.failAll
	}
	for _, it := range b.items {
		if it.ID == id {
			return it, nil
		}
	}
	return item{}, &apierr.Error{Kind: apierr.KindRequest, Status: 404, Detail: "not found"}
}

func (b *fakeBackend) Create(ctx context.Context, in patch) (item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll != nil {
		return item{}, b.failAll
	}
	it := item{ID: fmt.Sprintf("c%d", b.nextID), Name: in.Name}
	b.nextID++
	b.items = append([]item{it}, b.items...)
	return it, nil
}

func (b *fakeBackend) Update(ctx context.Context, id string, p patch) (item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll != nil {
		return item{}, b.failAll
	}
	for i := range b.items {
		if b.items[i].ID == id {
			b.items[i].Name = p.Name
			return b.items[i], nil
		}
	}
	return item{}, &apierr.Error{Kind: apierr.KindRequest, Status: 404}
}

func (b *fakeBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll != nil {
		return b.failAll
	}
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return &apierr.Error{Kind: apierr.KindRequest, Status: 404}
}

func (b *fakeBackend) setFail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAll = err
}

func newStore(b *fakeBackend, limit int) *Store[item, patch, patch] {
	return New[item, patch, patch](b, Options[item]{
		ID:           func(i item) string { return i.ID },
		SearchFields: func(i item) []string { return []string{i.Name} },
		PageLimit:    limit,
	})
}

func TestList(t *testing.T) {
	s := newStore(newFakeBackend(25), 10)
	coll, err := s.List(context.Background(), 10, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(coll.Items) != 10 || coll.Total != 25 || coll.Skip != 10 || coll.Limit != 10 {
		t.Errorf("List = %d items, total %d, skip %d, limit %d", len(coll.Items), coll.Total, coll.Skip, coll.Limit)
	}
	if coll.Items[0].ID != "c11" {
		t.Errorf("first item = %q, want c11", coll.Items[0].ID)
	}
	if coll.Loading || coll.Error != "" {
		t.Errorf("Loading %v, Error %q after success", coll.Loading, coll.Error)
	}
}

func TestList_SkipPastTotal(t *testing.T) {
	s := newStore(newFakeBackend(5), 5)
	coll, err := s.List(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(coll.Items) != 0 || coll.Total != 5 {
		t.Errorf("List past end = %d items, total %d; want 0, 5", len(coll.Items), coll.Total)
	}
}

func TestList_FailureKeepsItems(t *testing.T) {
	b := newFakeBackend(3)
	s := newStore(b, 10)
	if _, err := s.List(context.Background(), 0, 10); err != nil {
		t.Fatalf("List: %v", err)
	}
	b.setFail(&apierr.Error{Kind: apierr.KindServer, Status: 503, Detail: "down"})
	coll, err := s.List(context.Background(), 0, 10)
	if !errors.Is(err, apierr.ErrServer) {
		t.Fatalf("List err = %v, want server error", err)
	}
	if len(coll.Items) != 3 || coll.Total != 3 {
		t.Errorf("items after failure = %d (total %d), want 3", len(coll.Items), coll.Total)
	}
	if coll.Error == "" || coll.Loading {
		t.Errorf("Error %q, Loading %v after failure", coll.Error, coll.Loading)
	}
	s.ClearError()
	if got := s.Collection().Error; got != "" {
		t.Errorf("Error after ClearError = %q", got)
	}
}

func TestList_InvalidPage(t *testing.T) {
	testCases := []struct {
		name        string
		skip, limit int
	}{
		{"negative skip", -10, 10},
		{"zero limit", 0, 0},
		{"limit too large", 0, 101},
		{"skip not multiple", 5, 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(newFakeBackend(1), 10)
			_, err := s.List(context.Background(), tc.skip, tc.limit)
			if !errors.Is(err, apierr.ErrValidation) {
				t.Errorf("List(%d, %d) err = %v, want validation error", tc.skip, tc.limit, err)
			}
		})
	}
}

func TestList_StaleResponseDiscarded(t *testing.T) {
	b := newFakeBackend(30)
	slow := make(chan struct{})
	b.gate = map[int]chan struct{}{0: slow}
	s := newStore(b, 10)

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = s.List(context.Background(), 0, 10)
	}()

	// Wait for the slow request to register before issuing the newer one.
	for !s.Collection().Loading {
		runtime.Gosched()
	}
	if _, err := s.List(context.Background(), 10, 10); err != nil {
		t.Fatalf("newer List: %v", err)
	}
	close(slow)
	wg.Wait()

	if !errors.Is(slowErr, ErrStaleResponse) {
		t.Errorf("slow List err = %v, want ErrStaleResponse", slowErr)
	}
	coll := s.Collection()
	if coll.Skip != 10 || coll.Items[0].ID != "c11" {
		t.Errorf("collection overwritten by stale response: skip %d first %q", coll.Skip, coll.Items[0].ID)
	}
}

func TestGetByID_DoesNotTouchList(t *testing.T) {
	s := newStore(newFakeBackend(3), 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)

	got, err := s.GetByID(ctx, "c2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != "c2" {
		t.Errorf("GetByID = %q, want c2", got.ID)
	}
	cur, ok := s.Current()
	if !ok || cur.ID != "c2" {
		t.Errorf("Current = %v, %v", cur, ok)
	}
	if _, err := s.GetByID(ctx, ""); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("GetByID empty id err = %v, want validation error", err)
	}
	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, apierr.ErrRequest) {
		t.Errorf("GetByID missing err = %v, want request error", err)
	}
	if cur, _ := s.Current(); cur.ID != "c2" {
		t.Errorf("Current after failed fetch = %q, want c2 kept", cur.ID)
	}
	s.ClearCurrent()
	if _, ok := s.Current(); ok {
		t.Error("Current set after ClearCurrent")
	}
}

func TestCreate_PrependsAndIncrementsTotal(t *testing.T) {
	s := newStore(newFakeBackend(5), 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)

	created, err := s.Create(ctx, patch{Name: "Acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	coll := s.Collection()
	if coll.Total != 6 {
		t.Errorf("Total = %d, want 6", coll.Total)
	}
	if coll.Items[0].Name != "Acme" || coll.Items[0].ID != created.ID {
		t.Errorf("Items[0] = %+v, want Acme", coll.Items[0])
	}
}

func TestCreate_FullPageKeepsLimit(t *testing.T) {
	s := newStore(newFakeBackend(20), 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)
	if _, err := s.Create(ctx, patch{Name: "Acme"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	coll := s.Collection()
	if len(coll.Items) != 10 || coll.Total != 21 {
		t.Errorf("after Create: %d items, total %d; want 10, 21", len(coll.Items), coll.Total)
	}
	if coll.Items[0].Name != "Acme" || coll.Items[9].ID != "c9" {
		t.Errorf("unexpected order: first %q last %q", coll.Items[0].Name, coll.Items[9].ID)
	}
}

func TestCreate_FailureLeavesList(t *testing.T) {
	b := newFakeBackend(2)
	s := newStore(b, 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)
	b.setFail(&apierr.Error{Kind: apierr.KindForbidden, Status: 403})
	if _, err := s.Create(ctx, patch{Name: "Acme"}); !errors.Is(err, apierr.ErrForbidden) {
		t.Fatalf("Create err = %v, want forbidden", err)
	}
	if coll := s.Collection(); coll.Total != 2 || len(coll.Items) != 2 {
		t.Errorf("list changed on failed Create: %+v", coll)
	}
}

func TestUpdate_ReplacesInListAndCurrent(t *testing.T) {
	s := newStore(newFakeBackend(3), 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)
	_, _ = s.GetByID(ctx, "c1")

	if _, err := s.Update(ctx, "c1", patch{Name: "new"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	coll := s.Collection()
	if coll.Items[0].Name != "new" {
		t.Errorf("list item c1 = %q, want new", coll.Items[0].Name)
	}
	if coll.Items[1].Name != "Company 2" {
		t.Errorf("unrelated item c2 = %q, want untouched", coll.Items[1].Name)
	}
	if cur, _ := s.Current(); cur.Name != "new" {
		t.Errorf("current = %q, want new", cur.Name)
	}
}

func TestUpdate_AbsentIDLeavesSlots(t *testing.T) {
	b := newFakeBackend(15)
	s := newStore(b, 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)
	_, _ = s.GetByID(ctx, "c1")

	if _, err := s.Update(ctx, "c12", patch{Name: "elsewhere"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for _, it := range s.Collection().Items {
		if it.Name == "elsewhere" {
			t.Errorf("item %q changed by update of an id not in the list", it.ID)
		}
	}
	if cur, _ := s.Current(); cur.ID != "c1" || cur.Name != "Company 1" {
		t.Errorf("current changed: %+v", cur)
	}
}

func TestRemove(t *testing.T) {
	s := newStore(newFakeBackend(3), 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)
	_, _ = s.GetByID(ctx, "c2")

	if err := s.Remove(ctx, "c2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	coll := s.Collection()
	for _, it := range coll.Items {
		if it.ID == "c2" {
			t.Error("removed item still listed")
		}
	}
	if coll.Total != 2 {
		t.Errorf("Total = %d, want 2", coll.Total)
	}
	if _, ok := s.Current(); ok {
		t.Error("current not cleared after removing it")
	}
}

func TestRemove_KeepsUnrelatedCurrent(t *testing.T) {
	s := newStore(newFakeBackend(3), 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)
	_, _ = s.GetByID(ctx, "c1")
	if err := s.Remove(ctx, "c3"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if cur, ok := s.Current(); !ok || cur.ID != "c1" {
		t.Errorf("current = %+v, %v; want c1 kept", cur, ok)
	}
}

func TestSetPage(t *testing.T) {
	s := newStore(newFakeBackend(30), 10)
	ctx := context.Background()
	_, _ = s.List(ctx, 0, 10)

	if err := s.SetPage(20, 5); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	coll := s.Collection()
	if coll.Skip != 20 || coll.Limit != 5 || len(coll.Items) != 5 {
		t.Errorf("after SetPage: skip %d limit %d items %d", coll.Skip, coll.Limit, len(coll.Items))
	}
	coll, err := s.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if coll.Items[0].ID != "c21" {
		t.Errorf("Reload first item = %q, want c21", coll.Items[0].ID)
	}
	if err := s.SetPage(3, 5); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("SetPage(3, 5) err = %v, want validation error", err)
	}
}

func TestFilter(t *testing.T) {
	b := newFakeBackend(0)
	b.items = []item{{ID: "1", Name: "Acme Corp"}, {ID: "2", Name: "Globex"}, {ID: "3", Name: "acme labs"}}
	s := newStore(b, 10)
	_, _ = s.List(context.Background(), 0, 10)

	if got := s.Filter("ACME"); len(got) != 2 {
		t.Errorf("Filter(ACME) = %d items, want 2", len(got))
	}
	if got := s.Filter(""); len(got) != 3 {
		t.Errorf("Filter(\"\") = %d items, want 3", len(got))
	}
	if got := s.Filter("initech"); len(got) != 0 {
		t.Errorf("Filter(initech) = %d items, want 0", len(got))
	}
}
