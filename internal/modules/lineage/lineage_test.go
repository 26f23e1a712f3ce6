package lineage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type memStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*content.Generation
}

func newMemStore() *memStore { return &memStore{rows: map[uuid.UUID]*content.Generation{}} }

func (m *memStore) Create(ctx context.Context, g *content.Generation) (*content.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	if cp.ParentGenerationID != nil {
		parent, ok := m.rows[*cp.ParentGenerationID]
		if !ok {
			return nil, errors.New("parent missing")
		}
		cp.EditCount = parent.EditCount + 1
	} else {
		cp.EditCount = 0
	}
	m.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (*content.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *memStore) List(ctx context.Context, filter ListFilter) ([]*content.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*content.Generation
	for _, g := range m.rows {
		if filter.UserID == uuid.Nil || g.UserID == filter.UserID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) put(g *content.Generation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.rows[g.ID] = &cp
}

type fakeBackend struct {
	mu        sync.Mutex
	generates int
	edits     int
	history   json.RawMessage
	err       error
}

func (f *fakeBackend) Generate(ctx context.Context, prompt string, opts content.GenerateOptions) (content.BackendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generates++
	if f.err != nil {
		return content.BackendResult{}, f.err
	}
	return content.BackendResult{Status: "complete", ResultLocator: "uploads/root.png", ConversationHistory: f.history}, nil
}

func (f *fakeBackend) Edit(ctx context.Context, parentID uuid.UUID, editPrompt string, history datatypes.JSON) (content.BackendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	if f.err != nil {
		return content.BackendResult{}, f.err
	}
	return content.BackendResult{Status: "complete", ResultLocator: "https://cdn/edit.png", ConversationHistory: f.history}, nil
}

func newTestService(store Store, backend Backend) *Service {
	return NewService(logger.Nop(), store, backend)
}

func TestRecordResultRootInvariants(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeBackend{})
	ctx := context.Background()

	withHistory, err := svc.RecordResult(ctx, RecordInput{UserID: uuid.New(), Prompt: "beach", Raw: content.BackendResult{ConversationHistory: json.RawMessage(`{"turn":1}`)}})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if withHistory.ParentGenerationID != nil || withHistory.EditCount != 0 {
		t.Fatalf("root invariants violated: %+v", withHistory)
	}
	if !withHistory.CanEdit() {
		t.Fatalf("root with history should be editable")
	}

	noHistory, err := svc.RecordResult(ctx, RecordInput{UserID: uuid.New(), Prompt: "beach"})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if noHistory.CanEdit() || noHistory.ConversationHistory != nil {
		t.Fatalf("root without history must not be editable")
	}
	if noHistory.Status != string(content.GenerationComplete) {
		t.Fatalf("status: %q", noHistory.Status)
	}
}

func TestEditIncrementsEditCount(t *testing.T) {
	store := newMemStore()
	backend := &fakeBackend{history: json.RawMessage(`{"turn":2}`)}
	svc := newTestService(store, backend)
	ctx := context.Background()
	userID := uuid.New()

	root, err := svc.Generate(ctx, userID, "mug on a table", content.GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	child, err := svc.Edit(ctx, userID, root.ID, "make it blue")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	grandchild, err := svc.Edit(ctx, userID, child.ID, "add steam")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if child.EditCount != root.EditCount+1 || grandchild.EditCount != child.EditCount+1 {
		t.Fatalf("edit counts: root=%d child=%d grandchild=%d", root.EditCount, child.EditCount, grandchild.EditCount)
	}
	if *grandchild.ParentGenerationID != child.ID || grandchild.Prompt != root.Prompt || grandchild.EditPrompt != "add steam" {
		t.Fatalf("unexpected grandchild: %+v", grandchild)
	}
}

func TestEditWithoutHistoryIsRejectedBeforeBackend(t *testing.T) {
	store := newMemStore()
	backend := &fakeBackend{}
	svc := newTestService(store, backend)
	userID := uuid.New()
	parent := &content.Generation{ID: uuid.New(), UserID: userID, Prompt: "p", Status: "complete"}
	store.put(parent)

	_, err := svc.Edit(context.Background(), userID, parent.ID, "again")
	ie, ok := IsIntegrity(err)
	if !ok || ie.Reason != ReasonNoContinuation {
		t.Fatalf("expected no_continuation integrity error, got %v", err)
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("errors.Is(ErrIntegrity) should match")
	}
	if backend.edits != 0 {
		t.Fatalf("backend must not be called, got %d edits", backend.edits)
	}
}

func TestEditMissingOrForeignParentIsRejected(t *testing.T) {
	store := newMemStore()
	backend := &fakeBackend{}
	svc := newTestService(store, backend)

	if _, err := svc.Edit(context.Background(), uuid.New(), uuid.New(), "x"); err == nil {
		t.Fatalf("expected error for missing parent")
	} else if ie, ok := IsIntegrity(err); !ok || ie.Reason != ReasonParentNotFound {
		t.Fatalf("expected parent_not_found, got %v", err)
	}

	owner := uuid.New()
	parent := &content.Generation{ID: uuid.New(), UserID: owner, Prompt: "p", ConversationHistory: datatypes.JSON(`{}`)}
	store.put(parent)
	if _, err := svc.Edit(context.Background(), uuid.New(), parent.ID, "x"); err == nil {
		t.Fatalf("expected error for foreign parent")
	}
	if backend.edits != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestRecordResultRejectsCycle(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeBackend{})
	hist := json.RawMessage(`{"k":1}`)
	ctx := context.Background()

	root, err := svc.RecordResult(ctx, RecordInput{Prompt: "root", Raw: content.BackendResult{ConversationHistory: hist}})
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	child, err := svc.RecordResult(ctx, RecordInput{ParentID: &root.ID, Prompt: "child", Raw: content.BackendResult{ConversationHistory: hist}})
	if err != nil {
		t.Fatalf("child: %v", err)
	}

	_, err = svc.RecordResult(ctx, RecordInput{ID: root.ID, ParentID: &child.ID, Prompt: "loop"})
	if ie, ok := IsIntegrity(err); !ok || ie.Reason != ReasonCycle {
		t.Fatalf("expected cycle rejection, got %v", err)
	}
}

func TestBackendErrorsPropagateUnchanged(t *testing.T) {
	sentinel := errors.New("rate limited")
	svc := newTestService(newMemStore(), &fakeBackend{err: sentinel})
	_, err := svc.Generate(context.Background(), uuid.New(), "p", content.GenerateOptions{})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected backend error to propagate, got %v", err)
	}
}

func TestConcurrentEditsOfOneParent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeBackend{history: json.RawMessage(`{"t":1}`)})
	userID := uuid.New()
	parent := &content.Generation{ID: uuid.New(), UserID: userID, Prompt: "p", EditCount: 3, ConversationHistory: datatypes.JSON(`{}`)}
	parentID := uuid.New()
	parent.ParentGenerationID = &parentID
	store.put(&content.Generation{ID: parentID, UserID: userID, Prompt: "p", EditCount: 2, ConversationHistory: datatypes.JSON(`{}`)})
	store.put(parent)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	counts := make(chan int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := svc.Edit(context.Background(), userID, parent.ID, "variant")
			if err != nil {
				errs <- err
				return
			}
			counts <- g.EditCount
		}()
	}
	wg.Wait()
	close(errs)
	close(counts)
	for err := range errs {
		t.Fatalf("Edit: %v", err)
	}
	for c := range counts {
		if c != 4 {
			t.Fatalf("child edit count: want=4 got=%d", c)
		}
	}
}
