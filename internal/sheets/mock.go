package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/service"
)

var _ service.ShoppingListWriter = (*MockWriter)(nil)

// MockWriter is a mock implementation of ShoppingListWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, draft *model.ShoppingListDraft) error
	LastDraft      *model.ShoppingListDraft
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to WriteShoppingList.
type WriteCall struct {
	Error error
	Draft *model.ShoppingListDraft
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// WriteShoppingList implements the ShoppingListWriter interface.
func (m *MockWriter) WriteShoppingList(ctx context.Context, draft *model.ShoppingListDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastDraft = draft

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, draft)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Draft: draft,
		Error: err,
	})

	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return an error on every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(_ context.Context, _ *model.ShoppingListDraft) error {
		return err
	}
}
