package listmock

import (
	"context"
	"sync"

	"github.com/rwool/kvgateway/pkg/service/list"
)

// Ensure ListMock implements the List interface.
var _ list.List = (*ListMock)(nil)

// ListMock is a mock implementation of the list.List type.
//
// Intended for testing only.
type ListMock struct {
	mu    sync.Mutex
	lists map[string][]string

	// Err, if set, is returned by every call instead of touching the data.
	Err error
}

// New returns a new ListMock.
func New() *ListMock {
	return &ListMock{lists: make(map[string][]string)}
}

// Push appends values to the list at key.
func (l *ListMock) Push(ctx context.Context, key string, values ...string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return 0, l.Err
	}
	l.lists[key] = append(l.lists[key], values...)
	return int64(len(l.lists[key])), nil
}

// Range returns a copy of the list at key.
func (l *ListMock) Range(ctx context.Context, key string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	out := make([]string, len(l.lists[key]))
	copy(out, l.lists[key])
	return out, nil
}
