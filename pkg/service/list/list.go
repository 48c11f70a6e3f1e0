// Package list implements support for appending to and reading ordered lists
// of values.
package list

import (
	"context"
)

// List wraps the set of methods for appending to and reading lists.
//
// Reading a list that does not exist is not an error; it yields an empty
// list.
type List interface {
	Push(ctx context.Context, key string, values ...string) (int64, error)
	Range(ctx context.Context, key string) ([]string, error)
}
