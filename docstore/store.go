// Package docstore is the document database boundary: CRUD over slash paths
// ("catalog/{id}", "users/{uid}/wardrobe/{id}") plus realtime query watches.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/raushankrgupta/fitly-tryon/errs"
)

// Fields is the body of a document.
type Fields map[string]any

// Doc is a document read back from the store.
type Doc struct {
	ID     string
	Path   string
	Fields Fields
}

type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is a single field predicate. Op is one of == != < <= > >=.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query selects documents of one collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

// Where returns a copy of q with an additional filter.
func (q Query) Where(field, op string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Unordered returns a copy of q without server-side ordering.
func (q Query) Unordered() Query {
	q.OrderBy = ""
	q.Direction = Asc
	return q
}

type serverTimestamp struct{}

// ServerTimestamp is a field value the backend replaces with its own clock.
var ServerTimestamp any = serverTimestamp{}

// SnapshotFunc receives the full result set of a watched query.
type SnapshotFunc func(docs []Doc)

// ErrorFunc receives the error that terminated a watch.
type ErrorFunc func(err error)

// Store is implemented by the Firestore, Mongo and in-memory drivers.
//
// Watch delivers snapshots in store order from a single goroutine. After an
// error is reported the watch is finished and delivers nothing more. The
// returned stop function is idempotent; once it returns no new callback
// starts.
type Store interface {
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	Set(ctx context.Context, path string, fields Fields, merge bool) error
	Get(ctx context.Context, path string) (*Doc, error)
	Update(ctx context.Context, path string, patch Fields) error
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, q Query) ([]Doc, error)
	Watch(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (stop func())
	Close() error
}

// Kind classifies store errors for callers that handle some of them.
type Kind int

const (
	KindOther Kind = iota
	KindIndexMissing
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIndexMissing:
		return "INDEX_MISSING"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}

// Error is a classified store error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("docstore %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, errs.ErrNotFound) match not-found store errors.
func (e *Error) Is(target error) bool {
	return target == errs.ErrNotFound && e.Kind == KindNotFound
}

// Classify returns the kind of err, KindOther for unclassified errors.
func Classify(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, errs.ErrNotFound) {
		return KindNotFound
	}
	return KindOther
}

// IndexMissing reports whether err says the query needs an index the store
// does not have yet.
func IndexMissing(err error) bool {
	return Classify(err) == KindIndexMissing
}

// Join builds a store path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// splitDocPath returns the collection path and id of a document path.
func splitDocPath(path string) (string, string, error) {
	parts := splitPath(path)
	if len(parts) < 2 || len(parts)%2 != 0 {
		return "", "", fmt.Errorf("docstore: %q is not a document path", path)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", fmt.Errorf("docstore: %q has an empty segment", path)
		}
	}
	return Join(parts[:len(parts)-1]...), parts[len(parts)-1], nil
}

// watchHandle is shared by the drivers to implement stop().
type watchHandle struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
}

func (w *watchHandle) stop() {
	if w.stopped.CompareAndSwap(false, true) {
		w.cancel()
	}
}

func (w *watchHandle) active() bool {
	return !w.stopped.Load()
}

// String returns the string field or "".
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool returns the bool field or false.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Int64 returns a numeric field as int64.
func (f Fields) Int64(key string) int64 {
	switch v := f[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Time returns a timestamp field, nil when absent or not yet resolved.
func (f Fields) Time(key string) *time.Time {
	switch v := f[key].(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		return v
	}
	return nil
}

// Map returns a nested map field.
func (f Fields) Map(key string) Fields {
	switch v := f[key].(type) {
	case map[string]any:
		return Fields(v)
	case Fields:
		return v
	}
	return Fields{}
}
