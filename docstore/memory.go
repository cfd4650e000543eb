package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitly-tryon/errs"
)

// Memory is an in-process Store. With index enforcement on it rejects
// queries that combine an equality filter with ordering on another field
// unless a matching composite index was added, the way Firestore does.
type Memory struct {
	mu             sync.Mutex
	collections    map[string]map[string]Fields
	indexes        map[string]bool
	enforceIndexes bool
	watchers       map[*memWatch]struct{}
	now            func() time.Time
}

type MemoryOption func(*Memory)

// WithIndexEnforcement makes ordered filtered queries require AddIndex.
func WithIndexEnforcement() MemoryOption {
	return func(m *Memory) { m.enforceIndexes = true }
}

// WithClock replaces the clock used for ServerTimestamp.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		collections: make(map[string]map[string]Fields),
		indexes:     make(map[string]bool),
		watchers:    make(map[*memWatch]struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddIndex provisions a composite index on the collection.
func (m *Memory) AddIndex(collection string, fields ...string) {
	m.mu.Lock()
	m.indexes[indexKey(collection, fields)] = true
	watchers := m.watchersOf(collection)
	m.mu.Unlock()
	notifyAll(watchers)
}

func indexKey(collection string, fields []string) string {
	return collection + "|" + strings.Join(fields, ",")
}

func (m *Memory) checkIndex(q Query) error {
	if !m.enforceIndexes || q.OrderBy == "" {
		return nil
	}
	var fields []string
	for _, f := range q.Filters {
		if f.Field != q.OrderBy {
			fields = append(fields, f.Field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, q.OrderBy)
	if m.indexes[indexKey(q.Collection, fields)] {
		return nil
	}
	return &Error{
		Kind: KindIndexMissing,
		Op:   "query",
		Err:  fmt.Errorf("the query requires an index on %s(%s)", q.Collection, strings.Join(fields, ",")),
	}
}

func (m *Memory) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	if err := m.Set(ctx, Join(collection, id), fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Set(ctx context.Context, path string, fields Fields, merge bool) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	docs := m.collections[collection]
	if docs == nil {
		docs = make(map[string]Fields)
		m.collections[collection] = docs
	}
	resolved := m.resolve(fields)
	if existing, ok := docs[id]; ok && merge {
		mergeInto(existing, resolved)
	} else {
		docs[id] = resolved
	}
	watchers := m.watchersOf(collection)
	m.mu.Unlock()
	notifyAll(watchers)
	return nil
}

func (m *Memory) Get(ctx context.Context, path string) (*Doc, error) {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return &Doc{ID: id, Path: path, Fields: copyFields(fields)}, nil
}

func (m *Memory) Update(ctx context.Context, path string, patch Fields) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	fields, ok := m.collections[collection][id]
	if !ok {
		m.mu.Unlock()
		return &Error{Kind: KindNotFound, Op: "update", Err: fmt.Errorf("%s: %w", path, errs.ErrNotFound)}
	}
	for key, value := range m.resolve(patch) {
		setPath(fields, key, value)
	}
	watchers := m.watchersOf(collection)
	m.mu.Unlock()
	notifyAll(watchers)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.collections[collection], id)
	watchers := m.watchersOf(collection)
	m.mu.Unlock()
	notifyAll(watchers)
	return nil
}

func (m *Memory) Query(ctx context.Context, q Query) ([]Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkIndex(q); err != nil {
		return nil, err
	}
	var out []Doc
	for id, fields := range m.collections[q.Collection] {
		if !matches(fields, q.Filters) {
			continue
		}
		// ordered queries skip documents without the order field
		if q.OrderBy != "" {
			if _, ok := fields[q.OrderBy]; !ok {
				continue
			}
		}
		out = append(out, Doc{ID: id, Path: Join(q.Collection, id), Fields: copyFields(fields)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy != "" {
			c, _ := compareValues(out[i].Fields[q.OrderBy], out[j].Fields[q.OrderBy])
			if c != 0 {
				if q.Direction == Desc {
					return c > 0
				}
				return c < 0
			}
		}
		if q.Direction == Desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type memWatch struct {
	watchHandle
	query      Query
	notify     chan struct{}
	onSnapshot SnapshotFunc
	onError    ErrorFunc
}

func (m *Memory) Watch(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) func() {
	ctx, cancel := context.WithCancel(ctx)
	w := &memWatch{
		watchHandle: watchHandle{cancel: cancel},
		query:       q,
		notify:      make(chan struct{}, 1),
		onSnapshot:  onSnapshot,
		onError:     onError,
	}
	m.mu.Lock()
	m.watchers[w] = struct{}{}
	m.mu.Unlock()
	w.notify <- struct{}{}

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.watchers, w)
			m.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.notify:
			}
			docs, err := m.Query(ctx, w.query)
			if !w.active() {
				return
			}
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				return
			}
			w.onSnapshot(docs)
		}
	}()
	return w.stop
}

func (m *Memory) Close() error { return nil }

// watchersOf must be called with m.mu held.
func (m *Memory) watchersOf(collection string) []*memWatch {
	var out []*memWatch
	for w := range m.watchers {
		if w.query.Collection == collection {
			out = append(out, w)
		}
	}
	return out
}

func notifyAll(watchers []*memWatch) {
	for _, w := range watchers {
		select {
		case w.notify <- struct{}{}:
		default:
		}
	}
}

// resolve copies fields and replaces ServerTimestamp sentinels.
func (m *Memory) resolve(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = m.now().UTC()
		case Fields:
			out[k] = map[string]any(m.resolve(val))
		case map[string]any:
			out[k] = map[string]any(m.resolve(val))
		default:
			out[k] = v
		}
	}
	return out
}

func copyFields(in Fields) Fields {
	out := make(Fields, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = map[string]any(copyFields(nested))
			continue
		}
		out[k] = v
	}
	return out
}

func mergeInto(dst, src Fields) {
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeInto(existing, nested)
				continue
			}
		}
		dst[k] = v
	}
}

// setPath applies a dotted update path ("settings.keepUploads").
func setPath(fields Fields, path string, value any) {
	parts := strings.Split(path, ".")
	cur := map[string]any(fields)
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func matches(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		c, ok := compareValues(v, f.Value)
		if !ok {
			if f.Op == "!=" {
				continue
			}
			return false
		}
		switch f.Op {
		case "==":
			if c != 0 {
				return false
			}
		case "!=":
			if c == 0 {
				return false
			}
		case "<":
			if c >= 0 {
				return false
			}
		case "<=":
			if c > 0 {
				return false
			}
		case ">":
			if c <= 0 {
				return false
			}
		case ">=":
			if c < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func compareValues(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
