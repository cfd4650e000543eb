package docstore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raushankrgupta/fitly-tryon/errs"
)

// Firestore is the Cloud Firestore driver.
type Firestore struct {
	Client    *firestore.Client
	ProjectID string
}

// NewFirestore connects to Firestore. An empty credentialsFile uses
// Application Default Credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	log.Printf("Connected to Firestore (project: %s)", projectID)
	return &Firestore{Client: client, ProjectID: projectID}, nil
}

func (f *Firestore) Close() error {
	if f == nil || f.Client == nil {
		return nil
	}
	return f.Client.Close()
}

func (f *Firestore) doc(path string) (*firestore.DocumentRef, error) {
	if _, _, err := splitDocPath(path); err != nil {
		return nil, err
	}
	ref := f.Client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("docstore: invalid document path %q", path)
	}
	return ref, nil
}

func (f *Firestore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	col := f.Client.Collection(collection)
	if col == nil {
		return "", fmt.Errorf("docstore: invalid collection path %q", collection)
	}
	ref, _, err := col.Add(ctx, toFirestore(fields))
	if err != nil {
		return "", classifyFirestore("create", err)
	}
	return ref.ID, nil
}

func (f *Firestore) Set(ctx context.Context, path string, fields Fields, merge bool) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	if merge {
		_, err = ref.Set(ctx, toFirestore(fields), firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, toFirestore(fields))
	}
	if err != nil {
		return classifyFirestore("set", err)
	}
	return nil
}

func (f *Firestore) Get(ctx context.Context, path string) (*Doc, error) {
	ref, err := f.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, classifyFirestore("get", err)
	}
	return &Doc{ID: snap.Ref.ID, Path: path, Fields: Fields(snap.Data())}, nil
}

func (f *Firestore) Update(ctx context.Context, path string, patch Fields) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(patch))
	for key, value := range patch {
		updates = append(updates, firestore.Update{Path: key, Value: toFirestoreValue(value)})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		return classifyFirestore("update", err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, path string) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return classifyFirestore("delete", err)
	}
	return nil
}

func (f *Firestore) query(q Query) (firestore.Query, error) {
	col := f.Client.Collection(q.Collection)
	if col == nil {
		return firestore.Query{}, fmt.Errorf("docstore: invalid collection path %q", q.Collection)
	}
	fq := col.Query
	for _, flt := range q.Filters {
		fq = fq.Where(flt.Field, flt.Op, flt.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, nil
}

func (f *Firestore) Query(ctx context.Context, q Query) ([]Doc, error) {
	fq, err := f.query(q)
	if err != nil {
		return nil, err
	}
	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, classifyFirestore("query", err)
	}
	return docsFromSnapshots(q.Collection, snaps), nil
}

func (f *Firestore) Watch(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) func() {
	ctx, cancel := context.WithCancel(ctx)
	h := &watchHandle{cancel: cancel}

	fq, err := f.query(q)
	if err != nil {
		go func() {
			if h.active() && onError != nil {
				onError(err)
			}
		}()
		return h.stop
	}

	it := fq.Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if !h.active() || ctx.Err() != nil {
				return
			}
			if err != nil {
				if errors.Is(err, iterator.Done) {
					return
				}
				if onError != nil {
					onError(classifyFirestore("watch", err))
				}
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				if onError != nil {
					onError(classifyFirestore("watch", err))
				}
				return
			}
			if h.active() {
				onSnapshot(docsFromSnapshots(q.Collection, snaps))
			}
		}
	}()
	return h.stop
}

func docsFromSnapshots(collection string, snaps []*firestore.DocumentSnapshot) []Doc {
	out := make([]Doc, 0, len(snaps))
	for _, s := range snaps {
		if s == nil || !s.Exists() {
			continue
		}
		out = append(out, Doc{ID: s.Ref.ID, Path: Join(collection, s.Ref.ID), Fields: Fields(s.Data())})
	}
	return out
}

// classifyFirestore maps gRPC status codes to store error kinds. A missing
// composite index surfaces as FailedPrecondition.
func classifyFirestore(op string, err error) error {
	switch status.Code(err) {
	case codes.FailedPrecondition:
		return &Error{Kind: KindIndexMissing, Op: op, Err: err}
	case codes.NotFound:
		return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("%v: %w", err, errs.ErrNotFound)}
	}
	return &Error{Kind: KindOther, Op: op, Err: err}
}

func toFirestore(fields Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = toFirestoreValue(v)
	}
	return out
}

func toFirestoreValue(v any) any {
	switch val := v.(type) {
	case serverTimestamp:
		return firestore.ServerTimestamp
	case Fields:
		return toFirestore(val)
	case map[string]any:
		return toFirestore(val)
	}
	return v
}
