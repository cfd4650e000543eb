package docstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raushankrgupta/fitly-tryon/errs"
)

// mongoIndexNotFound is the server error code for a hint naming a missing index.
const mongoIndexNotFound = 27

// Mongo stores each collection path as a MongoDB collection whose name joins
// the path segments with dots ("users.{uid}.wardrobe"). Document ids are
// stored as string _id values.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongo initializes the MongoDB connection
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Println("Connected to MongoDB!")
	return &Mongo{Client: client, DB: client.Database(dbName)}, nil
}

func (m *Mongo) Close() error {
	if m == nil || m.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

func (m *Mongo) collection(path string) *mongo.Collection {
	return m.DB.Collection(strings.Join(splitPath(path), "."))
}

func (m *Mongo) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	id := primitive.NewObjectID().Hex()
	doc := toBSON(fields, time.Now().UTC())
	doc["_id"] = id
	if _, err := m.collection(collection).InsertOne(ctx, doc); err != nil {
		return "", classifyMongo("create", err)
	}
	return id, nil
}

func (m *Mongo) Set(ctx context.Context, path string, fields Fields, merge bool) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	col := m.collection(collection)
	now := time.Now().UTC()
	if merge {
		set := bson.M{}
		flatten("", fields, set)
		_, err = col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": toBSON(set, now)}, options.Update().SetUpsert(true))
	} else {
		_, err = col.ReplaceOne(ctx, bson.M{"_id": id}, toBSON(fields, now), options.Replace().SetUpsert(true))
	}
	if err != nil {
		return classifyMongo("set", err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, path string) (*Doc, error) {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	err = m.collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, classifyMongo("get", err)
	}
	return docFromBSON(collection, raw), nil
}

func (m *Mongo) Update(ctx context.Context, path string, patch Fields) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	res, err := m.collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": toBSON(patch, time.Now().UTC())})
	if err != nil {
		return classifyMongo("update", err)
	}
	if res.MatchedCount == 0 {
		return &Error{Kind: KindNotFound, Op: "update", Err: fmt.Errorf("%s: %w", path, errs.ErrNotFound)}
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, path string) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	if _, err := m.collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return classifyMongo("delete", err)
	}
	return nil
}

var mongoOps = map[string]string{
	"==": "$eq",
	"!=": "$ne",
	"<":  "$lt",
	"<=": "$lte",
	">":  "$gt",
	">=": "$gte",
}

func (m *Mongo) Query(ctx context.Context, q Query) ([]Doc, error) {
	filter := bson.M{}
	for _, f := range q.Filters {
		op, ok := mongoOps[f.Op]
		if !ok {
			return nil, fmt.Errorf("docstore: unsupported operator %q", f.Op)
		}
		cond, _ := filter[f.Field].(bson.M)
		if cond == nil {
			cond = bson.M{}
		}
		cond[op] = f.Value
		filter[f.Field] = cond
	}

	findOptions := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Direction == Desc {
			dir = -1
		}
		findOptions.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: dir}})
	}
	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}

	cursor, err := m.collection(q.Collection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, classifyMongo("query", err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, classifyMongo("query", err)
	}
	out := make([]Doc, 0, len(raws))
	for _, raw := range raws {
		out = append(out, *docFromBSON(q.Collection, raw))
	}
	return out, nil
}

// Watch re-runs the query after every change stream event on the
// collection. Change streams need a replica set; on a standalone server the
// watch ends with an error after the first snapshot.
func (m *Mongo) Watch(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) func() {
	ctx, cancel := context.WithCancel(ctx)
	h := &watchHandle{cancel: cancel}

	fail := func(err error) {
		if h.active() && ctx.Err() == nil && onError != nil {
			onError(err)
		}
	}

	go func() {
		stream, err := m.collection(q.Collection).Watch(ctx, mongo.Pipeline{})
		if err != nil {
			fail(classifyMongo("watch", err))
			return
		}
		defer stream.Close(context.Background())

		for {
			docs, err := m.Query(ctx, q)
			if err != nil {
				fail(err)
				return
			}
			if !h.active() {
				return
			}
			onSnapshot(docs)

			if !stream.Next(ctx) {
				if err := stream.Err(); err != nil {
					fail(classifyMongo("watch", err))
				}
				return
			}
		}
	}()
	return h.stop
}

func classifyMongo(op string, err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(mongoIndexNotFound) {
		return &Error{Kind: KindIndexMissing, Op: op, Err: err}
	}
	return &Error{Kind: KindOther, Op: op, Err: err}
}

func flatten(prefix string, fields Fields, out bson.M) {
	for k, v := range fields {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch nested := v.(type) {
		case Fields:
			flatten(key, nested, out)
		case map[string]any:
			flatten(key, nested, out)
		default:
			out[key] = v
		}
	}
}

func toBSON(fields map[string]any, now time.Time) bson.M {
	out := bson.M{}
	for k, v := range fields {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = now
		case Fields:
			out[k] = toBSON(val, now)
		case map[string]any:
			out[k] = toBSON(val, now)
		default:
			out[k] = v
		}
	}
	return out
}

func docFromBSON(collection string, raw bson.M) *Doc {
	id := fmt.Sprint(raw["_id"])
	delete(raw, "_id")
	return &Doc{ID: id, Path: Join(collection, id), Fields: Fields(fromBSON(raw))}
}

func fromBSON(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = fromBSONValue(v)
	}
	return out
}

func fromBSONValue(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case int32:
		return int64(val)
	case bson.M:
		return fromBSON(val)
	case bson.D:
		return fromBSON(val.Map())
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fromBSONValue(item)
		}
		return out
	}
	return v
}
