package docstore

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitly-tryon/config"
)

// Open returns the document store selected by DOC_STORE.
func Open(ctx context.Context) (Store, error) {
	switch config.DocStore {
	case "firestore":
		fs, err := NewFirestore(ctx, config.FirebaseProjectID, config.FirebaseCredentials)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "mongo":
		m, err := NewMongo(ctx, config.MongoURI, config.DBName)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown DOC_STORE %q", config.DocStore)
	}
}
