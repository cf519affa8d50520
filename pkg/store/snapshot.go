// Package store persists the last applied health-check specifier so a
// restarted agent can resume health checking before the first reconnect
// delivers fresh state from the server.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
)

var (
	bucketSnapshots = []byte("snapshots")

	keySpecifier = []byte("specifier")
)

// SnapshotStore is a BoltDB-backed store for the specifier snapshot.
type SnapshotStore struct {
	db *bolt.DB
}

// Open creates or opens the snapshot database under dataDir.
func Open(dataDir string) (*SnapshotStore, error) {
	dbPath := filepath.Join(dataDir, "hdsagent.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSnapshots); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSnapshots, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db}, nil
}

// Save replaces the stored snapshot with spec. Each specifier is a full
// replacement of desired state, so there is never more than one snapshot.
func (s *SnapshotStore) Save(spec *hdsv1.HealthCheckSpecifier) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal specifier: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put(keySpecifier, data)
	})
}

// Load returns the stored snapshot, or ok=false when none has been saved.
func (s *SnapshotStore) Load() (spec *hdsv1.HealthCheckSpecifier, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get(keySpecifier)
		if data == nil {
			return nil
		}
		spec = &hdsv1.HealthCheckSpecifier{}
		if err := json.Unmarshal(data, spec); err != nil {
			return fmt.Errorf("failed to unmarshal specifier: %w", err)
		}
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return spec, ok, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
