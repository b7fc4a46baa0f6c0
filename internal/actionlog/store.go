package actionlog

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/sceneindex/markerd/internal/logging"
	"github.com/sceneindex/markerd/internal/metrics"
	"github.com/sceneindex/markerd/internal/models"
)

const (
	prefixEntry        = "entry:"
	prefixByRestoreKey = "byrestorekey:"
)

// Store is the durable, append-only Action Log Store.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence

	// mu serializes Append per spec §5's single-writer-lock requirement;
	// Badger transactions alone only guarantee ACID per-transaction, not
	// ordering of opId assignment across concurrent Appends.
	mu sync.Mutex
}

// Open opens (or creates) the action log at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open action log at %s: %w", path, err)
	}

	seq, err := db.GetSequence([]byte("opid"), 100)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init opid sequence: %w", err)
	}

	logging.Info().Str("path", path).Msg("action log opened")
	return &Store{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the underlying database.
func (s *Store) Close() error {
	if s.seq != nil {
		_ = s.seq.Release()
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewRestoreKey mints a fresh restore key for a marker born via Add, the
// stable identifier later Edit/Delete/Restore/Ignore entries thread
// through so history survives the library database renumbering the
// marker's row id.
func NewRestoreKey() string {
	return uuid.New().String()
}

// Append durably records entry, assigning it the next monotonic OpID (any
// OpID already set on entry is replaced). Append is the only mutating
// operation; entries are never deleted or edited once written.
func (s *Store) Append(entry models.ActionLogEntry) (models.ActionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opID, err := s.seq.Next()
	if err != nil {
		return models.ActionLogEntry{}, fmt.Errorf("assign opid: %w", err)
	}
	entry.OpID = int64(opID)

	data, err := json.Marshal(entry)
	if err != nil {
		return models.ActionLogEntry{}, fmt.Errorf("marshal action log entry: %w", err)
	}

	key := entryKey(entry.OpID)
	idxKey := restoreKeyIndex(entry.RestoreKey, entry.OpID)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(idxKey, nil)
	})
	if err != nil {
		return models.ActionLogEntry{}, fmt.Errorf("write action log entry: %w", err)
	}

	metrics.ActionLogAppends.WithLabelValues(string(entry.Op)).Inc()
	return entry, nil
}

// All returns every entry in commit order, the full walk the Purge
// Reconciler performs at startup (spec §4.F step 1).
func (s *Store) All() ([]models.ActionLogEntry, error) {
	var out []models.ActionLogEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry models.ActionLogEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				out = append(out, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk action log: %w", err)
	}
	return out, nil
}

// ForRestoreKey returns every entry sharing restoreKey, in commit order,
// the history Restore uses to link a revived marker back to its origin.
func (s *Store) ForRestoreKey(restoreKey string) ([]models.ActionLogEntry, error) {
	var opIDs []uint64
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixByRestoreKey + restoreKey + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			opID := binary.BigEndian.Uint64(key[len(prefix):])
			opIDs = append(opIDs, opID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk restore key index %s: %w", restoreKey, err)
	}

	out := make([]models.ActionLogEntry, 0, len(opIDs))
	err = s.db.View(func(txn *badger.Txn) error {
		for _, opID := range opIDs {
			item, err := txn.Get(entryKey(int64(opID)))
			if err != nil {
				return err
			}
			var entry models.ActionLogEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read restore key entries %s: %w", restoreKey, err)
	}
	return out, nil
}

func entryKey(opID int64) []byte {
	key := make([]byte, len(prefixEntry)+8)
	copy(key, prefixEntry)
	binary.BigEndian.PutUint64(key[len(prefixEntry):], uint64(opID))
	return key
}

func restoreKeyIndex(restoreKey string, opID int64) []byte {
	prefix := prefixByRestoreKey + restoreKey + ":"
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(opID))
	return key
}
