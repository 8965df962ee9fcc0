package account

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const keyPrefix = "account:"

// Account is a registered handle. Handle keeps the case it was created
// with; lookups are case-insensitive.
type Account struct {
	Handle       string    `json:"handle"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrNotFound = errors.New("account not found")

type Store struct {
	db *badger.DB
}

// OpenStore opens badger at path, or in memory when path is empty.
func OpenStore(path string, log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{log.With().Str("component", "badger").Logger()})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func accountKey(handle string) []byte {
	return []byte(keyPrefix + strings.ToLower(handle))
}

// Create stores acc unless the handle is taken.
func (s *Store) Create(acc Account) error {
	data, err := json.Marshal(&acc)
	if err != nil {
		return errors.Wrap(err, "marshal account")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := accountKey(acc.Handle)
		if _, err := txn.Get(key); err == nil {
			return ErrDuplicateHandle
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *Store) Get(handle string) (Account, error) {
	var acc Account
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(handle))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &acc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, errors.Wrapf(err, "get account %q", handle)
	}
	return acc, nil
}

// Search returns handles containing query (case-insensitive), sorted, at
// most limit of them. Values are only read for matching keys.
func (s *Store) Search(query string, limit int) ([]string, error) {
	needle := strings.ToLower(query)
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			lower := strings.TrimPrefix(string(it.Item().Key()), keyPrefix)
			if !strings.Contains(lower, needle) {
				continue
			}
			var acc Account
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &acc)
			}); err != nil {
				return err
			}
			out = append(out, acc.Handle)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "search accounts")
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// badgerLogger routes badger's printf logging into zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Error().Msgf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warn().Msgf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.log.Debug().Msgf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.log.Trace().Msgf(strings.TrimSpace(f), v...) }
