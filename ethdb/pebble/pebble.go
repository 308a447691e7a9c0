// Package pebble implements the key-value store facts are read from on top
// of cockroachdb/pebble.
package pebble

import (
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to pebble
	// read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the open
	// database files.
	minHandles = 16
)

// Database is a persistent key-value store. Apart from basic data storage
// functionality it also supports iterating over the keyspace in
// binary-alphabetical order.
type Database struct {
	fn string     // filename for reporting
	db *pebble.DB // Underlying pebble storage engine

	diskReadMeter  *metrics.Meter // Meter for measuring the effective amount of data read
	diskWriteMeter *metrics.Meter // Meter for measuring the effective amount of data written

	closeLock sync.RWMutex // Mutex protecting db against use after close
	closed    bool

	log log.Logger // Contextual logger tracking the database path
}

// New returns a wrapped pebble DB object. The namespace is the prefix that the
// metrics reporting should use for surfacing internal stats.
func New(file string, cache int, handles int, namespace string, readonly bool) (*Database, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	logger := log.New("database", file)
	logger.Info("Allocated cache and file handles", "cache", common.StorageSize(cache*1024*1024), "handles", handles)

	return NewCustom(file, namespace, func(options *pebble.Options) {
		options.Cache = pebble.NewCache(int64(cache * 1024 * 1024))
		options.MaxOpenFiles = handles
		options.ReadOnly = readonly
	})
}

// NewCustom returns a wrapped pebble DB object. The namespace is the prefix that the
// metrics reporting should use for surfacing internal stats.
// The customize function allows the caller to modify the pebble options.
func NewCustom(file string, namespace string, customize func(options *pebble.Options)) (*Database, error) {
	options := configureOptions(customize)
	if options.Cache != nil {
		// The database holds its own reference.
		defer options.Cache.Unref()
	}
	db, err := pebble.Open(file, options)
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble database %s", file)
	}
	return &Database{
		fn:             file,
		db:             db,
		log:            log.New("database", file),
		diskReadMeter:  metrics.NewRegisteredMeter(namespace+"disk/read", nil),
		diskWriteMeter: metrics.NewRegisteredMeter(namespace+"disk/write", nil),
	}, nil
}

// configureOptions sets some default options, then runs the provided setter.
func configureOptions(customizeFn func(*pebble.Options)) *pebble.Options {
	options := &pebble.Options{}
	// Allow caller to make custom modifications to the options
	if customizeFn != nil {
		customizeFn(options)
	}
	return options
}

// Close flushes any pending data to disk and closes all io accesses to the
// underlying key-value store.
func (db *Database) Close() error {
	db.closeLock.Lock()
	defer db.closeLock.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true
	db.log.Debug("Closing pebble database")
	return db.db.Close()
}

// Has retrieves if a key is present in the key-value store.
func (db *Database) Has(key []byte) (bool, error) {
	db.closeLock.RLock()
	defer db.closeLock.RUnlock()
	if db.closed {
		return false, pebble.ErrClosed
	}
	_, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err = closer.Close(); err != nil {
		return false, err
	}
	return true, nil
}

// Get retrieves the given key if it's present in the key-value store.
func (db *Database) Get(key []byte) ([]byte, error) {
	db.closeLock.RLock()
	defer db.closeLock.RUnlock()
	if db.closed {
		return nil, pebble.ErrClosed
	}
	dat, closer, err := db.db.Get(key)
	if err != nil {
		return nil, err
	}
	// The returned slice is only valid until the closer is closed.
	ret := common.CopyBytes(dat)
	if err = closer.Close(); err != nil {
		return nil, err
	}
	db.diskReadMeter.Mark(int64(len(ret)))
	return ret, nil
}

// Put inserts the given value into the key-value store.
func (db *Database) Put(key []byte, value []byte) error {
	db.closeLock.RLock()
	defer db.closeLock.RUnlock()
	if db.closed {
		return pebble.ErrClosed
	}
	db.diskWriteMeter.Mark(int64(len(key) + len(value)))
	return db.db.Set(key, value, pebble.NoSync)
}

// Delete removes the key from the key-value store.
func (db *Database) Delete(key []byte) error {
	db.closeLock.RLock()
	defer db.closeLock.RUnlock()
	if db.closed {
		return pebble.ErrClosed
	}
	return db.db.Delete(key, nil)
}

// NewIterator creates a binary-alphabetical iterator over a subset
// of database content with a particular key prefix, starting at a particular
// initial key (or after, if it does not exist).
func (db *Database) NewIterator(prefix []byte, start []byte) ethdb.Iterator {
	iter, err := db.db.NewIter(bytesPrefixIterOptions(prefix, start))
	if err != nil {
		return &pebbleIterator{err: err}
	}
	iter.First()
	return &pebbleIterator{iter: iter, moved: true}
}

func bytesPrefixIterOptions(prefix []byte, start []byte) *pebble.IterOptions {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return &pebble.IterOptions{
		LowerBound: append(append([]byte{}, prefix...), start...),
		UpperBound: limit,
	}
}

// pebbleIterator is a wrapper of underlying iterator in storage engine.
// The purpose of this structure is to implement the missing APIs.
//
// The pebble iterator is not thread-safe.
type pebbleIterator struct {
	iter     *pebble.Iterator
	moved    bool
	released bool
	err      error
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted.
func (iter *pebbleIterator) Next() bool {
	if iter.iter == nil {
		return false
	}
	if iter.moved {
		iter.moved = false
		return iter.iter.Valid()
	}
	return iter.iter.Next()
}

// Error returns any accumulated error. Exhausting all the key/value pairs
// is not considered to be an error.
func (iter *pebbleIterator) Error() error {
	if iter.iter == nil {
		return iter.err
	}
	return iter.iter.Error()
}

// Key returns the key of the current key/value pair, or nil if done. The caller
// should not modify the contents of the returned slice, and its contents may
// change on the next call to Next.
func (iter *pebbleIterator) Key() []byte {
	if iter.iter == nil {
		return nil
	}
	return iter.iter.Key()
}

// Value returns the value of the current key/value pair, or nil if done. The
// caller should not modify the contents of the returned slice, and its contents
// may change on the next call to Next.
func (iter *pebbleIterator) Value() []byte {
	if iter.iter == nil {
		return nil
	}
	return iter.iter.Value()
}

// Release releases associated resources. Release should always succeed and can
// be called multiple times without causing error.
func (iter *pebbleIterator) Release() {
	if iter.iter != nil && !iter.released {
		iter.iter.Close()
		iter.released = true
	}
}

// Path returns the path to the database directory.
func (db *Database) Path() string {
	return db.fn
}
