package leveldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase(t *testing.T) {
	db, err := New(t.TempDir(), 0, 0, "test/leveldb/", false)
	require.NoError(t, err)
	defer db.Close()

	has, err := db.Has([]byte("a1"))
	require.NoError(t, err)
	assert.False(t, has)
	_, err = db.Get([]byte("a1"))
	assert.Error(t, err)

	for _, k := range []string{"a1", "a2", "a3", "b1"} {
		require.NoError(t, db.Put([]byte(k), []byte("v"+k)))
	}
	has, err = db.Has([]byte("a1"))
	require.NoError(t, err)
	assert.True(t, has)
	v, err := db.Get([]byte("a2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("va2"), v)

	require.NoError(t, db.Delete([]byte("a1")))
	has, _ = db.Has([]byte("a1"))
	assert.False(t, has)

	var keys []string
	it := db.NewIterator([]byte("a"), nil)
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	it.Release()
	assert.Equal(t, []string{"a2", "a3"}, keys)

	keys = keys[:0]
	it = db.NewIterator([]byte("a"), []byte("3"))
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"a3"}, keys)
}

func TestDatabaseMeters(t *testing.T) {
	db, err := New(t.TempDir(), 0, 0, "test/leveldb/meters/", false)
	require.NoError(t, err)
	defer db.Close()

	require.NotNil(t, db.diskReadMeter)
	require.NotNil(t, db.diskWriteMeter)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	_, err = db.Get([]byte("k"))
	require.NoError(t, err)
}
