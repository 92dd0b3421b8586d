package store

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path, logrus.New())
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureSchema())
}

func TestUpsertEnvelopeAndFrontierRoundTrip(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)

	blobID := "d08c3dd220eea08d8dfd6d4adb84f9936c541d7a"
	require.NoError(t, tx.UpsertEnvelope(blobID, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))

	commitID := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	require.NoError(t, tx.ReplaceFrontier([]string{commitID}))
	require.NoError(t, tx.Commit())

	frontier, err := s.Frontier()
	require.NoError(t, err)
	require.Equal(t, []string{commitID}, frontier)

	length, err := s.EnvelopeByteLen()
	require.NoError(t, err)
	require.Equal(t, 10, length)
}

func TestReplaceFrontierClearsPrevious(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.ReplaceFrontier([]string{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}))
	require.NoError(t, tx.Commit())

	tx2, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx2.ReplaceFrontier([]string{"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}))
	require.NoError(t, tx2.Commit())

	frontier, err := s.Frontier()
	require.NoError(t, err)
	require.Equal(t, []string{"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}, frontier)
}

func TestRollbackDiscardsUncommittedWrites(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.UpsertEnvelope("d08c3dd220eea08d8dfd6d4adb84f9936c541d7a", []byte{0}))
	tx.Rollback()

	length, err := s.EnvelopeByteLen()
	require.NoError(t, err)
	require.Equal(t, 0, length)
}

func TestDropTables(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.DropTables())
	require.NoError(t, s.EnsureSchema())
}
