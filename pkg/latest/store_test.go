package latest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreAcceptsFirstRecord(t *testing.T) {
	s := NewStore[string, int]()

	require.True(t, s.Upsert("btc", time.Unix(5, 0), 1))
	v, ok := s.Get("btc")
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 1, s.Len())
}

func TestStoreRejectsEqualTimestamp(t *testing.T) {
	s := NewStore[string, int]()
	ts := time.Unix(5, 0)

	require.True(t, s.Upsert("btc", ts, 1))
	require.False(t, s.Upsert("btc", ts, 2), "same instant must be a no-op")

	v, _ := s.Get("btc")
	require.Equal(t, 1, v)
	require.Equal(t, 1, s.Len())
}

func TestStoreMonotonicInBothArrivalOrders(t *testing.T) {
	newer := time.Unix(5, 0)
	older := time.Unix(3, 0)

	forward := NewStore[string, string]()
	require.True(t, forward.Upsert("k", older, "old"))
	require.True(t, forward.Upsert("k", newer, "new"))
	v, _ := forward.Get("k")
	require.Equal(t, "new", v)

	reversed := NewStore[string, string]()
	require.True(t, reversed.Upsert("k", newer, "new"))
	require.False(t, reversed.Upsert("k", older, "old"))
	v, _ = reversed.Get("k")
	require.Equal(t, "new", v)
}

func TestStoreComparesInstantsNotWallClockStrings(t *testing.T) {
	s := NewStore[string, int]()

	// same instant expressed in two zones
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	shifted := utc.In(time.FixedZone("UTC+3", 3*3600))

	require.True(t, s.Upsert("k", utc, 1))
	require.False(t, s.Upsert("k", shifted, 2))
}

func TestStoreDeleteDropsWatermark(t *testing.T) {
	s := NewStore[string, int]()

	require.True(t, s.Upsert("k", time.Unix(10, 0), 1))
	s.Delete("k")
	require.Equal(t, 0, s.Len())

	// the key was forgotten entirely, an older record is accepted again
	require.True(t, s.Upsert("k", time.Unix(1, 0), 2))
}

func TestStoreTombstoneKeepsWatermark(t *testing.T) {
	s := NewStore[string, int]()

	require.True(t, s.Upsert("k", time.Unix(10, 0), 1))
	s.Tombstone("k")

	_, ok := s.Get("k")
	require.False(t, ok)
	require.Equal(t, 0, s.Len())
	require.Empty(t, s.List())

	// the watermark survives, so a stale record still loses
	require.False(t, s.Upsert("k", time.Unix(5, 0), 2))
	_, ok = s.Get("k")
	require.False(t, ok)

	// a fresher record revives the key
	require.True(t, s.Upsert("k", time.Unix(20, 0), 3))
	v, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, 3, v)
	require.Equal(t, 1, s.Len())
}

func TestStoreTombstoneGoneAfterClear(t *testing.T) {
	s := NewStore[string, int]()

	require.True(t, s.Upsert("k", time.Unix(10, 0), 1))
	s.Tombstone("k")
	s.Clear()

	require.True(t, s.Upsert("k", time.Unix(1, 0), 2))
}

func TestStoreClear(t *testing.T) {
	s := NewStore[string, int]()
	s.Upsert("a", time.Unix(1, 0), 1)
	s.Upsert("b", time.Unix(2, 0), 2)

	s.Clear()

	require.Equal(t, 0, s.Len())
	require.Empty(t, s.List())
}

func TestStoreListReturnsCopy(t *testing.T) {
	s := NewStore[string, int]()
	s.Upsert("a", time.Unix(1, 0), 1)

	list := s.List()
	list[0] = 99

	v, _ := s.Get("a")
	require.Equal(t, 1, v)
}
