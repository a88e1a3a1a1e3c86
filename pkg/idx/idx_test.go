package idx_test

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/realmguard/pkg/idx"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewIsCanonicalULID(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)

	parsed, err := ulid.ParseStrict(id.String())
	require.NoError(t, err)
	require.Equal(t, id.String(), parsed.String())
	require.WithinDuration(t, time.Now(), ulid.Time(parsed.Time()), time.Second)
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())
	require.Less(t, a.String(), b.String())

	// Same millisecond still sorts by generation order.
	at := time.Unix(1700000000, 0).UTC()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = idx.NewAt(at).String()
	}
	require.True(t, slices.IsSorted(ids))
}

func TestConcurrentGenerationIsUnique(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[idx.ID]struct{}{}
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id := idx.New()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, 800)
}

func TestNewAtStampsTime(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	parsed, err := ulid.ParseStrict(idx.NewAt(tm).String())
	require.NoError(t, err)
	require.Equal(t, ulid.Timestamp(tm), parsed.Time())
}
