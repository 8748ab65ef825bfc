package storage

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/hardware-explorer/pkg/models"
)

var (
	xlScale = models.WorkloadScale{Label: "Jira XL profile", Dataset: "7M issues", VUNodes: 6}
	c5Three = models.Hardware{InstanceType: "c5.2xlarge", NodeCount: 3}
)

func sampleRecord(hw models.Hardware, apdex float64) *Record {
	return NewRecord(xlScale, models.ExplorationResult{
		Hardware: hw,
		Result: &models.AggregatedResult{
			Hardware:   hw,
			Apdex:      models.Stat{Mean: apdex, Spread: 0.01},
			ErrorRate:  models.Stat{Mean: 0.002},
			Throughput: models.Stat{Mean: 14.2, Spread: 0.3},
			Repeats:    2,
		},
		Attempts: 2,
	})
}

func TestKeyIsStableAndSafe(t *testing.T) {
	assert.Regexp(t, `^jira-xl-profile-[0-9a-f]{12}/c5\.2xlarge/nodes-3/db-none$`, Key(xlScale, c5Three))
	assert.Regexp(t, `^jira-xl-profile-[0-9a-f]{12}/c5\.2xlarge/nodes-3/db-m5\.xlarge$`, Key(xlScale, c5Three.WithDatabase("m5.xlarge")))
	assert.Equal(t, Key(xlScale, c5Three), Key(models.WorkloadScale{Label: xlScale.Label, VUNodes: 9}, c5Three), "only the label identifies the workload")
	assert.Equal(t, Key(xlScale, c5Three), Key(xlScale, models.Hardware{InstanceType: "C5.2XLARGE", NodeCount: 3}))
	assert.NotEqual(t, Key(xlScale, c5Three), Key(models.WorkloadScale{Label: "Jira L"}, c5Three))
}

func TestKeySeparatesLabelsThatSanitizeAlike(t *testing.T) {
	hw := models.Hardware{InstanceType: "c5.2xlarge", NodeCount: 2}
	seen := map[string]string{}
	for _, label := range []string{"Jira XL", "jira_xl", "jira/xl", "jira-xl", "jira xl"} {
		key := Key(models.WorkloadScale{Label: label}, hw)
		if other, ok := seen[key]; ok {
			t.Errorf("labels %q and %q share key %s", other, label, key)
		}
		seen[key] = label
		assert.NotContains(t, strings.SplitN(key, "/", 2)[0], " ")
	}
}

// exerciseCache runs the contract every backend has to satisfy
func exerciseCache(t *testing.T, cache ResultCache) {
	t.Helper()
	ctx := context.Background()

	miss, err := cache.Get(ctx, Key(xlScale, c5Three))
	require.NoError(t, err)
	assert.Nil(t, miss, "a miss is not an error")

	rec := sampleRecord(c5Three, 0.81)
	require.NoError(t, cache.Put(ctx, rec))

	got, err := cache.Get(ctx, rec.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Hardware, got.Hardware)
	assert.Equal(t, rec.Result, got.Result)
	assert.Equal(t, 2, got.Attempts)

	overwrite := sampleRecord(c5Three, 0.85)
	require.NoError(t, cache.Put(ctx, overwrite))
	got, err = cache.Get(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, 0.85, got.Result.Apdex.Mean)

	failed := NewRecord(xlScale, models.ExplorationResult{
		Hardware: models.Hardware{InstanceType: "c5.4xlarge", NodeCount: 1},
		Attempts: 2,
		Failures: 2,
	})
	require.NoError(t, cache.Put(ctx, failed))
	got, err = cache.Get(ctx, failed.Key)
	require.NoError(t, err)
	require.NotNil(t, got, "total failures are cached too")
	assert.Nil(t, got.Result)
	assert.Equal(t, 2, got.Failures)

	all, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStore(t *testing.T) {
	exerciseCache(t, NewMemoryStore())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := sampleRecord(c5Three, 0.8)
	require.NoError(t, store.Put(ctx, rec))

	rec.Result.Apdex.Mean = 0.1
	got, err := store.Get(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.Result.Apdex.Mean)
}

func TestBoltStore(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "cache", "results.db"))
	require.NoError(t, err)
	defer store.Close()

	exerciseCache(t, store)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	rec := sampleRecord(c5Three, 0.77)
	require.NoError(t, store.Put(ctx, rec))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, rec.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Result, got.Result)
}

func TestLayered(t *testing.T) {
	exerciseCache(t, NewLayered(NewMemoryStore(), NewMemoryStore()))
}

func TestLayeredFillsFrontOnHit(t *testing.T) {
	ctx := context.Background()
	front, back := NewMemoryStore(), NewMemoryStore()
	rec := sampleRecord(c5Three, 0.7)
	require.NoError(t, back.Put(ctx, rec))

	layered := NewLayered(front, back)
	got, err := layered.Get(ctx, rec.Key)
	require.NoError(t, err)
	require.NotNil(t, got)

	cached, err := front.Get(ctx, rec.Key)
	require.NoError(t, err)
	assert.NotNil(t, cached)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer store.Close()
	cache := NewLayered(NewMemoryStore(), store)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		hw := models.Hardware{InstanceType: "c5.2xlarge", NodeCount: i}
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Put(ctx, sampleRecord(hw, 0.5)))
		}()
		go func() {
			defer wg.Done()
			rec, err := cache.Get(ctx, Key(xlScale, hw))
			assert.NoError(t, err)
			if rec != nil {
				assert.NotNil(t, rec.Result, "readers never see a partial record")
			}
		}()
	}
	wg.Wait()

	all, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "floppy"})
	assert.Error(t, err)
}
