package repository

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/app/models"
)

func charge(id string, created int64) *models.Charge {
	return &models.Charge{ID: id, Object: models.ObjectCharge, Created: created}
}

func TestStore_PutGetContains(t *testing.T) {
	s := NewStore[*models.Charge]()

	require.NoError(t, s.Put("acct_a", charge("ch_1", 100)))

	got, ok := s.Get("acct_a", "ch_1")
	require.True(t, ok)
	assert.Equal(t, "ch_1", got.ID)
	assert.True(t, s.Contains("acct_a", "ch_1"))

	_, ok = s.Get("acct_a", "ch_missing")
	assert.False(t, ok)
	_, ok = s.Get("acct_unknown", "ch_1")
	assert.False(t, ok)
}

func TestStore_PutDuplicate(t *testing.T) {
	s := NewStore[*models.Charge]()

	require.NoError(t, s.Put("acct_a", charge("ch_1", 100)))
	err := s.Put("acct_a", charge("ch_1", 200))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// the first record survives
	got, _ := s.Get("acct_a", "ch_1")
	assert.Equal(t, int64(100), got.Created)

	// the same id in another partition is fine
	assert.NoError(t, s.Put("acct_b", charge("ch_1", 300)))
}

func TestStore_PartitionIsolation(t *testing.T) {
	s := NewStore[*models.Charge]()
	require.NoError(t, s.Put("acct_a", charge("ch_a", 1)))
	require.NoError(t, s.Put("acct_b", charge("ch_b", 1)))

	assert.False(t, s.Contains("acct_a", "ch_b"))
	assert.False(t, s.Contains("acct_b", "ch_a"))
	assert.Len(t, s.GetAll("acct_a"), 1)
	assert.Empty(t, s.GetAll("acct_c"))
}

func TestStore_GetAllNewestFirst(t *testing.T) {
	s := NewStore[*models.Charge]()
	require.NoError(t, s.Put("acct", charge("ch_old", 10)))
	require.NoError(t, s.Put("acct", charge("ch_new", 30)))
	require.NoError(t, s.Put("acct", charge("ch_mid_1", 20)))
	require.NoError(t, s.Put("acct", charge("ch_mid_2", 20)))

	var ids []string
	for _, c := range s.GetAll("acct") {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"ch_new", "ch_mid_2", "ch_mid_1", "ch_old"}, ids)
}

func TestStore_Replace(t *testing.T) {
	s := NewStore[*models.Charge]()
	require.NoError(t, s.Put("acct", charge("ch_1", 10)))
	require.NoError(t, s.Put("acct", charge("ch_2", 10)))

	updated := charge("ch_1", 10)
	updated.Captured = true
	require.NoError(t, s.Replace("acct", updated))

	got, _ := s.Get("acct", "ch_1")
	assert.True(t, got.Captured)

	// order is unchanged by the replacement
	all := s.GetAll("acct")
	assert.Equal(t, "ch_2", all[0].ID)
	assert.Equal(t, "ch_1", all[1].ID)

	assert.ErrorIs(t, s.Replace("acct", charge("ch_3", 10)), ErrNotFound)
}

func TestStore_Remove(t *testing.T) {
	s := NewStore[*models.Charge]()
	require.NoError(t, s.Put("acct", charge("ch_1", 10)))

	s.Remove("acct", "ch_1")
	assert.False(t, s.Contains("acct", "ch_1"))

	// no-op on missing records and partitions
	s.Remove("acct", "ch_1")
	s.Remove("acct_none", "ch_1")
}

func TestStore_ConcurrentPutSameID(t *testing.T) {
	s := NewStore[*models.Charge]()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Put("acct", charge("ch_same", int64(i))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
			_ = s.Put("acct", charge(fmt.Sprintf("ch_%d", i), int64(i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Len(t, s.GetAll("acct"), 21)
}

func TestNewRepositories_Isolated(t *testing.T) {
	a := NewRepositories()
	b := NewRepositories()

	require.NoError(t, a.Customers.Put("acct", &models.Customer{ID: "cus_1"}))
	assert.False(t, b.Customers.Contains("acct", "cus_1"))
}
