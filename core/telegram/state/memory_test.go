package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draft struct {
	Step  State
	Price float64
}

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore[draft]()

	_, ok := s.Get(1)
	require.False(t, ok)

	s.Put(1, draft{Step: "awaiting_price"})
	got, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, State("awaiting_price"), got.Step)

	got.Price = 99
	again, _ := s.Get(1)
	require.Zero(t, again.Price, "mutating a returned value must not leak into the store")

	s.Put(1, draft{Step: "awaiting_box", Price: 10})
	require.Equal(t, 1, s.Len())

	s.Delete(1)
	s.Delete(1)
	_, ok = s.Get(1)
	require.False(t, ok)
	require.Zero(t, s.Len())
}

func TestMemoryStoreIsolatesUsers(t *testing.T) {
	s := NewMemoryStore[draft]()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Put(id, draft{Price: float64(id)})
			got, ok := s.Get(id)
			assert.True(t, ok)
			assert.Equal(t, float64(id), got.Price)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 50, s.Len())
}
