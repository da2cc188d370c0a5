package app

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AppendAndSwap(t *testing.T) {
	b := NewBuffer(4)

	count, bytes := b.Append([]byte("ab"))
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, bytes)

	count, bytes = b.Append([]byte("cde"))
	assert.Equal(t, 2, count)
	assert.Equal(t, 5, bytes)

	batch := b.Swap()
	require.Len(t, batch, 2)
	assert.Equal(t, "ab", string(batch[0]))
	assert.Equal(t, "cde", string(batch[1]))

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Size())

	count, bytes = b.Append([]byte("f"))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, bytes)

	// the swapped batch is not touched by later appends
	assert.Len(t, batch, 2)
}

func TestBuffer_SwapEmpty(t *testing.T) {
	b := NewBuffer(0)
	batch := b.Swap()
	assert.True(t, batch.Empty())
}

// Every payload appended concurrently with swaps ends up in exactly one batch.
func TestBuffer_ConcurrentAppendSwapNoLossNoDup(t *testing.T) {
	const (
		producers = 8
		perProd   = 2000
	)
	b := NewBuffer(16)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		batches [][]byte
	)
	collect := func() {
		batch := b.Swap()
		mu.Lock()
		batches = append(batches, batch...)
		mu.Unlock()
	}

	stop := make(chan struct{})
	swapperDone := make(chan struct{})
	go func() {
		defer close(swapperDone)
		for {
			select {
			case <-stop:
				return
			default:
				collect()
			}
		}
	}()

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				b.Append([]byte(fmt.Sprintf("%d-%d", p, i)))
			}
		}(p)
	}
	wg.Wait()
	close(stop)
	<-swapperDone
	collect()

	require.Len(t, batches, producers*perProd)

	seen := make(map[string]int, len(batches))
	last := make(map[int]int)
	for _, payload := range batches {
		seen[string(payload)]++
		var p, i int
		_, err := fmt.Sscanf(string(payload), "%d-%d", &p, &i)
		require.NoError(t, err)
		if prev, ok := last[p]; ok {
			require.Greater(t, i, prev, "producer %d order broken", p)
		}
		last[p] = i
	}
	for payload, n := range seen {
		require.Equal(t, 1, n, "payload %s delivered %d times", payload, n)
	}
}

func TestBuffer_HugeCapacityIsCapped(t *testing.T) {
	for _, capacity := range []int{math.MaxInt, 1 << 31, -1} {
		t.Run(fmt.Sprintf("%d", capacity), func(t *testing.T) {
			b := NewBuffer(capacity)
			b.Append([]byte("x"))

			batch := b.Swap()
			require.Len(t, batch, 1)
			assert.LessOrEqual(t, cap(batch), maxCapacityHint)
			assert.LessOrEqual(t, cap(b.Swap()), maxCapacityHint)
		})
	}
}
