package helpers

import (
	"fmt"
	"sync"
)

type PoolStats struct {
	creates int
	resets  int
	hits    int
}

func (s PoolStats) String() string {
	return fmt.Sprint("creates: ", s.creates, ", resets: ", s.resets, ", hits: ", s.hits)
}

const _poolSize = 256

// Returns get / release / stats closures sharing a fixed ring of released
// values. Releases beyond the ring's capacity are dropped for the GC.
func CreatePool[T any](create func() T, reset func(*T)) (func() *T, func(*T), func() PoolStats) {
	availableBuffer := [_poolSize]*T{}
	startIndex := 0
	numAvailable := 0

	lock := sync.Mutex{}
	stats := PoolStats{}

	var get = func() *T {
		lock.Lock()
		defer lock.Unlock()

		if numAvailable > 0 {
			result := availableBuffer[startIndex]
			availableBuffer[startIndex] = nil
			startIndex = (startIndex + 1) % _poolSize
			numAvailable--

			stats.hits++
			return result
		}

		stats.creates++
		result := create()
		return &result
	}

	var release = func(t *T) {
		reset(t)

		lock.Lock()
		defer lock.Unlock()

		stats.resets++
		if numAvailable == _poolSize {
			return
		}
		availableBuffer[(startIndex+numAvailable)%_poolSize] = t
		numAvailable++
	}

	var getStats = func() PoolStats {
		lock.Lock()
		defer lock.Unlock()
		return stats
	}

	return get, release, getStats
}
