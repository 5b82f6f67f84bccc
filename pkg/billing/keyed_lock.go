package billing

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyedMutex serializes read-modify-write cycles per user. Keys are hashed
// onto a fixed set of mutexes, so unrelated users may occasionally share one.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
