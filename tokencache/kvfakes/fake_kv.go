package kvfakes

import (
	"sync"

	"github.com/quaysidehq/go-bioauth/tokencache"
)

var _ tokencache.KV = (*FakeKV)(nil)

// FakeKV is an in-memory KV store for tests.
type FakeKV struct {
	values map[string][]byte
	lock   sync.RWMutex
}

func NewFakeKV() *FakeKV {
	return &FakeKV{
		values: make(map[string][]byte),
	}
}

func (kv *FakeKV) Get(key string) ([]byte, bool, error) {
	kv.lock.RLock()
	defer kv.lock.RUnlock()

	value, ok := kv.values[key]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, true, nil
}

func (kv *FakeKV) Set(key string, value []byte) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	kv.values[key] = copied
	return nil
}

func (kv *FakeKV) Remove(key string) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	delete(kv.values, key)
	return nil
}

// Len reports how many entries the store currently holds.
func (kv *FakeKV) Len() int {
	kv.lock.RLock()
	defer kv.lock.RUnlock()

	return len(kv.values)
}

// Has reports whether a raw entry exists for key, bypassing expiry logic.
func (kv *FakeKV) Has(key string) bool {
	kv.lock.RLock()
	defer kv.lock.RUnlock()

	_, ok := kv.values[key]
	return ok
}
