// Package tokencache holds the client-side record of issued session tokens,
// keyed by email address. It is the single source of truth for "is this
// identity currently authenticated": a record is live only while its expiry
// lies in the future, and expired records are evicted lazily when they are
// read. There is no background sweep.
//
// Cache keys are the raw, unnormalized email strings supplied by the caller.
// Callers that want case- or whitespace-insensitive matching must normalize
// before calling.
package tokencache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Cache is an expiry-aware view over an injected KV store. Only the
// authentication orchestrator writes to it; readers and the single writer may
// interleave freely because records are replaced wholesale, never mutated.
type Cache struct {
	kv      KV
	nowTime func() time.Time
	lock    sync.Mutex
}

// CacheOption defines a function type to modify the Cache instance.
type CacheOption func(*Cache)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CacheOption {
	return func(c *Cache) {
		c.nowTime = nowFunc
	}
}

// New creates a Cache over the supplied KV store.
func New(kv KV, options ...CacheOption) (*Cache, error) {
	if kv == nil {
		return nil, errors.New("[tokencache.New] KV store is required")
	}

	cache := &Cache{
		kv:      kv,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(cache)
	}

	return cache, nil
}

// Lookup returns the record stored for email, or nil when no live record
// exists. A record found past its expiry is removed before returning nil;
// this lazy eviction on read is the cache's only eviction mechanism.
func (c *Cache) Lookup(email string) (*TokenRecord, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	value, found, err := c.kv.Get(email)
	if err != nil {
		return nil, errors.Wrap(err, "[Cache.Lookup] kv.Get")
	}
	if !found {
		return nil, nil
	}

	var record TokenRecord
	if err := json.Unmarshal(value, &record); err != nil {
		// Unreadable entries are treated as stale and dropped.
		if removeErr := c.kv.Remove(email); removeErr != nil {
			return nil, errors.Wrap(removeErr, "[Cache.Lookup] kv.Remove corrupt entry")
		}
		return nil, nil
	}

	if record.Expired(c.nowTime()) {
		if err := c.kv.Remove(email); err != nil {
			return nil, errors.Wrap(err, "[Cache.Lookup] kv.Remove expired entry")
		}
		return nil, nil
	}

	return &record, nil
}

// Store unconditionally overwrites any existing record for email.
func (c *Cache) Store(email string, record TokenRecord) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	value, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[Cache.Store] json.Marshal")
	}
	if err := c.kv.Set(email, value); err != nil {
		return errors.Wrap(err, "[Cache.Store] kv.Set")
	}
	return nil
}

// Evict removes the record for email, if any.
func (c *Cache) Evict(email string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.kv.Remove(email); err != nil {
		return errors.Wrap(err, "[Cache.Evict] kv.Remove")
	}
	return nil
}
