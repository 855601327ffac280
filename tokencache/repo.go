package tokencache

// KV defines the interface for the persisted key-value store backing the
// cache. Keys are raw email addresses; values are JSON-encoded TokenRecords.
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the stored value for key, with found=false when absent
	Get(key string) (value []byte, found bool, err error)

	// Set stores or replaces the value for key
	Set(key string, value []byte) error

	// Remove deletes the value for key; removing an absent key is not an error
	Remove(key string) error
}
