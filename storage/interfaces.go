package storage

// KV is the local durable key/value store behind the snapshot caches and the
// hand-off stores. Implementations are best-effort: the application must be
// fully functional when Load never finds anything and Store always fails.
type KV interface {
	// Load returns the stored value for key, and false if no value exists
	// or the entry could not be read.
	Load(key string) ([]byte, bool)
	// Store overwrites the value for key.
	Store(key string, value []byte) error
	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(key string) error
}
