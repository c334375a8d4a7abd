package persist

// LocalStore is the synchronous durable key-value store backing the
// mirror. OnExternalChange fires for changes made by other processes
// sharing the same storage, never for this process's own writes.
type LocalStore interface {
	Read(key string) (raw string, ok bool, err error)
	Write(key, raw string) error
	OnExternalChange(key string, fn func(raw string)) (stop func(), err error)
}
