// Package configstore provides the scoped key-value configuration store the
// IMS integration persists its settings in, along with the encryptor applied
// to secret values on write.
//
// Three Store implementations are provided:
//   - SQLStore: PostgreSQL or SQLite via database/sql
//   - MemoryStore: in-process, for tests and development
//   - CachedStore: LRU read-through cache wrapping another Store
package configstore
