// Package appendable implements an append-only object log over a storage.Store.
//
// Every record gets an identifier equal to the byte offset of its first byte in
// the log. Small records are gathered in an in-memory append buffer and written
// to the store on flush; reads are served from the buffer or from the store.
// Records are never modified after they are written; the only way to invalidate
// them is Clear.
//
// Locking is explicit: a Lock may be shared by several storages so that callers
// can compose multi-step sections (for example a key-map lookup followed by Read)
// with View and Update.
package appendable
