// Package engine wraps the embedded ordered key-value store that every
// peer hosts locally. The engine itself is an external collaborator
// (spec §1); this package only gives it the narrow interface the state
// machine adapter and the replica facade need: insert, update, delete,
// lookup, and a thread-registration discipline.
package engine

import "context"

// Engine is the contract the state machine adapter (internal/fsm) and
// the replica facade's synchronous read path dispatch against.
type Engine interface {
	// Insert stores key/value, failing if key already exists in engines
	// that enforce that (Badger does not; the return code still flows
	// through as the operation's EngineRC).
	Insert(key, value []byte) int32

	// Update overwrites the value for an existing key.
	Update(key, value []byte) int32

	// Delete removes key.
	Delete(key []byte) int32

	// Lookup returns the value for key and 0, or (nil, non-zero) if the
	// key isn't present or the lookup otherwise fails.
	Lookup(key []byte) ([]byte, int32)

	// RegisterThread must be called once by every goroutine that will
	// call Lookup or reach the engine through Insert/Update/Delete via
	// the state machine adapter, before its first use.
	RegisterThread()

	// DeregisterThread undoes RegisterThread.
	DeregisterThread()

	// Backup streams a point-in-time copy of the engine to sink, used as
	// the Raft FSM snapshot payload and by the DumpCache RPC.
	Backup(ctx context.Context, sink BackupSink) error

	// Restore replaces the engine's contents with a stream produced by
	// Backup, used by the Raft FSM restore path.
	Restore(ctx context.Context, source BackupSource) error

	// Reset drops every key, used by the ClearCache administrative RPC.
	Reset() error

	// Close flushes and releases the engine's resources.
	Close() error
}

// BackupSink is the narrow io.Writer-shaped target Backup streams onto;
// kept as its own type so callers don't need to import the engine's
// backing store's stream types.
type BackupSink interface {
	Write(p []byte) (int, error)
}

// BackupSource mirrors BackupSink for Restore.
type BackupSource interface {
	Read(p []byte) (int, error)
}

// Return codes used in place of the engine's own error values once they
// cross into a replicated.Result. 0 always means success.
const (
	RCOk int32 = 0
	RCNotFound int32 = 1
	RCIOError int32 = 2
)
