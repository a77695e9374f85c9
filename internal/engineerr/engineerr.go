// Package engineerr collects the sentinel error kinds the core surfaces
// to callers (scripted host, clip loaders, seek operations), so that code
// across internal/audio, internal/collision, and the root package can
// compare with errors.Is instead of each defining its own ad-hoc kind.
//
// The concrete error types elsewhere in the core
// (deferredlist.InvalidIndexError, audio.DecodeError) are separate types
// and do not match these sentinels under errors.Is. Within the core,
// Stack.MustActive returns NoActiveLayer, and a failed on-demand seek is
// classified as CantSeek or SeekError before it marks the instance's
// buffers as errored; the sentinels exist for callers that only need to
// branch on kind.
package engineerr

import "errors"

var (
	// InvalidIndex is the kind for an out-of-range index. The deferred
	// list reports that case with its own deferredlist.InvalidIndexError.
	InvalidIndex = errors.New("radius: invalid index")

	// InvalidArgument is returned for a caller-supplied value outside an
	// operation's accepted domain (e.g. a negative frame count).
	InvalidArgument = errors.New("radius: invalid argument")

	// OutOfMemory is returned when an allocation-sensitive operation
	// (quadtree split, decode buffer allocation) fails to acquire memory.
	OutOfMemory = errors.New("radius: out of memory")

	// InvalidOperation is returned for misuse of a lifecycle-scoped
	// resource (operating on a closed worker, a released clip instance).
	InvalidOperation = errors.New("radius: invalid operation")

	// FileSystemError wraps a failure opening or reading a clip path
	// from the host's filesystem.
	FileSystemError = errors.New("radius: filesystem error")

	// DecodePending is observed only by the mixer: a ring buffer slot the
	// decoder worker has not yet filled. Never returned to script-facing
	// callers.
	DecodePending = errors.New("radius: decode pending")

	// FullyDecoded is the success sentinel marking the final buffer of a
	// non-looping on-demand clip.
	FullyDecoded = errors.New("radius: fully decoded")

	// CantSeek is returned when a seek is requested against a decoder
	// that reports it cannot seek.
	CantSeek = errors.New("radius: decoder cannot seek")

	// SeekError wraps a failure from a seekable decoder's seek call.
	SeekError = errors.New("radius: seek failed")

	// SyncError is returned when a lock/unlock pairing is violated in a
	// way a release build chooses to report rather than silently ignore.
	SyncError = errors.New("radius: synchronization error")

	// BufferFull is returned when a fixed-capacity buffer (e.g. a decode
	// ring slot) is asked to hold more than it can.
	BufferFull = errors.New("radius: buffer full")

	// NoActiveLayer is returned by stack operations that require a
	// top-of-stack layer when the stack is empty.
	NoActiveLayer = errors.New("radius: no active layer")
)
