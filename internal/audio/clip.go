// Package audio implements the clip store, background decoder worker, and
// real-time mixer: a dynamic set of active clip instances mixed into a
// fixed-rate stereo 16-bit stream, some of them decoded on a worker
// goroutine shared by every on-demand instance.
package audio

import (
	"io"

	"github.com/pkg/errors"
)

// OnDemandBufferBytes is the fixed decode block size (decoded PCM) used
// for on-demand clip ring buffers.
const OnDemandBufferBytes = 131072

// OnDemandBuffers is N, the number of ring buffers per on-demand instance.
const OnDemandBuffers = 3

// BytesPerSample is the size of one interleaved stereo 16-bit sample pair
// frame's single channel sample (2 bytes).
const BytesPerSample = 2

// ClipKind discriminates the two clip-data variants.
type ClipKind uint8

const (
	Cached ClipKind = iota
	OnDemand
)

// DecodeError wraps a decoder failure with the clip path that caused it.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return errors.Wrapf(e.Err, "audio: decode %q", e.Path).Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ClipData is the immutable, reference-counted content of a loaded audio
// clip: either fully-decoded interleaved stereo PCM, or a path plus a
// factory for a fresh per-instance decoder.
type ClipData struct {
	Kind ClipKind
	Path string

	// Cached.
	Samples []int16 // interleaved stereo
	Count   int     // sample frames (stereo pairs) — len(Samples)/2

	// OnDemand.
	Open func() (Decoder, error)

	refs int
}

// AddRef increments the clip data's refcount.
func (c *ClipData) AddRef() { c.refs++ }

// Release decrements the refcount; callers should drop all references to
// c once this returns 0.
func (c *ClipData) Release() int {
	c.refs--
	return c.refs
}

// Load reads from r, decoding into a probe buffer of 2*OnDemandBufferBytes.
// If the decoder reaches EOF within that buffer, the clip is stored
// Cached with the fully-decoded samples. If the probe buffer filled
// without EOF, the clip is stored OnDemand, recording path for later
// per-instance decoder opens (opener re-decodes from the start; the
// probed bytes are discarded, matching the source's "initial sample is
// discarded and re-read per instance"). Any other outcome is a
// DecodeError.
func Load(path string, dec Decoder, opener func() (Decoder, error)) (*ClipData, error) {
	probe := make([]int16, (2*OnDemandBufferBytes)/BytesPerSample)
	n, eof, err := dec.DecodeBlock(probe)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if eof {
		samples := make([]int16, n)
		copy(samples, probe[:n])
		return &ClipData{Kind: Cached, Path: path, Samples: samples, Count: n / 2}, nil
	}
	if n == len(probe) {
		return &ClipData{Kind: OnDemand, Path: path, Open: opener}, nil
	}
	return nil, &DecodeError{Path: path, Err: errors.New("short read without eof")}
}

// Decoder is the contract the core requires from a decode backend:
// open-from-reader (via the factory passed to Load/ClipData.Open),
// decode-one-block, rewind, seek-ms, and a seek capability query.
type Decoder interface {
	// DecodeBlock fills buf with up to len(buf) samples, returning the
	// count actually written and whether EOF was reached in this call.
	DecodeBlock(buf []int16) (n int, eof bool, err error)
	Rewind() error
	SeekMS(ms int) error
	CanSeek() bool
	io.Closer
}
