package audio

import (
	"fmt"
	"sync"

	"github.com/radiusengine/willow-radius/internal/engineerr"
)

// bufferStatus tracks one on-demand ring-buffer slot's lifecycle.
type bufferStatus uint8

const (
	bufferPending bufferStatus = iota
	bufferOK
	bufferFullyDecoded
	bufferError
)

type ringBuffer struct {
	samples []int16
	n       int // valid sample frames in this slot
	status  bufferStatus
}

// Instance is one playing (or about to play) clip: a reference to shared
// ClipData, per-play mixing parameters, and — for OnDemand clips — its
// own decoder plus an N-buffer decode-ahead ring.
type Instance struct {
	mu sync.Mutex

	ID     uint64
	Clip   *ClipData
	Volume uint8 // 0..255
	Pan    int8  // -128..127, channel position
	Loop   bool

	// Cached playback cursor (sample-frame index into Clip.Samples).
	cursor int

	// OnDemand playback state.
	decoder     Decoder
	buffers     [OnDemandBuffers]ringBuffer
	bufferIndex int // ring slot currently being read for playback
	sampleIndex int // read offset within buffers[bufferIndex]
	finished    bool
}

// NewCachedInstance returns an instance bound to a Cached clip.
func NewCachedInstance(id uint64, clip *ClipData) *Instance {
	clip.AddRef()
	return &Instance{ID: id, Clip: clip, Volume: 255}
}

// NewOnDemandInstance opens a fresh decoder from clip.Open and schedules
// the initial N decode tasks so playback can start as buffers fill.
func NewOnDemandInstance(id uint64, clip *ClipData, w *Worker) (*Instance, error) {
	dec, err := clip.Open()
	if err != nil {
		return nil, err
	}
	clip.AddRef()
	inst := &Instance{ID: id, Clip: clip, Volume: 255, decoder: dec}
	for i := range inst.buffers {
		inst.buffers[i].status = bufferPending
		inst.buffers[i].samples = make([]int16, OnDemandBufferBytes/BytesPerSample)
		w.ScheduleDecode(inst, i)
	}
	return inst, nil
}

// decodeSlot runs on the worker goroutine: decode one block into
// buffers[slot]. Marks bufferFullyDecoded on EOF (no further reschedule
// unless Loop triggers a seek), bufferError on failure.
func (inst *Instance) decodeSlot(slot int, w *Worker) {
	inst.mu.Lock()
	dec := inst.decoder
	buf := inst.buffers[slot].samples
	inst.mu.Unlock()

	n, eof, err := dec.DecodeBlock(buf)

	inst.mu.Lock()
	defer inst.mu.Unlock()
	b := &inst.buffers[slot]
	b.n = n / 2 // DecodeBlock counts interleaved samples; n is in frames
	if err != nil {
		b.status = bufferError
		return
	}
	if eof {
		b.status = bufferFullyDecoded
		return
	}
	b.status = bufferOK
}

// performSeek runs on the worker goroutine: rewind or seek the decoder,
// then mark every buffer pending and reschedule a decode for each,
// matching the source's "seek resets the whole ring" behavior. If the
// seek fails (CantSeek or SeekError), every buffer is marked bufferError
// instead and no decode is scheduled.
func (inst *Instance) performSeek(ms int, w *Worker) {
	inst.mu.Lock()
	dec := inst.decoder
	inst.mu.Unlock()

	var err error
	if ms == 0 {
		err = dec.Rewind()
	} else if !dec.CanSeek() {
		err = engineerr.CantSeek
	} else if serr := dec.SeekMS(ms); serr != nil {
		err = fmt.Errorf("%w: %v", engineerr.SeekError, serr)
	}

	inst.mu.Lock()
	inst.bufferIndex = 0
	inst.sampleIndex = 0
	inst.finished = false
	for i := range inst.buffers {
		if err != nil {
			inst.buffers[i].status = bufferError
		} else {
			inst.buffers[i].status = bufferPending
		}
	}
	inst.mu.Unlock()

	if err == nil {
		for i := range inst.buffers {
			w.ScheduleDecode(inst, i)
		}
	}
}

// Finished reports whether playback has consumed every sample and the
// instance has no Loop pending. It reads the same flag the mixer's sweep
// checks when it removes zero-volume/finished instances after each
// callback.
func (inst *Instance) Finished() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.finished
}
