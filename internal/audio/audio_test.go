package audio

import (
	"sync"
	"testing"
	"time"
)

// fakeDecoder is a deterministic in-memory Decoder for tests: it serves
// fixed-length blocks from a preset sample slice and reports EOF once
// exhausted, optionally looping back to the start on Rewind/SeekMS(0).
type fakeDecoder struct {
	mu     sync.Mutex
	data   []int16
	pos    int
	closed bool
}

func newFakeDecoder(frames int) *fakeDecoder {
	data := make([]int16, frames*2)
	for i := range data {
		data[i] = int16(1000 + i)
	}
	return &fakeDecoder{data: data}
}

func (d *fakeDecoder) DecodeBlock(buf []int16) (int, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := copy(buf, d.data[d.pos:])
	d.pos += n
	eof := d.pos >= len(d.data)
	return n, eof, nil
}

func (d *fakeDecoder) Rewind() error { return d.SeekMS(0) }

func (d *fakeDecoder) SeekMS(ms int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = ms * SampleRate / 1000 * 2
	if d.pos > len(d.data) {
		d.pos = len(d.data)
	}
	return nil
}

func (d *fakeDecoder) CanSeek() bool { return true }
func (d *fakeDecoder) Close() error  { d.closed = true; return nil }

func TestLoadProducesCachedClipWhenShortEnough(t *testing.T) {
	dec := newFakeDecoder(10)
	clip, err := Load("short.raw", dec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if clip.Kind != Cached {
		t.Fatalf("kind = %v, want Cached", clip.Kind)
	}
	if clip.Count != 10 {
		t.Fatalf("count = %d, want 10", clip.Count)
	}
}

func TestLoadProducesOnDemandClipWhenLong(t *testing.T) {
	dec := newFakeDecoder((2 * OnDemandBufferBytes / BytesPerSample))
	opener := func() (Decoder, error) { return newFakeDecoder(1000), nil }
	clip, err := Load("long.raw", dec, opener)
	if err != nil {
		t.Fatal(err)
	}
	if clip.Kind != OnDemand {
		t.Fatalf("kind = %v, want OnDemand", clip.Kind)
	}
}

func TestComputeVolumeNumeratorFullVolumeIsIdentity(t *testing.T) {
	n := computeVolumeNumerator(255, 255)
	// Full global * full instance should round-trip a sample close to
	// itself after the >>16 scale in scaleSample.
	got := scaleSample(1000, n, posMax)
	if got < 950 || got > 1050 {
		t.Fatalf("full volume scale = %d, want near 1000", got)
	}
}

func TestScaleSampleZeroInstanceVolumeKeepsPlusOneGain(t *testing.T) {
	// Instance volume enters the numerator as volume+1, so volume 0 still
	// passes 255/65536 of the sample: (1000*255)>>16 = 3, then *256>>8 = 3.
	// The mixer silences a zero-volume instance by skipping and sweeping it.
	n := computeVolumeNumerator(255, 0)
	got := scaleSample(1000, n, posMax)
	if got != 3 {
		t.Fatalf("zero instance volume scale = %d, want 3", got)
	}
}

func TestMixerCachedInstanceProducesNonZeroOutput(t *testing.T) {
	w := NewWorker()
	defer w.Shutdown()
	m := NewMixer(w)

	dec := newFakeDecoder(FramesPerCallback * 2)
	clip, err := Load("clip.raw", dec, nil)
	if err != nil {
		t.Fatal(err)
	}
	inst := NewCachedInstance(1, clip)
	m.Add(inst)

	out := make([]int16, FramesPerCallback*2)
	m.Callback(out)

	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected non-silent output from a playing cached instance")
	}
}

func TestMixerDropsFinishedNonLoopingInstance(t *testing.T) {
	w := NewWorker()
	defer w.Shutdown()
	m := NewMixer(w)

	dec := newFakeDecoder(10) // shorter than one callback
	clip, err := Load("short.raw", dec, nil)
	if err != nil {
		t.Fatal(err)
	}
	inst := NewCachedInstance(1, clip)
	inst.Loop = false
	m.Add(inst)

	out := make([]int16, FramesPerCallback*2)
	m.Callback(out)

	if len(m.instances) != 0 {
		t.Fatalf("expected finished instance to be dropped, got %d remaining", len(m.instances))
	}
}

func TestMixerZeroVolumeInstanceIsRemovedAfterCallback(t *testing.T) {
	w := NewWorker()
	defer w.Shutdown()
	m := NewMixer(w)

	dec := newFakeDecoder(FramesPerCallback * 4)
	clip, err := Load("clip.raw", dec, nil)
	if err != nil {
		t.Fatal(err)
	}
	inst := NewCachedInstance(1, clip)
	inst.Volume = 0
	m.Add(inst)

	out := make([]int16, FramesPerCallback*2)
	m.Callback(out)

	if len(m.instances) != 0 {
		t.Fatal("expected zero-volume instance removed")
	}
}

func TestClipManagerSharesAndEvictsByRefcount(t *testing.T) {
	cm := NewClipManager()
	clip := &ClipData{Kind: Cached, Path: "x"}
	clip.AddRef()
	cm.Put("x", clip)

	got, ok := cm.Get("x")
	if !ok || got != clip {
		t.Fatal("expected cached clip to be retrievable")
	}

	cm.Release("x")
	cm.Release("x")

	if _, ok := cm.Get("x"); ok {
		t.Fatal("expected clip evicted once refcount drops to zero")
	}
}

func TestWorkerDecodesScheduledSlot(t *testing.T) {
	w := NewWorker()
	defer w.Shutdown()

	dec := newFakeDecoder(OnDemandBufferBytes / BytesPerSample * 3)
	clip := &ClipData{Kind: OnDemand, Open: func() (Decoder, error) { return dec, nil }}
	inst, err := NewOnDemandInstance(1, clip, w)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		inst.mu.Lock()
		status := inst.buffers[0].status
		inst.mu.Unlock()
		if status == bufferOK || status == bufferFullyDecoded {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for worker to decode slot 0")
}

// unseekableDecoder reports CanSeek() == false, exercising the
// CantSeek path of a non-zero seek request.
type unseekableDecoder struct {
	fakeDecoder
}

func (d *unseekableDecoder) CanSeek() bool { return false }

func TestWorkerSeekOnUnseekableDecoderMarksBuffersError(t *testing.T) {
	w := NewWorker()
	defer w.Shutdown()

	dec := &unseekableDecoder{fakeDecoder: *newFakeDecoder(OnDemandBufferBytes / BytesPerSample * 3)}
	clip := &ClipData{Kind: OnDemand, Open: func() (Decoder, error) { return dec, nil }}
	inst, err := NewOnDemandInstance(1, clip, w)
	if err != nil {
		t.Fatal(err)
	}

	waitForStatus := func(slot int, want bufferStatus) {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			inst.mu.Lock()
			got := inst.buffers[slot].status
			inst.mu.Unlock()
			if got == want {
				return
			}
			time.Sleep(time.Millisecond)
		}
		t.Fatalf("timed out waiting for buffer %d status %v", slot, want)
	}
	waitForStatus(0, bufferOK)

	w.ScheduleSeek(inst, 500)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		inst.mu.Lock()
		allError := true
		for i := range inst.buffers {
			if inst.buffers[i].status != bufferError {
				allError = false
				break
			}
		}
		inst.mu.Unlock()
		if allError {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for a non-zero seek against an unseekable decoder to mark every buffer bufferError")
}

func TestMixerFindByIDLocatesActiveInstance(t *testing.T) {
	w := NewWorker()
	defer w.Shutdown()
	m := NewMixer(w)

	clip := &ClipData{Kind: Cached, Samples: []int16{1, 1, 1, 1}, Count: 2}
	inst := NewCachedInstance(0, clip)
	m.Add(inst)

	found := m.FindByID(inst.ID)
	if found != inst {
		t.Fatal("expected FindByID to return the added instance")
	}
	if m.FindByID(inst.ID + 1000) != nil {
		t.Fatal("expected FindByID to return nil for an unknown id")
	}
}
