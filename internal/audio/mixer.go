package audio

import "sync"

// SampleRate is the fixed output rate the mixer produces.
const SampleRate = 44100

// FramesPerCallback is F, the fixed frame count pulled per mixer callback.
const FramesPerCallback = 2048

// posMax is the channel-numerator midpoint the source calls POS_MAX: the
// pan formula scales around it so Pan==0 yields equal L/R weight.
const posMax = 256

// Mixer owns the set of active instances and produces interleaved
// stereo int16 frames on demand via Callback, matching the push-style
// contract an ebiten audio.Player pulls through internal/audiodriver.
type Mixer struct {
	mu          sync.Mutex
	instances   []*Instance
	globalVol   uint8
	worker      *Worker
	nextInstID  uint64
	scratch     []int32
}

// NewMixer returns a mixer at full global volume, backed by worker for
// any OnDemand instances it is handed.
func NewMixer(worker *Worker) *Mixer {
	return &Mixer{globalVol: 255, worker: worker}
}

// SetGlobalVolume scales every instance uniformly (0..255).
func (m *Mixer) SetGlobalVolume(v uint8) {
	m.mu.Lock()
	m.globalVol = v
	m.mu.Unlock()
}

// Add registers inst for mixing and sets inst.ID from the mixer's own
// counter, replacing any ID the instance was created with.
func (m *Mixer) Add(inst *Instance) {
	m.mu.Lock()
	inst.ID = m.nextInstID
	m.nextInstID++
	m.instances = append(m.instances, inst)
	m.mu.Unlock()
}

// FindByID returns the active instance with the given ID, or nil if none
// is currently mixed (it may have already finished and been swept).
func (m *Mixer) FindByID(id uint64) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range m.instances {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

// Remove drops inst from the active set.
func (m *Mixer) Remove(inst *Instance) {
	m.mu.Lock()
	for i, e := range m.instances {
		if e == inst {
			m.instances = append(m.instances[:i], m.instances[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
}

// computeVolumeNumerator mirrors the source's fixed-point gain: the
// per-instance volume (0..255) combined with global volume, both
// expressed as numerator/65536 fractions so the mix stays integer-only
// until the final >>16 scale-down.
func computeVolumeNumerator(globalVol, instVol uint8) uint32 {
	return uint32(globalVol) * (uint32(instVol) + 1)
}

// computeChannelNumerator mirrors the source's stereo pan formula: pos
// in -128..127 pushes weight toward one channel, scaled around posMax so
// pos==0 keeps both channels equal.
func computeChannelNumerator(pos int8, channel int) uint32 {
	sign := int32(1)
	if channel == 0 {
		sign = -1
	}
	return uint32(int32(posMax) + sign*int32(pos))
}

// scaleSample applies the combined volume*channel gain to one raw
// sample, matching R_AUDIO_SAMPLE_SCALE's single-expression fixed-point
// scale-down (>>16 for volume, >>8 for channel).
func scaleSample(raw int32, volNumerator, chanNumerator uint32) int32 {
	return (raw * int32(volNumerator) >> 16) * int32(chanNumerator) >> 8
}

// Callback fills out (interleaved stereo int16, len(out) a multiple of
// 2) by summing every active instance's contribution in 32-bit scratch,
// then clamping down to int16. Finished non-looping instances are
// dropped after the mix, matching the source's post-callback sweep.
func (m *Mixer) Callback(out []int16) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(out) / 2
	if cap(m.scratch) < len(out) {
		m.scratch = make([]int32, len(out))
	}
	scratch := m.scratch[:len(out)]
	for i := range scratch {
		scratch[i] = 0
	}

	for _, inst := range m.instances {
		m.mixInstance(inst, scratch, frames)
	}

	for i, v := range scratch {
		out[i] = clampInt16(v)
	}

	m.sweepFinished()
}

func (m *Mixer) mixInstance(inst *Instance, scratch []int32, frames int) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	volNum := computeVolumeNumerator(m.globalVol, inst.Volume)
	lNum := computeChannelNumerator(inst.Pan, 0)
	rNum := computeChannelNumerator(inst.Pan, 1)

	if inst.Clip.Kind == Cached {
		m.mixCached(inst, scratch, frames, volNum, lNum, rNum)
		return
	}
	m.mixOnDemand(inst, scratch, frames, volNum, lNum, rNum)
}

func (m *Mixer) mixCached(inst *Instance, scratch []int32, frames int, volNum, lNum, rNum uint32) {
	samples := inst.Clip.Samples
	total := inst.Clip.Count
	if total == 0 || inst.Volume == 0 {
		return
	}
	for f := 0; f < frames; f++ {
		if inst.cursor >= total {
			if !inst.Loop {
				inst.finished = true
				return
			}
			inst.cursor = 0
		}
		l := int32(samples[inst.cursor*2])
		r := int32(samples[inst.cursor*2+1])
		scratch[f*2] += scaleSample(l, volNum, lNum)
		scratch[f*2+1] += scaleSample(r, volNum, rNum)
		inst.cursor++
	}
}

func (m *Mixer) mixOnDemand(inst *Instance, scratch []int32, frames int, volNum, lNum, rNum uint32) {
	if inst.Volume == 0 {
		return
	}
	for f := 0; f < frames; f++ {
		b := &inst.buffers[inst.bufferIndex]
		switch b.status {
		case bufferPending, bufferError:
			continue // starved: worker hasn't filled this slot yet
		case bufferFullyDecoded:
			if inst.sampleIndex >= b.n {
				if inst.Loop {
					inst.finished = false
					m.worker.ScheduleSeek(inst, 0)
				} else {
					inst.finished = true
				}
				return
			}
		}
		if inst.sampleIndex >= b.n {
			m.advanceOnDemandSlot(inst)
			continue
		}
		l := int32(b.samples[inst.sampleIndex*2])
		r := int32(b.samples[inst.sampleIndex*2+1])
		scratch[f*2] += scaleSample(l, volNum, lNum)
		scratch[f*2+1] += scaleSample(r, volNum, rNum)
		inst.sampleIndex++
	}
}

// advanceOnDemandSlot moves to the next ring slot once the current one
// is exhausted, marking the consumed slot pending and scheduling its
// redecode so it will be ready again by the time the ring wraps back.
func (m *Mixer) advanceOnDemandSlot(inst *Instance) {
	consumed := inst.bufferIndex
	inst.bufferIndex = (inst.bufferIndex + 1) % OnDemandBuffers
	inst.sampleIndex = 0
	inst.buffers[consumed].status = bufferPending
	m.worker.ScheduleDecode(inst, consumed)
}

// sweepFinished removes every instance whose Volume is zero or that has
// finished non-looping playback, matching the source's post-mix cull.
func (m *Mixer) sweepFinished() {
	out := m.instances[:0]
	for _, inst := range m.instances {
		inst.mu.Lock()
		drop := inst.Volume == 0 || inst.finished
		inst.mu.Unlock()
		if drop {
			inst.Clip.Release()
			continue
		}
		out = append(out, inst)
	}
	m.instances = out
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
