package audio

import "sync"

// State is the per-layer audio handle a scene update loop drives each
// tick: a clip cache, the shared decode worker, the real-time mixer, and
// distinguished "music" slot semantics (at most one music instance,
// replacing rather than layering on Play).
type State struct {
	mu      sync.Mutex
	clips   *ClipManager
	worker  *Worker
	mixer   *Mixer
	nextID  uint64
	music   *Instance
	musicID uint64
}

// NewState wires a fresh clip cache, decode worker, and mixer together.
func NewState() *State {
	w := NewWorker()
	return &State{
		clips:  NewClipManager(),
		worker: w,
		mixer:  NewMixer(w),
	}
}

// Mixer exposes the underlying mixer so an audiodriver can pull frames
// from it.
func (s *State) Mixer() *Mixer { return s.mixer }

// Close shuts down the background decode worker.
func (s *State) Close() {
	s.worker.Shutdown()
}

func (s *State) allocID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Play starts a new, independent instance of the clip at path (loading
// and caching it on first use) and returns its instance ID.
func (s *State) Play(path string, opener func() (Decoder, error), probe Decoder, loop bool) (uint64, error) {
	clip, ok := s.clips.Get(path)
	if !ok {
		loaded, err := Load(path, probe, opener)
		if err != nil {
			return 0, err
		}
		clip = loaded
		clip.AddRef()
		s.clips.Put(path, clip)
	}

	id := s.allocID()
	var inst *Instance
	var err error
	if clip.Kind == Cached {
		inst = NewCachedInstance(id, clip)
	} else {
		inst, err = NewOnDemandInstance(id, clip, s.worker)
	}
	if err != nil {
		s.clips.Release(path)
		return 0, err
	}
	inst.Loop = loop
	s.mixer.Add(inst)
	return inst.ID, nil
}

// PlayMusic stops any currently playing music instance and starts a new
// one in its place; music is always looping.
func (s *State) PlayMusic(path string, opener func() (Decoder, error), probe Decoder) (uint64, error) {
	s.mu.Lock()
	prev := s.music
	s.mu.Unlock()
	if prev != nil {
		s.mixer.Remove(prev)
	}

	id, err := s.Play(path, opener, probe, true)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.musicID = id
	s.music = s.mixer.FindByID(id)
	s.mu.Unlock()
	return id, nil
}

// StopMusic removes the active music instance, if any.
func (s *State) StopMusic() {
	s.mu.Lock()
	m := s.music
	s.music = nil
	s.mu.Unlock()
	if m != nil {
		s.mixer.Remove(m)
	}
}

// SeekMusicMS seeks the active music instance; Cached music seeks by
// direct cursor assignment, OnDemand music schedules a worker seek task.
func (s *State) SeekMusicMS(ms int) {
	s.mu.Lock()
	m := s.music
	s.mu.Unlock()
	if m == nil {
		return
	}
	if m.Clip.Kind == Cached {
		m.mu.Lock()
		m.cursor = ms * SampleRate / 1000
		m.mu.Unlock()
		return
	}
	s.worker.ScheduleSeek(m, ms)
}

// SetMusicVolume sets the active music instance's volume (0..255).
func (s *State) SetMusicVolume(v uint8) {
	s.mu.Lock()
	m := s.music
	s.mu.Unlock()
	if m == nil {
		return
	}
	m.mu.Lock()
	m.Volume = v
	m.mu.Unlock()
}

// SetGlobalVolume forwards to the mixer.
func (s *State) SetGlobalVolume(v uint8) {
	s.mixer.SetGlobalVolume(v)
}
