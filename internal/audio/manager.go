package audio

import "sync"

// ClipManager caches ClipData by path so repeated plays of the same
// sound share one decode (Cached) or one on-demand opener (OnDemand),
// grounded on the source's path-keyed clip cache.
type ClipManager struct {
	mu    sync.Mutex
	clips map[string]*ClipData
}

// NewClipManager returns an empty cache.
func NewClipManager() *ClipManager {
	return &ClipManager{clips: make(map[string]*ClipData)}
}

// Get returns the cached clip for path if present, adding a reference.
func (m *ClipManager) Get(path string) (*ClipData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clips[path]
	if ok {
		c.AddRef()
	}
	return c, ok
}

// Put registers clip under path with an initial reference already held
// by the caller.
func (m *ClipManager) Put(path string, clip *ClipData) {
	m.mu.Lock()
	m.clips[path] = clip
	m.mu.Unlock()
}

// Release drops a reference to the clip at path, evicting it from the
// cache once no instance or caller holds it anymore.
func (m *ClipManager) Release(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clips[path]
	if !ok {
		return
	}
	if c.Release() <= 0 {
		delete(m.clips, path)
	}
}
