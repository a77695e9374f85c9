package willow

import (
	"github.com/radiusengine/willow-radius/internal/audio"
	"github.com/radiusengine/willow-radius/internal/audiodriver"
	"github.com/radiusengine/willow-radius/internal/collision"
	"github.com/radiusengine/willow-radius/internal/config"
	"github.com/radiusengine/willow-radius/internal/engineerr"
	"github.com/radiusengine/willow-radius/internal/entity"
	"github.com/radiusengine/willow-radius/internal/scripthost"
)

// Layer is one interactive layer in a host script's layer stack: it owns
// a gameplay entity tree (what the collision and audio core operate on;
// drawing is left to an external renderer), a collision detector over
// that tree, and the layer's own audio state.
//
// A host script drives a stack of these layers, each with independent
// collision and audio, rather than a single scene root.
type Layer struct {
	// Root is the root of this layer's gameplay entity tree. The host
	// script populates it via Root.AddChild and assigns Root's or its
	// descendants' OnUpdate hooks.
	Root *entity.Entity

	// Detector is this layer's collision tree. The host script calls
	// AddChild/RemoveChild on it as entities gain or lose collision
	// meshes, and drives ForEachCollision/ForEachCollisionFiltered from
	// its own per-tick logic after Layer.Update returns.
	Detector *collision.Detector

	// Audio is this layer's audio state: active clip instances, music
	// channel, and the mixer the audio driver pulls from while this
	// layer is active (see Stack.Active, Stack.BindAudio).
	Audio *audio.State

	// OnHookError receives entity update-hook errors/panics for this
	// layer, routed here rather than to the active layer's default. Nil
	// falls back to scripthost's log-and-continue default.
	OnHookError scripthost.ErrorHandler
}

// NewLayer returns a layer with an empty gameplay root, a collision
// detector bounded by cfg's world rectangle, and a fresh audio state.
func NewLayer(cfg config.Config) *Layer {
	cfg = cfg.Resolved()
	l := &Layer{
		Root: entity.New(),
		Detector: collision.NewDetectorWithBounds(
			cfg.WorldRect.MinX, cfg.WorldRect.MinY,
			cfg.WorldRect.MaxX, cfg.WorldRect.MaxY,
		),
		Audio: audio.NewState(),
	}
	l.Audio.SetGlobalVolume(cfg.MasterVolume)
	return l
}

// Update runs one scripted tick for this layer (the renderer and mixer
// steps run elsewhere, on their own threads): it locks each node's
// children for the duration of its own subtree so
// script hooks may freely add/remove siblings, invokes every entity's
// OnUpdate hook (errors/panics routed to OnHookError), and relies on
// Entity's own version bump (internal/transform2d, internal/entity) to
// propagate pose changes to descendants and the collision tree's lazy
// Validate on the next ForEachCollision call.
func (l *Layer) Update(dt float64) {
	scripthost.Tick(l.Root, dt, l.OnHookError)
}

// Close releases this layer's audio worker. Call when the layer is
// popped off the stack for good; a layer's audio state otherwise
// survives being temporarily buried under others on the stack.
func (l *Layer) Close() {
	l.Audio.Close()
}

// Stack is a host script's stack of interactive layers. The top of the
// stack is the layer considered visually and interactively active;
// Active reports it.
type Stack struct {
	layers []*Layer

	// audioSwitch, when bound via BindAudio, is kept pointed at the
	// active layer's mixer so the audio callback thread always reads
	// from the top-of-stack layer without the Player being torn down
	// and recreated on every push/pop.
	audioSwitch *audiodriver.Switch
}

// NewStack returns an empty layer stack.
func NewStack() *Stack { return &Stack{} }

// BindAudio points sw at whichever layer is active from now on,
// including updating it immediately for the stack's current top.
func (s *Stack) BindAudio(sw *audiodriver.Switch) {
	s.audioSwitch = sw
	s.syncAudio()
}

func (s *Stack) syncAudio() {
	if s.audioSwitch == nil {
		return
	}
	if top := s.Active(); top != nil {
		s.audioSwitch.SetActive(top.Audio.Mixer())
	} else {
		s.audioSwitch.SetActive(nil)
	}
}

// Push adds layer to the top of the stack.
func (s *Stack) Push(layer *Layer) {
	s.layers = append(s.layers, layer)
	s.syncAudio()
}

// Pop removes and returns the top layer, or nil if the stack is empty.
// The caller is responsible for calling Close on the popped layer once
// it is no longer needed.
func (s *Stack) Pop() *Layer {
	n := len(s.layers)
	if n == 0 {
		return nil
	}
	top := s.layers[n-1]
	s.layers = s.layers[:n-1]
	s.syncAudio()
	return top
}

// Active returns the top-of-stack layer, or nil if the stack is empty.
func (s *Stack) Active() *Layer {
	if len(s.layers) == 0 {
		return nil
	}
	return s.layers[len(s.layers)-1]
}

// MustActive returns the top-of-stack layer, or engineerr.NoActiveLayer if
// the stack is empty — the typed-error path a host script uses when an
// operation (e.g. routing an input event to the active layer) requires
// one to exist rather than silently no-oping on nil.
func (s *Stack) MustActive() (*Layer, error) {
	if top := s.Active(); top != nil {
		return top, nil
	}
	return nil, engineerr.NoActiveLayer
}

// Len returns the number of layers currently on the stack.
func (s *Stack) Len() int { return len(s.layers) }

// Each visits every layer bottom-to-top, e.g. for ticking layers that
// remain live (not just the active one) while paused menus sit above
// them — the host script decides whether to tick non-active layers.
func (s *Stack) Each(fn func(*Layer)) {
	for _, l := range s.layers {
		fn(l)
	}
}
