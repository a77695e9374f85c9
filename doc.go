// Package willow is the runtime core of a 2-D scripted scene engine: a
// host script drives a stack of interactive [Layer]s, each owning a
// versioned entity tree, a quadtree collision index, and a streaming
// audio mixer.
//
// The renderer, windowing, input intake, virtual filesystem, and
// scripting-host marshalling this core runs inside are external
// collaborators, referenced only by the interfaces this package and its
// internal/ packages consume or expose (see internal/audiodriver for the
// audio playback sink).
//
// # Quick start
//
//	stack := willow.NewStack()
//	layer := willow.NewLayer(config.Config{})
//	stack.Push(layer)
//	defer layer.Close()
//
//	box := entity.New()
//	box.SetSize(20, 20)
//	layer.Root.AddChild(box)
//	layer.Detector.AddChild(box)
//
//	layer.Update(1.0 / 60)
//	layer.Detector.ForEachCollision(func(a, b *entity.Entity) { /* ... */ })
//
// # Entity tree
//
// Every collision- and audio-relevant object is an [entity.Entity].
// Entities form a tree rooted at [Layer.Root]; a pose mutation bumps a
// monotonic version that invalidates the entity's own and every
// descendant's cached absolute transform and bounds (internal/entity,
// internal/transform2d).
//
// # Collision
//
// [Layer.Detector] is a quadtree over entity bounds (internal/collision):
// insert/remove/validate/prune plus unfiltered and group-filtered
// for-each-collision traversal using a Devillers-Guigue triangle-triangle
// test.
//
// # Audio
//
// [Layer.Audio] is a per-layer streaming mixer (internal/audio): cached
// or on-demand clip instances, a background decoder worker FIFO, and a
// fixed-rate stereo 16-bit real-time mixing callback with global,
// per-clip, and per-channel gain plus music-channel semantics.
// [Stack.BindAudio] keeps an audiodriver.Switch pointed at whichever
// layer is active as the host script pushes/pops the stack.
package willow
