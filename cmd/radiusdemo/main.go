// Command radiusdemo is a minimal, self-contained host script: it drives
// a layer stack through a handful of scripted ticks, demonstrating the
// versioned transform/bounds cache, collision-pair reporting, and the
// audio mixer's gain law, all without any external asset files or a
// window: it is headless, since nothing here needs a renderer.
package main

import (
	"fmt"
	"log"

	willow "github.com/radiusengine/willow-radius"
	"github.com/radiusengine/willow-radius/internal/audio"
	"github.com/radiusengine/willow-radius/internal/config"
	"github.com/radiusengine/willow-radius/internal/entity"
)

// toneDecoder is a tiny synthetic audio.Decoder producing a short square
// wave, standing in for a real codec so this demo needs no asset files.
type toneDecoder struct {
	samples []int16
	pos     int
}

func newTone(frames int, amplitude int16) *toneDecoder {
	s := make([]int16, frames*2)
	for i := 0; i < frames; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		s[2*i] = v
		s[2*i+1] = v
	}
	return &toneDecoder{samples: s}
}

func (d *toneDecoder) DecodeBlock(buf []int16) (int, bool, error) {
	n := copy(buf, d.samples[d.pos:])
	d.pos += n
	eof := d.pos >= len(d.samples)
	return n, eof, nil
}
func (d *toneDecoder) Rewind() error       { d.pos = 0; return nil }
func (d *toneDecoder) SeekMS(ms int) error { d.pos = 0; return nil }
func (d *toneDecoder) CanSeek() bool       { return false }
func (d *toneDecoder) Close() error        { return nil }

func squareMesh() []entity.Triangle {
	return []entity.Triangle{
		{AX: -0.5, AY: -0.5, BX: 0.5, BY: -0.5, CX: 0.5, CY: 0.5},
		{AX: -0.5, AY: -0.5, BX: 0.5, BY: 0.5, CX: -0.5, CY: 0.5},
	}
}

func main() {
	stack := willow.NewStack()
	layer := willow.NewLayer(config.Config{})
	stack.Push(layer)
	defer layer.Close()

	// Two entities on a collision course: a fixed box and one that walks
	// toward it one tick at a time.
	box := entity.New()
	box.SetPose(100, 0, 0)
	box.SetSize(20, 20)
	box.SetMesh(squareMesh())
	layer.Root.AddChild(box)
	layer.Detector.AddChild(box)

	walker := entity.New()
	walker.SetPose(0, 0, 0)
	walker.SetSize(20, 20)
	walker.SetMesh(squareMesh())
	layer.Root.AddChild(walker)
	layer.Detector.AddChild(walker)

	walker.OnUpdate = func(dt float64) error {
		walker.SetPose(walker.X+20, walker.Y, walker.Angle)
		return nil
	}

	// Queue a short tone as the layer's music so State.PlayMusic's
	// at-most-one-music invariant and the mixer's gain law both run in
	// this demo.
	musicID, err := layer.Audio.PlayMusic("demo-tone", func() (audio.Decoder, error) {
		return newTone(8, 32767), nil
	}, newTone(8, 32767))
	if err != nil {
		log.Fatalf("radiusdemo: play music: %v", err)
	}
	fmt.Printf("music instance id: %d\n", musicID)

	out := make([]int16, config.FramesPerPeriod*2)
	for tick := 0; tick < 10; tick++ {
		layer.Update(1.0 / 60)

		layer.Detector.ForEachCollision(func(a, b *entity.Entity) {
			fmt.Printf("tick %d: collision between entities at bounds %v / %v\n", tick, a.Bounds(), b.Bounds())
		})

		layer.Audio.Mixer().Callback(out)
	}
}
