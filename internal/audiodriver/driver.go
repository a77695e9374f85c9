// Package audiodriver adapts the engine's push-style Mixer.Callback onto
// ebiten's pull-style audio.Player, the way cbegin-mmlfm-go's
// internal/audio.StreamReader wraps a SampleSource for ebitaudio.Context.
package audiodriver

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	ebitenaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/radiusengine/willow-radius/internal/audio"
)

// Source is anything that can fill an interleaved stereo int16 buffer on
// demand; *audio.Mixer satisfies it.
type Source interface {
	Callback(out []int16)
}

// Switch is a Source that forwards to whichever underlying Source was
// most recently set, guarded by a mutex rather than swapped out from
// under the audio callback thread. It lets a single long-lived Player
// (started once, per Player's doc comment) track which layer's
// audio.State is currently active as a host script pushes/pops its
// layer stack, instead of tearing down and recreating the ebiten player
// on every layer change.
type Switch struct {
	mu     sync.Mutex
	active Source
}

// NewSwitch returns a Switch with no active source; Callback produces
// silence until SetActive is called, matching the mixer's own "no active
// audio state" fast path.
func NewSwitch() *Switch { return &Switch{} }

// SetActive changes which Source future Callback calls forward to. Safe
// to call from the script thread while the audio callback thread is
// concurrently calling Callback.
func (s *Switch) SetActive(src Source) {
	s.mu.Lock()
	s.active = src
	s.mu.Unlock()
}

// Callback forwards to the active source, or fills out with silence if
// none is set.
func (s *Switch) Callback(out []int16) {
	s.mu.Lock()
	src := s.active
	s.mu.Unlock()
	if src == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	src.Callback(out)
}

// StreamReader turns repeated pull-style Read calls into Source.Callback
// calls, converting the produced int16 samples to the little-endian
// byte stream ebiten's player consumes.
type StreamReader struct {
	mu     sync.Mutex
	source Source
	scratch []int16
}

// NewStreamReader wraps source for use as an io.Reader.
func NewStreamReader(source Source) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 4 // 2 channels * 2 bytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.scratch) < need {
		r.scratch = make([]int16, need)
	}
	r.scratch = r.scratch[:need]
	r.source.Callback(r.scratch)
	for i, v := range r.scratch {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}
	return frames * 4, nil
}

// Close is a no-op; the mixer and worker outlive any single player.
func (r *StreamReader) Close() error { return nil }

var (
	contextOnce sync.Once
	context     *ebitenaudio.Context
	contextRate int
)

func sharedContext(sampleRate int) (*ebitenaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitenaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audiodriver: context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// Player drives an ebiten audio.Player from a Source, started once and
// left running for the life of the program (the mixer itself tracks
// which instances are active).
type Player struct {
	player *ebitenaudio.Player
	reader io.ReadCloser
}

// NewPlayer creates a player pulling from source at audio.SampleRate.
// Output begins once Play is called.
func NewPlayer(source Source) (*Player, error) {
	ctx, err := sharedContext(audio.SampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayer(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

// Play starts (or resumes) output.
func (p *Player) Play() { p.player.Play() }

// Pause stops pulling from the source without releasing it.
func (p *Player) Pause() { p.player.Pause() }

// IsPlaying reports whether the player is actively pulling frames.
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Close stops the player and releases the underlying stream reader.
func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
