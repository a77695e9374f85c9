package audiodriver

import "testing"

type fakeSource struct {
	calls int
}

func (f *fakeSource) Callback(out []int16) {
	f.calls++
	for i := range out {
		out[i] = int16(i)
	}
}

func TestStreamReaderFillsRequestedBytes(t *testing.T) {
	src := &fakeSource{}
	r := NewStreamReader(src)

	buf := make([]byte, 4*100) // 100 stereo frames
	n, err := r.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(buf) {
		t.Fatalf("n = %d, want %d", n, len(buf))
	}
	if src.calls != 1 {
		t.Fatalf("expected exactly one Callback call, got %d", src.calls)
	}
}

func TestStreamReaderRoundsDownPartialFrame(t *testing.T) {
	src := &fakeSource{}
	r := NewStreamReader(src)

	buf := make([]byte, 4*10+2) // 10 full frames plus a stray 2 bytes
	n, err := r.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4*10 {
		t.Fatalf("n = %d, want %d", n, 4*10)
	}
}

func TestSwitchSilentUntilActiveSet(t *testing.T) {
	sw := NewSwitch()
	out := make([]int16, 8)
	for i := range out {
		out[i] = 7
	}
	sw.Callback(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %d, want 0 before any active source is set", i, v)
		}
	}
}

func TestSwitchForwardsToActiveSource(t *testing.T) {
	sw := NewSwitch()
	src := &fakeSource{}
	sw.SetActive(src)

	out := make([]int16, 4)
	sw.Callback(out)
	if src.calls != 1 {
		t.Fatalf("expected the active source to be called once, got %d", src.calls)
	}

	other := &fakeSource{}
	sw.SetActive(other)
	sw.Callback(out)
	if other.calls != 1 || src.calls != 1 {
		t.Fatalf("expected switching active source to stop forwarding to the old one")
	}
}
