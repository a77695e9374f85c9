package audio

import (
	"bytes"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// mp3Decoder adapts github.com/hajimehoshi/go-mp3's pull-style Stream onto
// the Decoder contract. go-mp3 exposes raw bytes via io.Reader, so
// DecodeBlock reads 2*len(buf) bytes of little-endian 16-bit PCM and
// converts them to int16 samples, keeping the stereo interleaving.
type mp3Decoder struct {
	src    io.ReadSeeker
	stream *mp3.Decoder
	raw    []byte
}

// OpenMP3 wraps r (the clip's contents, already read fully into memory by
// the caller, since mp3.Decoder requires io.Seeker) in a Decoder.
func OpenMP3(r io.ReadSeeker) (Decoder, error) {
	s, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrap(err, "open mp3 stream")
	}
	return &mp3Decoder{src: r, stream: s}, nil
}

func (d *mp3Decoder) DecodeBlock(buf []int16) (int, bool, error) {
	need := len(buf) * BytesPerSample
	if cap(d.raw) < need {
		d.raw = make([]byte, need)
	}
	raw := d.raw[:need]
	total := 0
	for total < need {
		n, err := d.stream.Read(raw[total:])
		total += n
		if err == io.EOF {
			decodeInterleaved(raw[:total], buf)
			return total / BytesPerSample, true, nil
		}
		if err != nil {
			return total / BytesPerSample, false, errors.Wrap(err, "read mp3 frame")
		}
		if n == 0 {
			break
		}
	}
	decodeInterleaved(raw[:total], buf)
	return total / BytesPerSample, false, nil
}

func decodeInterleaved(raw []byte, out []int16) {
	for i := 0; i+1 < len(raw); i += 2 {
		out[i/2] = int16(raw[i]) | int16(raw[i+1])<<8
	}
}

func (d *mp3Decoder) Rewind() error {
	return d.SeekMS(0)
}

func (d *mp3Decoder) SeekMS(ms int) error {
	sampleRate := d.stream.SampleRate()
	pos := int64(ms) * int64(sampleRate) / 1000 * 4 // 4 bytes/frame stereo16
	if _, err := d.src.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek mp3 source")
	}
	s, err := mp3.NewDecoder(d.src)
	if err != nil {
		return errors.Wrap(err, "reopen mp3 stream")
	}
	d.stream = s
	if pos > 0 {
		if _, err := io.CopyN(io.Discard, d.stream, pos); err != nil && err != io.EOF {
			return errors.Wrap(err, "skip to seek position")
		}
	}
	return nil
}

func (d *mp3Decoder) CanSeek() bool { return true }

func (d *mp3Decoder) Close() error { return nil }

// OpenMP3Bytes is a convenience opener factory for ClipData.Open, bound
// to in-memory file contents (the caller loads the whole file once; each
// call of the returned factory wraps it in a fresh bytes.Reader so every
// instance can seek independently).
func OpenMP3Bytes(data []byte) func() (Decoder, error) {
	return func() (Decoder, error) {
		return OpenMP3(bytes.NewReader(data))
	}
}
