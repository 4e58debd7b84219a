package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/brickrender/distraytracer/shared/sessionerr"
)

// maxFrameLen bounds a single frame so a corrupt length prefix can't make a
// reader allocate an unbounded buffer.
const maxFrameLen = 64 << 20

// WriteFrame gob-encodes v and writes it to w as a 4-byte little-endian
// length prefix followed by the encoded bytes.
func WriteFrame(w io.Writer, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return sessionerr.Wrap(sessionerr.Decode, err, "encode frame")
	}

	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(buf.Len()))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "write frame length")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "write frame body")
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and gob-decodes it into
// v, which must be a pointer.
func ReadFrame(r io.Reader, v any) error {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "read frame length")
	}
	n := binary.LittleEndian.Uint32(lenPrefix[:])
	if n > maxFrameLen {
		return sessionerr.New(sessionerr.Decode, "frame exceeds maximum length")
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "read frame body")
	}
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(v); err != nil {
		return sessionerr.Wrap(sessionerr.Decode, err, "decode frame")
	}
	return nil
}
