package sim86

import (
	"errors"
	"io"
)

// Reader reads instruction bytes from a seekable stream and keeps track of
// the stream position, which doubles as the instruction pointer.
type Reader struct {
	rs  io.ReadSeeker
	pos int64
	buf [2]byte
}

// NewReader returns a Reader positioned at the current offset of rs.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	return &Reader{rs: rs, pos: pos}, nil
}

// Pos returns the offset of the next byte to be read.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadByte reads one byte. It returns io.EOF when the stream is exhausted.
func (r *Reader) ReadByte() (byte, error) {
	n, err := io.ReadFull(r.rs, r.buf[:1])
	r.pos += int64(n)
	if err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadWord reads a little-endian 16-bit value. A stream holding fewer than
// two bytes is reported as ErrTruncatedStream.
func (r *Reader) ReadWord() (uint16, error) {
	n, err := io.ReadFull(r.rs, r.buf[:2])
	r.pos += int64(n)
	if err != nil {
		return 0, truncated(err)
	}
	return uint16(r.buf[0]) | uint16(r.buf[1])<<8, nil
}

// SeekRelative moves the stream position by delta bytes.
func (r *Reader) SeekRelative(delta int64) error {
	if r.pos+delta < 0 {
		return ErrBadBranch
	}
	pos, err := r.rs.Seek(delta, io.SeekCurrent)
	if err != nil {
		return err
	}
	r.pos = pos
	return nil
}

// truncated maps end of stream conditions met part way through an
// instruction to ErrTruncatedStream.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedStream
	}
	return err
}
