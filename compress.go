package etf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compressed reads the body of a compressed term: the inflated size,
// then a zlib stream holding exactly one term.
func (s *decodeState) compressed() (Term, error) {
	size, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorruptCompressed)
	}
	if size > s.opts.maxInflatedSize {
		return nil, fmt.Errorf("%w: inflated size %d exceeds %d", ErrTooLarge, size, s.opts.maxInflatedSize)
	}
	data, err := inflate(s, size)
	if err != nil {
		return nil, err
	}

	// Offsets of errors inside the payload are relative to the inflated bytes.
	r := bytes.NewReader(data)
	inner := &decodeState{r: r, opts: s.opts}
	tag, err := inner.readUint8()
	if err != nil {
		return nil, inner.wrap(CompressedTag, err)
	}
	t, err := inner.term(tag, 0)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, &DecodeError{Offset: inner.offset, Tag: CompressedTag, Err: ErrTrailingData}
	}
	return t, nil
}

// inflate reads one zlib stream of exactly size bytes from src. src
// must implement io.ByteReader so the zlib reader does not read ahead
// of the stream's checksum.
func inflate(src io.Reader, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCompressed, err)
	}
	defer zr.Close()

	var out bytes.Buffer
	out.Grow(int(min(size, chunkSize)))
	if _, err := io.CopyN(&out, zr, int64(size)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCompressed, err)
	}
	// Reading to the end verifies the checksum.
	var extra [1]byte
	for {
		n, err := zr.Read(extra[:])
		if n > 0 {
			return nil, fmt.Errorf("%w: payload longer than %d bytes", ErrCorruptCompressed, size)
		}
		if errors.Is(err, io.EOF) {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptCompressed, err)
		}
	}
}

// deflate wraps an encoded term (without version marker) in the
// compressed envelope.
func deflate(term []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(CompressedTag)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(term)))
	buf.Write(size[:])

	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(term); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
