package etf

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// Encoder writes terms to a byte sink. A term is staged in memory and
// handed to the sink in a single Write, so a failed call writes nothing.
type Encoder struct {
	w    io.Writer
	opts options
}

func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: newOptions(opts)}
}

// Encode writes t without a version marker.
func (e *Encoder) Encode(t Term) error {
	var buf bytes.Buffer
	if err := e.encode(&buf, t); err != nil {
		return err
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}

// EncodeVersioned writes the version marker followed by t, compressed
// when WithCompression is set and compression saves space.
func (e *Encoder) EncodeVersioned(t Term) error {
	var buf bytes.Buffer
	buf.WriteByte(VersionTag)
	if err := e.encode(&buf, t); err != nil {
		return err
	}
	out := buf.Bytes()
	if e.opts.compression > 0 {
		packed, err := deflate(out[1:], e.opts.compression)
		if err != nil {
			return encodeError(t, err)
		}
		if len(packed) < len(out)-1 {
			out = append([]byte{VersionTag}, packed...)
		}
	}
	_, err := e.w.Write(out)
	return err
}

// Encode returns the versioned encoding of t.
func Encode(t Term, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, opts...).EncodeVersioned(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal writes the versioned encoding of t to w.
func Marshal(w io.Writer, t Term, opts ...Option) error {
	return NewEncoder(w, opts...).EncodeVersioned(t)
}

func (e *Encoder) encode(buf *bytes.Buffer, t Term) error {
	s := encodeState{buf: buf, maxDepth: e.opts.maxDepth}
	return s.term(t, 0)
}

type encodeState struct {
	buf      *bytes.Buffer
	maxDepth int
	scratch  [8]byte
}

func (s *encodeState) term(t Term, depth int) error {
	if depth > s.maxDepth {
		return encodeError(t, ErrDepthExceeded)
	}
	switch v := t.(type) {
	case AtomCacheRef:
		s.buf.WriteByte(AtomCacheRefTag)
		s.buf.WriteByte(byte(v))
	case Integer:
		s.integer(v)
	case Float:
		s.buf.WriteByte(NewFloatTag)
		s.putUint64(math.Float64bits(float64(v)))
	case Atom:
		return s.atom(v)
	case Tuple:
		return s.tuple(v, depth)
	case String:
		if len(v) > math.MaxUint16 {
			return encodeError(t, ErrTooLarge)
		}
		s.buf.WriteByte(StringTag)
		s.putUint16(uint16(len(v)))
		s.buf.WriteString(string(v))
	case List:
		return s.list(v, depth)
	case Binary:
		if uint64(len(v)) > math.MaxUint32 {
			return encodeError(t, ErrTooLarge)
		}
		s.buf.WriteByte(BinTag)
		s.putUint32(uint32(len(v)))
		s.buf.Write(v)
	case BigInteger:
		return s.bignum(v)
	case BitBinary:
		if uint64(len(v.Bytes)) > math.MaxUint32 {
			return encodeError(t, ErrTooLarge)
		}
		s.buf.WriteByte(BitTag)
		s.putUint32(uint32(len(v.Bytes)))
		s.buf.WriteByte(v.Bits)
		s.buf.Write(v.Bytes)
	default:
		// Pid, Port, Reference, Fun, Export and Nil have no encoder.
		return encodeError(t, ErrUnsupported)
	}
	return nil
}

func (s *encodeState) integer(i Integer) {
	if i >= 0 && i <= math.MaxUint8 {
		s.buf.WriteByte(SmallIntTag)
		s.buf.WriteByte(byte(i))
		return
	}
	s.buf.WriteByte(IntTag)
	s.putUint32(uint32(i))
}

func (s *encodeState) atom(a Atom) error {
	switch n := len(a); {
	case n <= math.MaxUint8:
		s.buf.WriteByte(SmallAtomTag)
		s.buf.WriteByte(byte(n))
	case n <= math.MaxUint16:
		s.buf.WriteByte(AtomTag)
		s.putUint16(uint16(n))
	default:
		return encodeError(a, ErrTooLarge)
	}
	s.buf.WriteString(string(a))
	return nil
}

func (s *encodeState) tuple(t Tuple, depth int) error {
	switch n := uint64(len(t)); {
	case n <= math.MaxUint8:
		s.buf.WriteByte(SmallTupleTag)
		s.buf.WriteByte(byte(n))
	case n <= math.MaxUint32:
		s.buf.WriteByte(LargeTupleTag)
		s.putUint32(uint32(n))
	default:
		return encodeError(t, ErrTooLarge)
	}
	for _, item := range t {
		if err := s.term(item, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// list always writes a proper list: a trailing element that came from
// an improper tail is written as an ordinary element.
func (s *encodeState) list(l List, depth int) error {
	if uint64(len(l)) > math.MaxUint32 {
		return encodeError(l, ErrTooLarge)
	}
	s.buf.WriteByte(ListTag)
	s.putUint32(uint32(len(l)))
	for _, item := range l {
		if err := s.term(item, depth+1); err != nil {
			return err
		}
	}
	s.buf.WriteByte(NilTag)
	return nil
}

func (s *encodeState) bignum(b BigInteger) error {
	switch n := uint64(len(b.Magnitude)); {
	case n <= math.MaxUint8:
		s.buf.WriteByte(SmallBignumTag)
		s.buf.WriteByte(byte(n))
	case n <= math.MaxUint32:
		s.buf.WriteByte(LargeBignumTag)
		s.putUint32(uint32(n))
	default:
		return encodeError(b, ErrTooLarge)
	}
	s.buf.WriteByte(b.Sign)
	s.buf.Write(b.Magnitude)
	return nil
}

func (s *encodeState) putUint16(v uint16) {
	binary.BigEndian.PutUint16(s.scratch[:2], v)
	s.buf.Write(s.scratch[:2])
}

func (s *encodeState) putUint32(v uint32) {
	binary.BigEndian.PutUint32(s.scratch[:4], v)
	s.buf.Write(s.scratch[:4])
}

func (s *encodeState) putUint64(v uint64) {
	binary.BigEndian.PutUint64(s.scratch[:8], v)
	s.buf.Write(s.scratch[:8])
}
