package etf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	maxReferenceIDs   = 3
	legacyFloatSize   = 31
	legacyFloatDigits = 26

	// Payloads above chunkSize are read incrementally so that a lying
	// length field costs no more memory than the bytes actually sent.
	chunkSize   = 64 << 10
	maxPrealloc = 1024
)

// Decoder reads terms from a byte source. It does not buffer: each
// call consumes exactly the bytes of one term and nothing more.
type Decoder struct {
	r    io.Reader
	opts options
}

func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, opts: newOptions(opts)}
}

// Decode reads one top-level term, unwrapping a leading version marker
// and a compressed envelope when present. It returns io.EOF only when
// the source is exhausted before the first byte.
func (d *Decoder) Decode() (Term, error) {
	s := &decodeState{r: d.r, opts: d.opts}
	return s.top()
}

// Decode decodes exactly one term from data.
func Decode(data []byte, opts ...Option) (Term, error) {
	r := bytes.NewReader(data)
	t, err := NewDecoder(r, opts...).Decode()
	if err == io.EOF {
		return nil, &DecodeError{Err: ErrTruncated}
	}
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, &DecodeError{Offset: int64(len(data) - r.Len()), Err: ErrTrailingData}
	}
	return t, nil
}

type decodeState struct {
	r      io.Reader
	opts   options
	offset int64
	buf    [8]byte
}

func (s *decodeState) top() (Term, error) {
	n, err := io.ReadFull(s.r, s.buf[:1])
	s.offset += int64(n)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, s.wrap(0, err)
	}
	tag := s.buf[0]
	if tag != VersionTag {
		return s.term(tag, 0)
	}
	if tag, err = s.readUint8(); err != nil {
		return nil, s.wrap(VersionTag, err)
	}
	if tag == CompressedTag {
		t, err := s.compressed()
		if err != nil {
			return nil, s.wrap(CompressedTag, err)
		}
		return t, nil
	}
	return s.term(tag, 0)
}

func (s *decodeState) wrap(tag byte, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Offset: s.offset, Tag: tag, Err: err}
}

func (s *decodeState) next(depth int) (Term, error) {
	tag, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	return s.term(tag, depth+1)
}

func (s *decodeState) terms(n uint64, depth int) ([]Term, error) {
	items := make([]Term, 0, min(n, maxPrealloc))
	for i := uint64(0); i < n; i++ {
		t, err := s.next(depth)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, nil
}

func (s *decodeState) term(tag byte, depth int) (Term, error) {
	if depth > s.opts.maxDepth {
		return nil, s.wrap(tag, ErrDepthExceeded)
	}
	t, err := s.dispatch(tag, depth)
	if err != nil {
		return nil, s.wrap(tag, err)
	}
	return t, nil
}

func (s *decodeState) dispatch(tag byte, depth int) (Term, error) {
	switch tag {
	case AtomCacheRefTag:
		i, err := s.readUint8()
		return AtomCacheRef(i), err
	case SmallIntTag:
		i, err := s.readUint8()
		return Integer(i), err
	case IntTag:
		i, err := s.readUint32()
		return Integer(int32(i)), err
	case FloatTag:
		return s.legacyFloat()
	case NewFloatTag:
		i, err := s.readUint64()
		return Float(math.Float64frombits(i)), err
	case AtomTag, AtomUTF8Tag:
		return s.atom(false)
	case SmallAtomTag, SmallAtomUTF8Tag:
		return s.atom(true)
	case ReferenceTag:
		return s.reference(depth)
	case NewReferenceTag:
		return s.newReference(depth)
	case PortTag:
		return s.port(depth)
	case PidTag:
		return s.pid(depth)
	case SmallTupleTag, LargeTupleTag:
		return s.tuple(tag == SmallTupleTag, depth)
	case NilTag:
		return Nil{}, nil
	case StringTag:
		return s.str()
	case ListTag:
		return s.list(depth)
	case BinTag:
		return s.binary()
	case SmallBignumTag, LargeBignumTag:
		return s.bignum(tag == SmallBignumTag)
	case FunTag:
		return s.fun(depth)
	case NewFunTag:
		return s.newFun(depth)
	case ExportTag:
		return s.export(depth)
	case BitTag:
		return s.bitBinary()
	default:
		return nil, ErrUnknownTag
	}
}

// legacyFloat parses the 31-byte "%.20e" field. The text runs to the
// first NUL so that a sign, which makes it 27 characters long, is kept.
// When that fails the first 26 characters are tried alone and the rest
// is treated as padding, whatever its bytes.
func (s *decodeState) legacyFloat() (Term, error) {
	field, err := s.readBytes(legacyFloatSize)
	if err != nil {
		return nil, err
	}
	text := field
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(text)), 64)
	if err != nil && len(text) > legacyFloatDigits {
		f, err = strconv.ParseFloat(strings.TrimSpace(string(field[:legacyFloatDigits])), 64)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedFloat, text)
	}
	return Float(f), nil
}

func (s *decodeState) atom(small bool) (Term, error) {
	n, err := s.length(small, false)
	if err != nil {
		return nil, err
	}
	b, err := s.readBytes(n)
	return Atom(b), err
}

func (s *decodeState) reference(depth int) (Term, error) {
	node, err := s.next(depth)
	if err != nil {
		return nil, err
	}
	id, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	creation, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	return Reference{Node: node, IDs: []uint32{id}, Creation: creation}, nil
}

func (s *decodeState) newReference(depth int) (Term, error) {
	n, err := s.readUint16()
	if err != nil {
		return nil, err
	}
	if n > maxReferenceIDs {
		return nil, fmt.Errorf("%w: %d ids", ErrReferenceArityExceeded, n)
	}
	node, err := s.next(depth)
	if err != nil {
		return nil, err
	}
	creation, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, n)
	for i := range ids {
		if ids[i], err = s.readUint32(); err != nil {
			return nil, err
		}
	}
	return Reference{Node: node, IDs: ids, Creation: creation}, nil
}

func (s *decodeState) port(depth int) (Term, error) {
	node, err := s.next(depth)
	if err != nil {
		return nil, err
	}
	id, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	creation, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	return Port{Node: node, ID: id, Creation: creation}, nil
}

func (s *decodeState) pid(depth int) (Term, error) {
	node, err := s.next(depth)
	if err != nil {
		return nil, err
	}
	id, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	serial, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	creation, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	return Pid{Node: node, ID: id, Serial: serial, Creation: creation}, nil
}

func (s *decodeState) tuple(small bool, depth int) (Term, error) {
	n, err := s.length(small, true)
	if err != nil {
		return nil, err
	}
	items, err := s.terms(n, depth)
	return Tuple(items), err
}

func (s *decodeState) str() (Term, error) {
	n, err := s.readUint16()
	if err != nil {
		return nil, err
	}
	b, err := s.readBytes(uint64(n))
	return String(b), err
}

func (s *decodeState) list(depth int) (Term, error) {
	n, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	items, err := s.terms(uint64(n), depth)
	if err != nil {
		return nil, err
	}
	tail, err := s.next(depth)
	if err != nil {
		return nil, err
	}
	if _, proper := tail.(Nil); !proper {
		items = append(items, tail)
	}
	return List(items), nil
}

func (s *decodeState) binary() (Term, error) {
	n, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	b, err := s.readBytes(uint64(n))
	return Binary(b), err
}

func (s *decodeState) bignum(small bool) (Term, error) {
	n, err := s.length(small, true)
	if err != nil {
		return nil, err
	}
	sign, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	magnitude, err := s.readBytes(n)
	if err != nil {
		return nil, err
	}
	return BigInteger{Sign: sign, Magnitude: magnitude}, nil
}

func (s *decodeState) fun(depth int) (Term, error) {
	numFree, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	var parts [4]Term
	for i := range parts {
		if parts[i], err = s.next(depth); err != nil {
			return nil, err
		}
	}
	freeVars, err := s.terms(uint64(numFree), depth)
	if err != nil {
		return nil, err
	}
	return Fun{
		NumFree:  numFree,
		Pid:      parts[0],
		Module:   parts[1],
		OldIndex: parts[2],
		OldUniq:  parts[3],
		FreeVars: freeVars,
	}, nil
}

func (s *decodeState) newFun(depth int) (Term, error) {
	// The total size is only useful for skipping the term.
	if _, err := s.readUint32(); err != nil {
		return nil, err
	}
	arity, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	f := Fun{Arity: arity}
	if err := s.readFull(f.Uniq[:]); err != nil {
		return nil, err
	}
	if f.Index, err = s.readUint32(); err != nil {
		return nil, err
	}
	if f.NumFree, err = s.readUint32(); err != nil {
		return nil, err
	}
	for _, field := range []*Term{&f.Module, &f.OldIndex, &f.OldUniq, &f.Pid} {
		if *field, err = s.next(depth); err != nil {
			return nil, err
		}
	}
	if f.FreeVars, err = s.terms(uint64(f.NumFree), depth); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *decodeState) export(depth int) (Term, error) {
	var parts [3]Term
	var err error
	for i := range parts {
		if parts[i], err = s.next(depth); err != nil {
			return nil, err
		}
	}
	return Export{Module: parts[0], Function: parts[1], Arity: parts[2]}, nil
}

func (s *decodeState) bitBinary() (Term, error) {
	n, err := s.readUint32()
	if err != nil {
		return nil, err
	}
	bits, err := s.readUint8()
	if err != nil {
		return nil, err
	}
	b, err := s.readBytes(uint64(n))
	if err != nil {
		return nil, err
	}
	return BitBinary{Bytes: b, Bits: bits}, nil
}

// length reads a 1-byte length when small is set, otherwise a 4-byte
// one if wide is set or a 2-byte one if not.
func (s *decodeState) length(small, wide bool) (uint64, error) {
	switch {
	case small:
		n, err := s.readUint8()
		return uint64(n), err
	case wide:
		n, err := s.readUint32()
		return uint64(n), err
	default:
		n, err := s.readUint16()
		return uint64(n), err
	}
}

func (s *decodeState) readFull(p []byte) error {
	n, err := io.ReadFull(s.r, p)
	s.offset += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}

func (s *decodeState) readUint8() (byte, error) {
	err := s.readFull(s.buf[:1])
	return s.buf[0], err
}

func (s *decodeState) readUint16() (uint16, error) {
	err := s.readFull(s.buf[:2])
	return binary.BigEndian.Uint16(s.buf[:2]), err
}

func (s *decodeState) readUint32() (uint32, error) {
	err := s.readFull(s.buf[:4])
	return binary.BigEndian.Uint32(s.buf[:4]), err
}

func (s *decodeState) readUint64() (uint64, error) {
	err := s.readFull(s.buf[:8])
	return binary.BigEndian.Uint64(s.buf[:8]), err
}

func (s *decodeState) readBytes(n uint64) ([]byte, error) {
	if n <= chunkSize {
		b := make([]byte, n)
		return b, s.readFull(b)
	}
	var buf bytes.Buffer
	buf.Grow(chunkSize)
	written, err := io.CopyN(&buf, s.r, int64(n))
	s.offset += written
	if err == io.EOF {
		return nil, ErrTruncated
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadByte lets the zlib reader consume the source without buffering
// past the end of the compressed stream.
func (s *decodeState) ReadByte() (byte, error) {
	n, err := io.ReadFull(s.r, s.buf[:1])
	s.offset += int64(n)
	return s.buf[0], err
}

func (s *decodeState) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.offset += int64(n)
	return n, err
}
