package etf

const (
	VersionTag       = 131
	CompressedTag    = 80
	AtomCacheRefTag  = 82
	SmallIntTag      = 97
	IntTag           = 98
	SmallBignumTag   = 110
	LargeBignumTag   = 111
	FloatTag         = 99
	NewFloatTag      = 70
	AtomTag          = 100
	SmallAtomTag     = 115
	AtomUTF8Tag      = 118
	SmallAtomUTF8Tag = 119
	ReferenceTag     = 101
	NewReferenceTag  = 114
	PortTag          = 102
	PidTag           = 103
	SmallTupleTag    = 104
	LargeTupleTag    = 105
	NilTag           = 106
	StringTag        = 107
	ListTag          = 108
	BinTag           = 109
	FunTag           = 117
	NewFunTag        = 112
	ExportTag        = 113
	BitTag           = 77
)

const newFunUniqSize = 16

// Term is one value of the external term format. The set of
// implementations is closed: every Term is one of the types below.
type Term interface {
	isTerm()
}

type AtomCacheRef uint8

type Integer int32

type Float float64

type Atom string

// Reference holds one id for the legacy form and one to three for the
// extended form.
type Reference struct {
	Node     Term
	IDs      []uint32
	Creation uint8
}

type Port struct {
	Node     Term
	ID       uint32
	Creation uint8
}

type Pid struct {
	Node     Term
	ID       uint32
	Serial   uint32
	Creation uint8
}

type Tuple []Term

// String is a character list whose characters all fit in a byte.
type String string

// List holds the elements of a list. A non-nil tail read from the wire
// is stored as the last element.
type List []Term

type Binary []byte

// BigInteger carries a bignum without interpreting it. Magnitude is
// little-endian; Sign is 0 for positive and 1 for negative.
type BigInteger struct {
	Sign      uint8
	Magnitude []byte
}

// Fun is the unified shape of both closure encodings. Values decoded
// from the legacy form have a zero Arity, Uniq and Index.
type Fun struct {
	Arity    uint8
	Uniq     [newFunUniqSize]byte
	Index    uint32
	NumFree  uint32
	Module   Term
	OldIndex Term
	OldUniq  Term
	Pid      Term
	FreeVars []Term
}

type Export struct {
	Module   Term
	Function Term
	Arity    Term
}

// BitBinary is a binary whose last byte has only Bits significant bits.
type BitBinary struct {
	Bytes []byte
	Bits  uint8
}

type Nil struct{}

func (AtomCacheRef) isTerm() {}
func (Integer) isTerm()      {}
func (Float) isTerm()        {}
func (Atom) isTerm()         {}
func (Reference) isTerm()    {}
func (Port) isTerm()         {}
func (Pid) isTerm()          {}
func (Tuple) isTerm()        {}
func (String) isTerm()       {}
func (List) isTerm()         {}
func (Binary) isTerm()       {}
func (BigInteger) isTerm()   {}
func (Fun) isTerm()          {}
func (Export) isTerm()       {}
func (BitBinary) isTerm()    {}
func (Nil) isTerm()          {}
