package etf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool(t *testing.T) {
	data, err := Encode(Bool(true))
	require.NoError(t, err)
	assert.Equal(t, []byte{131, 104, 2,
		115, 4, 98, 101, 114, 116,
		115, 4, 116, 114, 117, 101,
	}, data)
}

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Kind:      CallAtom,
		Module:    Atom("calc"),
		Function:  Atom("add"),
		Arguments: []Term{Integer(1), Integer(2)},
	}
	data, err := Encode(req.Term())
	require.NoError(t, err)
	term, err := Decode(data)
	require.NoError(t, err)
	parsed, err := ParseRequest(term)
	require.NoError(t, err)
	assert.Equal(t, req, parsed)
}

func TestParseRequestArgumentForms(t *testing.T) {
	parsed, err := ParseRequest(Tuple{CastAtom, Atom("m"), Atom("f"), Nil{}})
	require.NoError(t, err)
	assert.Empty(t, parsed.Arguments)

	parsed, err = ParseRequest(Tuple{CallAtom, Atom("m"), Atom("f"), String([]byte{1, 2})})
	require.NoError(t, err)
	assert.Equal(t, []Term{Integer(1), Integer(2)}, parsed.Arguments)
}

func TestParseRequestErrors(t *testing.T) {
	for _, term := range []Term{
		Atom("call"),
		Tuple{CallAtom, Atom("m"), Atom("f")},
		Tuple{Atom("reply"), Atom("m"), Atom("f"), List{}},
		Tuple{CallAtom, String("m"), Atom("f"), List{}},
		Tuple{CallAtom, Atom("m"), Atom("f"), Integer(1)},
	} {
		_, err := ParseRequest(term)
		assert.Error(t, err, "ParseRequest(%v)", term)
	}
}
