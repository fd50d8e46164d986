package etf

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGo(t *testing.T) {
	cases := []struct {
		name     string
		value    interface{}
		expected []byte
	}{
		{"small int", 1, []byte{131, 97, 1}},
		{"int", 257, []byte{131, 98, 0, 0, 1, 1}},
		{"negative int", -8, []byte{131, 98, 255, 255, 255, 248}},
		{"uint", uint(1), []byte{131, 97, 1}},
		{"float", 0.5, []byte{131, 70, 63, 224, 0, 0, 0, 0, 0, 0}},
		{"atom", Atom("foo"), []byte{131, 115, 3, 102, 111, 111}},
		{"mixed tuple", []interface{}{Atom("coord"), 23, 42}, []byte{131, 104, 3,
			115, 5, 99, 111, 111, 114, 100, 97, 23, 97, 42}},
		{"tuple of binaries", [][]byte{[]byte("0"), []byte("1")},
			[]byte{131, 104, 2, 109, 0, 0, 0, 1, 48, 109, 0, 0, 0, 1, 49}},
		{"nil", nil, []byte{131, 108, 0, 0, 0, 0, 106}},
		{"string", "foo", []byte{131, 107, 0, 3, 102, 111, 111}},
		{"binary", []byte{1, 2, 3, 4}, []byte{131, 109, 0, 0, 0, 4, 1, 2, 3, 4}},
		{"bitstring", BitBinary{[]byte{128}, 1}, []byte{131, 77, 0, 0, 0, 1, 1, 128}},
		{"array", [3]interface{}{1, 2, 3}, []byte{131, 108, 0, 0, 0, 3, 97, 1, 97, 2, 97, 3, 106}},
		{"uint array", [2]uint{1, 2}, []byte{131, 108, 0, 0, 0, 2, 97, 1, 97, 2, 106}},
		{"bool", true, []byte{131, 115, 4, 116, 114, 117, 101}},
		{"large uint", uint(100000000000), []byte{131, 110, 5, 0, 0, 232, 118, 72, 23}},
		{"large int", 100000000000, []byte{131, 110, 5, 0, 0, 232, 118, 72, 23}},
		{"large negative int", -100000000000, []byte{131, 110, 5, 1, 0, 232, 118, 72, 23}},
		{"map", map[string]int{"b": 2, "a": 1}, []byte{131, 108, 0, 0, 0, 2,
			104, 2, 115, 1, 97, 97, 1,
			104, 2, 115, 1, 98, 97, 2,
			106}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			term, err := FromGo(c.value)
			require.NoError(t, err)
			data, err := Encode(term)
			require.NoError(t, err)
			assert.Equal(t, c.expected, data)
		})
	}
}

func TestFromGoUnsupported(t *testing.T) {
	_, err := FromGo(make(chan int))
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = FromGo(struct{ A int }{1})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFromGoDepthLimit(t *testing.T) {
	var self interface{}
	self = &self
	_, err := FromGo(self)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	ring := make([]interface{}, 1)
	ring[0] = ring
	_, err = FromGo(ring)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	nested := []interface{}{[]interface{}{[]interface{}{1}}}
	_, err = FromGo(nested, WithMaxDepth(1))
	assert.ErrorIs(t, err, ErrDepthExceeded)
	term, err := FromGo(nested, WithMaxDepth(3))
	require.NoError(t, err)
	assert.Equal(t, Tuple{Tuple{Tuple{Integer(1)}}}, term)
}

func TestFromGoBigInt(t *testing.T) {
	n, ok := new(big.Int).SetString("-123456789012345678901234567890", 10)
	require.True(t, ok)
	term, err := FromGo(n)
	require.NoError(t, err)
	b, ok := term.(BigInteger)
	require.True(t, ok, "expected BigInteger, got %T", term)
	assert.Equal(t, uint8(1), b.Sign)
	assert.Equal(t, 0, n.Cmp(b.Int()))

	term, err = FromGo(big.NewInt(12))
	require.NoError(t, err)
	assert.Equal(t, Integer(12), term)
}

func TestBigIntegerInt(t *testing.T) {
	b := BigInteger{Sign: 0, Magnitude: []byte{0, 94, 208, 178}}
	assert.Equal(t, "3000000000", b.Int().String())
	b.Sign = 1
	assert.Equal(t, "-3000000000", b.Int().String())
	assert.Equal(t, "0", BigInteger{}.Int().String())
}

func TestToGo(t *testing.T) {
	node := Atom("nonode@nohost")
	term := Tuple{
		Atom("ok"),
		Integer(-1),
		Float(1.5),
		String("abc"),
		Binary{1, 2},
		List{Integer(1), Nil{}},
		BigInteger{Magnitude: []byte{0, 0, 0, 0, 1}},
		Pid{Node: node, ID: 33},
		BitBinary{Bytes: []byte{224}, Bits: 3},
	}
	value, err := ToGo(term)
	require.NoError(t, err)
	got, ok := value.([]interface{})
	require.True(t, ok, "expected []interface{}, got %T", value)
	require.Len(t, got, 9)
	assert.Equal(t, Atom("ok"), got[0])
	assert.Equal(t, int64(-1), got[1])
	assert.Equal(t, 1.5, got[2])
	assert.Equal(t, "abc", got[3])
	assert.Equal(t, []byte{1, 2}, got[4])
	assert.Equal(t, []interface{}{int64(1), []interface{}{}}, got[5])
	assert.Equal(t, 0, big.NewInt(math.MaxUint32+1).Cmp(got[6].(*big.Int)))
	assert.Equal(t, map[string]interface{}{
		"pid": map[string]interface{}{
			"node": node, "id": uint32(33), "serial": uint32(0), "creation": uint8(0),
		},
	}, got[7])
	assert.Equal(t, map[string]interface{}{"bytes": []byte{224}, "bits": uint8(3)}, got[8])
}

func TestToGoDepthLimit(t *testing.T) {
	self := Tuple{nil}
	self[0] = self
	_, err := ToGo(self)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	nested := List{List{Integer(1)}}
	_, err = ToGo(nested, WithMaxDepth(1))
	assert.ErrorIs(t, err, ErrDepthExceeded)
	value, err := ToGo(nested, WithMaxDepth(2))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{[]interface{}{int64(1)}}, value)

	_, err = ToGo(Pid{Node: self})
	assert.ErrorIs(t, err, ErrDepthExceeded)
}
