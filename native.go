package etf

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
)

// FromGo converts a native Go value into a Term. Terms are returned
// as is. Slices become tuples and arrays become lists; maps become a
// list of {Key, Value} tuples ordered by key, with string keys turned
// into atoms. Nesting, pointers included, is bounded by WithMaxDepth.
func FromGo(v interface{}, opts ...Option) (Term, error) {
	c := converter{maxDepth: newOptions(opts).maxDepth}
	return c.fromGo(reflect.ValueOf(v), 0)
}

type converter struct {
	maxDepth int
}

var (
	termType   = reflect.TypeOf((*Term)(nil)).Elem()
	bigIntType = reflect.TypeOf(big.Int{})
)

func (c converter) fromGo(v reflect.Value, depth int) (Term, error) {
	if depth > c.maxDepth {
		return nil, fmt.Errorf("%w: native value", ErrDepthExceeded)
	}
	if !v.IsValid() {
		return List{}, nil
	}
	if k := v.Kind(); k != reflect.Interface && k != reflect.Ptr && v.Type().Implements(termType) {
		return v.Interface().(Term), nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return List{}, nil
		}
		// An interface alone cannot form a cycle; pointers, slices and
		// maps count toward the depth.
		return c.fromGo(v.Elem(), depth)
	case reflect.Ptr:
		if v.IsNil() {
			return List{}, nil
		}
		if v.Type().Elem() == bigIntType {
			return bigInteger(v.Interface().(*big.Int)), nil
		}
		return c.fromGo(v.Elem(), depth+1)
	case reflect.Bool:
		if v.Bool() {
			return TrueAtom, nil
		}
		return FalseAtom, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return Integer(i), nil
		}
		return bigInteger(big.NewInt(i)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u <= math.MaxInt32 {
			return Integer(u), nil
		}
		return bigInteger(new(big.Int).SetUint64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(v.Float()), nil
	case reflect.String:
		return String(v.String()), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return Binary(v.Bytes()), nil
		}
		items, err := c.fromGoItems(v, depth)
		return Tuple(items), err
	case reflect.Array:
		items, err := c.fromGoItems(v, depth)
		return List(items), err
	case reflect.Map:
		return c.fromGoMap(v, depth)
	}
	return nil, fmt.Errorf("%w: go type %s", ErrUnsupported, v.Type())
}

func (c converter) fromGoItems(v reflect.Value, depth int) ([]Term, error) {
	items := make([]Term, v.Len())
	for i := range items {
		t, err := c.fromGo(v.Index(i), depth+1)
		if err != nil {
			return nil, err
		}
		items[i] = t
	}
	return items, nil
}

func (c converter) fromGoMap(v reflect.Value, depth int) (Term, error) {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	pairs := make(List, 0, len(keys))
	for _, k := range keys {
		value := v.MapIndex(k)
		if k.Kind() == reflect.Interface && !k.IsNil() {
			k = k.Elem()
		}
		var key Term
		if k.Kind() == reflect.String {
			key = Atom(k.String())
		} else {
			var err error
			if key, err = c.fromGo(k, depth+1); err != nil {
				return nil, err
			}
		}
		val, err := c.fromGo(value, depth+1)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Tuple{key, val})
	}
	return pairs, nil
}

func bigInteger(i *big.Int) Term {
	if i.IsInt64() {
		if n := i.Int64(); n >= math.MinInt32 && n <= math.MaxInt32 {
			return Integer(n)
		}
	}
	b := BigInteger{Magnitude: i.Bytes()}
	if i.Sign() < 0 {
		b.Sign = 1
	}
	// big.Int.Bytes is big-endian; the wire wants the least significant
	// byte first.
	for l, r := 0, len(b.Magnitude)-1; l < r; l, r = l+1, r-1 {
		b.Magnitude[l], b.Magnitude[r] = b.Magnitude[r], b.Magnitude[l]
	}
	return b
}

// Int returns the value of a bignum.
func (b BigInteger) Int() *big.Int {
	be := make([]byte, len(b.Magnitude))
	for i, c := range b.Magnitude {
		be[len(be)-1-i] = c
	}
	i := new(big.Int).SetBytes(be)
	if b.Sign != 0 {
		i.Neg(i)
	}
	return i
}

// ToGo converts a term into plain Go values suitable for generic
// serializers: numbers, strings, byte slices, []interface{} and
// map[string]interface{}. Atoms keep their Atom type so they stay
// distinguishable from strings. Nesting is bounded by WithMaxDepth.
func ToGo(t Term, opts ...Option) (interface{}, error) {
	c := converter{maxDepth: newOptions(opts).maxDepth}
	return c.toGo(t, 0)
}

func (c converter) toGo(t Term, depth int) (interface{}, error) {
	if depth > c.maxDepth {
		return nil, fmt.Errorf("%w: %T", ErrDepthExceeded, t)
	}
	switch v := t.(type) {
	case AtomCacheRef:
		return map[string]interface{}{"atom_cache_ref": uint8(v)}, nil
	case Integer:
		return int64(v), nil
	case Float:
		return float64(v), nil
	case Atom:
		return v, nil
	case String:
		return string(v), nil
	case Binary:
		return []byte(v), nil
	case BigInteger:
		return v.Int(), nil
	case Tuple:
		return c.toGoItems(v, depth)
	case List:
		return c.toGoItems(v, depth)
	case Nil:
		return []interface{}{}, nil
	case BitBinary:
		return map[string]interface{}{"bytes": v.Bytes, "bits": v.Bits}, nil
	case Pid:
		node, err := c.toGo(v.Node, depth+1)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"pid": map[string]interface{}{
				"node": node, "id": v.ID, "serial": v.Serial, "creation": v.Creation,
			},
		}, nil
	case Port:
		node, err := c.toGo(v.Node, depth+1)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"port": map[string]interface{}{"node": node, "id": v.ID, "creation": v.Creation},
		}, nil
	case Reference:
		node, err := c.toGo(v.Node, depth+1)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"reference": map[string]interface{}{"node": node, "ids": v.IDs, "creation": v.Creation},
		}, nil
	case Export:
		parts, err := c.toGoItems([]Term{v.Module, v.Function, v.Arity}, depth)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"export": map[string]interface{}{
				"module": parts[0], "function": parts[1], "arity": parts[2],
			},
		}, nil
	case Fun:
		parts, err := c.toGoItems([]Term{v.Module, v.OldIndex, v.OldUniq, v.Pid}, depth)
		if err != nil {
			return nil, err
		}
		freeVars, err := c.toGoItems(v.FreeVars, depth)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"fun": map[string]interface{}{
				"arity":     v.Arity,
				"uniq":      v.Uniq[:],
				"index":     v.Index,
				"num_free":  v.NumFree,
				"module":    parts[0],
				"old_index": parts[1],
				"old_uniq":  parts[2],
				"pid":       parts[3],
				"free_vars": freeVars,
			},
		}, nil
	}
	return nil, nil
}

func (c converter) toGoItems(items []Term, depth int) ([]interface{}, error) {
	out := make([]interface{}, len(items))
	for i, t := range items {
		v, err := c.toGo(t, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
