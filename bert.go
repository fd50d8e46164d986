package etf

import (
	"fmt"
)

const (
	BertAtom  = Atom("bert")
	NilAtom   = Atom("nil")
	TrueAtom  = Atom("true")
	FalseAtom = Atom("false")
	CallAtom  = Atom("call")
	CastAtom  = Atom("cast")
)

// Bool returns the BERT complex boolean {bert, true} or {bert, false}.
func Bool(b bool) Term {
	if b {
		return Tuple{BertAtom, TrueAtom}
	}
	return Tuple{BertAtom, FalseAtom}
}

// Request is a BERT-RPC call or cast: {Kind, Module, Function, Arguments}.
type Request struct {
	Kind      Atom
	Module    Atom
	Function  Atom
	Arguments []Term
}

func (r Request) Term() Term {
	return Tuple{r.Kind, r.Module, r.Function, List(r.Arguments)}
}

// ParseRequest checks that t has the shape of a BERT-RPC request.
func ParseRequest(t Term) (Request, error) {
	tuple, ok := t.(Tuple)
	if !ok || len(tuple) != 4 {
		return Request{}, fmt.Errorf("bert request: expected a 4-tuple, got %T", t)
	}
	var r Request
	for i, field := range []*Atom{&r.Kind, &r.Module, &r.Function} {
		a, ok := tuple[i].(Atom)
		if !ok {
			return Request{}, fmt.Errorf("bert request: element %d is %T, not an atom", i+1, tuple[i])
		}
		*field = a
	}
	if r.Kind != CallAtom && r.Kind != CastAtom {
		return Request{}, fmt.Errorf("bert request: unknown kind %q", r.Kind)
	}
	switch args := tuple[3].(type) {
	case List:
		r.Arguments = args
	case Nil:
		r.Arguments = []Term{}
	case String:
		// A list of small integers may arrive in string form.
		r.Arguments = make([]Term, len(args))
		for i := 0; i < len(args); i++ {
			r.Arguments[i] = Integer(args[i])
		}
	default:
		return Request{}, fmt.Errorf("bert request: arguments are %T, not a list", tuple[3])
	}
	return r, nil
}
