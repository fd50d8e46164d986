// Package etf encodes and decodes the Erlang external term format, the
// tagged binary format Erlang nodes and BERT-RPC peers use to exchange
// values.
//
// A Decoder reads one term per call from an io.Reader and never reads
// past it, so several terms can be taken from one stream:
//
//	dec := etf.NewDecoder(conn, etf.WithMaxDepth(64))
//	t, err := dec.Decode()
//
// An Encoder writes the subset of terms that has an encoder: atoms,
// integers, floats, tuples, strings, lists, binaries, bignums,
// bit-binaries and atom cache references. Pids, ports, references,
// funs, exports and the bare Nil term are rejected with ErrUnsupported.
//
//	data, err := etf.Encode(etf.Tuple{etf.Atom("ok"), etf.Integer(42)})
//
// Lists are not distinguished into proper and improper: a non-nil tail
// read from the wire becomes the last element, and the encoder always
// writes a proper list.
//
// Framing above a single term, the distribution header and atom cache
// tables are left to the caller.
package etf
