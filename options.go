package etf

const (
	DefaultMaxDepth        = 512
	DefaultMaxInflatedSize = 64 << 20
)

type options struct {
	maxDepth        int
	maxInflatedSize uint32
	compression     int
}

// Option configures a Decoder or an Encoder. Options that only make
// sense for one side are ignored by the other.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		maxDepth:        DefaultMaxDepth,
		maxInflatedSize: DefaultMaxInflatedSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxDepth bounds how deeply terms may nest. Decoding untrusted
// input without a bound lets the peer exhaust the stack.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithMaxInflatedSize caps the declared size of a compressed term.
func WithMaxInflatedSize(n uint32) Option {
	return func(o *options) {
		o.maxInflatedSize = n
	}
}

// WithCompression makes EncodeVersioned emit compressed terms at the
// given zlib level (1-9) when that is smaller. 0 disables compression.
func WithCompression(level int) Option {
	return func(o *options) {
		o.compression = level
	}
}
