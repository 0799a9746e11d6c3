package domain

// Principal is an already-authenticated caller identity. Authentication happens
// before a request reaches the services; they only compare principals.
type Principal string

func (p Principal) String() string { return string(p) }

func (p Principal) IsNil() bool { return p == "" }

// Height is a logical timestamp (block height or monotonic counter). It is an
// external input supplied with every call, never read from the wall clock.
type Height uint64

// Later returns the greater of two heights.
func (h Height) Later(other Height) Height {
	if other > h {
		return other
	}
	return h
}
