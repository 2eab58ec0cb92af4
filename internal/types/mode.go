package types

// Mode is the ownership mode of a binding: how a parameter is received.
// The order is the upgrade lattice Borrowed ≤ MutBorrowed ≤ Owned.
type Mode uint8

const (
	Borrowed Mode = iota
	MutBorrowed
	Owned
)

func (m Mode) String() string {
	switch m {
	case Borrowed:
		return "Borrowed"
	case MutBorrowed:
		return "MutBorrowed"
	default:
		return "Owned"
	}
}

// Join is the lattice least upper bound.
func (m Mode) Join(o Mode) Mode {
	return max(m, o)
}

// Receiver is the written or inferred form of a method receiver.
type Receiver uint8

const (
	RecvNone   Receiver = iota // associated function
	RecvInfer                  // `self` in WJ: form decided by inference
	RecvValue                  // self
	RecvRef                    // &self
	RecvMutRef                 // &mut self
)

// ReceiverFor maps an inferred mode to a concrete receiver.
func ReceiverFor(m Mode) Receiver {
	switch m {
	case Borrowed:
		return RecvRef
	case MutBorrowed:
		return RecvMutRef
	default:
		return RecvValue
	}
}

// Mode returns the ownership mode implied by a concrete receiver.
func (r Receiver) Mode() Mode {
	switch r {
	case RecvRef:
		return Borrowed
	case RecvMutRef:
		return MutBorrowed
	default:
		return Owned
	}
}

func (r Receiver) String() string {
	switch r {
	case RecvNone:
		return "none"
	case RecvInfer:
		return "self?"
	case RecvValue:
		return "self"
	case RecvRef:
		return "&self"
	case RecvMutRef:
		return "&mut self"
	}
	return "?"
}
