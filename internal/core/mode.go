package core

// ProtocolMode is the wire dialect of a connection. It starts undecided and is
// fixed by the first command processed.
type ProtocolMode int

const (
	ModeUndecided ProtocolMode = iota
	ModeLegacy
	ModeNegotiated
)

func (m ProtocolMode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	case ModeNegotiated:
		return "negotiated"
	default:
		return "undecided"
	}
}

// Frozen reports whether the mode can no longer change.
func (m ProtocolMode) Frozen() bool {
	return m != ModeUndecided
}

// freeze settles an undecided connection on the legacy dialect.
func (m ProtocolMode) freeze() ProtocolMode {
	if m.Frozen() {
		return m
	}
	return ModeLegacy
}
