package challenger

// State is the position of a Challenger in the protocol.
type State int

const (
	Uninitialized State = iota
	KeysGenerated
	ChallengeCreated
	AwaitingExecutorResult
	Verified
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case KeysGenerated:
		return "KeysGenerated"
	case ChallengeCreated:
		return "ChallengeCreated"
	case AwaitingExecutorResult:
		return "AwaitingExecutorResult"
	case Verified:
		return "Verified"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s ends a challenge round.
func (s State) Terminal() bool {
	return s == Verified || s == Failed
}

// canCreate reports whether a new challenge may be issued from s. A session
// keeps its keys across rounds, so terminal states start a new round.
func (s State) canCreate() bool {
	return s == KeysGenerated || s == ChallengeCreated || s.Terminal()
}

// canVerify reports whether a result may be checked from s. A terminal
// state keeps its outcome until a new challenge is created.
func (s State) canVerify() bool {
	return s == ChallengeCreated || s == AwaitingExecutorResult
}
