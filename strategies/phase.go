package strategies

// Phase is where the engine is within the current session.
type Phase uint8

const (
	// Warmup ignores samples until indicator history is sufficient.
	Warmup Phase = iota
	// AwaitingRange waits for the opening range to be captured.
	AwaitingRange
	// Armed looks for a breakout until the entry cutoff.
	Armed
	// InPosition manages the stop of the day's single trade.
	InPosition
	// DoneForDay takes no further action until the next session.
	DoneForDay
)

func (p Phase) String() string {
	switch p {
	case Warmup:
		return "warmup"
	case AwaitingRange:
		return "awaiting-range"
	case Armed:
		return "armed"
	case InPosition:
		return "in-position"
	case DoneForDay:
		return "done-for-day"
	default:
		return "unknown"
	}
}

// event drives phase transitions.
type event uint8

const (
	evWarmupComplete event = iota
	evRangeCaptured
	evEntered
	evExited
	evCutoff
	evSessionEnd
)

// next is the transition function. Events that are not legal in p leave
// it unchanged and report false.
func (p Phase) next(ev event, warmedUp bool) (Phase, bool) {
	switch ev {
	case evWarmupComplete:
		if p == Warmup {
			return AwaitingRange, true
		}
	case evRangeCaptured:
		if p == AwaitingRange {
			return Armed, true
		}
	case evEntered:
		if p == Armed {
			return InPosition, true
		}
	case evExited:
		if p == InPosition {
			return DoneForDay, true
		}
	case evCutoff:
		if p == Armed {
			return DoneForDay, true
		}
	case evSessionEnd:
		if warmedUp {
			return AwaitingRange, true
		}
		return Warmup, true
	}
	return p, false
}
