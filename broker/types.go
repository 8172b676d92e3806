package broker

type Side int8

const (
	Long  Side = 1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Opposite returns the side that closes a position on s.
func (s Side) Opposite() Side { return -s }

// Sign is +1 for long and -1 for short.
func (s Side) Sign() float64 { return float64(s) }

type OrderType uint8

const (
	MarketOrder OrderType = iota
	StopMarketOrder
)

func (t OrderType) String() string {
	switch t {
	case MarketOrder:
		return "market"
	case StopMarketOrder:
		return "stop-market"
	default:
		return "unknown"
	}
}

type OrderStatus uint8

const (
	Submitted OrderStatus = iota
	Updated
	Filled
	Canceled
	Invalid
)

func (s OrderStatus) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Updated:
		return "updated"
	case Filled:
		return "filled"
	case Canceled:
		return "canceled"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// IsOpen reports whether an order in this status can still fill.
func (s OrderStatus) IsOpen() bool {
	return s == Submitted || s == Updated
}
