package types

import "time"

// Position is the simulator's position state.
type Position string

const (
	PositionCash    Position = "CASH"
	PositionHolding Position = "HOLDING"
)

// SimulationState is the simulator's ledger between bars. It is a value:
// every step returns a new state rather than mutating a shared one.
type SimulationState struct {
	Position Position
	// Capital is the realized capital. It only changes when a position is closed.
	Capital float64
	// EntryPrice is defined only while HOLDING.
	EntryPrice float64
	EntryTime  time.Time
	// EntryIndex is the bar index the position was opened on.
	EntryIndex int
	// EntryFeeFactor is the entry leg fee multiplier, settled at exit.
	EntryFeeFactor float64
}

// NewSimulationState returns the initial CASH state.
func NewSimulationState(initialCapital float64) SimulationState {
	return SimulationState{
		Position:       PositionCash,
		Capital:        initialCapital,
		EntryPrice:     0,
		EntryTime:      time.Time{},
		EntryIndex:     -1,
		EntryFeeFactor: 1,
	}
}

// IsHolding reports whether a position is open.
func (s SimulationState) IsHolding() bool {
	return s.Position == PositionHolding
}

// Trade is one closed round trip.
type Trade struct {
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time"`
	ExitTime   time.Time `yaml:"exit_time" json:"exit_time"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price"`
	// Return is the capital multiplier of the trade after fees, minus one.
	Return float64 `yaml:"return" json:"return"`
	// Forced is set when the trade was closed by the end-of-series close-out.
	Forced bool `yaml:"forced" json:"forced"`
}

// EquityPoint is one entry of the equity trace.
type EquityPoint struct {
	Time             time.Time `yaml:"time" json:"time"`
	Capital          float64   `yaml:"capital" json:"capital"`
	CumulativeReturn float64   `yaml:"cumulative_return" json:"cumulative_return"`
	Position         Position  `yaml:"position" json:"position"`
}
