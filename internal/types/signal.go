package types

import (
	"math"
	"time"
)

// Regime is the trend state derived from the short/long moving averages.
type Regime string

const (
	// RegimeUndefined marks bars inside the moving-average warm-up.
	RegimeUndefined Regime = "UNDEFINED"
	// RegimeTrendUp means the short MA is above the long MA (golden cross state).
	RegimeTrendUp Regime = "TREND_UP"
	// RegimeTrendDown means the short MA is at or below the long MA (dead cross state).
	RegimeTrendDown Regime = "TREND_DOWN"
)

// SignalSet holds the indicator values derived for one bar. Undefined
// values are NaN.
type SignalSet struct {
	Time           time.Time `json:"time"`
	ShortMA        float64   `json:"short_ma"`
	LongMA         float64   `json:"long_ma"`
	Regime         Regime    `json:"regime"`
	BreakoutTarget float64   `json:"breakout_target"`
	RSI            float64   `json:"rsi"`
}

// TrendDefined reports whether both moving averages are available.
func (s SignalSet) TrendDefined() bool {
	return s.Regime != RegimeUndefined && !math.IsNaN(s.ShortMA) && !math.IsNaN(s.LongMA)
}

// TargetDefined reports whether the breakout target is available.
func (s SignalSet) TargetDefined() bool {
	return !math.IsNaN(s.BreakoutTarget)
}

// RSIDefined reports whether the oscillator value is available.
func (s SignalSet) RSIDefined() bool {
	return !math.IsNaN(s.RSI)
}

// Action is what a strategy asks the simulator to do on a bar.
type Action string

const (
	// ActionEnter opens a position from cash.
	ActionEnter Action = "ENTER"
	// ActionExit closes the open position.
	ActionExit Action = "EXIT"
	// ActionHold keeps the current state.
	ActionHold Action = "HOLD"
)

// Decision is a strategy's verdict for one bar, including the price the
// transition executes at.
type Decision struct {
	Action Action
	Price  float64
	Reason string
}

// Hold is the no-op decision.
func Hold() Decision {
	return Decision{Action: ActionHold, Price: 0, Reason: ""}
}
