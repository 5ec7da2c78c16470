package commission_fee

// CommissionFee models the cost of one side of a round trip as a
// multiplier on the traded notional.
type CommissionFee interface {
	// EntryFactor returns the share of capital that is invested after the
	// buy-side fee.
	EntryFactor() float64
	// ExitFactor returns the share of proceeds kept after the sell-side fee.
	ExitFactor() float64
}

type Broker string

const (
	BrokerProportional Broker = "proportional"
	BrokerZero         Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerProportional,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model for broker. feeRate is
// only used by the proportional model; an empty broker means proportional.
func GetCommissionFeeHandler(broker Broker, feeRate float64) CommissionFee {
	switch broker {
	case BrokerProportional, "":
		return NewProportionalCommissionFee(feeRate)
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}

// RoundTripFactor is the capital multiplier of a trade that enters and
// exits at the same price.
func RoundTripFactor(fee CommissionFee) float64 {
	return fee.EntryFactor() * fee.ExitFactor()
}
