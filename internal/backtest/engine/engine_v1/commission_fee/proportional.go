package commission_fee

// ProportionalCommissionFee charges a fixed fraction of notional on each
// side of a trade.
type ProportionalCommissionFee struct {
	rate float64
}

// NewProportionalCommissionFee creates a fee model charging rate per side.
func NewProportionalCommissionFee(rate float64) CommissionFee {
	return &ProportionalCommissionFee{rate: rate}
}

// EntryFactor returns 1 - rate.
func (c *ProportionalCommissionFee) EntryFactor() float64 {
	return 1 - c.rate
}

// ExitFactor returns 1 - rate.
func (c *ProportionalCommissionFee) ExitFactor() float64 {
	return 1 - c.rate
}

// Rate returns the per-side fee rate.
func (c *ProportionalCommissionFee) Rate() float64 {
	return c.rate
}
