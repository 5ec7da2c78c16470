package commission_fee

// ZeroCommissionFee implements CommissionFee interface with zero commission.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

// EntryFactor always returns 1.
func (c *ZeroCommissionFee) EntryFactor() float64 {
	return 1
}

// ExitFactor always returns 1.
func (c *ZeroCommissionFee) ExitFactor() float64 {
	return 1
}
