package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MarketDataWriter buffers downloaded bars and exports them to a single file.
// Bars may arrive in any order; Finalize writes them sorted by time.
type MarketDataWriter interface {
	// Initialize opens the buffer. Calling it again keeps what was written.
	Initialize() error
	Write(bar types.Bar) error
	// Count is the number of bars buffered since Initialize.
	Count() int
	// Finalize exports the buffer and returns the file written.
	Finalize() (outputPath string, err error)
	// Close releases the buffer and rolls back anything not finalized.
	Close() error
	GetOutputPath() string
}
