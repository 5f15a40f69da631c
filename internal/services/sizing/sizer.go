// Package sizing turns account balance and risk appetite into a position size.
package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	domsvc "github.com/MiguelT18/trading-bot/internal/domain/service"
)

// FixedFraction sizes every trade as balance * risk. The balance is fixed
// at construction since trades are never settled.
type FixedFraction struct {
	balance decimal.Decimal
	risk    decimal.Decimal
	size    decimal.Decimal
}

// NewFixedFraction validates balance > 0 and 0 < risk <= 1.
func NewFixedFraction(balance, risk float64) (*FixedFraction, error) {
	if balance <= 0 {
		return nil, fmt.Errorf("balance must be positive, got %v", balance)
	}
	if risk <= 0 || risk > 1 {
		return nil, fmt.Errorf("risk fraction must be in (0, 1], got %v", risk)
	}
	b := decimal.NewFromFloat(balance)
	r := decimal.NewFromFloat(risk)
	return &FixedFraction{balance: b, risk: r, size: b.Mul(r)}, nil
}

// Size returns balance * risk.
func (f *FixedFraction) Size() float64 { return f.size.InexactFloat64() }

// Exact returns the size as a decimal string, e.g. "2".
func (f *FixedFraction) Exact() string { return f.size.String() }

func (f *FixedFraction) Balance() float64 { return f.balance.InexactFloat64() }
func (f *FixedFraction) Risk() float64    { return f.risk.InexactFloat64() }

var _ domsvc.Sizer = (*FixedFraction)(nil)
