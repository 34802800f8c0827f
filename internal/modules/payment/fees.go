// README: Gateway fee computation; fixed-point math via decimal.
package payment

import (
	"github.com/shopspring/decimal"

	"medreview/internal/types"
)

var (
	feeRate = decimal.NewFromFloat(0.029)
	feeFlat = decimal.NewFromInt(30) // cents
)

// StandardFee is the default gateway fee (2.9% + 30 cents) applied when the
// gateway callback carries no fee figure. The result rounds half-up to a cent.
func StandardFee(amount types.Money) types.Money {
	fee := decimal.NewFromInt(amount.Amount).Mul(feeRate).Add(feeFlat).Round(0)
	return types.Money{Amount: fee.IntPart(), Currency: amount.Currency}
}
