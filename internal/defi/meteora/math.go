package meteora

import (
	"fmt"
	"math"

	xerrors "SolAgent-Kit/internal/errors"
)

// basisPointMax is the denominator for bin step fractions.
const basisPointMax = 10000

// PricePerLamport converts a display price (quote per base) into the lamport
// price the pool program works in, correcting for the two mints' decimals.
func PricePerLamport(price float64, baseDecimals, quoteDecimals uint8) float64 {
	return price * math.Pow(10, float64(quoteDecimals)-float64(baseDecimals))
}

// BinIDFromPrice maps a lamport price onto the discrete bin grid for the
// given bin step. Rounding down picks the bin at or below the price,
// rounding up the bin at or above it.
func BinIDFromPrice(pricePerLamport float64, binStep uint16, roundDown bool) (int32, error) {
	if pricePerLamport <= 0 {
		return 0, xerrors.New(xerrors.CodeInvalidArgument, "price must be positive")
	}
	if binStep == 0 {
		return 0, xerrors.New(xerrors.CodeInvalidArgument, "bin step must be positive")
	}

	base := 1 + float64(binStep)/basisPointMax
	exact := math.Log(pricePerLamport) / math.Log(base)

	var id float64
	if roundDown {
		id = math.Floor(exact)
	} else {
		id = math.Ceil(exact)
	}
	if id > math.MaxInt32 || id < math.MinInt32 {
		return 0, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("price %g is outside the bin grid", pricePerLamport))
	}
	return int32(id), nil
}
