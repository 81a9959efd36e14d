package meteora

import (
	"math"
	"testing"

	xerrors "SolAgent-Kit/internal/errors"
)

func TestPricePerLamportCorrectsForDecimals(t *testing.T) {
	// 9-decimal base against 6-decimal quote shifts the price down by 10^3.
	got := PricePerLamport(150.0, 9, 6)
	if math.Abs(got-0.15) > 1e-12 {
		t.Fatalf("unexpected lamport price: %g", got)
	}
	// Equal decimals leave the price unchanged.
	if got := PricePerLamport(2.5, 6, 6); got != 2.5 {
		t.Fatalf("unexpected lamport price: %g", got)
	}
}

func TestBinIDFromPriceRoundsToTheGrid(t *testing.T) {
	// A price exactly on the grid maps to the same bin either way.
	base := 1 + 25.0/10000
	price := math.Pow(base, 10)

	down, err := BinIDFromPrice(price, 25, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	up, err := BinIDFromPrice(price, 25, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down != 10 || up != 10 {
		t.Fatalf("on-grid price mapped to bins %d/%d", down, up)
	}

	// Between bins the rounding direction decides.
	between := math.Pow(base, 10.5)
	down, _ = BinIDFromPrice(between, 25, true)
	up, _ = BinIDFromPrice(between, 25, false)
	if down != 10 || up != 11 {
		t.Fatalf("between-bin price mapped to bins %d/%d", down, up)
	}
}

func TestBinIDFromPriceHandlesSubUnityPrices(t *testing.T) {
	id, err := BinIDFromPrice(0.15, 25, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id >= 0 {
		t.Fatalf("sub-unity price should map to a negative bin, got %d", id)
	}
}

func TestBinIDFromPriceValidates(t *testing.T) {
	if _, err := BinIDFromPrice(0, 25, true); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("zero price should be rejected, got %v", err)
	}
	if _, err := BinIDFromPrice(1, 0, true); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("zero bin step should be rejected, got %v", err)
	}
}
