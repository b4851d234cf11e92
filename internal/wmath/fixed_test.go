package wmath_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/weightlab/wamm/internal/wmath"
)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

// requireDecNear asserts |got - want| <= tolerance.
func requireDecNear(t *testing.T, want, got, tolerance sdkmath.LegacyDec) {
	t.Helper()
	diff := want.Sub(got)
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	require.True(t, diff.LTE(tolerance),
		"want %s, got %s (tolerance %s)", want, got, tolerance)
}

func TestPowWholeExponent(t *testing.T) {
	got, err := wmath.Pow(dec("0.5"), dec("2"))
	require.NoError(t, err)
	require.True(t, got.Equal(dec("0.25")))

	got, err = wmath.Pow(dec("1.5"), dec("3"))
	require.NoError(t, err)
	require.True(t, got.Equal(dec("3.375")))
}

func TestPowIdentityExponents(t *testing.T) {
	base := dec("0.731")

	got, err := wmath.Pow(base, dec("0"))
	require.NoError(t, err)
	require.True(t, got.Equal(dec("1")))

	got, err = wmath.Pow(base, dec("1"))
	require.NoError(t, err)
	require.True(t, got.Equal(base))
}

func TestPowFractionalExponent(t *testing.T) {
	tolerance := dec("0.000001")

	// sqrt(0.25) = 0.5
	got, err := wmath.Pow(dec("0.25"), dec("0.5"))
	require.NoError(t, err)
	requireDecNear(t, dec("0.5"), got, tolerance)

	// sqrt(1.44) = 1.2
	got, err = wmath.Pow(dec("1.44"), dec("0.5"))
	require.NoError(t, err)
	requireDecNear(t, dec("1.2"), got, tolerance)

	// 0.8^1.5 = 0.71554...
	got, err = wmath.Pow(dec("0.8"), dec("1.5"))
	require.NoError(t, err)
	requireDecNear(t, dec("0.715541752799932647"), got, dec("0.00001"))
}

func TestPowRejectsOutOfRangeOperands(t *testing.T) {
	_, err := wmath.Pow(dec("0"), dec("0.5"))
	require.ErrorIs(t, err, wmath.ErrBaseOutOfBounds)

	_, err = wmath.Pow(dec("2"), dec("0.5"))
	require.ErrorIs(t, err, wmath.ErrBaseOutOfBounds)

	_, err = wmath.Pow(dec("0.5"), dec("-1"))
	require.ErrorIs(t, err, wmath.ErrNegativeExponent)
}

func TestMulDownTruncates(t *testing.T) {
	// 0.000000000000000001 * 0.1 rounds to zero, never up.
	got := wmath.MulDown(dec("0.000000000000000001"), dec("0.1"))
	require.True(t, got.IsZero())
}

func TestDivDown(t *testing.T) {
	got, err := wmath.DivDown(dec("1"), dec("3"))
	require.NoError(t, err)
	require.True(t, got.Equal(dec("0.333333333333333333")))

	_, err = wmath.DivDown(dec("1"), dec("0"))
	require.ErrorIs(t, err, wmath.ErrDivisionByZero)
}

func TestCheckMulOverflow(t *testing.T) {
	small := sdkmath.NewInt(1_000_000)
	require.NoError(t, wmath.CheckMulOverflow(small, small))

	huge := sdkmath.NewIntWithDecimal(1, 40)
	require.ErrorIs(t, wmath.CheckMulOverflow(huge, huge), wmath.ErrOverflow)

	require.ErrorIs(t, wmath.CheckMulOverflow(sdkmath.NewInt(-1), small), wmath.ErrNegativeFixedPoint)
}
