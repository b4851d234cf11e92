package ledger_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/weightlab/wamm/internal/ledger"
)

const custody = "pool-custody"

func TestTransferInRequiresBalanceAndAllowance(t *testing.T) {
	lg := ledger.NewMemory(custody)

	// No balance at all.
	err := lg.TransferIn("uatom", "alice", sdkmath.NewInt(100))
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// Balance but no allowance.
	lg.Mint("uatom", "alice", sdkmath.NewInt(1000))
	err = lg.TransferIn("uatom", "alice", sdkmath.NewInt(100))
	require.ErrorIs(t, err, ledger.ErrInsufficientAllowance)

	// Allowance smaller than the transfer.
	lg.Approve("uatom", "alice", sdkmath.NewInt(50))
	err = lg.TransferIn("uatom", "alice", sdkmath.NewInt(100))
	require.ErrorIs(t, err, ledger.ErrInsufficientAllowance)
}

func TestTransferInMovesFundsAndConsumesAllowance(t *testing.T) {
	lg := ledger.NewMemory(custody)
	lg.Mint("uatom", "alice", sdkmath.NewInt(1000))
	lg.Approve("uatom", "alice", sdkmath.NewInt(300))

	require.NoError(t, lg.TransferIn("uatom", "alice", sdkmath.NewInt(200)))
	require.Equal(t, "800", lg.BalanceOf("uatom", "alice").String())
	require.Equal(t, "200", lg.CustodyBalance("uatom").String())

	// Remaining allowance is 100; a 200 pull must now fail.
	err := lg.TransferIn("uatom", "alice", sdkmath.NewInt(200))
	require.ErrorIs(t, err, ledger.ErrInsufficientAllowance)
}

func TestTransferOutChecksCustody(t *testing.T) {
	lg := ledger.NewMemory(custody)

	err := lg.TransferOut("uatom", "bob", sdkmath.NewInt(1))
	require.ErrorIs(t, err, ledger.ErrInsufficientCustody)

	lg.Mint("uatom", custody, sdkmath.NewInt(500))
	require.NoError(t, lg.TransferOut("uatom", "bob", sdkmath.NewInt(200)))
	require.Equal(t, "200", lg.BalanceOf("uatom", "bob").String())
	require.Equal(t, "300", lg.CustodyBalance("uatom").String())
}

func TestFeeOnTransferBurnsInFlight(t *testing.T) {
	lg := ledger.NewMemory(custody)
	lg.Mint("ufee", "alice", sdkmath.NewInt(1000))
	lg.Approve("ufee", "alice", sdkmath.NewInt(1000))
	lg.SetTransferFeeBps("ufee", 100) // 1%

	require.NoError(t, lg.TransferIn("ufee", "alice", sdkmath.NewInt(1000)))
	// Sender was debited the full amount, custody received 1% less.
	require.Equal(t, "0", lg.BalanceOf("ufee", "alice").String())
	require.Equal(t, "990", lg.CustodyBalance("ufee").String())
}

func TestTransferHookObservesTransfers(t *testing.T) {
	lg := ledger.NewMemory(custody)
	lg.Mint("uatom", "alice", sdkmath.NewInt(100))
	lg.Approve("uatom", "alice", sdkmath.NewInt(100))

	var seen []string
	lg.SetTransferHook(func(token, from, to string, amount sdkmath.Int) {
		seen = append(seen, from+"->"+to+":"+amount.String())
	})

	require.NoError(t, lg.TransferIn("uatom", "alice", sdkmath.NewInt(100)))
	require.NoError(t, lg.TransferOut("uatom", "bob", sdkmath.NewInt(40)))
	require.Equal(t, []string{
		"alice->" + custody + ":100",
		custody + "->bob:40",
	}, seen)
}

func TestNegativeAmountRejected(t *testing.T) {
	lg := ledger.NewMemory(custody)
	require.ErrorIs(t, lg.TransferIn("uatom", "alice", sdkmath.NewInt(-1)), ledger.ErrInvalidAmount)
	require.ErrorIs(t, lg.TransferOut("uatom", "alice", sdkmath.NewInt(-1)), ledger.ErrInvalidAmount)
}
