package engine_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/weightlab/wamm/internal/engine"
)

func (f *fixture) fundRewardCustody(amount int64) {
	f.lg.Mint(rewardDenom, custody, i(amount))
}

func TestRewardSplitsByShareOfPool(t *testing.T) {
	f := newFixture(t)
	id := f.createDefaultPool(t)
	f.fundRewardCustody(1_000_000)

	f.seedPool(t, id, alice, 250)
	f.fund(bob, "uatom", 750)
	f.fund(bob, "uusdc", 750)
	_, err := f.eng.AddLiquidity(bob, id, []sdkmath.Int{i(750), i(750)})
	require.NoError(t, err)

	// 10 blocks at 100/block, sole pool: 1000 units split 1:3.
	f.clk.AdvanceBlocks(10)

	claimedA, err := f.eng.ClaimRewards(alice, id)
	require.NoError(t, err)
	require.Equal(t, "250", claimedA.String())

	claimedB, err := f.eng.ClaimRewards(bob, id)
	require.NoError(t, err)
	require.Equal(t, "750", claimedB.String())

	// Conservation: the full pool emission was paid, nothing more.
	total := f.lg.BalanceOf(rewardDenom, alice).Add(f.lg.BalanceOf(rewardDenom, bob))
	require.Equal(t, "1000", total.String())

	// Claiming again with no new blocks pays nothing.
	claimedA, err = f.eng.ClaimRewards(alice, id)
	require.NoError(t, err)
	require.True(t, claimedA.IsZero())
}

func TestZeroLiquidityWindowIsForfeited(t *testing.T) {
	f := newFixture(t)
	id := f.createDefaultPool(t)

	// Five empty blocks pass before the first deposit.
	f.clk.AdvanceBlocks(5)
	f.seedPool(t, id, alice, 1000)
	f.clk.AdvanceBlocks(5)

	// Only the five populated blocks pay out.
	pending, err := f.eng.PendingRewards(id, alice)
	require.NoError(t, err)
	require.Equal(t, "500", pending.String())
}

func TestEmissionSplitsAcrossPoolsByAllocPoints(t *testing.T) {
	f := newFixture(t)
	id1 := f.createDefaultPool(t) // 100 alloc points

	_, err := f.eng.CreatePool(owner,
		[]string{"uosmo", "uusdc"},
		[]sdkmath.LegacyDec{dec("0.5"), dec("0.5")},
		300, dec("0.003"))
	require.NoError(t, err)

	f.seedPool(t, id1, alice, 1000)
	f.clk.AdvanceBlocks(4)

	// pool1 earns 4 * 100 * 100/400.
	pending, err := f.eng.PendingRewards(id1, alice)
	require.NoError(t, err)
	require.Equal(t, "100", pending.String())
}

func TestPendingRewardsProjectionDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	id := f.createDefaultPool(t)
	f.seedPool(t, id, alice, 1000)
	f.clk.AdvanceBlocks(3)

	first, err := f.eng.PendingRewards(id, alice)
	require.NoError(t, err)
	second, err := f.eng.PendingRewards(id, alice)
	require.NoError(t, err)
	require.Equal(t, first.String(), second.String())
	require.Equal(t, "300", first.String())

	pending, err := f.eng.PendingRewards(id, bob)
	require.NoError(t, err)
	require.True(t, pending.IsZero())

	_, err = f.eng.PendingRewards(99, alice)
	require.ErrorIs(t, err, engine.ErrPoolNotFound)
}

func TestClaimRestoresAccrualWhenPayoutFails(t *testing.T) {
	f := newFixture(t)
	id := f.createDefaultPool(t)
	f.seedPool(t, id, alice, 1000)
	f.clk.AdvanceBlocks(5)

	// Custody holds no reward tokens, so the payout leg fails.
	_, err := f.eng.ClaimRewards(alice, id)
	require.ErrorIs(t, err, engine.ErrLedger)

	pending, perr := f.eng.PendingRewards(id, alice)
	require.NoError(t, perr)
	require.Equal(t, "500", pending.String())

	// Once funded, the restored balance pays out in full.
	f.fundRewardCustody(1000)
	claimed, err := f.eng.ClaimRewards(alice, id)
	require.NoError(t, err)
	require.Equal(t, "500", claimed.String())
}

func TestAccrualSurvivesDepositAndWithdraw(t *testing.T) {
	f := newFixture(t)
	id := f.createDefaultPool(t)
	f.fundRewardCustody(1_000_000)
	f.seedPool(t, id, alice, 1000)

	f.clk.AdvanceBlocks(10)

	// A further deposit settles accrual first; earlier earnings stay at
	// the rate of the old share split.
	f.fund(alice, "uatom", 1000)
	f.fund(alice, "uusdc", 1000)
	_, err := f.eng.AddLiquidity(alice, id, []sdkmath.Int{i(1000), i(1000)})
	require.NoError(t, err)

	pending, err := f.eng.PendingRewards(id, alice)
	require.NoError(t, err)
	require.Equal(t, "1000", pending.String())

	claimed, err := f.eng.ClaimRewards(alice, id)
	require.NoError(t, err)
	require.Equal(t, "1000", claimed.String())
}

func TestEmissionSettersAreOwnerOnly(t *testing.T) {
	f := newFixture(t)
	id := f.createDefaultPool(t)

	require.ErrorIs(t, f.eng.SetEmissionPerBlock(alice, i(50)), engine.ErrUnauthorized)
	require.ErrorIs(t, f.eng.SetPoolAllocPoint(alice, id, 200), engine.ErrUnauthorized)

	require.NoError(t, f.eng.SetEmissionPerBlock(owner, i(50)))
	require.Equal(t, "50", f.eng.Emission().RewardPerBlock.String())

	require.ErrorIs(t, f.eng.SetEmissionPerBlock(owner, i(-1)), engine.ErrNegativeAmount)

	require.NoError(t, f.eng.SetPoolAllocPoint(owner, id, 200))
	require.Equal(t, uint64(200), f.eng.Emission().TotalAllocPoints)

	require.ErrorIs(t, f.eng.SetPoolAllocPoint(owner, 99, 10), engine.ErrPoolNotFound)
}
