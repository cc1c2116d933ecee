package tests

import (
	"math/big"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/notevault/vault-contract/common"
	vaultrpc "github.com/notevault/vault-contract/rpc/vault"
	"github.com/notevault/vault-contract/vault"
	"github.com/stretchr/testify/require"
)

const vaultPath = "../vault"

func deployVaultContract(t *testing.T, e *neotest.Executor) util.Uint160 {
	c := neotest.CompileFile(t, e.CommitteeHash, vaultPath, path.Join(vaultPath, "config.yml"))
	e.DeployContract(t, c, []interface{}{e.CommitteeHash})
	return c.Hash
}

// newVaultInvoker deploys the vault contract and returns a committee-signed
// invoker for it. The committee account is the vault administrator.
func newVaultInvoker(t *testing.T) (*neotest.Executor, *neotest.ContractInvoker) {
	e := newExecutor(t)
	h := deployVaultContract(t, e)
	return e, e.CommitteeInvoker(h)
}

// newInitializedVault additionally runs init on behalf of the administrator.
func newInitializedVault(t *testing.T) (*neotest.Executor, *neotest.ContractInvoker) {
	e, c := newVaultInvoker(t)
	c.Invoke(t, stackitem.Null{}, "init")
	return e, c
}

func noteMetadata(t *testing.T, c *neotest.ContractInvoker, id int64) vaultrpc.VaultNote {
	s, err := c.TestInvoke(t, "noteMetadata", id)
	require.NoError(t, err)

	var n vaultrpc.VaultNote
	require.NoError(t, n.FromStackItem(s.Top().Item()))
	return n
}

func TestVaultInit(t *testing.T) {
	_, c := newVaultInvoker(t)

	c.Invoke(t, stackitem.NewBool(false), "isInitialized")

	notAdmin := c.NewAccount(t)
	cNotAdmin := c.WithSigners(notAdmin)
	cNotAdmin.InvokeFail(t, vault.ErrNotAdmin, "init")

	c.Invoke(t, stackitem.Null{}, "init")
	c.Invoke(t, stackitem.NewBool(true), "isInitialized")
	c.Invoke(t, stackitem.Make(0), "totalLocked")
	c.Invoke(t, stackitem.Make(0), "noteCount")

	// repeated init always fails, administrator included
	c.InvokeFail(t, vault.ErrAlreadyInitialized, "init")
	cNotAdmin.InvokeFail(t, vault.ErrNotAdmin, "init")
}

func TestVaultRequiresInit(t *testing.T) {
	_, c := newVaultInvoker(t)

	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc)

	cAcc.InvokeFail(t, vault.ErrNotInitialized, "deposit",
		acc.ScriptHash(), randomCommitment(), int64(100))
	cAcc.InvokeFail(t, vault.ErrNotInitialized, "withdraw",
		acc.ScriptHash(), int64(0), acc.ScriptHash())
	c.InvokeFail(t, vault.ErrNotInitialized, "totalLocked")
	c.InvokeFail(t, vault.ErrNotInitialized, "noteCount")
	c.InvokeFail(t, vault.ErrNotInitialized, "noteMetadata", int64(0))
}

func TestVaultDeposit(t *testing.T) {
	e, c := newInitializedVault(t)

	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc)
	commitment := randomCommitment()

	custodyBefore := e.Chain.GetUtilityTokenBalance(c.Hash)

	h := cAcc.Invoke(t, stackitem.Make(0), "deposit", acc.ScriptHash(), commitment, int64(100))

	c.Invoke(t, stackitem.Make(100), "totalLocked")
	c.Invoke(t, stackitem.Make(1), "noteCount")

	// funds moved into the vault's custody account
	custodyAfter := e.Chain.GetUtilityTokenBalance(c.Hash)
	require.Equal(t, int64(100), new(big.Int).Sub(custodyAfter, custodyBefore).Int64())

	n := noteMetadata(t, c, 0)
	require.Equal(t, int64(0), n.ID.Int64())
	require.Equal(t, acc.ScriptHash(), n.Owner)
	require.Equal(t, int64(100), n.Amount.Int64())
	require.False(t, n.Spent)

	// the audit record must carry a redacted commitment
	evs := txNotifications(t, e, h)
	require.Len(t, evs, 2) // GAS Transfer + Deposit
	require.Equal(t, "Deposit", evs[1].Name)

	var ev vaultrpc.DepositEvent
	require.NoError(t, ev.FromStackItem(evs[1].Item))
	require.Equal(t, acc.ScriptHash(), ev.Owner)
	require.Equal(t, int64(100), ev.Amount.Int64())
	require.Equal(t, int64(0), ev.ID.Int64())
	require.Empty(t, ev.Commitment)

	// ids are assigned by a strictly increasing counter
	cAcc.Invoke(t, stackitem.Make(1), "deposit", acc.ScriptHash(), randomCommitment(), int64(42))
	c.Invoke(t, stackitem.Make(142), "totalLocked")
	c.Invoke(t, stackitem.Make(2), "noteCount")
}

func TestVaultDepositAuth(t *testing.T) {
	_, c := newInitializedVault(t)

	acc := c.NewAccount(t)
	other := c.NewAccount(t)

	// depositor witness is mandatory
	cOther := c.WithSigners(other)
	cOther.InvokeFail(t, common.ErrOwnerWitnessFailed, "deposit",
		acc.ScriptHash(), randomCommitment(), int64(100))

	// transfer refusal aborts the whole operation
	cAcc := c.WithSigners(acc)
	cAcc.InvokeFail(t, vault.ErrTransferFailed, "deposit",
		acc.ScriptHash(), randomCommitment(), int64(1_000_000_000_000_000_000))

	c.Invoke(t, stackitem.Make(0), "totalLocked")
	c.Invoke(t, stackitem.Make(0), "noteCount")
}

func TestVaultZeroDeposit(t *testing.T) {
	_, c := newInitializedVault(t)

	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc)

	// zero-value notes are accepted
	cAcc.Invoke(t, stackitem.Make(0), "deposit", acc.ScriptHash(), randomCommitment(), int64(0))

	c.Invoke(t, stackitem.Make(0), "totalLocked")
	c.Invoke(t, stackitem.Make(1), "noteCount")

	n := noteMetadata(t, c, 0)
	require.Equal(t, int64(0), n.Amount.Int64())
	require.False(t, n.Spent)
}

func TestVaultWithdraw(t *testing.T) {
	e, c := newInitializedVault(t)

	accA := c.NewAccount(t)
	accB := c.NewAccount(t)
	accX := c.NewAccount(t)
	cA := c.WithSigners(accA)
	cB := c.WithSigners(accB)

	cA.Invoke(t, stackitem.Make(0), "deposit", accA.ScriptHash(), []byte("c1"), int64(100))
	c.Invoke(t, stackitem.Make(100), "totalLocked")
	c.Invoke(t, stackitem.Make(1), "noteCount")

	// nobody but the owner can redeem, the administrator included
	cB.InvokeFail(t, vault.ErrNotNoteOwner, "withdraw",
		accB.ScriptHash(), int64(0), accX.ScriptHash())
	c.InvokeFail(t, vault.ErrNotNoteOwner, "withdraw",
		c.Committee.ScriptHash(), int64(0), accX.ScriptHash())

	// caller witness is mandatory
	cB.InvokeFail(t, common.ErrOwnerWitnessFailed, "withdraw",
		accA.ScriptHash(), int64(0), accX.ScriptHash())

	recipientBefore := e.Chain.GetUtilityTokenBalance(accX.ScriptHash())

	h := cA.Invoke(t, stackitem.Null{}, "withdraw",
		accA.ScriptHash(), int64(0), accX.ScriptHash())

	recipientAfter := e.Chain.GetUtilityTokenBalance(accX.ScriptHash())
	require.Equal(t, int64(100), new(big.Int).Sub(recipientAfter, recipientBefore).Int64())

	// tombstone, not deletion
	c.Invoke(t, stackitem.Make(0), "totalLocked")
	c.Invoke(t, stackitem.Make(1), "noteCount")

	n := noteMetadata(t, c, 0)
	require.Equal(t, accA.ScriptHash(), n.Owner)
	require.Equal(t, int64(100), n.Amount.Int64())
	require.True(t, n.Spent)

	evs := txNotifications(t, e, h)
	require.Len(t, evs, 2) // GAS Transfer + Withdrawal
	require.Equal(t, "Withdrawal", evs[1].Name)

	var ev vaultrpc.WithdrawalEvent
	require.NoError(t, ev.FromStackItem(evs[1].Item))
	require.Equal(t, accA.ScriptHash(), ev.Owner)
	require.Equal(t, int64(0), ev.ID.Int64())
	require.Equal(t, int64(100), ev.Amount.Int64())

	// second redemption by the owner fails on the spent flag,
	// a non-owner still fails on ownership
	cA.InvokeFail(t, vault.ErrNoteAlreadySpent, "withdraw",
		accA.ScriptHash(), int64(0), accX.ScriptHash())
	cB.InvokeFail(t, vault.ErrNotNoteOwner, "withdraw",
		accB.ScriptHash(), int64(0), accX.ScriptHash())

	// ids are never reused after a withdrawal
	cA.Invoke(t, stackitem.Make(1), "deposit", accA.ScriptHash(), randomCommitment(), int64(7))
}

func TestVaultWithdrawNotFound(t *testing.T) {
	_, c := newInitializedVault(t)

	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc)

	cAcc.InvokeFail(t, vault.ErrNoteNotFound, "withdraw",
		acc.ScriptHash(), int64(0), acc.ScriptHash())

	cAcc.Invoke(t, stackitem.Make(0), "deposit", acc.ScriptHash(), randomCommitment(), int64(10))

	for _, id := range []int64{1, 5, 1 << 40} {
		cAcc.InvokeFail(t, vault.ErrNoteNotFound, "withdraw",
			acc.ScriptHash(), id, acc.ScriptHash())
	}
	c.InvokeFail(t, vault.ErrNoteNotFound, "noteMetadata", int64(1))
}

func TestVaultConvenienceWrappers(t *testing.T) {
	_, c := newInitializedVault(t)

	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc)

	cAcc.Invoke(t, stackitem.Make(0), "depositBlind", acc.ScriptHash(), int64(55))
	c.Invoke(t, stackitem.Make(55), "totalLocked")

	cAcc.Invoke(t, stackitem.Null{}, "withdrawSelf", acc.ScriptHash(), int64(0))
	c.Invoke(t, stackitem.Make(0), "totalLocked")

	n := noteMetadata(t, c, 0)
	require.True(t, n.Spent)
}

func TestVaultNotesIterator(t *testing.T) {
	_, c := newInitializedVault(t)

	// a freshly initialized ledger holds its counters but no notes, so a
	// complete traversal must yield nothing rather than stray over them
	s, err := c.TestInvoke(t, "notes")
	require.NoError(t, err)
	require.Empty(t, iteratorToArray(s.Pop().Value().(*storage.Iterator)))

	accA := c.NewAccount(t)
	accB := c.NewAccount(t)
	cA := c.WithSigners(accA)
	cB := c.WithSigners(accB)

	amounts := []int64{10, 20, 30}
	cA.Invoke(t, stackitem.Make(0), "deposit", accA.ScriptHash(), randomCommitment(), amounts[0])
	cB.Invoke(t, stackitem.Make(1), "deposit", accB.ScriptHash(), randomCommitment(), amounts[1])
	cA.Invoke(t, stackitem.Make(2), "deposit", accA.ScriptHash(), randomCommitment(), amounts[2])

	cA.Invoke(t, stackitem.Null{}, "withdrawSelf", accA.ScriptHash(), int64(0))

	s, err = c.TestInvoke(t, "notes")
	require.NoError(t, err)

	iter := s.Pop().Value().(*storage.Iterator)
	items := iteratorToArray(iter)
	require.Len(t, items, 3)

	owners := []util.Uint160{accA.ScriptHash(), accB.ScriptHash(), accA.ScriptHash()}
	for i, item := range items {
		var n vaultrpc.VaultNote
		require.NoError(t, n.FromStackItem(item))
		require.Equal(t, int64(i), n.ID.Int64())
		require.Equal(t, owners[i], n.Owner)
		require.Equal(t, amounts[i], n.Amount.Int64())
		require.Equal(t, i == 0, n.Spent)
	}
}

func TestVaultVersion(t *testing.T) {
	_, c := newVaultInvoker(t)
	c.Invoke(t, stackitem.Make(common.Version), "version")
}
