package vault

import (
	"github.com/notevault/vault-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

type (
	// Note is a single locked-value claim, redeemable once by its owner.
	// Once created, only the Spent flag ever changes, and it changes
	// exactly once. Commitment bytes are kept under a separate storage
	// key, so every read path over Note records is commitment-free.
	Note struct {
		ID     int
		Owner  interop.Hash160
		Amount int
		Spent  bool
	}
)

const (
	// ErrNotAdmin is thrown by Init when the invoker is not the vault
	// administrator set at deploy time.
	ErrNotAdmin = "caller is not the vault administrator"
	// ErrAlreadyInitialized is thrown by Init on repeated invocation.
	ErrAlreadyInitialized = "vault is already initialized"
	// ErrNotInitialized is thrown by ledger methods invoked before Init.
	ErrNotInitialized = "vault is not initialized"
	// ErrNoteNotFound is thrown on lookup of an id that was never issued.
	ErrNoteNotFound = "note not found"
	// ErrNotNoteOwner is thrown by Withdraw when the caller does not own
	// the note, administrator included.
	ErrNotNoteOwner = "caller is not the note owner"
	// ErrNoteAlreadySpent is thrown by Withdraw on a tombstoned note.
	ErrNoteAlreadySpent = "note is already spent"
	// ErrInsufficientLocked is thrown by Withdraw when the aggregate
	// locked total is smaller than the note amount. Unreachable unless
	// the ledger invariant is broken.
	ErrInsufficientLocked = "locked total is less than the note amount"
	// ErrTransferFailed is thrown when the GAS contract refuses a
	// transfer, aborting the whole operation.
	ErrTransferFailed = "failed to transfer GAS, aborting"

	noteCounterKey = "noteCounter"
	totalLockedKey = "totalLocked"
)

// Record prefixes stay outside the printable ASCII range so that no scalar
// string key (noteCounterKey, totalLockedKey, common.OwnerKey) can ever fall
// under a prefix scan.
var (
	notePrefix       = []byte{0x01}
	commitmentPrefix = []byte{0x02}
)

func _deploy(data interface{}, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]interface{})
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		admin interop.Hash160
	})

	if len(args.admin) != interop.Hash160Len {
		panic("incorrect length of administrator script hash")
	}

	storage.Put(ctx, common.OwnerKey, args.admin)
	runtime.Log("vault contract deployed")
}

// Update method updates contract source code and manifest. Can be invoked
// only by the vault administrator.
func Update(script []byte, manifest []byte, data interface{}) {
	ctx := storage.GetReadOnlyContext()
	if !common.HasUpdateAccess(ctx) {
		panic("only the administrator can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("vault contract updated")
}

// Init creates the note ledger: zero locked total, zero notes, note ids
// starting from 0. It must be witnessed by the administrator fixed at deploy
// time and succeeds exactly once; every later call fails with
// ErrAlreadyInitialized. The ledger record lives for the lifetime of the
// contract, there is no operation removing it.
func Init() {
	ctx := storage.GetContext()

	admin := storage.Get(ctx, common.OwnerKey).(interop.Hash160)
	if !runtime.CheckWitness(admin) {
		panic(ErrNotAdmin)
	}

	if storage.Get(ctx, noteCounterKey) != nil {
		panic(ErrAlreadyInitialized)
	}

	storage.Put(ctx, noteCounterKey, 0)
	storage.Put(ctx, totalLockedKey, 0)
	runtime.Log("vault ledger initialized")
}

// IsInitialized returns true if the note ledger has been set up by Init.
func IsInitialized() bool {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, noteCounterKey) != nil
}

// Deposit pulls amount of GAS from the depositor into the vault's custody
// and records a new unspent note bound to the given commitment. The
// commitment is an opaque application-defined blob, never interpreted and
// never emitted: the Deposit notification carries an empty placeholder in
// its place. Returns the id of the created note. Zero amounts are accepted
// and create zero-value notes.
func Deposit(from interop.Hash160, commitment []byte, amount int) int {
	ctx := storage.GetContext()
	requireInitialized(ctx)
	common.CheckOwnerWitness(from)

	if amount < 0 {
		panic("deposit: negative amount")
	}

	self := runtime.GetExecutingScriptHash()
	if !gas.Transfer(from, self, amount, nil) {
		panic("deposit: " + ErrTransferFailed)
	}

	id := storage.Get(ctx, noteCounterKey).(int)
	storage.Put(ctx, noteCounterKey, id+1)

	common.SetSerialized(ctx, noteKey(id), Note{
		ID:     id,
		Owner:  from,
		Amount: amount,
	})
	if commitment == nil {
		commitment = []byte{}
	}
	storage.Put(ctx, commitmentKey(id), commitment)

	total := storage.Get(ctx, totalLockedKey).(int)
	storage.Put(ctx, totalLockedKey, total+amount)

	runtime.Notify("Deposit", from, amount, id, []byte{})
	return id
}

// DepositBlind is Deposit with an empty commitment.
func DepositBlind(from interop.Hash160, amount int) int {
	return Deposit(from, []byte{}, amount)
}

// Withdraw redeems the note: it marks the note spent, reduces the locked
// total by the note amount and releases that amount of GAS from the vault's
// custody to the recipient. Only the note owner can redeem, and only once;
// the note itself stays in the ledger as a permanent spent record. All
// checks run before any state change, and any failure aborts the whole
// transaction.
func Withdraw(caller interop.Hash160, noteID int, recipient interop.Hash160) {
	ctx := storage.GetContext()
	requireInitialized(ctx)
	common.CheckOwnerWitness(caller)

	if len(recipient) != interop.Hash160Len {
		panic("withdraw: incorrect length of recipient script hash")
	}

	note := getNote(ctx, noteID)
	if !common.BytesEqual(note.Owner, caller) {
		panic(ErrNotNoteOwner)
	}
	if note.Spent {
		panic(ErrNoteAlreadySpent)
	}

	total := storage.Get(ctx, totalLockedKey).(int)
	if total < note.Amount {
		panic(ErrInsufficientLocked)
	}

	note.Spent = true
	common.SetSerialized(ctx, noteKey(noteID), note)
	storage.Put(ctx, totalLockedKey, total-note.Amount)

	self := runtime.GetExecutingScriptHash()
	if !gas.Transfer(self, recipient, note.Amount, nil) {
		panic("withdraw: " + ErrTransferFailed)
	}

	runtime.Notify("Withdrawal", note.Owner, noteID, note.Amount)
}

// WithdrawSelf is Withdraw with the caller as the recipient.
func WithdrawSelf(caller interop.Hash160, noteID int) {
	Withdraw(caller, noteID, caller)
}

// TotalLocked returns the aggregate amount locked by unspent notes.
func TotalLocked() int {
	ctx := storage.GetReadOnlyContext()
	requireInitialized(ctx)
	return storage.Get(ctx, totalLockedKey).(int)
}

// NoteCount returns the number of notes ever created, spent ones included.
func NoteCount() int {
	ctx := storage.GetReadOnlyContext()
	requireInitialized(ctx)
	return storage.Get(ctx, noteCounterKey).(int)
}

// NoteMetadata returns the Note record of the given id. The record does not
// contain the commitment.
func NoteMetadata(noteID int) Note {
	ctx := storage.GetReadOnlyContext()
	requireInitialized(ctx)
	return getNote(ctx, noteID)
}

// Notes returns an iterator over all Note records in note id order, which is
// deposit order. Spent notes are included.
func Notes() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	requireInitialized(ctx)
	return storage.Find(ctx, notePrefix, storage.ValuesOnly|storage.DeserializeValues)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// Deposits go through the Deposit method; anything else sent in GAS is
// accepted without creating a note.
func OnNEP17Payment(from interop.Hash160, amount int, data interface{}) {
	caller := runtime.GetCallingScriptHash()
	if !common.BytesEqual(caller, interop.Hash160(gas.Hash)) {
		panic("only GAS is accepted")
	}
}

func requireInitialized(ctx storage.Context) {
	if storage.Get(ctx, noteCounterKey) == nil {
		panic(ErrNotInitialized)
	}
}

// getNote reads the note record of the given id from storage. It panics with
// ErrNoteNotFound for ids that were never issued.
func getNote(ctx storage.Context, id int) Note {
	data := storage.Get(ctx, noteKey(id))
	if data == nil {
		panic(ErrNoteNotFound)
	}
	return std.Deserialize(data.([]byte)).(Note)
}

func noteKey(id int) []byte {
	return recordKey(notePrefix, id)
}

func commitmentKey(id int) []byte {
	return recordKey(commitmentPrefix, id)
}

// recordKey builds prefix || id with a fixed-width big-endian id, so keys
// under one prefix sort in id order and storage.Find iterates deposits in
// the order they were made.
func recordKey(prefix []byte, id int) []byte {
	key := []byte{prefix[0], 0, 0, 0, 0, 0, 0, 0, 0}
	for i := 8; i >= 1; i-- {
		key[i] = byte(id & 0xff)
		id = id >> 8
	}
	return key
}
