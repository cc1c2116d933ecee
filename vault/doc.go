/*
Vault contract is a custodial note ledger deployed as a Neo smart contract.

The contract locks GAS against opaque, off-chain-generated commitments. Each
deposit pulls funds into the contract's custody account and records a note:
a monotonically numbered, immutable claim that only the depositor can later
redeem. A withdrawal releases the locked funds to a chosen recipient and
tombstones the note, so the ledger keeps a permanent record of every note
ever created and note ids stay valid for external references forever.

Commitments are never interpreted by the contract and never leave its
storage: notification events carry an empty placeholder instead of the real
commitment bytes, and no contract method returns them.

The ledger is set up once by the administrator fixed at deploy time and
maintains a single aggregate invariant at all observable points: the locked
total equals the sum of amounts over unspent notes. The total is adjusted
incrementally on every deposit and withdrawal, never recomputed by scanning
the note collection.

# Contract notifications

Deposit notification. Produced on every successful deposit. The commitment
field is a deliberately empty placeholder, see above.

	Deposit:
	  - name: owner
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: id
	    type: Integer
	  - name: commitment
	    type: ByteArray

Withdrawal notification. Produced on every successful withdrawal.

	Withdrawal:
	  - name: owner
	    type: Hash160
	  - name: id
	    type: Integer
	  - name: amount
	    type: Integer
*/
package vault
