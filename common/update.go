package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// HasUpdateAccess returns true if the vault administrator witnessed the
// carrier transaction and the contract can be updated.
func HasUpdateAccess(ctx storage.Context) bool {
	admin := storage.Get(ctx, OwnerKey).(interop.Hash160)
	return runtime.CheckWitness(admin)
}
