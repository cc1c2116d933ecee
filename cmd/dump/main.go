package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	vaultrpc "github.com/notevault/vault-contract/rpc/vault"
)

const (
	notePrefix       = 0x01
	commitmentPrefix = 0x02

	recordKeyLen = 9 // prefix byte + 8-byte big-endian note id
)

func main() {
	neoRPCEndpoint := flag.String("rpc", "", "Network address of the Neo RPC server")
	contractHash := flag.String("contract", "", "LE script hash of the deployed Vault contract")

	flag.Parse()

	switch {
	case *neoRPCEndpoint == "":
		log.Fatal("missing Neo RPC endpoint")
	case *contractHash == "":
		log.Fatal("missing Vault contract hash")
	}

	h, err := util.Uint160DecodeStringLE(*contractHash)
	if err != nil {
		log.Fatal(fmt.Errorf("decode Vault contract hash: %w", err))
	}

	err = _dump(*neoRPCEndpoint, h)
	if err != nil {
		log.Fatal(err)
	}
}

func _dump(neoBlockchainRPCEndpoint string, contract util.Uint160) error {
	b, err := newRemoteBlockChain(neoBlockchainRPCEndpoint)
	if err != nil {
		return fmt.Errorf("init remote blockchain: %w", err)
	}

	defer b.close()

	reader := vaultrpc.NewReader(invoker.New(b.rpc, nil), contract)

	total, err := reader.TotalLocked()
	if err != nil {
		return fmt.Errorf("get locked total: %w", err)
	}

	count, err := reader.NoteCount()
	if err != nil {
		return fmt.Errorf("get note count: %w", err)
	}

	log.Printf("Vault %s: total locked %s, notes ever created %s\n",
		contract.StringLE(), total, count)

	notes := make(map[uint64]*vaultrpc.VaultNote, count.Uint64())
	commitments := make(map[uint64][]byte, count.Uint64())

	err = b.iterateContractStorage(contract, func(key, value []byte) error {
		if len(key) != recordKeyLen {
			return nil
		}

		id := binary.BigEndian.Uint64(key[1:])

		switch key[0] {
		case notePrefix:
			item, err := stackitem.Deserialize(value)
			if err != nil {
				return fmt.Errorf("deserialize note #%d record: %w", id, err)
			}

			n := new(vaultrpc.VaultNote)
			if err := n.FromStackItem(item); err != nil {
				return fmt.Errorf("decode note #%d record: %w", id, err)
			}

			notes[id] = n
		case commitmentPrefix:
			commitments[id] = value
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate Vault contract storage: %w", err)
	}

	for id := uint64(0); id < count.Uint64(); id++ {
		n, ok := notes[id]
		if !ok {
			return fmt.Errorf("note #%d is missing from the ledger", id)
		}

		log.Printf("note %d: owner=%s amount=%s spent=%t commitment=%s\n",
			id, address.Uint160ToString(n.Owner), n.Amount, n.Spent,
			base58.Encode(commitments[id]))
	}

	return nil
}
