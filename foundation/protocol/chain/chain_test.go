package chain_test

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/veloxchain/velox/foundation/protocol/chain"
	"github.com/veloxchain/velox/foundation/protocol/codec"
	"github.com/veloxchain/velox/foundation/protocol/digest"
	"github.com/veloxchain/velox/foundation/protocol/keys"
	"github.com/veloxchain/velox/foundation/protocol/schema"
	"github.com/veloxchain/velox/foundation/protocol/signature"
)

const (
	seedPhrase   = "my seed"
	seedAddr     = "1BqtgWBcqm9cSZ97avLGZGJdgso7wx6pCA"
	key2Hex      = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	key2Addr     = "1AkwBvqLPRdPSQQn8AEbSukp7N2HK4JKsK"
	entryPoint   = 0x5c721497
	goldenTranID = "0x12203c438a55c2ec8be9f375419b644980b546e941f72d9514859131b2a617c04034"
	goldenOpRoot = "0x1220da2596363ba40faa8ad9709ff3bec3f607f8d643822ab5c6f5770df05d753606"
)

func goldenTransaction() *chain.Transaction {
	return &chain.Transaction{
		Header: chain.TransactionHeader{
			ChainID: []byte("velox-main"),
			RCLimit: 1000000,
			Nonce:   5,
			Payer:   seedAddr,
		},
		Operations: []chain.Operation{
			chain.CallContract{
				ContractID: key2Addr,
				EntryPoint: entryPoint,
				Args:       []byte("args-bytes"),
			},
		},
	}
}

// =============================================================================

func Test_TransactionPrepare(t *testing.T) {
	reg := schema.Builtin()

	tx := goldenTransaction()
	if err := tx.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the transaction: %s", err)
	}

	if got := tx.Header.OperationMerkleRoot.String(); got != goldenOpRoot {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", goldenOpRoot)
		t.Fatalf("Should derive the canonical operation merkle root.")
	}

	if got := tx.ID.String(); got != goldenTranID {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", goldenTranID)
		t.Fatalf("Should derive the canonical transaction id.")
	}

	// Preparing again is stable.
	if err := tx.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare a second time: %s", err)
	}
	if tx.ID.String() != goldenTranID {
		t.Fatal("Should derive the same id on repeated preparation.")
	}

	// Any header change changes the id.
	tx.Header.Nonce = 6
	if err := tx.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the changed transaction: %s", err)
	}
	if tx.ID.String() == goldenTranID {
		t.Fatal("Should derive a different id for a different nonce.")
	}
}

func Test_TransactionSign(t *testing.T) {
	reg := schema.Builtin()

	tx := goldenTransaction()

	km, err := keys.NewFromSeed(seedPhrase, true)
	if err != nil {
		t.Fatalf("Should be able to derive the first key: %s", err)
	}
	km2, err := keys.NewFromHex(key2Hex, true)
	if err != nil {
		t.Fatalf("Should be able to derive the second key: %s", err)
	}

	// Signing requires preparation first.
	if err := tx.Sign(km); !errors.Is(err, chain.ErrNotPrepared) {
		t.Fatalf("Should refuse to sign before preparation: %v", err)
	}

	if err := tx.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the transaction: %s", err)
	}
	if err := tx.Sign(km); err != nil {
		t.Fatalf("Should be able to sign with the first key: %s", err)
	}
	if err := tx.Sign(km2); err != nil {
		t.Fatalf("Should be able to sign with the second key: %s", err)
	}

	addrs, err := tx.SignerAddresses(true, nil)
	if err != nil {
		t.Fatalf("Should be able to recover the signers: %s", err)
	}
	if len(addrs) != 2 || addrs[0] != seedAddr || addrs[1] != key2Addr {
		t.Fatalf("Should recover the signers in attachment order: %v", addrs)
	}
}

func Test_TransactionRoundTrip(t *testing.T) {
	reg := schema.Builtin()

	tx := goldenTransaction()
	tx.Header.Payee = key2Addr
	tx.Operations = append(tx.Operations,
		chain.UploadContract{
			ContractID: key2Addr,
			Bytecode:   []byte("\x00asm-bytecode"),
			ABI:        `{"methods":{}}`,
		},
		chain.SetSystemCall{CallID: 9, ThunkID: 12},
		chain.SetSystemCallBundle{CallID: 10, ContractID: key2Addr, EntryPoint: 0x2a},
	)

	if err := tx.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the transaction: %s", err)
	}

	km, _ := keys.NewFromSeed(seedPhrase, true)
	if err := tx.Sign(km); err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	data, err := tx.Encode(reg)
	if err != nil {
		t.Fatalf("Should be able to encode the transaction: %s", err)
	}

	back, err := chain.DecodeTransaction(data, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the transaction: %s", err)
	}

	if !back.ID.Equal(tx.ID) {
		t.Fatalf("Should round-trip the id: got %s", back.ID)
	}
	if !reflect.DeepEqual(back.Header, tx.Header) {
		t.Logf("got: %#v", back.Header)
		t.Logf("exp: %#v", tx.Header)
		t.Fatalf("Should round-trip the header.")
	}
	if !reflect.DeepEqual(back.Operations, tx.Operations) {
		t.Logf("got: %#v", back.Operations)
		t.Logf("exp: %#v", tx.Operations)
		t.Fatalf("Should round-trip the operations.")
	}
	if len(back.Signatures) != 1 || !bytes.Equal(back.Signatures[0], tx.Signatures[0]) {
		t.Fatalf("Should round-trip the signatures.")
	}
}

func Test_TransactionFromValueMismatch(t *testing.T) {

	// Malformed operation fields must fail, not degrade to zero values.
	cases := []struct {
		name string
		op   map[string]any
	}{
		{"contract id", map[string]any{"call_contract": map[string]any{"contract_id": uint32(7)}}},
		{"entry point", map[string]any{"call_contract": map[string]any{"contract_id": key2Addr, "entry_point": "not-a-number"}}},
		{"bytecode", map[string]any{"upload_contract": map[string]any{"contract_id": key2Addr, "bytecode": 42}}},
		{"call id", map[string]any{"set_system_call": map[string]any{"call_id": "nine"}}},
		{"thunk id", map[string]any{"set_system_call": map[string]any{"call_id": uint32(9), "target": map[string]any{"thunk_id": "twelve"}}}},
	}

	for _, tc := range cases {
		value := map[string]any{"operations": []any{tc.op}}
		if _, err := chain.TransactionFromValue(value); !errors.Is(err, codec.ErrFieldTypeMismatch) {
			t.Fatalf("Should reject a malformed %s with ErrFieldTypeMismatch: %v", tc.name, err)
		}
	}
}

// =============================================================================

func Test_BlockPrepareSign(t *testing.T) {
	reg := schema.Builtin()

	tx := goldenTransaction()
	if err := tx.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the transaction: %s", err)
	}

	b := chain.Block{
		Header: chain.BlockHeader{
			Previous:  digest.Sum([]byte("genesis")),
			Height:    1,
			Timestamp: 1700000000000,
			Signer:    seedAddr,
		},
		Transactions: []*chain.Transaction{tx},
	}

	if err := b.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the block: %s", err)
	}

	// A single transaction promotes its hash unchanged to the root.
	root, err := b.Header.TransactionMerkleRoot.Raw()
	if err != nil {
		t.Fatalf("Should derive a valid merkle root: %s", err)
	}
	txHash, _ := tx.ID.Raw()
	if !bytes.Equal(root, txHash) {
		t.Fatalf("Should promote the single transaction hash to the root: got %x", root)
	}

	km, _ := keys.NewFromSeed(seedPhrase, true)
	if err := b.Sign(km); err != nil {
		t.Fatalf("Should be able to sign the block: %s", err)
	}

	addr, err := b.SignerAddress(true, nil)
	if err != nil {
		t.Fatalf("Should be able to recover the block signer: %s", err)
	}
	if addr != seedAddr {
		t.Fatalf("Should recover the signer address: got %s", addr)
	}

	// An unprepared transaction blocks block preparation.
	b.Transactions = append(b.Transactions, goldenTransaction())
	if err := b.Prepare(reg); !errors.Is(err, chain.ErrNotPrepared) {
		t.Fatalf("Should refuse an unprepared transaction: %v", err)
	}
}

func Test_BlockRoundTrip(t *testing.T) {
	reg := schema.Builtin()

	tx := goldenTransaction()
	if err := tx.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the transaction: %s", err)
	}

	prevState, _ := digest.Sum([]byte("state")).Raw()
	b := chain.Block{
		Header: chain.BlockHeader{
			Previous:                digest.Sum([]byte("genesis")),
			Height:                  42,
			Timestamp:               1700000000000,
			PreviousStateMerkleRoot: prevState,
			Signer:                  seedAddr,
		},
		Transactions: []*chain.Transaction{tx},
	}

	if err := b.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the block: %s", err)
	}
	km, _ := keys.NewFromSeed(seedPhrase, true)
	if err := b.Sign(km); err != nil {
		t.Fatalf("Should be able to sign the block: %s", err)
	}

	data, err := b.Encode(reg)
	if err != nil {
		t.Fatalf("Should be able to encode the block: %s", err)
	}

	back, err := chain.DecodeBlock(data, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the block: %s", err)
	}

	if !back.ID.Equal(b.ID) {
		t.Fatalf("Should round-trip the block id: got %s", back.ID)
	}
	if !reflect.DeepEqual(back.Header, b.Header) {
		t.Logf("got: %#v", back.Header)
		t.Logf("exp: %#v", b.Header)
		t.Fatalf("Should round-trip the block header.")
	}
	if len(back.Transactions) != 1 || !back.Transactions[0].ID.Equal(tx.ID) {
		t.Fatalf("Should round-trip the contained transactions.")
	}
	if !bytes.Equal(back.Signature, b.Signature) {
		t.Fatalf("Should round-trip the block signature.")
	}
}

func Test_PowExtractor(t *testing.T) {
	reg := schema.Builtin()

	b := chain.Block{
		Header: chain.BlockHeader{Height: 1, Timestamp: 1},
	}
	if err := b.Prepare(reg); err != nil {
		t.Fatalf("Should be able to prepare the block: %s", err)
	}

	km, _ := keys.NewFromSeed(seedPhrase, true)
	hash, _ := b.ID.Raw()
	sig, err := signature.Sign(km, hash)
	if err != nil {
		t.Fatalf("Should be able to sign the block hash: %s", err)
	}

	// PoW envelopes prefix an 8-byte nonce to the compact signature.
	b.Signature = append([]byte{0, 0, 0, 0, 0, 0, 0, 7}, sig...)

	addr, err := b.SignerAddress(true, chain.PowExtractor)
	if err != nil {
		t.Fatalf("Should be able to recover through the pow envelope: %s", err)
	}
	if addr != seedAddr {
		t.Fatalf("Should recover the signer address: got %s", addr)
	}

	// The default extractor rejects the oversized envelope.
	if _, err := b.SignerAddress(true, nil); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should reject the envelope without the pow extractor: %v", err)
	}

	if _, err := chain.PowExtractor(sig); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should reject a bare signature as a pow envelope: %v", err)
	}
}

// =============================================================================

// Canonical wire bytes of a transfer event, computed independently of
// this codec.
const eventHex = "0x080712190076f05d7e0417775cb498af85734f3e551b08c08d5b0c459b1a0d6b6f696e2e7472616e73666572220265762a19006b0840abe8877b9154e5d496ebd641dd2911406687b334862a190076f05d7e0417775cb498af85734f3e551b08c08d5b0c459b"

func Test_DecodeEvent(t *testing.T) {
	reg := schema.Builtin()

	data, err := hexutil.Decode(eventHex)
	if err != nil {
		t.Fatalf("Should be able to decode the fixture hex: %s", err)
	}

	ev, err := chain.DecodeEvent(data, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the event: %s", err)
	}

	if ev.Sequence != 7 {
		t.Fatalf("Should decode the sequence: got %d", ev.Sequence)
	}
	if ev.Source != seedAddr {
		t.Fatalf("Should decode the source address: got %s", ev.Source)
	}
	if ev.Name != "koin.transfer" {
		t.Fatalf("Should decode the event name: got %s", ev.Name)
	}
	if string(ev.Data) != "ev" {
		t.Fatalf("Should decode the payload bytes: got %q", ev.Data)
	}
	if len(ev.Impacted) != 2 || ev.Impacted[0] != key2Addr || ev.Impacted[1] != seedAddr {
		t.Fatalf("Should decode the impacted addresses in order: %v", ev.Impacted)
	}
}

func Test_DecodeEvents(t *testing.T) {
	reg := schema.Builtin()

	data, _ := hexutil.Decode(eventHex)

	events, err := chain.DecodeEvents([][]byte{data, data}, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the events: %s", err)
	}
	if len(events) != 2 || events[0].Sequence != 7 || events[1].Name != "koin.transfer" {
		t.Fatalf("Should decode every payload in order: %v", events)
	}
}
