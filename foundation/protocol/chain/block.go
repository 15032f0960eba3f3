package chain

import (
	"fmt"

	"github.com/veloxchain/velox/foundation/protocol/codec"
	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
	"github.com/veloxchain/velox/foundation/protocol/digest"
	"github.com/veloxchain/velox/foundation/protocol/keys"
	"github.com/veloxchain/velox/foundation/protocol/schema"
	"github.com/veloxchain/velox/foundation/protocol/signature"
)

// powNonceLength is the size of the proof-of-work nonce prefixed to the
// compact signature inside a PoW signature envelope.
const powNonceLength = 8

// BlockHeader carries the fields bound by a block's signature.
type BlockHeader struct {
	Previous                digest.Digest
	Height                  uint64
	Timestamp               uint64
	PreviousStateMerkleRoot []byte
	TransactionMerkleRoot   digest.Digest
	Signer                  string
}

// Block is the client-side form of a block: a header, an ordered list
// of transactions, an id, and a signature envelope.
type Block struct {
	ID           digest.Digest
	Header       BlockHeader
	Transactions []*Transaction
	Signature    []byte
}

// Prepare fills the derived header fields: the transaction merkle root
// over the contained transaction ids, and the block id as the digest of
// the canonical header bytes.
func (b *Block) Prepare(reg *schema.Registry) error {
	leaves := make([][]byte, 0, len(b.Transactions))
	for i, tx := range b.Transactions {
		if tx.ID == nil {
			return fmt.Errorf("transaction %d: %w", i, ErrNotPrepared)
		}
		hash, err := tx.ID.Raw()
		if err != nil {
			return err
		}
		leaves = append(leaves, hash)
	}
	b.Header.TransactionMerkleRoot = digest.MerkleRoot(leaves)

	header, err := b.headerBytes(reg)
	if err != nil {
		return err
	}
	b.ID = digest.Sum(header)

	return nil
}

// Sign attaches a bare compact signature over the prepared block id.
func (b *Block) Sign(km *keys.KeyMaterial) error {
	if b.ID == nil {
		return fmt.Errorf("block: %w", ErrNotPrepared)
	}

	hash, err := b.ID.Raw()
	if err != nil {
		return err
	}

	sig, err := signature.Sign(km, hash)
	if err != nil {
		return err
	}

	b.Signature = sig
	return nil
}

// SignerAddress recovers the address that signed the block. A nil
// extractor expects a bare compact signature; consensus schemes that
// wrap the signature supply their own, such as PowExtractor.
func (b *Block) SignerAddress(compressed bool, extract signature.Extractor) (string, error) {
	if b.ID == nil {
		return "", fmt.Errorf("block: %w", ErrNotPrepared)
	}
	if extract == nil {
		extract = signature.ExtractCompact
	}

	hash, err := b.ID.Raw()
	if err != nil {
		return "", err
	}

	sig, err := extract(b.Signature)
	if err != nil {
		return "", err
	}

	return signature.RecoverAddress(hash, sig, compressed)
}

// PowExtractor pulls the compact signature out of a proof-of-work
// envelope, which prefixes an 8-byte nonce to the signature.
func PowExtractor(envelope []byte) ([]byte, error) {
	if len(envelope) != powNonceLength+signature.Length {
		return nil, fmt.Errorf("pow envelope length %d: %w", len(envelope), signature.ErrInvalidSignature)
	}
	return envelope[powNonceLength:], nil
}

// =============================================================================

// Encode produces the canonical wire bytes of the whole block.
func (b *Block) Encode(reg *schema.Registry) ([]byte, error) {
	value, err := b.Value()
	if err != nil {
		return nil, err
	}
	return codec.Encode(value, schema.TypeBlock, reg)
}

// DecodeBlock converts block wire bytes back into the client-side form.
func DecodeBlock(data []byte, reg *schema.Registry) (*Block, error) {
	value, err := codec.Decode(data, schema.TypeBlock, reg)
	if err != nil {
		return nil, err
	}
	return BlockFromValue(value)
}

// Value converts the block into its structured-value form for the codec.
func (b *Block) Value() (map[string]any, error) {
	header := map[string]any{
		"height":    b.Header.Height,
		"timestamp": b.Header.Timestamp,
	}
	if len(b.Header.Previous) > 0 {
		header["previous"] = []byte(b.Header.Previous)
	}
	if len(b.Header.PreviousStateMerkleRoot) > 0 {
		header["previous_state_merkle_root"] = b.Header.PreviousStateMerkleRoot
	}
	if len(b.Header.TransactionMerkleRoot) > 0 {
		header["transaction_merkle_root"] = []byte(b.Header.TransactionMerkleRoot)
	}
	if b.Header.Signer != "" {
		header["signer"] = b.Header.Signer
	}

	txs := make([]any, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		tv, err := tx.Value()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tv)
	}

	value := map[string]any{
		"header":       header,
		"transactions": txs,
	}
	if len(b.ID) > 0 {
		value["id"] = []byte(b.ID)
	}
	if len(b.Signature) > 0 {
		value["signature"] = b.Signature
	}

	return value, nil
}

// BlockFromValue converts a decoded structured value back into the
// client-side block form.
func BlockFromValue(value map[string]any) (*Block, error) {
	var b Block
	var err error

	if s, ok := value["id"].(string); ok {
		if b.ID, err = digest.Parse(s); err != nil {
			return nil, err
		}
	}

	if header, ok := value["header"].(map[string]any); ok {
		if b.Header, err = blockHeaderFromValue(header); err != nil {
			return nil, err
		}
	}

	if txs, ok := value["transactions"].([]any); ok {
		for _, item := range txs {
			tv, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("transaction %T: %w", item, codec.ErrFieldTypeMismatch)
			}
			tx, err := TransactionFromValue(tv)
			if err != nil {
				return nil, err
			}
			b.Transactions = append(b.Transactions, tx)
		}
	}

	if s, ok := value["signature"].(string); ok {
		if b.Signature, err = transform.ToBytes(transform.Base64URL, s); err != nil {
			return nil, err
		}
	}

	return &b, nil
}

// =============================================================================

func (b *Block) headerBytes(reg *schema.Registry) ([]byte, error) {
	value, err := b.Value()
	if err != nil {
		return nil, err
	}
	return codec.Encode(value["header"].(map[string]any), schema.TypeBlockHeader, reg)
}

func blockHeaderFromValue(value map[string]any) (BlockHeader, error) {
	var h BlockHeader
	var err error

	if s, ok := value["previous"].(string); ok {
		if h.Previous, err = digest.Parse(s); err != nil {
			return BlockHeader{}, err
		}
	}
	if h.Height, err = wideNumeric(value, "height"); err != nil {
		return BlockHeader{}, err
	}
	if h.Timestamp, err = wideNumeric(value, "timestamp"); err != nil {
		return BlockHeader{}, err
	}
	if s, ok := value["previous_state_merkle_root"].(string); ok {
		if h.PreviousStateMerkleRoot, err = transform.ToBytes(transform.Base64URL, s); err != nil {
			return BlockHeader{}, err
		}
	}
	if s, ok := value["transaction_merkle_root"].(string); ok {
		root, err := transform.ToBytes(transform.Base64URL, s)
		if err != nil {
			return BlockHeader{}, err
		}
		h.TransactionMerkleRoot = digest.Digest(root)
	}
	h.Signer, _ = value["signer"].(string)

	return h, nil
}
