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

// TransactionHeader carries the fields bound by a transaction's
// signature. RCLimit and Nonce are wide numerics: they decode as decimal
// strings in structured values but are held natively here.
type TransactionHeader struct {
	ChainID             []byte
	RCLimit             uint64
	Nonce               uint64
	OperationMerkleRoot digest.Digest
	Payer               string
	Payee               string
}

// Transaction is the client-side form of a transaction: a header, an
// ordered list of operations, an id, and zero or more signatures. It is
// mutated in place by Prepare and Sign and must be treated as immutable
// once submitted.
type Transaction struct {
	ID         digest.Digest
	Header     TransactionHeader
	Operations []Operation
	Signatures [][]byte
}

// Prepare fills the derived header fields: the operation merkle root
// over the canonically encoded operations, and the transaction id as
// the digest of the canonical header bytes.
func (tx *Transaction) Prepare(reg *schema.Registry) error {
	items := make([][]byte, 0, len(tx.Operations))
	for _, op := range tx.Operations {
		enc, err := encodeOperation(op, reg)
		if err != nil {
			return err
		}
		items = append(items, enc)
	}
	tx.Header.OperationMerkleRoot = digest.MerkleRootOfData(items)

	header, err := tx.headerBytes(reg)
	if err != nil {
		return err
	}
	tx.ID = digest.Sum(header)

	return nil
}

// Sign appends a signature over the prepared transaction id. The digest
// signed is the raw hash the id wraps.
func (tx *Transaction) Sign(km *keys.KeyMaterial) error {
	if tx.ID == nil {
		return fmt.Errorf("transaction: %w", ErrNotPrepared)
	}

	hash, err := tx.ID.Raw()
	if err != nil {
		return err
	}

	sig, err := signature.Sign(km, hash)
	if err != nil {
		return err
	}

	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// SignerAddresses recovers one address per attached signature,
// preserving attachment order. A nil extractor expects bare compact
// signatures.
func (tx *Transaction) SignerAddresses(compressed bool, extract signature.Extractor) ([]string, error) {
	if tx.ID == nil {
		return nil, fmt.Errorf("transaction: %w", ErrNotPrepared)
	}

	hash, err := tx.ID.Raw()
	if err != nil {
		return nil, err
	}

	return signature.RecoverSigners(hash, tx.Signatures, compressed, extract)
}

// =============================================================================

// Encode produces the canonical wire bytes of the whole transaction.
func (tx *Transaction) Encode(reg *schema.Registry) ([]byte, error) {
	value, err := tx.Value()
	if err != nil {
		return nil, err
	}
	return codec.Encode(value, schema.TypeTransaction, reg)
}

// DecodeTransaction converts transaction wire bytes back into the
// client-side form.
func DecodeTransaction(data []byte, reg *schema.Registry) (*Transaction, error) {
	value, err := codec.Decode(data, schema.TypeTransaction, reg)
	if err != nil {
		return nil, err
	}
	return TransactionFromValue(value)
}

// Value converts the transaction into its structured-value form for the
// codec.
func (tx *Transaction) Value() (map[string]any, error) {
	header := map[string]any{
		"rc_limit": tx.Header.RCLimit,
		"nonce":    tx.Header.Nonce,
	}
	if len(tx.Header.ChainID) > 0 {
		header["chain_id"] = tx.Header.ChainID
	}
	if len(tx.Header.OperationMerkleRoot) > 0 {
		header["operation_merkle_root"] = []byte(tx.Header.OperationMerkleRoot)
	}
	if tx.Header.Payer != "" {
		header["payer"] = tx.Header.Payer
	}
	if tx.Header.Payee != "" {
		header["payee"] = tx.Header.Payee
	}

	ops := make([]any, 0, len(tx.Operations))
	for _, op := range tx.Operations {
		ops = append(ops, op.value())
	}

	sigs := make([]any, 0, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		sigs = append(sigs, sig)
	}

	value := map[string]any{
		"header":     header,
		"operations": ops,
		"signatures": sigs,
	}
	if len(tx.ID) > 0 {
		value["id"] = []byte(tx.ID)
	}

	return value, nil
}

// TransactionFromValue converts a decoded structured value back into
// the client-side transaction form.
func TransactionFromValue(value map[string]any) (*Transaction, error) {
	var tx Transaction
	var err error

	if s, ok := value["id"].(string); ok {
		if tx.ID, err = digest.Parse(s); err != nil {
			return nil, err
		}
	}

	if header, ok := value["header"].(map[string]any); ok {
		if tx.Header, err = headerFromValue(header); err != nil {
			return nil, err
		}
	}

	if ops, ok := value["operations"].([]any); ok {
		for _, item := range ops {
			ov, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("operation %T: %w", item, ErrUnknownOperation)
			}
			op, err := operationFromValue(ov)
			if err != nil {
				return nil, err
			}
			tx.Operations = append(tx.Operations, op)
		}
	}

	if sigs, ok := value["signatures"].([]any); ok {
		for _, item := range sigs {
			s, ok := item.(string)
			if !ok {
				continue
			}
			sig, err := transform.ToBytes(transform.Base64URL, s)
			if err != nil {
				return nil, err
			}
			tx.Signatures = append(tx.Signatures, sig)
		}
	}

	return &tx, nil
}

// =============================================================================

// headerBytes produces the canonical wire bytes of the header alone,
// the input to the id digest and the signatures.
func (tx *Transaction) headerBytes(reg *schema.Registry) ([]byte, error) {
	value, err := tx.Value()
	if err != nil {
		return nil, err
	}
	return codec.Encode(value["header"].(map[string]any), schema.TypeTransactionHeader, reg)
}

func headerFromValue(value map[string]any) (TransactionHeader, error) {
	var h TransactionHeader
	var err error

	if s, ok := value["chain_id"].(string); ok {
		if h.ChainID, err = transform.ToBytes(transform.Base64URL, s); err != nil {
			return TransactionHeader{}, err
		}
	}
	if h.RCLimit, err = wideNumeric(value, "rc_limit"); err != nil {
		return TransactionHeader{}, err
	}
	if h.Nonce, err = wideNumeric(value, "nonce"); err != nil {
		return TransactionHeader{}, err
	}
	if s, ok := value["operation_merkle_root"].(string); ok {
		root, err := transform.ToBytes(transform.Base64URL, s)
		if err != nil {
			return TransactionHeader{}, err
		}
		h.OperationMerkleRoot = digest.Digest(root)
	}
	h.Payer, _ = value["payer"].(string)
	h.Payee, _ = value["payee"].(string)

	return h, nil
}
