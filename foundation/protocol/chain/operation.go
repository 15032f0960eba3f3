// Package chain provides transaction and block preparation on top of
// the codec, digest, key, and signature engines: canonical encoding,
// merkle and id computation, signing, and signer recovery.
package chain

import (
	"errors"
	"fmt"

	"github.com/veloxchain/velox/foundation/protocol/codec"
	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
	"github.com/veloxchain/velox/foundation/protocol/schema"
)

// Set of errors for transaction and block handling.
var (
	ErrNotPrepared      = errors.New("not prepared")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Operation is one unit of work carried by a transaction. It is a sum
// type with one variant per operation kind, so a programmatically
// constructed operation cannot populate two kinds at once.
type Operation interface {
	value() map[string]any
}

// UploadContract installs contract bytecode at a contract address.
type UploadContract struct {
	ContractID string
	Bytecode   []byte
	ABI        string
}

// CallContract invokes an entry point of an installed contract.
type CallContract struct {
	ContractID string
	EntryPoint uint32
	Args       []byte
}

// SetSystemCall redirects a system call id to a thunk.
type SetSystemCall struct {
	CallID  uint32
	ThunkID uint32
}

// SetSystemCallBundle redirects a system call id to a contract entry
// point.
type SetSystemCallBundle struct {
	CallID     uint32
	ContractID string
	EntryPoint uint32
}

func (op UploadContract) value() map[string]any {
	inner := map[string]any{
		"contract_id": op.ContractID,
	}
	if len(op.Bytecode) > 0 {
		inner["bytecode"] = op.Bytecode
	}
	if op.ABI != "" {
		inner["abi"] = op.ABI
	}
	return map[string]any{"upload_contract": inner}
}

func (op CallContract) value() map[string]any {
	inner := map[string]any{
		"contract_id": op.ContractID,
		"entry_point": op.EntryPoint,
	}
	if len(op.Args) > 0 {
		inner["args"] = op.Args
	}
	return map[string]any{"call_contract": inner}
}

func (op SetSystemCall) value() map[string]any {
	return map[string]any{"set_system_call": map[string]any{
		"call_id": op.CallID,
		"target": map[string]any{
			"thunk_id": op.ThunkID,
		},
	}}
}

func (op SetSystemCallBundle) value() map[string]any {
	return map[string]any{"set_system_call": map[string]any{
		"call_id": op.CallID,
		"target": map[string]any{
			"system_call_bundle": map[string]any{
				"contract_id": op.ContractID,
				"entry_point": op.EntryPoint,
			},
		},
	}}
}

// =============================================================================

// encodeOperation produces the canonical wire bytes of one operation.
func encodeOperation(op Operation, reg *schema.Registry) ([]byte, error) {
	return codec.Encode(op.value(), schema.TypeOperation, reg)
}

// operationFromValue converts a decoded operation value back into its
// sum-type form. Whichever oneof member is active selects the variant.
// A present field of the wrong shape fails rather than degrading to a
// zero value.
func operationFromValue(v map[string]any) (Operation, error) {
	if inner, exists := v["upload_contract"]; exists {
		m, err := member(inner)
		if err != nil {
			return nil, err
		}
		var op UploadContract
		if op.ContractID, err = stringField(m, "contract_id"); err != nil {
			return nil, err
		}
		if op.ABI, err = stringField(m, "abi"); err != nil {
			return nil, err
		}
		if op.Bytecode, err = bytesField(m, "bytecode", transform.Base64); err != nil {
			return nil, err
		}
		return op, nil
	}

	if inner, exists := v["call_contract"]; exists {
		m, err := member(inner)
		if err != nil {
			return nil, err
		}
		var op CallContract
		if op.ContractID, err = stringField(m, "contract_id"); err != nil {
			return nil, err
		}
		if op.EntryPoint, err = uint32Field(m, "entry_point"); err != nil {
			return nil, err
		}
		if op.Args, err = bytesField(m, "args", transform.Base64URL); err != nil {
			return nil, err
		}
		return op, nil
	}

	if inner, exists := v["set_system_call"]; exists {
		m, err := member(inner)
		if err != nil {
			return nil, err
		}

		callID, err := uint32Field(m, "call_id")
		if err != nil {
			return nil, err
		}

		var target map[string]any
		if t, exists := m["target"]; exists {
			if target, err = member(t); err != nil {
				return nil, err
			}
		}

		if _, exists := target["system_call_bundle"]; exists {
			bundle, err := member(target["system_call_bundle"])
			if err != nil {
				return nil, err
			}
			op := SetSystemCallBundle{CallID: callID}
			if op.ContractID, err = stringField(bundle, "contract_id"); err != nil {
				return nil, err
			}
			if op.EntryPoint, err = uint32Field(bundle, "entry_point"); err != nil {
				return nil, err
			}
			return op, nil
		}

		op := SetSystemCall{CallID: callID}
		if op.ThunkID, err = uint32Field(target, "thunk_id"); err != nil {
			return nil, err
		}
		return op, nil
	}

	return nil, ErrUnknownOperation
}

func member(inner any) (map[string]any, error) {
	m, ok := inner.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("operation member %T: %w", inner, ErrUnknownOperation)
	}
	return m, nil
}

func stringField(m map[string]any, name string) (string, error) {
	v, exists := m[name]
	if !exists || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s: %T is not a string value: %w", name, v, codec.ErrFieldTypeMismatch)
	}
	return s, nil
}

func uint32Field(m map[string]any, name string) (uint32, error) {
	v, exists := m[name]
	if !exists || v == nil {
		return 0, nil
	}
	u, ok := v.(uint32)
	if !ok {
		return 0, fmt.Errorf("field %s: %T is not a uint32 value: %w", name, v, codec.ErrFieldTypeMismatch)
	}
	return u, nil
}

func bytesField(m map[string]any, name string, kind transform.Kind) ([]byte, error) {
	v, exists := m[name]
	if !exists || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("field %s: %T is not a %s string: %w", name, v, kind, codec.ErrFieldTypeMismatch)
	}
	return transform.ToBytes(kind, s)
}
