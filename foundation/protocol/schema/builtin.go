package schema

import "github.com/veloxchain/velox/foundation/protocol/codec/transform"

// Set of built-in protocol type names.
const (
	TypeTransactionHeader  = "chain.transaction_header"
	TypeTransaction        = "chain.transaction"
	TypeOperation          = "chain.operation"
	TypeUploadContract     = "chain.upload_contract_operation"
	TypeCallContract       = "chain.call_contract_operation"
	TypeSetSystemCall      = "chain.set_system_call_operation"
	TypeSystemCallTarget   = "chain.system_call_target"
	TypeContractCallBundle = "chain.contract_call_bundle"
	TypeBlockHeader        = "chain.block_header"
	TypeBlock              = "chain.block"
	TypeEventData          = "chain.event_data"
	TypeObjectSpace        = "chain.object_space"
	TypeGenesisEntry       = "chain.genesis_entry"
	TypeGenesisData        = "chain.genesis_data"
	TypeResourceLimitData  = "chain.resource_limit_data"
	TypeMaxAccountRes      = "chain.max_account_resources"
	TypeValue              = "chain.value_type"
	TypeSignatureRecord    = "chain.signature_record"
	EnumDSA                = "chain.dsa"
)

// Builtin constructs a registry holding the protocol's canonical object
// types. The returned registry is independent of any other and safe to
// share across concurrent encode/decode calls.
func Builtin() *Registry {
	reg, err := NewRegistry(builtinTypes(), builtinEnums())
	if err != nil {

		// The built-in tables are compile-time constants; a violation
		// here is a programmer error and not recoverable.
		panic(err)
	}
	return reg
}

func builtinTypes() []*TypeSchema {
	return []*TypeSchema{
		{
			Name: TypeTransactionHeader,
			Fields: []FieldDef{
				{Name: "chain_id", Number: 1, Type: TypeBytes, Transform: transform.Base64URL},
				{Name: "rc_limit", Number: 2, Type: TypeUint64},
				{Name: "nonce", Number: 3, Type: TypeUint64},
				{Name: "operation_merkle_root", Number: 4, Type: TypeBytes, Transform: transform.Base64URL},
				{Name: "payer", Number: 5, Type: TypeBytes, Transform: transform.Base58},
				{Name: "payee", Number: 6, Type: TypeBytes, Transform: transform.Base58},
			},
		},
		{
			Name: TypeTransaction,
			Fields: []FieldDef{
				{Name: "id", Number: 1, Type: TypeBytes, Transform: transform.Hex},
				{Name: "header", Number: 2, Type: TypeMessage, MessageType: TypeTransactionHeader},
				{Name: "operations", Number: 3, Type: TypeMessage, Rule: Repeated, MessageType: TypeOperation},
				{Name: "signatures", Number: 4, Type: TypeBytes, Rule: Repeated, Transform: transform.Base64URL},
			},
		},
		{
			Name: TypeOperation,
			Fields: []FieldDef{
				{Name: "upload_contract", Number: 1, Type: TypeMessage, MessageType: TypeUploadContract, OneofGroup: "op"},
				{Name: "call_contract", Number: 2, Type: TypeMessage, MessageType: TypeCallContract, OneofGroup: "op"},
				{Name: "set_system_call", Number: 3, Type: TypeMessage, MessageType: TypeSetSystemCall, OneofGroup: "op"},
			},
		},
		{
			Name: TypeUploadContract,
			Fields: []FieldDef{
				{Name: "contract_id", Number: 1, Type: TypeBytes, Transform: transform.Base58},
				{Name: "bytecode", Number: 2, Type: TypeBytes, Transform: transform.Base64},
				{Name: "abi", Number: 3, Type: TypeString},
			},
		},
		{
			Name: TypeCallContract,
			Fields: []FieldDef{
				{Name: "contract_id", Number: 1, Type: TypeBytes, Transform: transform.Base58},
				{Name: "entry_point", Number: 2, Type: TypeUint32},
				{Name: "args", Number: 3, Type: TypeBytes, Transform: transform.Base64URL},
			},
		},
		{
			Name: TypeSetSystemCall,
			Fields: []FieldDef{
				{Name: "call_id", Number: 1, Type: TypeUint32},
				{Name: "target", Number: 2, Type: TypeMessage, MessageType: TypeSystemCallTarget},
			},
		},
		{
			Name: TypeSystemCallTarget,
			Fields: []FieldDef{
				{Name: "thunk_id", Number: 1, Type: TypeUint32, OneofGroup: "target"},
				{Name: "system_call_bundle", Number: 2, Type: TypeMessage, MessageType: TypeContractCallBundle, OneofGroup: "target"},
			},
		},
		{
			Name: TypeContractCallBundle,
			Fields: []FieldDef{
				{Name: "contract_id", Number: 1, Type: TypeBytes, Transform: transform.Base58},
				{Name: "entry_point", Number: 2, Type: TypeUint32},
			},
		},
		{
			Name: TypeBlockHeader,
			Fields: []FieldDef{
				{Name: "previous", Number: 1, Type: TypeBytes, Transform: transform.Hex},
				{Name: "height", Number: 2, Type: TypeUint64},
				{Name: "timestamp", Number: 3, Type: TypeUint64},
				{Name: "previous_state_merkle_root", Number: 4, Type: TypeBytes, Transform: transform.Base64URL},
				{Name: "transaction_merkle_root", Number: 5, Type: TypeBytes, Transform: transform.Base64URL},
				{Name: "signer", Number: 6, Type: TypeBytes, Transform: transform.Base58},
			},
		},
		{
			Name: TypeBlock,
			Fields: []FieldDef{
				{Name: "id", Number: 1, Type: TypeBytes, Transform: transform.Hex},
				{Name: "header", Number: 2, Type: TypeMessage, MessageType: TypeBlockHeader},
				{Name: "transactions", Number: 3, Type: TypeMessage, Rule: Repeated, MessageType: TypeTransaction},
				{Name: "signature", Number: 4, Type: TypeBytes, Transform: transform.Base64URL},
			},
		},
		{
			Name: TypeEventData,
			Fields: []FieldDef{
				{Name: "sequence", Number: 1, Type: TypeUint32},
				{Name: "source", Number: 2, Type: TypeBytes, Transform: transform.Base58},
				{Name: "name", Number: 3, Type: TypeString},
				{Name: "data", Number: 4, Type: TypeBytes, Transform: transform.Base64URL},
				{Name: "impacted", Number: 5, Type: TypeBytes, Rule: Repeated, Transform: transform.Base58},
			},
		},
		{
			Name: TypeObjectSpace,
			Fields: []FieldDef{
				{Name: "system", Number: 1, Type: TypeBool},
				{Name: "zone", Number: 2, Type: TypeBytes, Transform: transform.Base64URL},
				{Name: "id", Number: 3, Type: TypeUint32},
			},
		},
		{
			Name: TypeGenesisEntry,
			Fields: []FieldDef{
				{Name: "space", Number: 1, Type: TypeMessage, MessageType: TypeObjectSpace},
				{Name: "key", Number: 2, Type: TypeBytes, Transform: transform.Base64URL},
				{Name: "value", Number: 3, Type: TypeBytes, Transform: transform.Base64URL},
			},
		},
		{
			Name: TypeGenesisData,
			Fields: []FieldDef{
				{Name: "entries", Number: 1, Type: TypeMessage, Rule: Repeated, MessageType: TypeGenesisEntry},
			},
		},
		{
			Name: TypeResourceLimitData,
			Fields: []FieldDef{
				{Name: "disk_storage_limit", Number: 1, Type: TypeUint64},
				{Name: "disk_storage_cost", Number: 2, Type: TypeUint64},
				{Name: "network_bandwidth_limit", Number: 3, Type: TypeUint64},
				{Name: "network_bandwidth_cost", Number: 4, Type: TypeUint64},
				{Name: "compute_bandwidth_limit", Number: 5, Type: TypeUint64},
				{Name: "compute_bandwidth_cost", Number: 6, Type: TypeUint64},
			},
		},
		{
			Name: TypeMaxAccountRes,
			Fields: []FieldDef{
				{Name: "value", Number: 1, Type: TypeUint64},
			},
		},
		{
			Name: TypeValue,
			Fields: []FieldDef{
				{Name: "uint64_value", Number: 1, Type: TypeUint64, OneofGroup: "kind"},
				{Name: "int64_value", Number: 2, Type: TypeInt64, OneofGroup: "kind"},
				{Name: "bool_value", Number: 3, Type: TypeBool, OneofGroup: "kind"},
				{Name: "string_value", Number: 4, Type: TypeString, OneofGroup: "kind"},
				{Name: "bytes_value", Number: 5, Type: TypeBytes, Transform: transform.Base64URL, OneofGroup: "kind"},
			},
		},
		{
			Name: TypeSignatureRecord,
			Fields: []FieldDef{
				{Name: "dsa", Number: 1, Type: TypeEnum, EnumType: EnumDSA},
				{Name: "bytes", Number: 2, Type: TypeBytes, Transform: transform.Base64URL},
			},
		},
	}
}

func builtinEnums() []*EnumDef {
	return []*EnumDef{
		{
			Name: EnumDSA,
			Values: map[string]int32{
				"ecdsa_secp256k1": 0,
				"ed25519":         1,
			},
		},
	}
}
