package codec_test

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/veloxchain/velox/foundation/protocol/codec"
	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
	"github.com/veloxchain/velox/foundation/protocol/schema"
)

const (
	payerAddr   = "1BqtgWBcqm9cSZ97avLGZGJdgso7wx6pCA"
	payeeAddr   = "1AkwBvqLPRdPSQQn8AEbSukp7N2HK4JKsK"
	chainIDStr  = "dmVsb3gtbWFpbg"                                 // base64url("velox-main")
	merkleStr   = "EiCpLDbmaiXumf-GL6qOh5h75sfNE8PuZhxACkWw8eOxMg" // base64url multihash
	sigStr      = "c2lnbmF0dXJlLWJ5dGVz"
	argsStr     = "YXJncy1ieXRlcw"
	bytecodeStr = "AGFzbS1ieXRlY29kZQ=="

	// Canonical wire bytes for the header value in headerValue, computed
	// independently of this codec.
	headerHex = "0x0a0a76656c6f782d6d61696e10c0843d180522221220a92c36e66a25ee99ff862faa8e87987be6c7cd13c3ee661c400a45b0f1e3b1322a190076f05d7e0417775cb498af85734f3e551b08c08d5b0c459b"
)

func headerValue() map[string]any {
	return map[string]any{
		"chain_id":              chainIDStr,
		"rc_limit":              "1000000",
		"nonce":                 "5",
		"operation_merkle_root": merkleStr,
		"payer":                 payerAddr,
	}
}

// =============================================================================

func Test_HeaderGolden(t *testing.T) {
	reg := schema.Builtin()

	data, err := codec.Encode(headerValue(), schema.TypeTransactionHeader, reg)
	if err != nil {
		t.Fatalf("Should be able to encode the header: %s", err)
	}

	if got := hexutil.Encode(data); got != headerHex {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", headerHex)
		t.Fatalf("Should produce the canonical wire bytes.")
	}
}

func Test_TransactionRoundTrip(t *testing.T) {
	reg := schema.Builtin()

	value := map[string]any{
		"header": headerValue(),
		"operations": []any{
			map[string]any{
				"call_contract": map[string]any{
					"contract_id": payeeAddr,
					"entry_point": uint32(0x5c721497),
					"args":        argsStr,
				},
			},
			map[string]any{
				"upload_contract": map[string]any{
					"contract_id": payeeAddr,
					"bytecode":    bytecodeStr,
					"abi":         `{"methods":{}}`,
				},
			},
		},
		"signatures": []any{sigStr},
	}

	data, err := codec.Encode(value, schema.TypeTransaction, reg)
	if err != nil {
		t.Fatalf("Should be able to encode the transaction: %s", err)
	}

	back, err := codec.Decode(data, schema.TypeTransaction, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the transaction: %s", err)
	}

	if !reflect.DeepEqual(value, back) {
		t.Logf("got: %#v", back)
		t.Logf("exp: %#v", value)
		t.Fatalf("Should round-trip the transaction value.")
	}
}

func Test_WideNumericsAsStrings(t *testing.T) {
	reg := schema.Builtin()

	// Maximum uint64 survives the string representation without
	// precision loss.
	value := map[string]any{
		"rc_limit": "18446744073709551615",
		"nonce":    "1",
	}

	data, err := codec.Encode(value, schema.TypeTransactionHeader, reg)
	if err != nil {
		t.Fatalf("Should be able to encode max uint64: %s", err)
	}

	back, err := codec.Decode(data, schema.TypeTransactionHeader, reg)
	if err != nil {
		t.Fatalf("Should be able to decode max uint64: %s", err)
	}

	if back["rc_limit"] != "18446744073709551615" {
		t.Fatalf("Should surface uint64 as a decimal string: got %v", back["rc_limit"])
	}

	// Native integers encode to the same wire bytes as their decimal
	// string form.
	fromStrings, err := codec.Encode(map[string]any{"rc_limit": "1000000", "nonce": "5"}, schema.TypeTransactionHeader, reg)
	if err != nil {
		t.Fatalf("Should be able to encode string numerics: %s", err)
	}
	fromNative, err := codec.Encode(map[string]any{"rc_limit": uint64(1000000), "nonce": uint64(5)}, schema.TypeTransactionHeader, reg)
	if err != nil {
		t.Fatalf("Should accept native uint64 input: %s", err)
	}
	if !bytes.Equal(fromStrings, fromNative) {
		t.Fatalf("Should encode native and string numerics identically: %x vs %x", fromStrings, fromNative)
	}
}

func Test_AmbiguousOneof(t *testing.T) {
	reg := schema.Builtin()

	value := map[string]any{
		"call_contract":   map[string]any{"contract_id": payeeAddr, "entry_point": uint32(1)},
		"upload_contract": map[string]any{"contract_id": payeeAddr},
	}

	if _, err := codec.Encode(value, schema.TypeOperation, reg); !errors.Is(err, schema.ErrAmbiguousOneof) {
		t.Fatalf("Should reject two populated oneof members with ErrAmbiguousOneof: %v", err)
	}
}

func Test_OneofDecode(t *testing.T) {
	reg := schema.Builtin()

	value := map[string]any{
		"set_system_call": map[string]any{
			"call_id": uint32(9),
			"target":  map[string]any{"thunk_id": uint32(12)},
		},
	}

	data, err := codec.Encode(value, schema.TypeOperation, reg)
	if err != nil {
		t.Fatalf("Should be able to encode the operation: %s", err)
	}

	back, err := codec.Decode(data, schema.TypeOperation, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the operation: %s", err)
	}

	if _, exists := back["set_system_call"]; !exists {
		t.Fatal("Should make the member whose tag appears the active member.")
	}
	if _, exists := back["call_contract"]; exists {
		t.Fatal("Should not populate inactive oneof members.")
	}
}

func Test_RepeatedFields(t *testing.T) {
	reg := schema.Builtin()

	// Absent repeated fields decode to an empty sequence.
	doc, err := codec.Decode(nil, schema.TypeTransaction, reg)
	if err != nil {
		t.Fatalf("Should be able to decode empty bytes: %s", err)
	}
	ops, ok := doc["operations"].([]any)
	if !ok || len(ops) != 0 {
		t.Fatalf("Should surface absent repeated fields as an empty sequence: %v", doc["operations"])
	}

	// Order is preserved.
	value := map[string]any{
		"sequence": uint32(1),
		"name":     "koin.transfer",
		"impacted": []any{payeeAddr, payerAddr},
	}
	data, err := codec.Encode(value, schema.TypeEventData, reg)
	if err != nil {
		t.Fatalf("Should be able to encode the event: %s", err)
	}
	back, err := codec.Decode(data, schema.TypeEventData, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the event: %s", err)
	}
	impacted := back["impacted"].([]any)
	if len(impacted) != 2 || impacted[0] != payeeAddr || impacted[1] != payerAddr {
		t.Fatalf("Should preserve repeated element order: %v", impacted)
	}
}

func Test_PackedScalars(t *testing.T) {
	custom := &schema.TypeSchema{
		Name: "test.uint_list",
		Fields: []schema.FieldDef{
			{Name: "values", Number: 1, Type: schema.TypeUint32, Rule: schema.Repeated},
		},
	}
	reg, err := schema.Builtin().Extend([]*schema.TypeSchema{custom}, nil)
	if err != nil {
		t.Fatalf("Should be able to extend the registry: %s", err)
	}

	value := map[string]any{"values": []any{uint32(3), uint32(270), uint32(86942)}}

	data, err := codec.Encode(value, "test.uint_list", reg)
	if err != nil {
		t.Fatalf("Should be able to encode the list: %s", err)
	}

	// Varint scalars pack into a single length-delimited record.
	if got := hexutil.Encode(data); got != "0x0a06038e029ea705" {
		t.Fatalf("Should encode repeated varints packed: got %s", got)
	}

	back, err := codec.Decode(data, "test.uint_list", reg)
	if err != nil {
		t.Fatalf("Should be able to decode the packed list: %s", err)
	}
	if !reflect.DeepEqual(value, back) {
		t.Fatalf("Should round-trip the packed list: %v", back)
	}

	// The decoder also accepts the unpacked form.
	unpacked, _ := hexutil.Decode("0x0803088e02089ea705")
	back, err = codec.Decode(unpacked, "test.uint_list", reg)
	if err != nil {
		t.Fatalf("Should be able to decode the unpacked list: %s", err)
	}
	if !reflect.DeepEqual(value, back) {
		t.Fatalf("Should round-trip the unpacked list: %v", back)
	}
}

func Test_EnumFields(t *testing.T) {
	reg := schema.Builtin()

	value := map[string]any{
		"dsa":   "ecdsa_secp256k1",
		"bytes": sigStr,
	}

	data, err := codec.Encode(value, schema.TypeSignatureRecord, reg)
	if err != nil {
		t.Fatalf("Should be able to encode an enum by name: %s", err)
	}

	back, err := codec.Decode(data, schema.TypeSignatureRecord, reg)
	if err != nil {
		t.Fatalf("Should be able to decode the record: %s", err)
	}
	if back["dsa"] != "ecdsa_secp256k1" {
		t.Fatalf("Should surface the enum value name: got %v", back["dsa"])
	}

	if _, err := codec.Encode(map[string]any{"dsa": "bogus"}, schema.TypeSignatureRecord, reg); !errors.Is(err, codec.ErrFieldTypeMismatch) {
		t.Fatalf("Should reject an unknown enum name: %v", err)
	}
}

func Test_TypeMismatch(t *testing.T) {
	reg := schema.Builtin()

	cases := []map[string]any{
		{"rc_limit": "not-a-number"},
		{"rc_limit": -1},
		{"chain_id": 42},
		{"payer": []any{}},
	}

	for _, value := range cases {
		if _, err := codec.Encode(value, schema.TypeTransactionHeader, reg); !errors.Is(err, codec.ErrFieldTypeMismatch) {
			t.Fatalf("Should reject %v with ErrFieldTypeMismatch: %v", value, err)
		}
	}
}

func Test_TruncatedInput(t *testing.T) {
	reg := schema.Builtin()

	data, err := codec.Encode(headerValue(), schema.TypeTransactionHeader, reg)
	if err != nil {
		t.Fatalf("Should be able to encode the header: %s", err)
	}

	// Cutting the wire bytes mid-field must fail, not partially decode.
	if _, err := codec.Decode(data[:len(data)-4], schema.TypeTransactionHeader, reg); !errors.Is(err, codec.ErrTruncatedInput) {
		t.Fatalf("Should reject truncated bytes with ErrTruncatedInput: %v", err)
	}
}

func Test_UnknownFieldsSkipped(t *testing.T) {
	extended := &schema.TypeSchema{
		Name: "test.extended_header",
		Fields: []schema.FieldDef{
			{Name: "rc_limit", Number: 2, Type: schema.TypeUint64},
			{Name: "nonce", Number: 3, Type: schema.TypeUint64},
			{Name: "future_field", Number: 99, Type: schema.TypeString},
		},
	}
	reg, err := schema.Builtin().Extend([]*schema.TypeSchema{extended}, nil)
	if err != nil {
		t.Fatalf("Should be able to extend the registry: %s", err)
	}

	value := map[string]any{
		"rc_limit":     "7",
		"nonce":        "8",
		"future_field": "from the future",
	}

	data, err := codec.Encode(value, "test.extended_header", reg)
	if err != nil {
		t.Fatalf("Should be able to encode the extended value: %s", err)
	}

	back, err := codec.Decode(data, schema.TypeTransactionHeader, reg)
	if err != nil {
		t.Fatalf("Should skip fields the schema does not declare: %s", err)
	}
	if back["rc_limit"] != "7" || back["nonce"] != "8" {
		t.Fatalf("Should decode the declared fields: %v", back)
	}
}

func Test_UnknownType(t *testing.T) {
	reg := schema.Builtin()

	if _, err := codec.Encode(map[string]any{}, "chain.bogus", reg); !errors.Is(err, schema.ErrUnknownType) {
		t.Fatalf("Should fail encoding an unknown type with ErrUnknownType: %v", err)
	}
	if _, err := codec.Decode(nil, "chain.bogus", reg); !errors.Is(err, schema.ErrUnknownType) {
		t.Fatalf("Should fail decoding an unknown type with ErrUnknownType: %v", err)
	}
}

func Test_NestedMessages(t *testing.T) {
	reg := schema.Builtin()

	value := map[string]any{
		"call_id": uint32(11),
		"target": map[string]any{
			"system_call_bundle": map[string]any{
				"contract_id": payeeAddr,
				"entry_point": uint32(0x2a),
			},
		},
	}

	data, err := codec.Encode(value, schema.TypeSetSystemCall, reg)
	if err != nil {
		t.Fatalf("Should be able to encode nested messages: %s", err)
	}

	back, err := codec.Decode(data, schema.TypeSetSystemCall, reg)
	if err != nil {
		t.Fatalf("Should be able to decode nested messages: %s", err)
	}
	if !reflect.DeepEqual(value, back) {
		t.Logf("got: %#v", back)
		t.Logf("exp: %#v", value)
		t.Fatalf("Should round-trip nested messages.")
	}
}

// =============================================================================

func Test_MalformedTransformOnEncode(t *testing.T) {
	reg := schema.Builtin()

	value := map[string]any{"chain_id": "not$base64url!"}

	if _, err := codec.Encode(value, schema.TypeTransactionHeader, reg); !errors.Is(err, transform.ErrMalformedEncoding) {
		t.Fatalf("Should surface the transform error: %v", err)
	}
}
