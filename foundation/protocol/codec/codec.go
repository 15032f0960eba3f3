// Package codec implements the recursive schema-driven binary codec that
// converts between structured values and the protocol's canonical
// length-prefixed, tag-typed wire format.
package codec

import (
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
	"github.com/veloxchain/velox/foundation/protocol/schema"
)

// Set of errors for encode and decode failures.
var (
	ErrFieldTypeMismatch = errors.New("field type mismatch")
	ErrTruncatedInput    = errors.New("truncated input")
)

// Encode converts a structured value into the canonical wire bytes for
// the specified type. Fields are emitted in schema declaration order;
// absent fields are omitted.
func Encode(value map[string]any, typeName string, reg *schema.Registry) ([]byte, error) {
	ts, err := reg.Resolve(typeName)
	if err != nil {
		return nil, err
	}

	if err := checkOneofs(value, ts); err != nil {
		return nil, err
	}

	var buf []byte
	for i := range ts.Fields {
		f := &ts.Fields[i]

		v, exists := value[f.Name]
		if !exists || v == nil {
			continue
		}

		if f.Rule == schema.Repeated {
			buf, err = appendRepeated(buf, f, v, reg)
		} else {
			buf, err = appendField(buf, f, v, reg)
		}
		if err != nil {
			return nil, err
		}
	}

	return buf, nil
}

// Decode converts canonical wire bytes into a structured value of the
// specified type. It returns a fully formed value or an error; caller
// state is never partially mutated. Wire fields the schema does not
// declare are skipped for forward compatibility.
func Decode(data []byte, typeName string, reg *schema.Registry) (map[string]any, error) {
	ts, err := reg.Resolve(typeName)
	if err != nil {
		return nil, err
	}

	value := make(map[string]any)

	// Absent and empty repeated fields both surface as an empty
	// sequence so round trips are stable.
	for _, f := range ts.Fields {
		if f.Rule == schema.Repeated {
			value[f.Name] = []any{}
		}
	}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("type %s: %w", typeName, ErrTruncatedInput)
		}
		data = data[n:]

		f := ts.FieldByNumber(int32(num))
		if f == nil {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("type %s field %d: %w", typeName, num, ErrTruncatedInput)
			}
			data = data[n:]
			continue
		}

		data, err = consumeField(data, typ, ts, f, value, reg)
		if err != nil {
			return nil, fmt.Errorf("type %s field %s: %w", typeName, f.Name, err)
		}
	}

	return value, nil
}

// =============================================================================
// Encoding

// checkOneofs enforces that at most one member of every oneof group is
// populated in the input value.
func checkOneofs(value map[string]any, ts *schema.TypeSchema) error {
	active := make(map[string]string)
	for _, f := range ts.Fields {
		if f.OneofGroup == "" {
			continue
		}
		if v, exists := value[f.Name]; !exists || v == nil {
			continue
		}
		if prev, exists := active[f.OneofGroup]; exists {
			return fmt.Errorf("type %s oneof %s: members %q and %q both set: %w",
				ts.Name, f.OneofGroup, prev, f.Name, schema.ErrAmbiguousOneof)
		}
		active[f.OneofGroup] = f.Name
	}
	return nil
}

func appendField(buf []byte, f *schema.FieldDef, v any, reg *schema.Registry) ([]byte, error) {
	num := protowire.Number(f.Number)

	switch f.Type {
	case schema.TypeUint32, schema.TypeUint64:
		u, err := asUint64(f, v)
		if err != nil {
			return nil, err
		}
		buf = protowire.AppendTag(buf, num, protowire.VarintType)
		return protowire.AppendVarint(buf, u), nil

	case schema.TypeInt32, schema.TypeInt64:
		i, err := asInt64(f, v)
		if err != nil {
			return nil, err
		}
		buf = protowire.AppendTag(buf, num, protowire.VarintType)
		return protowire.AppendVarint(buf, uint64(i)), nil

	case schema.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(f, v, "bool")
		}
		buf = protowire.AppendTag(buf, num, protowire.VarintType)
		return protowire.AppendVarint(buf, protowire.EncodeBool(b)), nil

	case schema.TypeEnum:
		n, err := asEnumNumber(f, v, reg)
		if err != nil {
			return nil, err
		}
		buf = protowire.AppendTag(buf, num, protowire.VarintType)
		return protowire.AppendVarint(buf, uint64(n)), nil

	case schema.TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(f, v, "string")
		}
		buf = protowire.AppendTag(buf, num, protowire.BytesType)
		return protowire.AppendString(buf, s), nil

	case schema.TypeBytes:
		raw, err := asBytes(f, v)
		if err != nil {
			return nil, err
		}
		buf = protowire.AppendTag(buf, num, protowire.BytesType)
		return protowire.AppendBytes(buf, raw), nil

	case schema.TypeMessage:
		sub, ok := v.(map[string]any)
		if !ok {
			return nil, mismatch(f, v, "message")
		}
		enc, err := Encode(sub, f.MessageType, reg)
		if err != nil {
			return nil, err
		}
		buf = protowire.AppendTag(buf, num, protowire.BytesType)
		return protowire.AppendBytes(buf, enc), nil
	}

	return nil, mismatch(f, v, "known type")
}

// appendRepeated emits a sequence field. Varint scalars encode packed in
// a single length-delimited record; bytes, strings, and messages encode
// one record per element.
func appendRepeated(buf []byte, f *schema.FieldDef, v any, reg *schema.Registry) ([]byte, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, mismatch(f, v, "sequence")
	}
	if len(items) == 0 {
		return buf, nil
	}

	if isVarintScalar(f.Type) {
		var packed []byte
		for _, item := range items {
			u, err := scalarVarint(f, item, reg)
			if err != nil {
				return nil, err
			}
			packed = protowire.AppendVarint(packed, u)
		}
		buf = protowire.AppendTag(buf, protowire.Number(f.Number), protowire.BytesType)
		return protowire.AppendBytes(buf, packed), nil
	}

	var err error
	for _, item := range items {
		buf, err = appendField(buf, f, item, reg)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func isVarintScalar(t schema.FieldType) bool {
	switch t {
	case schema.TypeUint32, schema.TypeUint64, schema.TypeInt32, schema.TypeInt64, schema.TypeBool, schema.TypeEnum:
		return true
	}
	return false
}

func scalarVarint(f *schema.FieldDef, v any, reg *schema.Registry) (uint64, error) {
	switch f.Type {
	case schema.TypeUint32, schema.TypeUint64:
		return asUint64(f, v)
	case schema.TypeInt32, schema.TypeInt64:
		i, err := asInt64(f, v)
		return uint64(i), err
	case schema.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return 0, mismatch(f, v, "bool")
		}
		return protowire.EncodeBool(b), nil
	case schema.TypeEnum:
		n, err := asEnumNumber(f, v, reg)
		return uint64(n), err
	}
	return 0, mismatch(f, v, "scalar")
}

// =============================================================================
// Input value coercion

// asUint64 reads an unsigned numeric input. Wide numerics arrive as
// decimal strings from text-based callers; native Go integers are
// accepted for programmatic construction.
func asUint64(f *schema.FieldDef, v any) (uint64, error) {
	var u uint64

	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, mismatch(f, v, "decimal string")
		}
		u = parsed
	case uint64:
		u = n
	case uint32:
		u = uint64(n)
	case uint:
		u = uint64(n)
	case int:
		if n < 0 {
			return 0, mismatch(f, v, "unsigned")
		}
		u = uint64(n)
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, mismatch(f, v, "unsigned")
		}
		u = uint64(n)
	default:
		return 0, mismatch(f, v, "unsigned")
	}

	if f.Type == schema.TypeUint32 && u > maxUint32 {
		return 0, mismatch(f, v, "uint32 range")
	}
	return u, nil
}

func asInt64(f *schema.FieldDef, v any) (int64, error) {
	var i int64

	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, mismatch(f, v, "decimal string")
		}
		i = parsed
	case int64:
		i = n
	case int32:
		i = int64(n)
	case int:
		i = int64(n)
	case float64:
		if n != float64(int64(n)) {
			return 0, mismatch(f, v, "integer")
		}
		i = int64(n)
	default:
		return 0, mismatch(f, v, "integer")
	}

	if f.Type == schema.TypeInt32 && (i < minInt32 || i > maxInt32) {
		return 0, mismatch(f, v, "int32 range")
	}
	return i, nil
}

func asEnumNumber(f *schema.FieldDef, v any, reg *schema.Registry) (int32, error) {
	ed, err := reg.ResolveEnum(f.EnumType)
	if err != nil {
		return 0, err
	}

	switch n := v.(type) {
	case string:
		number, exists := ed.Values[n]
		if !exists {
			return 0, mismatch(f, v, "enum value name")
		}
		return number, nil
	case int32:
		return n, nil
	case int:
		return int32(n), nil
	case float64:
		return int32(n), nil
	}
	return 0, mismatch(f, v, "enum value")
}

// asBytes reads a byte field input: either raw bytes or a string in the
// field's declared transform encoding.
func asBytes(f *schema.FieldDef, v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return transform.ToBytes(f.Transform, b)
	}
	return nil, mismatch(f, v, "bytes")
}

const (
	maxUint32 = 1<<32 - 1
	maxInt32  = 1<<31 - 1
	minInt32  = -1 << 31
)

func mismatch(f *schema.FieldDef, v any, want string) error {
	return fmt.Errorf("field %s: %T is not a %s value: %w", f.Name, v, want, ErrFieldTypeMismatch)
}

// =============================================================================
// Decoding

// consumeField decodes one wire record into the value under
// construction and returns the remaining bytes.
func consumeField(data []byte, typ protowire.Type, ts *schema.TypeSchema, f *schema.FieldDef, value map[string]any, reg *schema.Registry) ([]byte, error) {

	// Packed sequence of varint scalars: a single length-delimited
	// record holding the concatenated elements.
	if f.Rule == schema.Repeated && isVarintScalar(f.Type) && typ == protowire.BytesType {
		packed, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, ErrTruncatedInput
		}
		seq := value[f.Name].([]any)
		for len(packed) > 0 {
			u, vn := protowire.ConsumeVarint(packed)
			if vn < 0 {
				return nil, ErrTruncatedInput
			}
			packed = packed[vn:]
			seq = append(seq, scalarValue(f, u, reg))
		}
		value[f.Name] = seq
		return data[n:], nil
	}

	var decoded any

	switch f.Type {
	case schema.TypeUint32, schema.TypeUint64, schema.TypeInt32, schema.TypeInt64, schema.TypeBool, schema.TypeEnum:
		if typ != protowire.VarintType {
			return nil, wireMismatch(typ)
		}
		u, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, ErrTruncatedInput
		}
		data = data[n:]
		decoded = scalarValue(f, u, reg)

	case schema.TypeString:
		if typ != protowire.BytesType {
			return nil, wireMismatch(typ)
		}
		s, n := protowire.ConsumeString(data)
		if n < 0 {
			return nil, ErrTruncatedInput
		}
		data = data[n:]
		decoded = s

	case schema.TypeBytes:
		if typ != protowire.BytesType {
			return nil, wireMismatch(typ)
		}
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, ErrTruncatedInput
		}
		data = data[n:]
		s, err := transform.ToString(f.Transform, raw)
		if err != nil {
			return nil, err
		}
		decoded = s

	case schema.TypeMessage:
		if typ != protowire.BytesType {
			return nil, wireMismatch(typ)
		}
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, ErrTruncatedInput
		}
		data = data[n:]
		sub, err := Decode(raw, f.MessageType, reg)
		if err != nil {
			return nil, err
		}
		decoded = sub

	default:
		return nil, wireMismatch(typ)
	}

	if f.Rule == schema.Repeated {
		value[f.Name] = append(value[f.Name].([]any), decoded)
		return data, nil
	}

	// Within a oneof group the member appearing last on the wire wins;
	// earlier members are cleared so at most one stays active.
	if f.OneofGroup != "" {
		for _, name := range ts.OneofMembers(f.OneofGroup) {
			if name != f.Name {
				delete(value, name)
			}
		}
	}

	value[f.Name] = decoded
	return data, nil
}

// scalarValue converts a decoded varint into its structured-value form.
// Wide numerics surface as decimal strings to avoid precision loss in
// text-based callers; 32-bit numerics stay native.
func scalarValue(f *schema.FieldDef, u uint64, reg *schema.Registry) any {
	switch f.Type {
	case schema.TypeUint32:
		return uint32(u)
	case schema.TypeUint64:
		return strconv.FormatUint(u, 10)
	case schema.TypeInt32:
		return int32(u)
	case schema.TypeInt64:
		return strconv.FormatInt(int64(u), 10)
	case schema.TypeBool:
		return protowire.DecodeBool(u)
	case schema.TypeEnum:
		if ed, err := reg.ResolveEnum(f.EnumType); err == nil {
			if name, exists := ed.NameOf(int32(u)); exists {
				return name
			}
		}
		return int32(u)
	}
	return u
}

func wireMismatch(typ protowire.Type) error {
	return fmt.Errorf("wire type %d: %w", typ, transform.ErrMalformedEncoding)
}
