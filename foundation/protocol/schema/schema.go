// Package schema maintains the named message-type definitions that drive
// the binary codec: field layout, nesting, oneof groups, enums, and the
// dictionary that maps opaque storage keys to the schema of their values.
package schema

import (
	"errors"
	"fmt"

	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
)

// Set of errors for schema resolution and shape violations.
var (
	ErrUnknownType    = errors.New("unknown type")
	ErrUnknownField   = errors.New("unknown field")
	ErrAmbiguousOneof = errors.New("ambiguous oneof")
)

// FieldType identifies the declared type of a field.
type FieldType int

// Set of supported field types.
const (
	TypeUint32 FieldType = iota
	TypeUint64
	TypeInt32
	TypeInt64
	TypeBool
	TypeEnum
	TypeString
	TypeBytes
	TypeMessage
)

// Rule identifies the cardinality of a field.
type Rule int

// Set of supported field rules.
const (
	Optional Rule = iota
	Repeated
)

// =============================================================================

// FieldDef describes a single field of a message type.
type FieldDef struct {
	Name        string
	Number      int32
	Type        FieldType
	Rule        Rule
	MessageType string         // Type name for TypeMessage fields.
	EnumType    string         // Enum name for TypeEnum fields.
	OneofGroup  string         // Non-empty when the field belongs to a oneof.
	Transform   transform.Kind // String encoding for TypeBytes fields.
}

// TypeSchema describes a named message type as an ordered list of fields.
type TypeSchema struct {
	Name   string
	Fields []FieldDef
}

// FieldByNumber returns the field carrying the specified wire number.
func (ts *TypeSchema) FieldByNumber(number int32) *FieldDef {
	for i := range ts.Fields {
		if ts.Fields[i].Number == number {
			return &ts.Fields[i]
		}
	}
	return nil
}

// FieldByName returns the field with the specified name.
func (ts *TypeSchema) FieldByName(name string) (*FieldDef, error) {
	for i := range ts.Fields {
		if ts.Fields[i].Name == name {
			return &ts.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("type %s field %q: %w", ts.Name, name, ErrUnknownField)
}

// OneofMembers returns the names of all fields belonging to the
// specified oneof group, in declaration order.
func (ts *TypeSchema) OneofMembers(group string) []string {
	var members []string
	for _, f := range ts.Fields {
		if f.OneofGroup != "" && f.OneofGroup == group {
			members = append(members, f.Name)
		}
	}
	return members
}

// validate checks the schema invariants: field numbers must be positive
// and unique within the type.
func (ts *TypeSchema) validate() error {
	seen := make(map[int32]string, len(ts.Fields))
	for _, f := range ts.Fields {
		if f.Number <= 0 {
			return fmt.Errorf("type %s field %q: number %d must be positive", ts.Name, f.Name, f.Number)
		}
		if prev, exists := seen[f.Number]; exists {
			return fmt.Errorf("type %s field %q: number %d already used by %q", ts.Name, f.Name, f.Number, prev)
		}
		seen[f.Number] = f.Name
	}
	return nil
}

// =============================================================================

// EnumDef describes a named enum as a two-way mapping between value
// names and their wire numbers.
type EnumDef struct {
	Name   string
	Values map[string]int32
}

// NameOf returns the name registered for the specified number.
func (ed *EnumDef) NameOf(number int32) (string, bool) {
	for name, n := range ed.Values {
		if n == number {
			return name, true
		}
	}
	return "", false
}

// =============================================================================

// Registry holds a set of message types and enums and provides lookup by
// name. A registry is read-only once constructed and is safe for
// concurrent use.
type Registry struct {
	types map[string]*TypeSchema
	enums map[string]*EnumDef
}

// NewRegistry constructs a registry from the specified types and enums,
// validating every schema's field-number invariants.
func NewRegistry(types []*TypeSchema, enums []*EnumDef) (*Registry, error) {
	reg := Registry{
		types: make(map[string]*TypeSchema, len(types)),
		enums: make(map[string]*EnumDef, len(enums)),
	}

	for _, ts := range types {
		if err := ts.validate(); err != nil {
			return nil, err
		}
		if _, exists := reg.types[ts.Name]; exists {
			return nil, fmt.Errorf("type %s: registered twice", ts.Name)
		}
		reg.types[ts.Name] = ts
	}

	for _, ed := range enums {
		reg.enums[ed.Name] = ed
	}

	return &reg, nil
}

// Resolve returns the schema registered under the specified type name.
func (r *Registry) Resolve(typeName string) (*TypeSchema, error) {
	ts, exists := r.types[typeName]
	if !exists {
		return nil, fmt.Errorf("type %q: %w", typeName, ErrUnknownType)
	}
	return ts, nil
}

// ResolveEnum returns the enum registered under the specified name.
func (r *Registry) ResolveEnum(name string) (*EnumDef, error) {
	ed, exists := r.enums[name]
	if !exists {
		return nil, fmt.Errorf("enum %q: %w", name, ErrUnknownType)
	}
	return ed, nil
}

// Extend constructs a new registry holding the union of this registry
// and the specified types and enums, with the new entries taking
// precedence. The receiver is not modified.
func (r *Registry) Extend(types []*TypeSchema, enums []*EnumDef) (*Registry, error) {
	union := Registry{
		types: make(map[string]*TypeSchema, len(r.types)+len(types)),
		enums: make(map[string]*EnumDef, len(r.enums)+len(enums)),
	}

	for name, ts := range r.types {
		union.types[name] = ts
	}
	for name, ed := range r.enums {
		union.enums[name] = ed
	}

	for _, ts := range types {
		if err := ts.validate(); err != nil {
			return nil, err
		}
		union.types[ts.Name] = ts
	}
	for _, ed := range enums {
		union.enums[ed.Name] = ed
	}

	return &union, nil
}
