package schema

import (
	"crypto/sha256"

	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
)

// Set of default dictionary aliases.
const (
	AliasGenesisKey          = "object_key::genesis_key"
	AliasResourceLimitData   = "object_key::resource_limit_data"
	AliasMaxAccountResources = "object_key::max_account_resources"
)

// Binding maps an opaque storage key (and its human-readable alias) to
// the schema needed to interpret the stored value. A binding carries
// either a message type name or, for plain byte values, a transform.
type Binding struct {
	Alias     string
	Key       []byte
	TypeName  string
	Transform transform.Kind
}

// ObjectKey derives the canonical storage key for an alias. Keys are the
// sha256 of the alias string so any party can derive them without a
// registry exchange.
func ObjectKey(alias string) []byte {
	key := sha256.Sum256([]byte(alias))
	return key[:]
}

// =============================================================================

// Dictionary provides lookup of bindings by storage key or alias. A
// dictionary is read-only once constructed and is safe for concurrent use.
type Dictionary struct {
	byKey   map[string]Binding
	byAlias map[string]Binding
}

// NewDictionary constructs a dictionary from the specified bindings.
// Bindings without an explicit key default to ObjectKey(alias).
func NewDictionary(bindings ...Binding) *Dictionary {
	dict := Dictionary{
		byKey:   make(map[string]Binding, len(bindings)),
		byAlias: make(map[string]Binding, len(bindings)),
	}
	dict.add(bindings)
	return &dict
}

// DefaultDictionary constructs the dictionary of built-in protocol
// object keys used for genesis storage entries.
func DefaultDictionary() *Dictionary {
	return NewDictionary(
		Binding{Alias: AliasGenesisKey, Transform: transform.Base58},
		Binding{Alias: AliasResourceLimitData, TypeName: TypeResourceLimitData},
		Binding{Alias: AliasMaxAccountResources, TypeName: TypeMaxAccountRes},
	)
}

// Extend constructs a new dictionary holding the union of this
// dictionary and the specified bindings, with the new bindings taking
// precedence. The receiver is not modified.
func (d *Dictionary) Extend(bindings ...Binding) *Dictionary {
	union := Dictionary{
		byKey:   make(map[string]Binding, len(d.byKey)+len(bindings)),
		byAlias: make(map[string]Binding, len(d.byAlias)+len(bindings)),
	}

	for k, b := range d.byKey {
		union.byKey[k] = b
	}
	for a, b := range d.byAlias {
		union.byAlias[a] = b
	}
	union.add(bindings)

	return &union
}

// ByKey returns the binding registered for the specified storage key.
func (d *Dictionary) ByKey(key []byte) (Binding, bool) {
	b, exists := d.byKey[string(key)]
	return b, exists
}

// ByAlias returns the binding registered for the specified alias.
func (d *Dictionary) ByAlias(alias string) (Binding, bool) {
	b, exists := d.byAlias[alias]
	return b, exists
}

func (d *Dictionary) add(bindings []Binding) {
	for _, b := range bindings {
		if b.Key == nil {
			b.Key = ObjectKey(b.Alias)
		}
		d.byKey[string(b.Key)] = b
		if b.Alias != "" {
			d.byAlias[b.Alias] = b
		}
	}
}
