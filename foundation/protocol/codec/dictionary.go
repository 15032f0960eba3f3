package codec

import (
	"fmt"

	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
	"github.com/veloxchain/velox/foundation/protocol/schema"
)

// Entry is a single opaque key/value storage pair, such as a genesis
// storage entry. The concrete schema of Value is resolved through a
// dictionary using Key, or Alias when Key is not set.
type Entry struct {
	Space map[string]any
	Key   []byte
	Alias string
	Value any
}

// EncodeEntry converts an entry's value into wire bytes, resolving its
// schema through the dictionary. Keys the dictionary does not know are
// not an error: their value must be a base64url string and passes
// through as raw bytes, so arbitrary unregistered keys stay
// representable.
func EncodeEntry(e Entry, reg *schema.Registry, dict *schema.Dictionary) (key []byte, value []byte, err error) {
	key = e.Key
	binding, bound := schema.Binding{}, false

	if key == nil {
		if binding, bound = dict.ByAlias(e.Alias); !bound {
			key = schema.ObjectKey(e.Alias)
		} else {
			key = binding.Key
		}
	} else {
		binding, bound = dict.ByKey(key)
	}

	switch {
	case bound && binding.TypeName != "":
		sub, ok := e.Value.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("entry %q: %T is not a message value: %w", e.Alias, e.Value, ErrFieldTypeMismatch)
		}
		value, err = Encode(sub, binding.TypeName, reg)

	case bound:
		s, ok := e.Value.(string)
		if !ok {
			return nil, nil, fmt.Errorf("entry %q: %T is not a string value: %w", e.Alias, e.Value, ErrFieldTypeMismatch)
		}
		value, err = transform.ToBytes(binding.Transform, s)

	default:
		s, ok := e.Value.(string)
		if !ok {
			return nil, nil, fmt.Errorf("entry %q: %T is not a string value: %w", e.Alias, e.Value, ErrFieldTypeMismatch)
		}
		value, err = transform.ToBytes(transform.Base64URL, s)
	}
	if err != nil {
		return nil, nil, err
	}

	return key, value, nil
}

// DecodeEntry converts a key/value byte pair back into a structured
// entry, resolving the value's schema through the dictionary. Unknown
// keys yield a raw base64url value and no alias.
func DecodeEntry(space map[string]any, key []byte, value []byte, reg *schema.Registry, dict *schema.Dictionary) (Entry, error) {
	e := Entry{
		Space: space,
		Key:   key,
	}

	binding, bound := dict.ByKey(key)

	switch {
	case bound && binding.TypeName != "":
		sub, err := Decode(value, binding.TypeName, reg)
		if err != nil {
			return Entry{}, err
		}
		e.Alias = binding.Alias
		e.Value = sub

	case bound:
		s, err := transform.ToString(binding.Transform, value)
		if err != nil {
			return Entry{}, err
		}
		e.Alias = binding.Alias
		e.Value = s

	default:
		s, err := transform.ToString(transform.Base64URL, value)
		if err != nil {
			return Entry{}, err
		}
		e.Value = s
	}

	return e, nil
}

// =============================================================================

// EncodeGenesisData converts a set of entries into the wire bytes of a
// genesis data document.
func EncodeGenesisData(entries []Entry, reg *schema.Registry, dict *schema.Dictionary) ([]byte, error) {
	values := make([]any, 0, len(entries))

	for _, e := range entries {
		key, value, err := EncodeEntry(e, reg, dict)
		if err != nil {
			return nil, err
		}

		entry := map[string]any{
			"key":   key,
			"value": value,
		}
		if e.Space != nil {
			entry["space"] = e.Space
		}
		values = append(values, entry)
	}

	return Encode(map[string]any{"entries": values}, schema.TypeGenesisData, reg)
}

// DecodeGenesisData converts genesis data wire bytes back into
// structured entries, restoring aliases for keys the dictionary knows.
func DecodeGenesisData(data []byte, reg *schema.Registry, dict *schema.Dictionary) ([]Entry, error) {
	doc, err := Decode(data, schema.TypeGenesisData, reg)
	if err != nil {
		return nil, err
	}

	raw := doc["entries"].([]any)
	entries := make([]Entry, 0, len(raw))

	for _, item := range raw {
		ev := item.(map[string]any)

		var space map[string]any
		if s, exists := ev["space"]; exists {
			space, _ = s.(map[string]any)
		}

		key, err := entryBytes(ev, "key")
		if err != nil {
			return nil, err
		}
		value, err := entryBytes(ev, "value")
		if err != nil {
			return nil, err
		}

		e, err := DecodeEntry(space, key, value, reg, dict)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// entryBytes reads a base64url-transformed bytes field back out of a
// decoded genesis entry value.
func entryBytes(value map[string]any, name string) ([]byte, error) {
	s, exists := value[name]
	if !exists {
		return nil, nil
	}

	str, ok := s.(string)
	if !ok {
		return nil, fmt.Errorf("genesis entry %s: %T is not a string: %w", name, s, ErrFieldTypeMismatch)
	}
	return transform.ToBytes(transform.Base64URL, str)
}
