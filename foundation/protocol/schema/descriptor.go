package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
)

// descriptorDoc is the JSON document form of a set of message types.
type descriptorDoc struct {
	Types []typeDoc `json:"types" validate:"required,min=1,dive"`
	Enums []enumDoc `json:"enums" validate:"omitempty,dive"`
}

type typeDoc struct {
	Name   string     `json:"name" validate:"required"`
	Fields []fieldDoc `json:"fields" validate:"required,min=1,dive"`
}

type fieldDoc struct {
	Name        string `json:"name" validate:"required"`
	Number      int32  `json:"number" validate:"required,gt=0"`
	Type        string `json:"type" validate:"required,oneof=uint32 uint64 int32 int64 bool enum string bytes message"`
	Rule        string `json:"rule" validate:"omitempty,oneof=optional repeated"`
	MessageType string `json:"message_type" validate:"required_if=Type message"`
	EnumType    string `json:"enum_type" validate:"required_if=Type enum"`
	Oneof       string `json:"oneof"`
	Transform   string `json:"transform" validate:"omitempty,oneof=raw base58 base58check base64 base64url hex"`
}

type enumDoc struct {
	Name   string           `json:"name" validate:"required"`
	Values map[string]int32 `json:"values" validate:"required,min=1"`
}

var fieldTypes = map[string]FieldType{
	"uint32":  TypeUint32,
	"uint64":  TypeUint64,
	"int32":   TypeInt32,
	"int64":   TypeInt64,
	"bool":    TypeBool,
	"enum":    TypeEnum,
	"string":  TypeString,
	"bytes":   TypeBytes,
	"message": TypeMessage,
}

// =============================================================================

// LoadDescriptor parses a JSON type-descriptor document into schemas and
// enums ready for registration.
func LoadDescriptor(data []byte) ([]*TypeSchema, []*EnumDef, error) {
	var doc descriptorDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing descriptor: %w", err)
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, nil, fmt.Errorf("validating descriptor: %w", err)
	}

	types := make([]*TypeSchema, 0, len(doc.Types))
	for _, td := range doc.Types {
		ts := TypeSchema{Name: td.Name}
		for _, fd := range td.Fields {
			kind, err := transform.Parse(fd.Transform)
			if err != nil {
				return nil, nil, fmt.Errorf("type %s field %s: %w", td.Name, fd.Name, err)
			}

			rule := Optional
			if fd.Rule == "repeated" {
				rule = Repeated
			}

			ts.Fields = append(ts.Fields, FieldDef{
				Name:        fd.Name,
				Number:      fd.Number,
				Type:        fieldTypes[fd.Type],
				Rule:        rule,
				MessageType: fd.MessageType,
				EnumType:    fd.EnumType,
				OneofGroup:  fd.Oneof,
				Transform:   kind,
			})
		}

		if err := ts.validate(); err != nil {
			return nil, nil, err
		}
		types = append(types, &ts)
	}

	enums := make([]*EnumDef, 0, len(doc.Enums))
	for _, ed := range doc.Enums {
		enums = append(enums, &EnumDef{Name: ed.Name, Values: ed.Values})
	}

	return types, enums, nil
}

// LoadDescriptorFile opens and consumes a JSON type-descriptor file.
func LoadDescriptorFile(path string) ([]*TypeSchema, []*EnumDef, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	return LoadDescriptor(content)
}
