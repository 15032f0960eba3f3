package chain

import (
	"github.com/veloxchain/velox/foundation/protocol/codec"
	"github.com/veloxchain/velox/foundation/protocol/codec/transform"
	"github.com/veloxchain/velox/foundation/protocol/schema"
)

// Event is a structured event emitted during transaction execution,
// decoded from the node's wire form.
type Event struct {
	Sequence uint32
	Source   string
	Name     string
	Data     []byte
	Impacted []string
}

// DecodeEvent converts event wire bytes into the structured form.
func DecodeEvent(data []byte, reg *schema.Registry) (Event, error) {
	value, err := codec.Decode(data, schema.TypeEventData, reg)
	if err != nil {
		return Event{}, err
	}

	var ev Event
	ev.Sequence, _ = value["sequence"].(uint32)
	ev.Source, _ = value["source"].(string)
	ev.Name, _ = value["name"].(string)

	if s, ok := value["data"].(string); ok {
		if ev.Data, err = transform.ToBytes(transform.Base64URL, s); err != nil {
			return Event{}, err
		}
	}

	if impacted, ok := value["impacted"].([]any); ok {
		for _, item := range impacted {
			if addr, ok := item.(string); ok {
				ev.Impacted = append(ev.Impacted, addr)
			}
		}
	}

	return ev, nil
}

// DecodeEvents converts an ordered list of event wire payloads,
// preserving order.
func DecodeEvents(payloads [][]byte, reg *schema.Registry) ([]Event, error) {
	events := make([]Event, 0, len(payloads))
	for _, data := range payloads {
		ev, err := DecodeEvent(data, reg)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
