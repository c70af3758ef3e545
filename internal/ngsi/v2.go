package ngsi

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NGSI v2 wire shapes. An entity is a flat JSON object: the reserved
// keys id and type, and one {type, value, metadata} object per
// attribute.

// V2Attribute is the value side of an attribute key in a v2 entity.
type V2Attribute struct {
	Type     string         `json:"type,omitempty"`
	Value    any            `json:"value"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// V2Entity is a v2 entity object. It marshals to and from the flat
// shape while being backed by the neutral Entity model.
type V2Entity struct {
	Entity
}

// v2ReservedKeys are entity-object keys that are not attributes.
func v2Reserved(key string) bool {
	return key == "id" || key == "type"
}

// UnmarshalJSON decodes the flat v2 entity object. Attribute order on
// the wire is not significant; attributes are sorted by name so the
// decoded shape is deterministic.
func (e *V2Entity) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding v2 entity: %w", err)
	}

	if idRaw, ok := raw["id"]; ok {
		if err := json.Unmarshal(idRaw, &e.ID); err != nil {
			return fmt.Errorf("decoding v2 entity id: %w", err)
		}
	}
	if typeRaw, ok := raw["type"]; ok {
		if err := json.Unmarshal(typeRaw, &e.Type); err != nil {
			return fmt.Errorf("decoding v2 entity type: %w", err)
		}
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		if !v2Reserved(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	e.Attributes = e.Attributes[:0]
	for _, key := range keys {
		var attr V2Attribute
		if err := json.Unmarshal(raw[key], &attr); err != nil {
			return fmt.Errorf("decoding v2 attribute %q: %w", key, err)
		}
		e.Attributes = append(e.Attributes, Attribute{
			Name:  key,
			Type:  attr.Type,
			Value: attr.Value,
		})
	}

	return nil
}

// MarshalJSON encodes the entity in the flat v2 shape.
func (e V2Entity) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(e.Attributes)+2)
	obj["id"] = e.ID
	if e.Type != "" {
		obj["type"] = e.Type
	}
	for _, a := range e.Attributes {
		attr := V2Attribute{Type: a.Type, Value: a.Value}
		if a.ObjectID != "" {
			attr.Metadata = map[string]any{
				"object_id": map[string]any{"type": "string", "value": a.ObjectID},
			}
		}
		obj[a.Name] = attr
	}
	return json.Marshal(obj)
}

// V2EntityRef addresses entities in a v2 batch operation.
type V2EntityRef struct {
	ID        string `json:"id,omitempty"`
	IDPattern string `json:"idPattern,omitempty"`
	Type      string `json:"type,omitempty"`
}

// V2UpdateRequest is the body of POST /v2/op/update.
type V2UpdateRequest struct {
	ActionType string     `json:"actionType,omitempty"`
	Entities   []V2Entity `json:"entities"`
}

// V2QueryRequest is the body of POST /v2/op/query.
type V2QueryRequest struct {
	Entities []V2EntityRef `json:"entities"`
	Attrs    []string      `json:"attrs,omitempty"`
}

// V2Notification is the body of POST /notify in a v2 deployment.
type V2Notification struct {
	SubscriptionID string     `json:"subscriptionId"`
	Data           []V2Entity `json:"data"`
}

// V2ErrorResponse is the v2 error body.
type V2ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}
