package ngsi

// Well-known attribute types with coercion rules in the expression
// engine. Any other declared type is treated as a string.
const (
	TypeNumber  = "Number"
	TypeBoolean = "Boolean"
	TypeNone    = "None"

	// DefaultAttributeType is used when a device declaration carries no
	// type for an attribute.
	DefaultAttributeType = "string"
)

// CommandStatusPending is the value written to <command>_status when a
// command has been accepted but not yet executed by the device.
const CommandStatusPending = "PENDING"

// Dialect identifies one of the two supported wire dialects.
type Dialect string

// Supported dialects.
const (
	DialectV1 Dialect = "v1"
	DialectV2 Dialect = "v2"
)

// Attribute is the dialect-neutral (name, type, value) triple.
//
// ObjectID and Expression come from device declarations, not from the
// wire: ObjectID is the southbound alias of the attribute (propagated
// to outputs only in v2 deployments) and Expression is an optional
// derivation rule evaluated by the expression engine.
type Attribute struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Value      any    `json:"value"`
	ObjectID   string `json:"object_id,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// Entity is an addressable thing identified by (id, type) with a set of
// attributes. It is the only entity shape user handlers ever see.
type Entity struct {
	ID         string
	Type       string
	Attributes []Attribute
}

// Attribute returns the attribute with the given name, or false.
func (e *Entity) Attribute(name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttributeNames lists the names of attributes in declaration order.
func AttributeNames(attrs []Attribute) []string {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}
