package ngsi

// NGSI v1 wire shapes. One addressable thing is a context element with
// an explicit attribute array; status codes travel as strings.

// V1Attribute is an attribute as it appears on the v1 wire.
type V1Attribute struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value"`
}

// V1ContextElement is the v1 representation of an entity.
type V1ContextElement struct {
	ID         string        `json:"id"`
	Type       string        `json:"type,omitempty"`
	IsPattern  string        `json:"isPattern,omitempty"`
	Attributes []V1Attribute `json:"attributes,omitempty"`
}

// V1EntityRef addresses an entity in a v1 query.
type V1EntityRef struct {
	ID        string `json:"id"`
	Type      string `json:"type,omitempty"`
	IsPattern string `json:"isPattern,omitempty"`
}

// V1UpdateRequest is the body of POST /v1/updateContext.
type V1UpdateRequest struct {
	ContextElements []V1ContextElement `json:"contextElements"`
	UpdateAction    string             `json:"updateAction,omitempty"`
}

// V1QueryRequest is the body of POST /v1/queryContext.
type V1QueryRequest struct {
	Entities   []V1EntityRef `json:"entities"`
	Attributes []string      `json:"attributes,omitempty"`
}

// V1StatusCode is the v1 status/error carrier. Code is a string on the
// wire ("200", "404", ...).
type V1StatusCode struct {
	Code         string `json:"code"`
	ReasonPhrase string `json:"reasonPhrase"`
	Details      string `json:"details,omitempty"`
}

// V1ContextResponse pairs a context element with its status.
type V1ContextResponse struct {
	ContextElement V1ContextElement `json:"contextElement"`
	StatusCode     V1StatusCode     `json:"statusCode"`
}

// V1Response is the success body of v1 update and query operations.
type V1Response struct {
	ContextResponses []V1ContextResponse `json:"contextResponses"`
}

// V1ErrorResponse is the v1 error body.
type V1ErrorResponse struct {
	ErrorCode V1StatusCode `json:"errorCode"`
}

// V1Notification is the body of POST /notify in a v1 deployment.
type V1Notification struct {
	SubscriptionID   string              `json:"subscriptionId"`
	Originator       string              `json:"originator,omitempty"`
	ContextResponses []V1ContextResponse `json:"contextResponses"`
}

// V1StatusOK is the status code every successful v1 record carries.
const V1StatusOK = "200"

// Entity converts a v1 context element to the neutral shape.
func (ce V1ContextElement) Entity() Entity {
	attrs := make([]Attribute, len(ce.Attributes))
	for i, a := range ce.Attributes {
		attrs[i] = Attribute{Name: a.Name, Type: a.Type, Value: a.Value}
	}
	return Entity{
		ID:         ce.ID,
		Type:       ce.Type,
		Attributes: attrs,
	}
}

// V1ElementFromEntity converts a neutral entity to the v1 wire shape.
func V1ElementFromEntity(e Entity) V1ContextElement {
	attrs := make([]V1Attribute, len(e.Attributes))
	for i, a := range e.Attributes {
		attrs[i] = V1Attribute{Name: a.Name, Type: a.Type, Value: a.Value}
	}
	return V1ContextElement{
		ID:         e.ID,
		Type:       e.Type,
		IsPattern:  "false",
		Attributes: attrs,
	}
}

// V1BlankedElement converts an entity to the v1 wire shape with every
// attribute value blanked. Update responses acknowledge writes; the
// broker does not need the values echoed back.
func V1BlankedElement(e Entity) V1ContextElement {
	ce := V1ElementFromEntity(e)
	for i := range ce.Attributes {
		ce.Attributes[i].Value = ""
	}
	return ce
}
