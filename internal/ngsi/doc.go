// Package ngsi defines the dialect-neutral entity and attribute model
// shared by every pipeline in the bridge, together with the wire types
// for the two incompatible NGSI JSON dialects (v1 and v2) and the
// protocol error taxonomy.
//
// User handlers never see dialect-specific shapes: the codecs in this
// package convert both wire forms to and from Entity/Attribute, so a
// handler registered against a v1 deployment works unchanged against v2.
package ngsi
