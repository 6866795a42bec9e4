package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for the structural parts of schema validation that are
// detected during JSON decoding itself, before cross-reference checks run.
var (
	ErrInvalidPrimitiveTag  = errors.New("invalid primitive tag")
	ErrEmptyArraySchema     = errors.New("array-of-object schema must have exactly one element")
	ErrInvalidFieldSchema   = errors.New("field schema must be a primitive tag, a flat object, or a one-element array of flat objects")
	ErrInvalidFieldMapping  = errors.New("field mapping must be a source field name, {from}, {const}, or an object/array mapping")
	ErrInvalidScalarMapping = errors.New("scalar mapping must have \"from\" or \"const\"")
	ErrInvalidActionType    = errors.New("action \"type\" must be \"set-state\" or \"emit\"")
)

// UnmarshalJSON decodes a PayloadSchema field value: a primitive tag
// string, a flat-object schema, or a one-element array of a flat-object
// schema.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty value", ErrInvalidFieldSchema)
	}

	switch trimmed[0] {
	case '"':
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFieldSchema, err)
		}

		if !IsValidPrimitiveTag(tag) {
			return fmt.Errorf("%w: %q", ErrInvalidPrimitiveTag, tag)
		}

		t.Kind = KindPrimitive
		t.Primitive = tag

		return nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFieldSchema, err)
		}

		if len(elems) != 1 {
			return fmt.Errorf("%w: got %d elements", ErrEmptyArraySchema, len(elems))
		}

		obj, err := unmarshalFlatObject(elems[0])
		if err != nil {
			return err
		}

		t.Kind = KindArray
		t.Object = obj

		return nil
	case '{':
		obj, err := unmarshalFlatObject(data)
		if err != nil {
			return err
		}

		t.Kind = KindObject
		t.Object = obj

		return nil
	default:
		return fmt.Errorf("%w: unrecognized JSON value", ErrInvalidFieldSchema)
	}
}

// unmarshalFlatObject decodes a flat-object schema: a mapping from
// sub-field name to primitive tag. Because the target is
// map[string]string, any nested object or array value fails to decode,
// which is exactly the "no further nesting" rule.
func unmarshalFlatObject(data []byte) (map[string]string, error) {
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFieldSchema, err)
	}

	for field, tag := range obj {
		if !IsValidPrimitiveTag(tag) {
			return nil, fmt.Errorf("%w: field %q has tag %q", ErrInvalidPrimitiveTag, field, tag)
		}
	}

	return obj, nil
}

// MarshalJSON encodes a FieldType back to the canonical wire shape.
func (t FieldType) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case KindPrimitive:
		return json.Marshal(t.Primitive)
	case KindObject:
		return json.Marshal(t.Object)
	case KindArray:
		return json.Marshal([1]map[string]string{t.Object})
	default:
		return nil, fmt.Errorf("scenario: unknown FieldType kind %d", t.Kind)
	}
}

// UnmarshalJSON decodes a Scalar: a bare source field name, {"from": ...}
// or {"const": ...}.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}

		s.From = name

		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScalarMapping, err)
	}

	if constRaw, ok := raw["const"]; ok {
		var v interface{}
		if err := json.Unmarshal(constRaw, &v); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScalarMapping, err)
		}

		s.Const = v
		s.HasConst = true

		return nil
	}

	if fromRaw, ok := raw["from"]; ok {
		var name string
		if err := json.Unmarshal(fromRaw, &name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScalarMapping, err)
		}

		s.From = name

		return nil
	}

	return ErrInvalidScalarMapping
}

// MarshalJSON encodes a Scalar back to the canonical {"from": ...} or
// {"const": ...} shape.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.HasConst {
		return json.Marshal(map[string]interface{}{"const": s.Const})
	}

	return json.Marshal(map[string]string{"from": s.From})
}

// UnmarshalJSON decodes a FieldMapping: a Scalar shorthand, or an
// object/array sub-mapping distinguished by the presence of "map".
func (f *FieldMapping) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '"') {
		var scalar Scalar
		if err := scalar.UnmarshalJSON(data); err != nil {
			return err
		}

		f.Kind = MappingScalar
		f.Scalar = scalar

		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFieldMapping, err)
	}

	mapRaw, hasMap := raw["map"]
	if !hasMap {
		var scalar Scalar
		if err := scalar.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFieldMapping, err)
		}

		f.Kind = MappingScalar
		f.Scalar = scalar

		return nil
	}

	var subMap map[string]Scalar
	if err := json.Unmarshal(mapRaw, &subMap); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFieldMapping, err)
	}

	if arrayFromRaw, ok := raw["arrayFrom"]; ok {
		var arrayFrom string
		if err := json.Unmarshal(arrayFromRaw, &arrayFrom); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFieldMapping, err)
		}

		f.Kind = MappingArray
		f.ArrayFrom = arrayFrom
		f.Map = subMap

		return nil
	}

	f.Kind = MappingObject
	f.Map = subMap

	if objectFromRaw, ok := raw["objectFrom"]; ok {
		var objectFrom string
		if err := json.Unmarshal(objectFromRaw, &objectFrom); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFieldMapping, err)
		}

		f.ObjectFrom = objectFrom
	}

	return nil
}

// MarshalJSON encodes a FieldMapping back to the canonical wire shape.
func (f FieldMapping) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case MappingScalar:
		return f.Scalar.MarshalJSON()
	case MappingObject:
		m := map[string]interface{}{"map": f.Map}
		if f.ObjectFrom != "" {
			m["objectFrom"] = f.ObjectFrom
		}

		return json.Marshal(m)
	case MappingArray:
		return json.Marshal(map[string]interface{}{"arrayFrom": f.ArrayFrom, "map": f.Map})
	default:
		return nil, fmt.Errorf("scenario: unknown FieldMapping kind %d", f.Kind)
	}
}

// actionWire is the discriminated-union wire shape for Action.
type actionWire struct {
	Type     string      `json:"type"`
	Status   string      `json:"status,omitempty"`
	Event    string      `json:"event,omitempty"`
	ToDomain string      `json:"toDomain,omitempty"`
	Mapping  EmitMapping `json:"mapping,omitempty"`
}

// UnmarshalJSON decodes an Action using its "type" discriminator.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw actionWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch ActionKind(raw.Type) {
	case ActionSetState:
		a.Kind = ActionSetState
		a.Status = raw.Status
	case ActionEmit:
		a.Kind = ActionEmit
		a.Event = raw.Event
		a.Mapping = raw.Mapping

		// Distinguish "toDomain omitted" from "toDomain explicitly set"
		// by re-checking the raw object, since encoding/json collapses
		// a missing key and an empty string to the same zero value.
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err == nil {
			if _, present := probe["toDomain"]; present {
				a.HasToDomain = true
				a.ToDomain = raw.ToDomain
			}
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidActionType, raw.Type)
	}

	return nil
}

// MarshalJSON encodes an Action back to its canonical discriminated shape.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ActionSetState:
		return json.Marshal(actionWire{Type: string(ActionSetState), Status: a.Status})
	case ActionEmit:
		wire := actionWire{Type: string(ActionEmit), Event: a.Event, Mapping: a.Mapping}
		if a.HasToDomain {
			wire.ToDomain = a.ToDomain
		}

		return json.Marshal(wire)
	default:
		return nil, fmt.Errorf("scenario: unknown Action kind %q", a.Kind)
	}
}
