package mapping

import (
	"fmt"

	"github.com/correlator-io/correlator/internal/kernelerrors"
)

// Warning is an alias for the shared non-fatal mapping finding type.
type Warning = kernelerrors.MappingWarning

// Evaluate produces the outbound payload for an emit action: it applies m
// against source (the inbound event's data) to build a record matching
// dest. Missing or mistyped fields are never fatal — they are skipped and
// reported as warnings, so a buggy mapping still emits a best-effort
// envelope instead of stalling the saga.
func Evaluate(source map[string]interface{}, dest Schema, m Mapping) (map[string]interface{}, []Warning) {
	out := make(map[string]interface{}, len(dest))

	var warnings []Warning

	for _, destField := range sortedSchemaKeys(dest) {
		destType := dest[destField]

		fm, ok := m[destField]
		if !ok {
			continue // no mapping for this destination field: omit it, already flagged statically
		}

		value, fieldWarnings := evaluateField(source, destField, destType, fm)
		warnings = append(warnings, fieldWarnings...)

		if value != nil {
			out[destField] = value
		}
	}

	return out, warnings
}

func evaluateField(source map[string]interface{}, destField string, destType FieldSchema, fm FieldMappingSpec) (interface{}, []Warning) {
	switch destType.Kind {
	case KindPrimitive:
		return evaluateScalar(source, destField, destType.Primitive, fm.ScalarSpec)
	case KindObject:
		return evaluateObject(source, destField, destType, fm)
	case KindArray:
		return evaluateArray(source, destField, destType, fm)
	default:
		return nil, nil
	}
}

func evaluateScalar(source map[string]interface{}, fieldPath, destPrimitive string, s ScalarSpec) (interface{}, []Warning) {
	if s.HasConst {
		if !constMatchesPrimitive(s.Const, destPrimitive) {
			return nil, []Warning{{Path: fieldPath, Message: fmt.Sprintf("const literal does not match destination type %q", destPrimitive)}}
		}

		return s.Const, nil
	}

	v, present := source[s.From]
	if !present {
		return nil, []Warning{{Path: fieldPath, Message: fmt.Sprintf("field %q is missing in source payload", s.From)}}
	}

	if !valueMatchesPrimitive(v, destPrimitive) {
		return nil, []Warning{{Path: fieldPath, Message: fmt.Sprintf("field %q has the wrong type for destination type %q", s.From, destPrimitive)}}
	}

	return v, nil
}

func evaluateObject(source map[string]interface{}, destField string, destType FieldSchema, fm FieldMappingSpec) (interface{}, []Warning) {
	var warnings []Warning

	base := source

	if fm.ObjectFrom != "" {
		v, present := source[fm.ObjectFrom]
		record, ok := asRecord(v)

		if !present || !ok {
			warnings = append(warnings, Warning{Path: destField, Message: fmt.Sprintf("field %q is missing or not a record in source payload", fm.ObjectFrom)})
			base = nil
		} else {
			base = record
		}
	}

	result := make(map[string]interface{}, len(destType.Object))

	for _, destSub := range sortedStringKeys(destType.Object) {
		destPrimitive := destType.Object[destSub]

		scalar, ok := fm.Map[destSub]
		if !ok {
			continue
		}

		path := fmt.Sprintf("%s.%s", destField, destSub)
		value, subWarnings := evaluateScalarFromRecord(base, path, destPrimitive, scalar)
		warnings = append(warnings, subWarnings...)

		if value != nil {
			result[destSub] = value
		}
	}

	return result, warnings
}

func evaluateArray(source map[string]interface{}, destField string, destType FieldSchema, fm FieldMappingSpec) (interface{}, []Warning) {
	v, present := source[fm.ArrayFrom]

	items, ok := v.([]interface{})
	if !present || !ok {
		return []interface{}{}, []Warning{{Path: destField, Message: fmt.Sprintf("field %q is missing or not an array in source payload", fm.ArrayFrom)}}
	}

	var warnings []Warning

	out := make([]interface{}, len(items))

	for i, item := range items {
		record, ok := asRecord(item)
		if !ok {
			warnings = append(warnings, Warning{Path: fmt.Sprintf("%s[%d]", destField, i), Message: "array item is not a record"})
			out[i] = map[string]interface{}{}

			continue
		}

		result := make(map[string]interface{}, len(destType.Object))

		for _, destSub := range sortedStringKeys(destType.Object) {
			destPrimitive := destType.Object[destSub]

			scalar, ok := fm.Map[destSub]
			if !ok {
				continue
			}

			path := fmt.Sprintf("%s[%d].%s", destField, i, destSub)
			value, subWarnings := evaluateScalarFromRecord(record, path, destPrimitive, scalar)
			warnings = append(warnings, subWarnings...)

			if value != nil {
				result[destSub] = value
			}
		}

		out[i] = result
	}

	return out, warnings
}

func evaluateScalarFromRecord(record map[string]interface{}, path, destPrimitive string, s ScalarSpec) (interface{}, []Warning) {
	if s.HasConst {
		if !constMatchesPrimitive(s.Const, destPrimitive) {
			return nil, []Warning{{Path: path, Message: fmt.Sprintf("const literal does not match destination type %q", destPrimitive)}}
		}

		return s.Const, nil
	}

	if record == nil {
		return nil, nil // base already reported missing/invalid
	}

	v, present := record[s.From]
	if !present {
		return nil, []Warning{{Path: path, Message: fmt.Sprintf("field %q is missing in source payload", s.From)}}
	}

	if !valueMatchesPrimitive(v, destPrimitive) {
		return nil, []Warning{{Path: path, Message: fmt.Sprintf("field %q has the wrong type for destination type %q", s.From, destPrimitive)}}
	}

	return v, nil
}

func valueMatchesPrimitive(v interface{}, tag string) bool {
	switch tag {
	case TagString:
		_, ok := v.(string)

		return ok
	case TagNumber:
		_, ok := v.(float64)

		return ok
	case TagBoolean:
		_, ok := v.(bool)

		return ok
	default:
		return false
	}
}

// asRecord coerces a decoded JSON value to a record, treating arrays,
// scalars, and nil as "not a record" rather than panicking.
func asRecord(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})

	return m, ok
}
