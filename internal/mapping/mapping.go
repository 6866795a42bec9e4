// Package mapping implements the structural payload mapping engine: a
// static checker run at scenario-validation time and a runtime evaluator
// run at dispatch time. Both share one traversal shape (primitive / flat
// object / array-of-flat-objects) but the static checker compares two
// schemas while the evaluator transforms a concrete payload.
//
// The engine operates on its own small intermediate representation
// (Schema, Mapping) rather than importing the scenario package's DSL
// types directly, so callers translate once at the boundary and this
// package stays reusable and dependency-free.
package mapping

import (
	"fmt"

	"github.com/correlator-io/correlator/internal/kernelerrors"
)

// Issue is an alias for the shared structured validation finding type.
type Issue = kernelerrors.Issue

// FieldKind discriminates the three PayloadSchema field shapes the engine
// understands.
type FieldKind int

const (
	KindPrimitive FieldKind = iota
	KindObject
	KindArray
)

// Primitive tags recognized by the engine.
const (
	TagString  = "string"
	TagNumber  = "number"
	TagBoolean = "boolean"
)

// FieldSchema is one entry of a Schema: a primitive type, or a flat
// object/array-of-objects type described by its sub-field tags.
type FieldSchema struct {
	Kind      FieldKind
	Primitive string
	Object    map[string]string // sub-field -> primitive tag
}

// Schema is a destination or source event's payload schema, translated
// from scenario.PayloadSchema.
type Schema map[string]FieldSchema

// MappingKind discriminates the three FieldMapping shapes.
type MappingKind int

const (
	MapScalar MappingKind = iota
	MapObject
	MapArray
)

// ScalarSpec is a source-field copy or a literal constant.
type ScalarSpec struct {
	From     string
	Const    interface{}
	HasConst bool
}

// FieldMappingSpec is one entry of a Mapping.
type FieldMappingSpec struct {
	Kind MappingKind
	ScalarSpec

	ObjectFrom string
	ArrayFrom  string
	Map        map[string]ScalarSpec
}

// Mapping is a destination-field-name to FieldMappingSpec map, translated
// from scenario.EmitMapping.
type Mapping map[string]FieldMappingSpec

// CheckStatic type-checks a mapping against a source schema (the
// triggering event's payload) and a destination schema (the emitted
// event's payload), without any concrete payload. It never stops at the
// first problem.
func CheckStatic(source, dest Schema, m Mapping) []Issue {
	var issues []Issue

	for _, destField := range sortedSchemaKeys(dest) {
		destType := dest[destField]

		fm, ok := m[destField]
		if !ok {
			issues = append(issues, Issue{
				Path:    []string{destField},
				Message: fmt.Sprintf("destination field %q has no mapping", destField),
			})

			continue
		}

		issues = append(issues, checkFieldStatic(source, destField, destType, fm)...)
	}

	for _, destField := range sortedMappingKeys(m) {
		if _, ok := dest[destField]; !ok {
			issues = append(issues, Issue{
				Path:    []string{destField},
				Message: fmt.Sprintf("mapping key %q is not present in the destination schema", destField),
			})
		}
	}

	return issues
}

func checkFieldStatic(source Schema, destField string, destType FieldSchema, fm FieldMappingSpec) []Issue {
	switch destType.Kind {
	case KindPrimitive:
		if fm.Kind != MapScalar {
			return []Issue{{
				Path:    []string{destField},
				Message: fmt.Sprintf("destination field %q is a primitive and requires a scalar mapping", destField),
			}}
		}

		return checkScalarAgainstSchema(source, []string{destField}, destType.Primitive, fm.ScalarSpec)
	case KindObject:
		return checkObjectStatic(source, destField, destType, fm)
	case KindArray:
		return checkArrayStatic(source, destField, destType, fm)
	default:
		return nil
	}
}

func checkObjectStatic(source Schema, destField string, destType FieldSchema, fm FieldMappingSpec) []Issue {
	if fm.Kind != MapObject {
		return []Issue{{
			Path:    []string{destField},
			Message: fmt.Sprintf("destination field %q is a flat-object and requires an object mapping", destField),
		}}
	}

	var issues []Issue

	base, baseIssues := resolveObjectBase(source, destField, fm.ObjectFrom)
	issues = append(issues, baseIssues...)

	for _, destSub := range sortedStringKeys(destType.Object) {
		destPrimitive := destType.Object[destSub]

		scalar, ok := fm.Map[destSub]
		if !ok {
			issues = append(issues, Issue{
				Path:    []string{destField, destSub},
				Message: fmt.Sprintf("destination sub-field %q has no mapping", destSub),
			})

			continue
		}

		issues = append(issues, checkScalarAgainstFlat(base, []string{destField, destSub}, destPrimitive, scalar)...)
	}

	for _, mSub := range sortedScalarKeys(fm.Map) {
		if _, ok := destType.Object[mSub]; !ok {
			issues = append(issues, Issue{
				Path:    []string{destField, mSub},
				Message: fmt.Sprintf("map key %q is not present in the destination object schema", mSub),
			})
		}
	}

	return issues
}

func resolveObjectBase(source Schema, destField, objectFrom string) (map[string]string, []Issue) {
	if objectFrom == "" {
		return flattenPrimitives(source), nil
	}

	srcType, ok := source[objectFrom]
	if !ok || srcType.Kind != KindObject {
		return nil, []Issue{{
			Path:    []string{destField, "objectFrom"},
			Message: fmt.Sprintf("objectFrom %q does not name a flat-object field in the source schema", objectFrom),
		}}
	}

	return srcType.Object, nil
}

func checkArrayStatic(source Schema, destField string, destType FieldSchema, fm FieldMappingSpec) []Issue {
	if fm.Kind != MapArray || fm.ArrayFrom == "" {
		return []Issue{{
			Path:    []string{destField},
			Message: fmt.Sprintf("destination field %q is an array and requires an arrayFrom mapping", destField),
		}}
	}

	srcType, ok := source[fm.ArrayFrom]
	if !ok || srcType.Kind != KindArray {
		return []Issue{{
			Path:    []string{destField, "arrayFrom"},
			Message: fmt.Sprintf("arrayFrom %q does not name an array-of-objects field in the source schema", fm.ArrayFrom),
		}}
	}

	var issues []Issue

	for _, destSub := range sortedStringKeys(destType.Object) {
		destPrimitive := destType.Object[destSub]

		scalar, ok := fm.Map[destSub]
		if !ok {
			issues = append(issues, Issue{
				Path:    []string{destField, destSub},
				Message: fmt.Sprintf("destination sub-field %q has no mapping", destSub),
			})

			continue
		}

		issues = append(issues, checkScalarAgainstFlat(srcType.Object, []string{destField, destSub}, destPrimitive, scalar)...)
	}

	for _, mSub := range sortedScalarKeys(fm.Map) {
		if _, ok := destType.Object[mSub]; !ok {
			issues = append(issues, Issue{
				Path:    []string{destField, mSub},
				Message: fmt.Sprintf("map key %q is not present in the destination object schema", mSub),
			})
		}
	}

	return issues
}

func checkScalarAgainstSchema(source Schema, path []string, destPrimitive string, s ScalarSpec) []Issue {
	if s.HasConst {
		if !constMatchesPrimitive(s.Const, destPrimitive) {
			return []Issue{{Path: path, Message: fmt.Sprintf("const literal does not match destination type %q", destPrimitive)}}
		}

		return nil
	}

	srcType, ok := source[s.From]
	if !ok {
		return []Issue{{Path: path, Message: fmt.Sprintf("source field %q is not declared in the source schema", s.From)}}
	}

	if srcType.Kind != KindPrimitive || srcType.Primitive != destPrimitive {
		return []Issue{{Path: path, Message: fmt.Sprintf("source field %q does not match destination type %q", s.From, destPrimitive)}}
	}

	return nil
}

func checkScalarAgainstFlat(base map[string]string, path []string, destPrimitive string, s ScalarSpec) []Issue {
	if s.HasConst {
		if !constMatchesPrimitive(s.Const, destPrimitive) {
			return []Issue{{Path: path, Message: fmt.Sprintf("const literal does not match destination type %q", destPrimitive)}}
		}

		return nil
	}

	if base == nil {
		return nil // already reported by the caller (unresolved objectFrom/arrayFrom)
	}

	tag, ok := base[s.From]
	if !ok {
		return []Issue{{Path: path, Message: fmt.Sprintf("source sub-field %q is not declared in the source schema", s.From)}}
	}

	if tag != destPrimitive {
		return []Issue{{Path: path, Message: fmt.Sprintf("source sub-field %q does not match destination type %q", s.From, destPrimitive)}}
	}

	return nil
}

func constMatchesPrimitive(v interface{}, tag string) bool {
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

// flattenPrimitives projects a Schema's primitive-kind fields to a
// sub-field-name -> tag map, the shape an object mapping's base is
// compared against when objectFrom is absent.
func flattenPrimitives(s Schema) map[string]string {
	out := make(map[string]string, len(s))

	for field, ft := range s {
		if ft.Kind == KindPrimitive {
			out[field] = ft.Primitive
		}
	}

	return out
}
