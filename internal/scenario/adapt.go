package scenario

import "github.com/correlator-io/correlator/internal/mapping"

// ToMappingSchema translates a PayloadSchema into the mapping engine's own
// intermediate representation. Exported so the runtime can reuse the same
// translation the validator uses for its static checks.
func ToMappingSchema(ps PayloadSchema) mapping.Schema {
	out := make(mapping.Schema, len(ps))

	for field, ft := range ps {
		out[field] = mapping.FieldSchema{
			Kind:      mapping.FieldKind(ft.Kind),
			Primitive: ft.Primitive,
			Object:    ft.Object,
		}
	}

	return out
}

// ToMappingMapping translates an EmitMapping into the mapping engine's own
// intermediate representation. Exported so the runtime can reuse the same
// translation the validator uses for its static checks.
func ToMappingMapping(em EmitMapping) mapping.Mapping {
	out := make(mapping.Mapping, len(em))

	for destField, fm := range em {
		spec := mapping.FieldMappingSpec{
			Kind:       mapping.MappingKind(fm.Kind),
			ScalarSpec: toMappingScalar(fm.Scalar),
			ObjectFrom: fm.ObjectFrom,
			ArrayFrom:  fm.ArrayFrom,
		}

		if fm.Map != nil {
			spec.Map = make(map[string]mapping.ScalarSpec, len(fm.Map))
			for sub, s := range fm.Map {
				spec.Map[sub] = toMappingScalar(s)
			}
		}

		out[destField] = spec
	}

	return out
}

func toMappingScalar(s Scalar) mapping.ScalarSpec {
	return mapping.ScalarSpec{From: s.From, Const: s.Const, HasConst: s.HasConst}
}
