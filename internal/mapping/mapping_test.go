package mapping

import "testing"

func strField() FieldSchema  { return FieldSchema{Kind: KindPrimitive, Primitive: TagString} }
func numField() FieldSchema  { return FieldSchema{Kind: KindPrimitive, Primitive: TagNumber} }
func boolField() FieldSchema { return FieldSchema{Kind: KindPrimitive, Primitive: TagBoolean} }

func TestCheckStatic_ScalarCopyTypeMismatch(t *testing.T) {
	source := Schema{"amount": numField()}
	dest := Schema{"total": strField()}
	m := Mapping{"total": {Kind: MapScalar, ScalarSpec: ScalarSpec{From: "amount"}}}

	issues := CheckStatic(source, dest, m)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %+v", len(issues), issues)
	}

	if issues[0].Path[0] != "total" {
		t.Errorf("expected issue on \"total\", got %v", issues[0].Path)
	}
}

func TestCheckStatic_ScalarCopyOK(t *testing.T) {
	source := Schema{"amount": numField()}
	dest := Schema{"total": numField()}
	m := Mapping{"total": {Kind: MapScalar, ScalarSpec: ScalarSpec{From: "amount"}}}

	issues := CheckStatic(source, dest, m)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestCheckStatic_ConstTypeMismatch(t *testing.T) {
	source := Schema{}
	dest := Schema{"status": strField()}
	m := Mapping{"status": {Kind: MapScalar, ScalarSpec: ScalarSpec{Const: 42.0, HasConst: true}}}

	issues := CheckStatic(source, dest, m)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
}

func TestCheckStatic_DestinationFieldWithoutMapping(t *testing.T) {
	dest := Schema{"total": numField()}
	m := Mapping{}

	issues := CheckStatic(Schema{}, dest, m)
	if len(issues) != 1 || issues[0].Message == "" {
		t.Fatalf("expected 1 issue for unmapped destination field, got %+v", issues)
	}
}

func TestCheckStatic_UnknownMappingKey(t *testing.T) {
	dest := Schema{}
	m := Mapping{"ghost": {Kind: MapScalar, ScalarSpec: ScalarSpec{From: "x"}}}

	issues := CheckStatic(Schema{"x": strField()}, dest, m)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue for unknown mapping key, got %+v", issues)
	}
}

func TestCheckStatic_ObjectFromMustNameFlatObjectField(t *testing.T) {
	source := Schema{"amount": numField()}
	dest := Schema{"address": {Kind: KindObject, Object: map[string]string{"city": TagString}}}
	m := Mapping{"address": {
		Kind:       MapObject,
		ObjectFrom: "amount",
		Map:        map[string]ScalarSpec{"city": {From: "name"}},
	}}

	issues := CheckStatic(source, dest, m)

	found := false

	for _, i := range issues {
		if i.Path[len(i.Path)-1] == "objectFrom" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected an objectFrom issue, got %+v", issues)
	}
}

func TestCheckStatic_ObjectMappingOK(t *testing.T) {
	source := Schema{"shipping": {Kind: KindObject, Object: map[string]string{"city": TagString, "zip": TagString}}}
	dest := Schema{"address": {Kind: KindObject, Object: map[string]string{"city": TagString}}}
	m := Mapping{"address": {
		Kind:       MapObject,
		ObjectFrom: "shipping",
		Map:        map[string]ScalarSpec{"city": {From: "city"}},
	}}

	issues := CheckStatic(source, dest, m)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestCheckStatic_ArrayFromMustNameArrayField(t *testing.T) {
	source := Schema{"items": numField()}
	dest := Schema{"lines": {Kind: KindArray, Object: map[string]string{"sku": TagString}}}
	m := Mapping{"lines": {
		Kind:      MapArray,
		ArrayFrom: "items",
		Map:       map[string]ScalarSpec{"sku": {From: "sku"}},
	}}

	issues := CheckStatic(source, dest, m)
	if len(issues) == 0 {
		t.Fatalf("expected an arrayFrom issue, got none")
	}
}

func TestEvaluate_ScalarCopy(t *testing.T) {
	dest := Schema{"total": numField()}
	m := Mapping{"total": {Kind: MapScalar, ScalarSpec: ScalarSpec{From: "amount"}}}

	out, warnings := Evaluate(map[string]interface{}{"amount": 12.5}, dest, m)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", warnings)
	}

	if out["total"] != 12.5 {
		t.Errorf("expected total=12.5, got %v", out["total"])
	}
}

func TestEvaluate_MissingFieldWarnsAndOmits(t *testing.T) {
	dest := Schema{"total": numField()}
	m := Mapping{"total": {Kind: MapScalar, ScalarSpec: ScalarSpec{From: "amount"}}}

	out, warnings := Evaluate(map[string]interface{}{}, dest, m)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %+v", warnings)
	}

	if _, present := out["total"]; present {
		t.Errorf("expected total to be omitted, got %v", out["total"])
	}
}

func TestEvaluate_ConstValue(t *testing.T) {
	dest := Schema{"status": strField()}
	m := Mapping{"status": {Kind: MapScalar, ScalarSpec: ScalarSpec{Const: "shipped", HasConst: true}}}

	out, warnings := Evaluate(map[string]interface{}{}, dest, m)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", warnings)
	}

	if out["status"] != "shipped" {
		t.Errorf("expected status=shipped, got %v", out["status"])
	}
}

func TestEvaluate_ArrayMapping(t *testing.T) {
	dest := Schema{"lines": {Kind: KindArray, Object: map[string]string{"sku": TagString, "qty": TagNumber}}}
	m := Mapping{"lines": {
		Kind:      MapArray,
		ArrayFrom: "items",
		Map: map[string]ScalarSpec{
			"sku": {From: "sku"},
			"qty": {From: "quantity"},
		},
	}}

	source := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"sku": "A1", "quantity": 3.0},
			"not-a-record",
		},
	}

	out, warnings := Evaluate(source, dest, m)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for the non-record item, got %+v", warnings)
	}

	lines, ok := out["lines"].([]interface{})
	if !ok || len(lines) != 2 {
		t.Fatalf("expected a 2-element lines array, got %v", out["lines"])
	}

	first, ok := lines[0].(map[string]interface{})
	if !ok || first["sku"] != "A1" || first["qty"] != 3.0 {
		t.Errorf("expected first line mapped from source item, got %+v", first)
	}

	second, ok := lines[1].(map[string]interface{})
	if !ok || len(second) != 0 {
		t.Errorf("expected second line to be an empty record, got %+v", lines[1])
	}
}

func TestEvaluate_ArrayFromMissingEmitsEmptyArray(t *testing.T) {
	dest := Schema{"lines": {Kind: KindArray, Object: map[string]string{"sku": TagString}}}
	m := Mapping{"lines": {Kind: MapArray, ArrayFrom: "items", Map: map[string]ScalarSpec{"sku": {From: "sku"}}}}

	out, warnings := Evaluate(map[string]interface{}{}, dest, m)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %+v", warnings)
	}

	lines, ok := out["lines"].([]interface{})
	if !ok || len(lines) != 0 {
		t.Fatalf("expected an empty lines array, got %v", out["lines"])
	}
}

func TestEvaluate_NoExtraKeysInOutput(t *testing.T) {
	dest := Schema{"total": numField(), "status": strField()}
	m := Mapping{"total": {Kind: MapScalar, ScalarSpec: ScalarSpec{From: "amount"}}}

	out, _ := Evaluate(map[string]interface{}{"amount": 1.0, "extra": "ignored"}, dest, m)
	if len(out) != 1 {
		t.Fatalf("expected exactly one mapped key, got %+v", out)
	}
}

func TestConstMatchesPrimitive(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		tag   string
		want  bool
	}{
		{"string ok", "hi", TagString, true},
		{"string wrong tag", "hi", TagNumber, false},
		{"number ok", 1.0, TagNumber, true},
		{"bool ok", true, TagBoolean, true},
		{"unknown tag", "hi", "unknown", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := constMatchesPrimitive(tc.value, tc.tag); got != tc.want {
				t.Errorf("constMatchesPrimitive(%v, %q) = %v, want %v", tc.value, tc.tag, got, tc.want)
			}
		})
	}
}
