package scenario

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFieldType_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{"primitive", `"string"`},
		{"flat object", `{"city":"string","zip":"number"}`},
		{"array of objects", `[{"sku":"string","qty":"number"}]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var ft FieldType
			if err := json.Unmarshal([]byte(tc.json), &ft); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			out, err := json.Marshal(ft)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			var reparsed FieldType
			if err := json.Unmarshal(out, &reparsed); err != nil {
				t.Fatalf("re-unmarshal: %v", err)
			}

			if reparsed.Kind != ft.Kind || reparsed.Primitive != ft.Primitive {
				t.Errorf("round trip mismatch: %+v vs %+v", ft, reparsed)
			}
		})
	}
}

func TestFieldType_InvalidPrimitiveTag(t *testing.T) {
	var ft FieldType

	err := json.Unmarshal([]byte(`"string[]"`), &ft)
	if !errors.Is(err, ErrInvalidPrimitiveTag) {
		t.Fatalf("expected ErrInvalidPrimitiveTag, got %v", err)
	}
}

func TestFieldType_EmptyArraySchemaRejected(t *testing.T) {
	var ft FieldType

	err := json.Unmarshal([]byte(`[]`), &ft)
	if !errors.Is(err, ErrEmptyArraySchema) {
		t.Fatalf("expected ErrEmptyArraySchema, got %v", err)
	}
}

func TestFieldType_NestedObjectRejected(t *testing.T) {
	var ft FieldType

	err := json.Unmarshal([]byte(`{"address":{"city":"string"}}`), &ft)
	if err == nil {
		t.Fatal("expected an error for a nested flat-object field, got none")
	}
}

func TestScalar_FromShorthand(t *testing.T) {
	var s Scalar
	if err := json.Unmarshal([]byte(`"orderId"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if s.From != "orderId" || s.HasConst {
		t.Errorf("expected From=orderId, got %+v", s)
	}
}

func TestScalar_Const(t *testing.T) {
	var s Scalar
	if err := json.Unmarshal([]byte(`{"const": 42}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !s.HasConst || s.Const != 42.0 {
		t.Errorf("expected Const=42, got %+v", s)
	}
}

func TestScalar_MissingFromAndConst(t *testing.T) {
	var s Scalar

	err := json.Unmarshal([]byte(`{"other": 1}`), &s)
	if !errors.Is(err, ErrInvalidScalarMapping) {
		t.Fatalf("expected ErrInvalidScalarMapping, got %v", err)
	}
}

func TestFieldMapping_ScalarShorthand(t *testing.T) {
	var fm FieldMapping
	if err := json.Unmarshal([]byte(`"amount"`), &fm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if fm.Kind != MappingScalar || fm.From != "amount" {
		t.Errorf("expected scalar mapping from amount, got %+v", fm)
	}
}

func TestFieldMapping_ArrayForm(t *testing.T) {
	var fm FieldMapping

	raw := `{"arrayFrom":"items","map":{"sku":"sku"}}`
	if err := json.Unmarshal([]byte(raw), &fm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if fm.Kind != MappingArray || fm.ArrayFrom != "items" || fm.Map["sku"].From != "sku" {
		t.Errorf("unexpected array mapping: %+v", fm)
	}
}

func TestFieldMapping_ObjectForm(t *testing.T) {
	var fm FieldMapping

	raw := `{"objectFrom":"shipping","map":{"city":"city"}}`
	if err := json.Unmarshal([]byte(raw), &fm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if fm.Kind != MappingObject || fm.ObjectFrom != "shipping" {
		t.Errorf("unexpected object mapping: %+v", fm)
	}
}

func TestAction_SetState(t *testing.T) {
	var a Action

	raw := `{"type":"set-state","status":"CREATED"}`
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if a.Kind != ActionSetState || a.Status != "CREATED" {
		t.Errorf("unexpected action: %+v", a)
	}
}

func TestAction_EmitWithoutToDomain(t *testing.T) {
	var a Action

	raw := `{"type":"emit","event":"PaymentRequested","mapping":{"orderId":"orderId"}}`
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if a.HasToDomain {
		t.Errorf("expected HasToDomain=false when toDomain is omitted, got %+v", a)
	}
}

func TestAction_EmitWithExplicitEmptyToDomain(t *testing.T) {
	var a Action

	raw := `{"type":"emit","event":"PaymentRequested","toDomain":"","mapping":{}}`
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !a.HasToDomain {
		t.Errorf("expected HasToDomain=true when toDomain key is present even if empty, got %+v", a)
	}
}

func TestAction_InvalidType(t *testing.T) {
	var a Action

	err := json.Unmarshal([]byte(`{"type":"delete"}`), &a)
	if !errors.Is(err, ErrInvalidActionType) {
		t.Fatalf("expected ErrInvalidActionType, got %v", err)
	}
}

func TestAction_MarshalRoundTrip(t *testing.T) {
	a := Action{Kind: ActionEmit, Event: "PaymentRequested", HasToDomain: true, ToDomain: "payment", Mapping: EmitMapping{"orderId": {Kind: MappingScalar, Scalar: Scalar{From: "orderId"}}}}

	out, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var reparsed Action
	if err := json.Unmarshal(out, &reparsed); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}

	if reparsed.Event != a.Event || reparsed.ToDomain != a.ToDomain || !reparsed.HasToDomain {
		t.Errorf("round trip mismatch: %+v vs %+v", a, reparsed)
	}
}
