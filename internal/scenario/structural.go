package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/correlator-io/correlator/internal/kernelerrors"
)

// Issue is an alias for the shared structured validation finding type, so
// callers outside this package only need to import kernelerrors.
type Issue = kernelerrors.Issue

// validateStructure walks the raw decoded JSON tree (produced by
// json.Unmarshal into interface{}) and reports every structural problem
// it finds without stopping at the first one. It never panics on
// malformed input — an unexpected shape is itself an Issue.
func validateStructure(root interface{}) []Issue {
	var issues []Issue

	obj, ok := asObject(root)
	if !ok {
		return []Issue{{Path: nil, Message: "scenario document must be a JSON object"}}
	}

	if name, ok := obj["name"].(string); !ok || name == "" {
		issues = append(issues, Issue{Path: []string{"name"}, Message: "name is required and must be a non-empty string"})
	}

	if _, ok := obj["version"].(float64); !ok {
		issues = append(issues, Issue{Path: []string{"version"}, Message: "version is required and must be an integer"})
	}

	domains, ok := asArray(obj["domains"])
	if !ok || len(domains) == 0 {
		issues = append(issues, Issue{Path: []string{"domains"}, Message: "domains is required and must be a non-empty array"})
	}

	for i, d := range domains {
		issues = append(issues, validateDomainShape(d, []string{"domains", itoa(i)})...)
	}

	if rawEvents, present := obj["events"]; present {
		events, ok := asArray(rawEvents)
		if !ok {
			issues = append(issues, Issue{Path: []string{"events"}, Message: "events must be an array"})
		} else {
			for i, e := range events {
				issues = append(issues, validateEventShape(e, []string{"events", itoa(i)})...)
			}
		}
	}

	if rawListeners, present := obj["listeners"]; present {
		listeners, ok := asArray(rawListeners)
		if !ok {
			issues = append(issues, Issue{Path: []string{"listeners"}, Message: "listeners must be an array"})
		} else {
			for i, l := range listeners {
				issues = append(issues, validateListenerShape(l, []string{"listeners", itoa(i)})...)
			}
		}
	}

	return issues
}

func validateDomainShape(v interface{}, path []string) []Issue {
	var issues []Issue

	obj, ok := asObject(v)
	if !ok {
		return []Issue{{Path: path, Message: "domain must be a JSON object"}}
	}

	if id, ok := obj["id"].(string); !ok || id == "" {
		issues = append(issues, Issue{Path: append(clone(path), "id"), Message: "domain id is required and must be a non-empty string"})
	}

	if queue, ok := obj["queue"].(string); !ok || queue == "" {
		issues = append(issues, Issue{Path: append(clone(path), "queue"), Message: "domain queue is required and must be a non-empty string"})
	}

	if rawEvents, present := obj["events"]; present {
		events, ok := asArray(rawEvents)
		if !ok {
			issues = append(issues, Issue{Path: append(clone(path), "events"), Message: "events must be an array"})
		} else {
			for i, e := range events {
				issues = append(issues, validateEventShape(e, append(clone(path), "events", itoa(i)))...)
			}
		}
	}

	if rawListeners, present := obj["listeners"]; present {
		listeners, ok := asArray(rawListeners)
		if !ok {
			issues = append(issues, Issue{Path: append(clone(path), "listeners"), Message: "listeners must be an array"})
		} else {
			for i, l := range listeners {
				issues = append(issues, validateListenerShape(l, append(clone(path), "listeners", itoa(i)))...)
			}
		}
	}

	return issues
}

func validateEventShape(v interface{}, path []string) []Issue {
	var issues []Issue

	obj, ok := asObject(v)
	if !ok {
		return []Issue{{Path: path, Message: "event must be a JSON object"}}
	}

	if name, ok := obj["name"].(string); !ok || name == "" {
		issues = append(issues, Issue{Path: append(clone(path), "name"), Message: "event name is required and must be a non-empty string"})
	}

	schema, present := obj["payloadSchema"]
	if !present {
		issues = append(issues, Issue{Path: append(clone(path), "payloadSchema"), Message: "payloadSchema is required"})

		return issues
	}

	schemaObj, ok := asObject(schema)
	if !ok {
		return append(issues, Issue{Path: append(clone(path), "payloadSchema"), Message: "payloadSchema must be a JSON object"})
	}

	for field, fieldType := range schemaObj {
		issues = append(issues, validateFieldTypeShape(fieldType, append(clone(path), "payloadSchema", field))...)
	}

	return issues
}

func validateFieldTypeShape(v interface{}, path []string) []Issue {
	switch val := v.(type) {
	case string:
		if !IsValidPrimitiveTag(val) {
			return []Issue{{Path: path, Message: fmt.Sprintf("invalid primitive tag %q", val)}}
		}

		return nil
	case []interface{}:
		if len(val) != 1 {
			return []Issue{{Path: path, Message: fmt.Sprintf("array schema must have exactly one element, got %d", len(val))}}
		}

		return validateFlatObjectShape(val[0], path)
	case map[string]interface{}:
		return validateFlatObjectShape(val, path)
	default:
		return []Issue{{Path: path, Message: "field schema must be a primitive tag, a flat object, or a one-element array of flat objects"}}
	}
}

func validateFlatObjectShape(v interface{}, path []string) []Issue {
	obj, ok := asObject(v)
	if !ok {
		return []Issue{{Path: path, Message: "expected a flat object of sub-field -> primitive tag"}}
	}

	var issues []Issue

	for subField, subVal := range obj {
		tag, ok := subVal.(string)
		if !ok || !IsValidPrimitiveTag(tag) {
			issues = append(issues, Issue{
				Path:    append(clone(path), subField),
				Message: fmt.Sprintf("sub-field %q must be a primitive tag (no further nesting)", subField),
			})
		}
	}

	return issues
}

func validateListenerShape(v interface{}, path []string) []Issue {
	var issues []Issue

	obj, ok := asObject(v)
	if !ok {
		return []Issue{{Path: path, Message: "listener must be a JSON object"}}
	}

	if id, ok := obj["id"].(string); !ok || id == "" {
		issues = append(issues, Issue{Path: append(clone(path), "id"), Message: "listener id is required and must be a non-empty string"})
	}

	onObj, ok := asObject(obj["on"])
	if !ok {
		issues = append(issues, Issue{Path: append(clone(path), "on"), Message: "on is required and must be an object"})
	} else if event, ok := onObj["event"].(string); !ok || event == "" {
		issues = append(issues, Issue{Path: append(clone(path), "on", "event"), Message: "on.event is required and must be a non-empty string"})
	}

	if delay, present := obj["delayMs"]; present {
		if n, ok := delay.(float64); !ok || n < 0 {
			issues = append(issues, Issue{Path: append(clone(path), "delayMs"), Message: "delayMs must be a non-negative integer"})
		}
	}

	actions, ok := asArray(obj["actions"])
	if !ok || len(actions) == 0 {
		issues = append(issues, Issue{Path: append(clone(path), "actions"), Message: "actions is required and must be a non-empty array"})

		return issues
	}

	for i, a := range actions {
		issues = append(issues, validateActionShape(a, append(clone(path), "actions", itoa(i)))...)
	}

	return issues
}

func validateActionShape(v interface{}, path []string) []Issue {
	var issues []Issue

	obj, ok := asObject(v)
	if !ok {
		return []Issue{{Path: path, Message: "action must be a JSON object"}}
	}

	kind, _ := obj["type"].(string)

	switch kind {
	case string(ActionSetState):
		if status, ok := obj["status"].(string); !ok || status == "" {
			issues = append(issues, Issue{Path: append(clone(path), "status"), Message: "set-state.status is required and must be a non-empty string"})
		}
	case string(ActionEmit):
		if event, ok := obj["event"].(string); !ok || event == "" {
			issues = append(issues, Issue{Path: append(clone(path), "event"), Message: "emit.event is required and must be a non-empty string"})
		}

		if toDomain, present := obj["toDomain"]; present {
			if _, ok := toDomain.(string); !ok {
				issues = append(issues, Issue{Path: append(clone(path), "toDomain"), Message: "emit.toDomain must be a string"})
			}
		}

		mapping, present := obj["mapping"]
		if !present {
			issues = append(issues, Issue{Path: append(clone(path), "mapping"), Message: "emit.mapping is required"})

			break
		}

		mappingObj, ok := asObject(mapping)
		if !ok {
			issues = append(issues, Issue{Path: append(clone(path), "mapping"), Message: "emit.mapping must be a JSON object"})

			break
		}

		for destField, fieldMapping := range mappingObj {
			issues = append(issues, validateFieldMappingShape(fieldMapping, append(clone(path), "mapping", destField))...)
		}
	default:
		issues = append(issues, Issue{Path: append(clone(path), "type"), Message: fmt.Sprintf("action type must be %q or %q, got %q", ActionSetState, ActionEmit, kind)})
	}

	return issues
}

func validateFieldMappingShape(v interface{}, path []string) []Issue {
	if _, ok := v.(string); ok {
		return nil
	}

	obj, ok := asObject(v)
	if !ok {
		return []Issue{{Path: path, Message: "field mapping must be a field name, {from}/{const}, or an object/array mapping"}}
	}

	subMapVal, hasMap := obj["map"]
	if !hasMap {
		return validateScalarShape(obj, path)
	}

	var issues []Issue

	if arrayFrom, present := obj["arrayFrom"]; present {
		if s, ok := arrayFrom.(string); !ok || s == "" {
			issues = append(issues, Issue{Path: append(clone(path), "arrayFrom"), Message: "arrayFrom must be a non-empty string"})
		}
	}

	if objectFrom, present := obj["objectFrom"]; present {
		if _, ok := objectFrom.(string); !ok {
			issues = append(issues, Issue{Path: append(clone(path), "objectFrom"), Message: "objectFrom must be a string"})
		}
	}

	subMap, ok := asObject(subMapVal)
	if !ok {
		return append(issues, Issue{Path: append(clone(path), "map"), Message: "map must be a JSON object"})
	}

	for destSub, scalar := range subMap {
		issues = append(issues, validateScalarShape(scalar, append(clone(path), "map", destSub))...)
	}

	return issues
}

func validateScalarShape(v interface{}, path []string) []Issue {
	if _, ok := v.(string); ok {
		return nil
	}

	obj, ok := asObject(v)
	if !ok {
		return []Issue{{Path: path, Message: "scalar mapping must be a field name, {\"from\": ...} or {\"const\": ...}"}}
	}

	_, hasFrom := obj["from"]
	_, hasConst := obj["const"]

	if !hasFrom && !hasConst {
		return []Issue{{Path: path, Message: "scalar mapping must have \"from\" or \"const\""}}
	}

	return nil
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	obj, ok := v.(map[string]interface{})

	return obj, ok
}

func asArray(v interface{}) ([]interface{}, bool) {
	arr, ok := v.([]interface{})

	return arr, ok
}

func clone(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)

	return out
}

func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}

// decodeGeneric unmarshals data into a generic interface{} tree for
// structural validation.
func decodeGeneric(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	return v, nil
}
