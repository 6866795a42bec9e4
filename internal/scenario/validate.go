package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/correlator-io/correlator/internal/kernelerrors"
)

// Validate parses and validates a scenario document, returning a
// canonical Scenario on success. On any problem it returns a
// *kernelerrors.ValidationError carrying every issue found — it never
// stops at the first one.
func Validate(data []byte) (*Scenario, error) {
	root, err := decodeGeneric(data)
	if err != nil {
		return nil, kernelerrors.NewValidationError(kernelerrors.ErrSchemaViolation, []Issue{
			{Message: fmt.Sprintf("invalid JSON: %v", err)},
		})
	}

	if issues := validateStructure(root); len(issues) > 0 {
		return nil, kernelerrors.NewValidationError(kernelerrors.ErrSchemaViolation, issues)
	}

	var raw rawScenario
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, kernelerrors.NewValidationError(kernelerrors.ErrSchemaViolation, []Issue{
			{Message: fmt.Sprintf("decode failed after passing structural validation: %v", err)},
		})
	}

	scenarioValue, issues := normalize(raw)

	if len(issues) > 0 {
		return nil, kernelerrors.NewValidationError(kernelerrors.ErrCrossRefViolation, issues)
	}

	return scenarioValue, nil
}
