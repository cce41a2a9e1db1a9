package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Conditions is the vocabulary accepted by a check, in display order.
var Conditions = []string{
	"renal_impairment",
	"hypertension",
	"diabetes",
	"hepatic_impairment",
	"cardiovascular_disease",
	"pregnancy",
	"asthma",
}

func IsKnownCondition(c string) bool {
	return slices.Contains(Conditions, c)
}

// CheckRequest is the profile for a single check. It is owned by the call that
// built it and is never written into shared state.
type CheckRequest struct {
	QueryDrugID          string   `json:"queryDrugId"`
	Conditions           []string `json:"conditions"`
	CurrentMedicationIDs []string `json:"currentMedicationIds"`
}

// ValidationError reports a request field outside the accepted domain.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewCheckRequest trims and de-duplicates the caller's lists, keeping first
// occurrences in order, and drops the query drug from the medication list.
// Conditions outside the vocabulary are rejected.
func NewCheckRequest(queryDrugID string, conditions, medicationIDs []string) (CheckRequest, error) {
	req := CheckRequest{
		QueryDrugID:          strings.TrimSpace(queryDrugID),
		Conditions:           []string{},
		CurrentMedicationIDs: []string{},
	}
	if req.QueryDrugID == "" {
		return CheckRequest{}, &ValidationError{Field: "queryDrugId", Message: "is required"}
	}

	for _, c := range conditions {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || slices.Contains(req.Conditions, c) {
			continue
		}
		if !IsKnownCondition(c) {
			return CheckRequest{}, &ValidationError{Field: "conditions", Message: "unknown condition", Value: c}
		}
		req.Conditions = append(req.Conditions, c)
	}

	for _, id := range medicationIDs {
		id = strings.TrimSpace(id)
		if id == "" || id == req.QueryDrugID || slices.Contains(req.CurrentMedicationIDs, id) {
			continue
		}
		req.CurrentMedicationIDs = append(req.CurrentMedicationIDs, id)
	}

	return req, nil
}
