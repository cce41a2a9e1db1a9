package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/Skufu/medsafe/internal/kb"
	"github.com/Skufu/medsafe/internal/severity"
)

// CheckResult is the outcome of one check. An empty Warnings list means no
// risk was detected.
type CheckResult struct {
	Request   CheckRequest `json:"request"`
	QueryDrug kb.Drug      `json:"queryDrug"`
	Warnings  []Warning    `json:"warnings"`
	Summary   Summary      `json:"summary"`
}

type Evaluator struct {
	resolver *Resolver
	log      *logrus.Logger
}

func NewEvaluator(resolver *Resolver, logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Evaluator{resolver: resolver, log: logger}
}

// Evaluate runs one check. Condition warnings come first in the caller's
// condition order, then interaction warnings in the caller's medication
// order, then food warnings in table order. The only error is
// kb.ErrUnknownDrug for the query drug.
func (e *Evaluator) Evaluate(req CheckRequest) (CheckResult, error) {
	drug, err := e.resolver.LookupDrug(req.QueryDrugID)
	if err != nil {
		return CheckResult{}, err
	}

	warnings := []Warning{}

	for _, c := range req.Conditions {
		if e.resolver.IsUnsafeForCondition(drug.ID, c) {
			warnings = append(warnings, ConditionRisk(c))
		}
	}

	for _, other := range req.CurrentMedicationIDs {
		is, ok := e.resolver.InteractionSeverity(drug.ID, other)
		if !ok {
			continue
		}
		reason, ok := e.resolver.ExplainInteraction(drug.ID, other)
		if !ok {
			reason = is.Effect
		}
		warnings = append(warnings, InteractionRisk(other, reason, is.Severity, severity.ConfidenceFor(is.Severity)))
	}

	for food, effect := range e.resolver.UnsafeFoods(drug.ID) {
		warnings = append(warnings, FoodRisk(food, effect))
	}

	res := CheckResult{
		Request:   req,
		QueryDrug: drug,
		Warnings:  warnings,
		Summary:   Summarize(warnings),
	}

	e.log.WithFields(logrus.Fields{
		"query_drug":  drug.ID,
		"conditions":  len(req.Conditions),
		"medications": len(req.CurrentMedicationIDs),
		"warnings":    res.Summary.Total,
	}).Debug("Check evaluated")

	return res, nil
}
