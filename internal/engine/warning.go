package engine

import "github.com/Skufu/medsafe/internal/severity"

type Kind string

const (
	KindCondition   Kind = "condition_risk"
	KindInteraction Kind = "interaction_risk"
	KindFood        Kind = "food_risk"
)

// Warning is one detected risk. Only the fields of its Kind are set.
type Warning struct {
	Kind        Kind                `json:"kind"`
	Condition   string              `json:"condition,omitempty"`
	OtherDrugID string              `json:"otherDrugId,omitempty"`
	Food        string              `json:"food,omitempty"`
	Effect      string              `json:"effect,omitempty"`
	Severity    severity.Severity   `json:"severity,omitempty"`
	Confidence  severity.Confidence `json:"confidence,omitempty"`
}

func ConditionRisk(condition string) Warning {
	return Warning{Kind: KindCondition, Condition: condition}
}

func InteractionRisk(otherDrugID, effect string, sev severity.Severity, conf severity.Confidence) Warning {
	return Warning{
		Kind:        KindInteraction,
		OtherDrugID: otherDrugID,
		Effect:      effect,
		Severity:    sev,
		Confidence:  conf,
	}
}

func FoodRisk(food, effect string) Warning {
	return Warning{Kind: KindFood, Food: food, Effect: effect}
}

// Summary counts the warnings of a check by kind.
type Summary struct {
	Total            int               `json:"total"`
	ConditionRisks   int               `json:"conditionRisks"`
	InteractionRisks int               `json:"interactionRisks"`
	FoodRisks        int               `json:"foodRisks"`
	HighestSeverity  severity.Severity `json:"highestSeverity,omitempty"`
}

// Summarize derives the summary for a warning list. HighestSeverity is only
// set when at least one interaction was found.
func Summarize(warnings []Warning) Summary {
	s := Summary{Total: len(warnings)}
	for _, w := range warnings {
		switch w.Kind {
		case KindCondition:
			s.ConditionRisks++
		case KindInteraction:
			s.InteractionRisks++
			if s.HighestSeverity == "" || w.Severity.Rank() > s.HighestSeverity.Rank() {
				s.HighestSeverity = w.Severity
			}
		case KindFood:
			s.FoodRisks++
		}
	}
	return s
}
