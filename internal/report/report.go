// Package report renders check results as plain text for terminals and logs.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Skufu/medsafe/internal/engine"
	"github.com/Skufu/medsafe/internal/severity"
)

const (
	NoRisksMessage   = "No major safety risks detected based on your profile."
	RisksMessage     = "Potential safety concerns detected:"
	UnknownMessage   = "Unknown medicine: the selected drug is not in the knowledge base."
	DisclaimerFooter = "This tool provides educational safety warnings only and does not replace professional medical advice."
)

// Labeler resolves a drug id to its display label.
type Labeler interface {
	Label(id string) string
}

// Humanize turns an atom such as vitamin_k_foods into "vitamin k foods".
func Humanize(atom string) string {
	return strings.ReplaceAll(atom, "_", " ")
}

func Badge(c severity.Confidence) string {
	switch c {
	case severity.High, severity.Med, severity.Low:
		return "[" + string(c) + " CONFIDENCE]"
	}
	return "[UNKNOWN CONFIDENCE]"
}

// Message is the headline for a result.
func Message(res engine.CheckResult) string {
	if len(res.Warnings) == 0 {
		return NoRisksMessage
	}
	return RisksMessage
}

// Line renders one warning.
func Line(w engine.Warning, labels Labeler) string {
	switch w.Kind {
	case engine.KindCondition:
		return fmt.Sprintf("Condition risk: not safe with %s.", Humanize(w.Condition))
	case engine.KindInteraction:
		return fmt.Sprintf("Drug interaction with %s: severity %s (%s) %s",
			labels.Label(w.OtherDrugID),
			strings.ToUpper(string(w.Severity)),
			Humanize(w.Effect),
			Badge(w.Confidence))
	case engine.KindFood:
		return fmt.Sprintf("Food avoidance: avoid %s (reason: %s).", Humanize(w.Food), Humanize(w.Effect))
	}
	return string(w.Kind)
}

// Write renders a full check result.
func Write(out io.Writer, res engine.CheckResult, labels Labeler) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Safety analysis for %s\n", res.QueryDrug.Label)
	if len(res.Request.Conditions) > 0 {
		names := make([]string, 0, len(res.Request.Conditions))
		for _, c := range res.Request.Conditions {
			names = append(names, Humanize(c))
		}
		fmt.Fprintf(&b, "Conditions: %s\n", strings.Join(names, ", "))
	}
	if len(res.Request.CurrentMedicationIDs) > 0 {
		meds := make([]string, 0, len(res.Request.CurrentMedicationIDs))
		for _, id := range res.Request.CurrentMedicationIDs {
			meds = append(meds, labels.Label(id))
		}
		fmt.Fprintf(&b, "Current medications: %s\n", strings.Join(meds, ", "))
	}
	b.WriteString("\n")
	b.WriteString(Message(res))
	b.WriteString("\n")
	for _, w := range res.Warnings {
		b.WriteString("  - ")
		b.WriteString(Line(w, labels))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d warning(s): %d condition, %d interaction, %d food\n",
		res.Summary.Total, res.Summary.ConditionRisks, res.Summary.InteractionRisks, res.Summary.FoodRisks)
	b.WriteString(DisclaimerFooter)
	b.WriteString("\n")

	_, err := io.WriteString(out, b.String())
	return err
}
