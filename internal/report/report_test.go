package report

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/medsafe/internal/engine"
	"github.com/Skufu/medsafe/internal/kb"
	"github.com/Skufu/medsafe/internal/severity"
)

type labels map[string]string

func (l labels) Label(id string) string {
	if v, ok := l[id]; ok {
		return v
	}
	return id
}

var testLabels = labels{
	"DB00945": "Acetylsalicylic Acid (DB00945)",
	"DB00316": "Acetaminophen (DB00316)",
}

func TestWriteWithWarnings(t *testing.T) {
	warnings := []engine.Warning{
		engine.ConditionRisk("pregnancy"),
		engine.InteractionRisk("DB00945", "increased_anticoagulant_effect", severity.Major, severity.High),
		engine.InteractionRisk("DB00316", "reduced_effect", severity.Minor, severity.Low),
		engine.FoodRisk("vitamin_k_foods", "reduced_anticoagulant_effect"),
	}
	res := engine.CheckResult{
		Request: engine.CheckRequest{
			QueryDrugID:          "DB00682",
			Conditions:           []string{"pregnancy", "renal_impairment"},
			CurrentMedicationIDs: []string{"DB00945", "DB00316"},
		},
		QueryDrug: kb.Drug{ID: "DB00682", CanonicalName: "warfarin", Label: "Warfarin (DB00682)"},
		Warnings:  warnings,
		Summary:   engine.Summarize(warnings),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, testLabels))

	g := goldie.New(t)
	g.Assert(t, "with_warnings", buf.Bytes())
}

func TestWriteNoRisks(t *testing.T) {
	res := engine.CheckResult{
		Request:   engine.CheckRequest{QueryDrugID: "DB00316"},
		QueryDrug: kb.Drug{ID: "DB00316", CanonicalName: "acetaminophen", Label: "Acetaminophen (DB00316)"},
		Warnings:  []engine.Warning{},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, testLabels))

	g := goldie.New(t)
	g.Assert(t, "no_risks", buf.Bytes())
}

func TestLine(t *testing.T) {
	assert.Equal(t, "Condition risk: not safe with hepatic impairment.",
		Line(engine.ConditionRisk("hepatic_impairment"), testLabels))
	assert.Equal(t, "Drug interaction with DB99999: severity MODERATE (enzyme inhibition) [MED CONFIDENCE]",
		Line(engine.InteractionRisk("DB99999", "enzyme_inhibition", severity.Moderate, severity.Med), testLabels))
	assert.Equal(t, "Food avoidance: avoid grapefruit (reason: increased drug level).",
		Line(engine.FoodRisk("grapefruit", "increased_drug_level"), testLabels))
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "[HIGH CONFIDENCE]", Badge(severity.High))
	assert.Equal(t, "[LOW CONFIDENCE]", Badge(severity.Low))
	assert.Equal(t, "[UNKNOWN CONFIDENCE]", Badge("??"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, NoRisksMessage, Message(engine.CheckResult{}))
	assert.Equal(t, RisksMessage, Message(engine.CheckResult{Warnings: []engine.Warning{engine.ConditionRisk("asthma")}}))
}
