package engine

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/medsafe/internal/kb"
	"github.com/Skufu/medsafe/internal/severity"
)

const factsPL = `
drug('DB00945', acetylsalicylic_acid).
drug('DB01050', ibuprofen).
drug('DB00682', warfarin).
drug('DB00852', pseudoephedrine).
drug('DB00316', acetaminophen).
drug('DB01211', clarithromycin).

interaction('DB00945', 'DB01050', bleeding_risk).
interaction('DB00682', 'DB00945', increased_anticoagulant_effect).
interaction('DB01211', 'DB00682', enzyme_inhibition).
interaction('DB00682', 'DB00316', reduced_effect).

contraindicated('DB00852', hypertension).
contraindicated('DB00852', cardiovascular_disease).
contraindicated('DB01050', renal_impairment).
contraindicated('DB01050', asthma).
contraindicated('DB00682', pregnancy).

food_interaction('DB00682', vitamin_k_foods, reduced_anticoagulant_effect).
food_interaction('DB00682', alcohol, liver_toxicity).
food_interaction('DB01211', grapefruit, increased_drug_level).
`

func newTestKB(t *testing.T) *kb.KnowledgeBase {
	t.Helper()
	k, err := kb.LoadReaders([]string{"facts.pl"}, map[string]io.Reader{"facts.pl": strings.NewReader(factsPL)})
	require.NoError(t, err)
	return k
}

func newTestEvaluator(t *testing.T) (*Evaluator, *Resolver) {
	t.Helper()
	r := NewResolver(newTestKB(t), severity.Default())
	return NewEvaluator(r, nil), r
}

func TestScenarioA_InteractionRisk(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	res, err := ev.Evaluate(CheckRequest{QueryDrugID: "DB01050", CurrentMedicationIDs: []string{"DB00945"}})
	require.NoError(t, err)
	assert.Equal(t, []Warning{
		InteractionRisk("DB00945", "bleeding_risk", severity.Major, severity.High),
	}, res.Warnings)
	assert.Equal(t, "Ibuprofen (DB01050)", res.QueryDrug.Label)
}

func TestScenarioB_FoodRisk(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	res, err := ev.Evaluate(CheckRequest{QueryDrugID: "DB00682"})
	require.NoError(t, err)
	assert.Equal(t, []Warning{
		FoodRisk("vitamin_k_foods", "reduced_anticoagulant_effect"),
		FoodRisk("alcohol", "liver_toxicity"),
	}, res.Warnings)
}

func TestScenarioC_ConditionRisk(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	res, err := ev.Evaluate(CheckRequest{QueryDrugID: "DB00852", Conditions: []string{"hypertension"}})
	require.NoError(t, err)
	assert.Equal(t, []Warning{ConditionRisk("hypertension")}, res.Warnings)
	assert.Equal(t, 1, res.Summary.ConditionRisks)
}

func TestScenarioD_NoFacts(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	res, err := ev.Evaluate(CheckRequest{QueryDrugID: "DB00316"})
	require.NoError(t, err)
	require.NotNil(t, res.Warnings)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, Summary{}, res.Summary)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"warnings":[]`)
}

func TestScenarioE_UnknownDrug(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	res, err := ev.Evaluate(CheckRequest{QueryDrugID: "DB99999", Conditions: []string{"asthma"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, kb.ErrUnknownDrug))
	assert.Nil(t, res.Warnings)
}

func TestEvaluateOrdering(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	req := CheckRequest{
		QueryDrugID:          "DB00682",
		Conditions:           []string{"pregnancy", "diabetes", "hypertension"},
		CurrentMedicationIDs: []string{"DB00316", "DB01050", "DB01211", "DB00945"},
	}
	res, err := ev.Evaluate(req)
	require.NoError(t, err)

	assert.Equal(t, []Warning{
		ConditionRisk("pregnancy"),
		InteractionRisk("DB00316", "reduced_effect", severity.Minor, severity.Low),
		InteractionRisk("DB01211", "enzyme_inhibition", severity.Moderate, severity.Med),
		InteractionRisk("DB00945", "increased_anticoagulant_effect", severity.Major, severity.High),
		FoodRisk("vitamin_k_foods", "reduced_anticoagulant_effect"),
		FoodRisk("alcohol", "liver_toxicity"),
	}, res.Warnings)

	assert.Equal(t, Summary{
		Total:            6,
		ConditionRisks:   1,
		InteractionRisks: 3,
		FoodRisks:        2,
		HighestSeverity:  severity.Major,
	}, res.Summary)

	// caller order, not KB order, drives the result
	req.Conditions = []string{"hypertension", "cardiovascular_disease"}
	req.QueryDrugID = "DB00852"
	res, err = ev.Evaluate(req)
	require.NoError(t, err)
	assert.Equal(t, []Warning{ConditionRisk("hypertension"), ConditionRisk("cardiovascular_disease")}, res.Warnings)

	req.Conditions = []string{"cardiovascular_disease", "hypertension"}
	res, err = ev.Evaluate(req)
	require.NoError(t, err)
	assert.Equal(t, []Warning{ConditionRisk("cardiovascular_disease"), ConditionRisk("hypertension")}, res.Warnings)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	ev, _ := newTestEvaluator(t)
	req := CheckRequest{
		QueryDrugID:          "DB01050",
		Conditions:           []string{"asthma", "renal_impairment"},
		CurrentMedicationIDs: []string{"DB00945", "DB00682"},
	}

	first, err := ev.Evaluate(req)
	require.NoError(t, err)
	second, err := ev.Evaluate(req)
	require.NoError(t, err)

	a, err := json.Marshal(first.Warnings)
	require.NoError(t, err)
	b, err := json.Marshal(second.Warnings)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluateConcurrentChecksAreIsolated(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	reqs := []CheckRequest{
		{QueryDrugID: "DB00852", Conditions: []string{"hypertension"}},
		{QueryDrugID: "DB01050", CurrentMedicationIDs: []string{"DB00945"}},
		{QueryDrugID: "DB00316"},
	}
	want := make([][]Warning, len(reqs))
	for i, r := range reqs {
		res, err := ev.Evaluate(r)
		require.NoError(t, err)
		want[i] = res.Warnings
	}

	var wg sync.WaitGroup
	errs := make(chan string, 300)
	for n := 0; n < 100; n++ {
		for i, r := range reqs {
			wg.Add(1)
			go func(i int, r CheckRequest) {
				defer wg.Done()
				res, err := ev.Evaluate(r)
				if err != nil || !assert.ObjectsAreEqual(want[i], res.Warnings) {
					errs <- r.QueryDrugID
				}
			}(i, r)
		}
	}
	wg.Wait()
	close(errs)

	for id := range errs {
		t.Errorf("check for %s observed another profile", id)
	}
}

func TestResolverSymmetry(t *testing.T) {
	k := newTestKB(t)
	r := NewResolver(k, nil)

	for f := range k.Interactions() {
		ab, okAB := r.InteractionSeverity(f.Pair.A, f.Pair.B)
		ba, okBA := r.InteractionSeverity(f.Pair.B, f.Pair.A)
		require.True(t, okAB)
		require.True(t, okBA)
		assert.Equal(t, ab, ba)

		ea, _ := r.ExplainInteraction(f.Pair.A, f.Pair.B)
		eb, _ := r.ExplainInteraction(f.Pair.B, f.Pair.A)
		assert.Equal(t, ea, eb)
	}
}

func TestResolverAbsenceIsNotAnError(t *testing.T) {
	_, r := newTestEvaluator(t)

	assert.False(t, r.IsUnsafeForCondition("DB99999", "asthma"))
	_, ok := r.InteractionSeverity("DB99999", "DB00945")
	assert.False(t, ok)
	_, ok = r.ExplainInteraction("DB00316", "DB00945")
	assert.False(t, ok)

	// self pairs are looked up like any other pair
	_, ok = r.InteractionSeverity("DB00945", "DB00945")
	assert.False(t, ok)

	n := 0
	for range r.UnsafeFoods("DB99999") {
		n++
	}
	assert.Zero(t, n)
}

func TestResolverUnsafeFoodsStopsEarly(t *testing.T) {
	_, r := newTestEvaluator(t)

	var foods []string
	for food := range r.UnsafeFoods("DB00682") {
		foods = append(foods, food)
		break
	}
	assert.Equal(t, []string{"vitamin_k_foods"}, foods)
}

func TestNewCheckRequest(t *testing.T) {
	req, err := NewCheckRequest(" DB00682 ",
		[]string{"Pregnancy", "asthma", "pregnancy", ""},
		[]string{"DB00945", "DB00682", "DB00945", " DB00316 "})
	require.NoError(t, err)
	assert.Equal(t, CheckRequest{
		QueryDrugID:          "DB00682",
		Conditions:           []string{"pregnancy", "asthma"},
		CurrentMedicationIDs: []string{"DB00945", "DB00316"},
	}, req)

	_, err = NewCheckRequest("DB00682", []string{"broken_leg"}, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "conditions", verr.Field)
	assert.Equal(t, "broken_leg", verr.Value)

	_, err = NewCheckRequest("  ", nil, nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "queryDrugId", verr.Field)

	req, err = NewCheckRequest("DB00316", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, req.Conditions)
	assert.NotNil(t, req.CurrentMedicationIDs)
}

func TestSummarizeHighestSeverity(t *testing.T) {
	s := Summarize([]Warning{
		InteractionRisk("a", "reduced_effect", severity.Minor, severity.Low),
		FoodRisk("alcohol", "liver_toxicity"),
		InteractionRisk("b", "enzyme_inhibition", severity.Moderate, severity.Med),
	})
	assert.Equal(t, severity.Moderate, s.HighestSeverity)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.FoodRisks)

	assert.Empty(t, Summarize([]Warning{FoodRisk("alcohol", "liver_toxicity")}).HighestSeverity)
}
