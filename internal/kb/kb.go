package kb

import (
	"iter"
	"slices"
	"strings"
)

type contraKey struct {
	drugID    string
	condition string
}

// KnowledgeBase holds the indexed fact tables. It is built once by Load and
// never mutated afterwards, so it is safe to share across goroutines.
type KnowledgeBase struct {
	drugs    map[string]Drug
	byLabel  []Drug
	pairs    map[Pair]InteractionFact
	pairList []InteractionFact
	contra   map[contraKey]struct{}
	foods    map[string][]FoodInteraction
	notes    map[string][]FoodNote
	classes  map[string][]DrugClass
	stats    Stats
}

// LookupDrug returns the drug for id or an *UnknownDrugError.
func (k *KnowledgeBase) LookupDrug(id string) (Drug, error) {
	d, ok := k.drugs[id]
	if !ok {
		return Drug{}, &UnknownDrugError{ID: id}
	}
	return d, nil
}

func (k *KnowledgeBase) HasDrug(id string) bool {
	_, ok := k.drugs[id]
	return ok
}

// Label returns the display label for id, or id itself when the drug is not loaded.
func (k *KnowledgeBase) Label(id string) string {
	if d, ok := k.drugs[id]; ok {
		return d.Label
	}
	return id
}

// LookupInteraction finds the interaction for an unordered pair of drug ids.
func (k *KnowledgeBase) LookupInteraction(idA, idB string) (InteractionFact, bool) {
	f, ok := k.pairs[CanonicalPair(idA, idB)]
	return f, ok
}

func (k *KnowledgeBase) LookupContraindication(drugID, condition string) bool {
	_, ok := k.contra[contraKey{drugID: drugID, condition: condition}]
	return ok
}

// FoodInteractions yields the food interaction rows for drugID in load order.
// The sequence can be ranged over any number of times.
func (k *KnowledgeBase) FoodInteractions(drugID string) iter.Seq[FoodInteraction] {
	rows := k.foods[drugID]
	return func(yield func(FoodInteraction) bool) {
		for _, f := range rows {
			if !yield(f) {
				return
			}
		}
	}
}

// Interactions yields every stored interaction in load order.
func (k *KnowledgeBase) Interactions() iter.Seq[InteractionFact] {
	return slices.Values(k.pairList)
}

func (k *KnowledgeBase) FoodNotes(drugID string) []FoodNote {
	return slices.Clone(k.notes[drugID])
}

func (k *KnowledgeBase) Classes(drugID string) []DrugClass {
	return slices.Clone(k.classes[drugID])
}

// Drugs returns every drug sorted by display label.
func (k *KnowledgeBase) Drugs() []Drug {
	return slices.Clone(k.byLabel)
}

// Search returns drugs whose label contains query, case-insensitively, in
// label order. A non-positive limit means no limit.
func (k *KnowledgeBase) Search(query string, limit int) []Drug {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Drug{}
	for _, d := range k.byLabel {
		if q != "" && !strings.Contains(strings.ToLower(d.Label), q) {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (k *KnowledgeBase) Stats() Stats {
	return k.stats
}
