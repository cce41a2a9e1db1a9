package engine

import (
	"iter"

	"github.com/Skufu/medsafe/internal/kb"
	"github.com/Skufu/medsafe/internal/severity"
)

// Resolver answers the per-fact safety questions. Every method is a read of
// the immutable knowledge base, so a Resolver may be shared freely. Missing
// facts are never errors.
type Resolver struct {
	kb         *kb.KnowledgeBase
	classifier *severity.Classifier
}

func NewResolver(k *kb.KnowledgeBase, c *severity.Classifier) *Resolver {
	if c == nil {
		c = severity.Default()
	}
	return &Resolver{kb: k, classifier: c}
}

// InteractionSeverity is the effect of a drug pair and its classified tier.
type InteractionSeverity struct {
	Effect   string
	Severity severity.Severity
}

// LookupDrug is the only Resolver call that fails, with kb.ErrUnknownDrug.
func (r *Resolver) LookupDrug(id string) (kb.Drug, error) {
	return r.kb.LookupDrug(id)
}

func (r *Resolver) IsUnsafeForCondition(drugID, condition string) bool {
	return r.kb.LookupContraindication(drugID, condition)
}

// InteractionSeverity looks the pair up in either direction. Self pairs are
// looked up like any other pair.
func (r *Resolver) InteractionSeverity(drugID, otherID string) (InteractionSeverity, bool) {
	f, ok := r.kb.LookupInteraction(drugID, otherID)
	if !ok {
		return InteractionSeverity{}, false
	}
	return InteractionSeverity{Effect: f.Effect, Severity: r.classifier.Tier(f.Effect)}, true
}

// ExplainInteraction returns the effect code that explains a pair's interaction.
func (r *Resolver) ExplainInteraction(drugID, otherID string) (string, bool) {
	f, ok := r.kb.LookupInteraction(drugID, otherID)
	if !ok {
		return "", false
	}
	return f.Effect, true
}

// UnsafeFoods yields (food, effect) for every food interaction of drugID in table order.
func (r *Resolver) UnsafeFoods(drugID string) iter.Seq2[string, string] {
	rows := r.kb.FoodInteractions(drugID)
	return func(yield func(string, string) bool) {
		for f := range rows {
			if !yield(f.Food, f.Effect) {
				return
			}
		}
	}
}
