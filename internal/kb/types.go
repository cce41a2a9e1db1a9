package kb

// Drug is a single medicine identity from the drug table.
type Drug struct {
	ID            string `json:"id"`
	CanonicalName string `json:"canonicalName"`
	Label         string `json:"label"`
}

// Pair is an unordered pair of drug ids stored with A <= B.
type Pair struct {
	A string
	B string
}

// CanonicalPair orders two drug ids so that lookups are direction independent.
func CanonicalPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

type InteractionFact struct {
	Pair   Pair
	Effect string
}

type ContraindicationFact struct {
	DrugID    string
	Condition string
}

type FoodInteraction struct {
	DrugID string `json:"drugId"`
	Food   string `json:"food"`
	Effect string `json:"effect"`
}

// FoodNote preserves the raw food guidance text for a drug. It is provenance
// only and never produces a warning.
type FoodNote struct {
	DrugID  string `json:"drugId"`
	RawText string `json:"rawText"`
}

type DrugClass struct {
	DrugID string `json:"drugId"`
	Class  string `json:"class"`
}

// Stats summarizes what a load produced.
type Stats struct {
	Drugs             int `json:"drugs"`
	Interactions      int `json:"interactions"`
	Contraindications int `json:"contraindications"`
	FoodInteractions  int `json:"foodInteractions"`
	FoodNotes         int `json:"foodNotes"`
	DrugClasses       int `json:"drugClasses"`
	DuplicatesDropped int `json:"duplicatesDropped"`
}
