package kb

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"
)

// DefaultFiles are the fact files produced by the extraction pipeline.
var DefaultFiles = []string{
	"drugs.pl",
	"interactions.pl",
	"contraindications.pl",
	"food_interactions.pl",
	"food_notes.pl",
	"drug_classes.pl",
}

type noteKey struct {
	drugID string
	text   string
}

type classKey struct {
	drugID string
	class  string
}

// builder accumulates statements across files. Every table keeps the first
// fact seen for its key.
type builder struct {
	kb        *KnowledgeBase
	seenFood  map[FoodInteraction]struct{}
	seenNotes map[noteKey]struct{}
	seenClass map[classKey]struct{}
}

func newBuilder() *builder {
	return &builder{
		kb: &KnowledgeBase{
			drugs:   make(map[string]Drug),
			pairs:   make(map[Pair]InteractionFact),
			contra:  make(map[contraKey]struct{}),
			foods:   make(map[string][]FoodInteraction),
			notes:   make(map[string][]FoodNote),
			classes: make(map[string][]DrugClass),
		},
		seenFood:  make(map[FoodInteraction]struct{}),
		seenNotes: make(map[noteKey]struct{}),
		seenClass: make(map[classKey]struct{}),
	}
}

// LoadDir loads the named files from dir. An empty files list means DefaultFiles.
func LoadDir(dir string, files []string, logger *logrus.Logger) (*KnowledgeBase, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, filepath.Join(dir, f))
	}
	return Load(paths, logger)
}

// Load reads every fact file and builds the knowledge base. Any missing or
// malformed file aborts the load; no partial knowledge base is returned.
func Load(paths []string, logger *logrus.Logger) (*KnowledgeBase, error) {
	b := newBuilder()
	for _, path := range paths {
		if err := b.readFile(path); err != nil {
			return nil, err
		}
	}

	k, err := b.finish()
	if err != nil {
		return nil, err
	}

	if logger != nil {
		s := k.Stats()
		logger.WithFields(logrus.Fields{
			"files":              len(paths),
			"drugs":              s.Drugs,
			"interactions":       s.Interactions,
			"contraindications":  s.Contraindications,
			"food_interactions":  s.FoodInteractions,
			"food_notes":         s.FoodNotes,
			"drug_classes":       s.DrugClasses,
			"duplicates_dropped": s.DuplicatesDropped,
		}).Info("Knowledge base loaded")
	}
	return k, nil
}

// LoadReaders builds a knowledge base from in-memory sources keyed by name.
// Sources are read in the order of names.
func LoadReaders(names []string, sources map[string]io.Reader) (*KnowledgeBase, error) {
	b := newBuilder()
	for _, name := range names {
		r, ok := sources[name]
		if !ok {
			return nil, &LoadError{Path: name, Err: os.ErrNotExist}
		}
		if err := b.read(name, r); err != nil {
			return nil, err
		}
	}
	return b.finish()
}

func (b *builder) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer f.Close()
	return b.read(path, f)
}

func (b *builder) read(name string, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		st, err := parseStatement(sc.Text())
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return &LoadError{Path: name, Line: line, Err: err}
		}
		b.add(st)
	}
	if err := sc.Err(); err != nil {
		return &LoadError{Path: name, Err: err}
	}
	return nil
}

func (b *builder) add(st statement) {
	k := b.kb
	a := st.args
	switch st.name {
	case "drug":
		if _, dup := k.drugs[a[0].text]; dup {
			k.stats.DuplicatesDropped++
			return
		}
		k.drugs[a[0].text] = Drug{
			ID:            a[0].text,
			CanonicalName: a[1].text,
			Label:         DisplayLabel(a[1].text, a[0].text),
		}
	case "interaction":
		p := CanonicalPair(a[0].text, a[1].text)
		if _, dup := k.pairs[p]; dup {
			k.stats.DuplicatesDropped++
			return
		}
		f := InteractionFact{Pair: p, Effect: a[2].text}
		k.pairs[p] = f
		k.pairList = append(k.pairList, f)
	case "contraindicated":
		key := contraKey{drugID: a[0].text, condition: a[1].text}
		if _, dup := k.contra[key]; dup {
			k.stats.DuplicatesDropped++
			return
		}
		k.contra[key] = struct{}{}
	case "food_interaction":
		f := FoodInteraction{DrugID: a[0].text, Food: a[1].text, Effect: a[2].text}
		if _, dup := b.seenFood[f]; dup {
			k.stats.DuplicatesDropped++
			return
		}
		b.seenFood[f] = struct{}{}
		k.foods[f.DrugID] = append(k.foods[f.DrugID], f)
	case "food_note":
		key := noteKey{drugID: a[0].text, text: a[1].text}
		if _, dup := b.seenNotes[key]; dup {
			k.stats.DuplicatesDropped++
			return
		}
		b.seenNotes[key] = struct{}{}
		k.notes[key.drugID] = append(k.notes[key.drugID], FoodNote{DrugID: key.drugID, RawText: key.text})
	case "drug_class":
		key := classKey{drugID: a[0].text, class: a[1].text}
		if _, dup := b.seenClass[key]; dup {
			k.stats.DuplicatesDropped++
			return
		}
		b.seenClass[key] = struct{}{}
		k.classes[key.drugID] = append(k.classes[key.drugID], DrugClass{DrugID: key.drugID, Class: key.class})
	}
}

func (b *builder) finish() (*KnowledgeBase, error) {
	k := b.kb
	if len(k.drugs) == 0 {
		return nil, &LoadError{Path: "drugs", Err: fmt.Errorf("no drug facts loaded")}
	}

	k.byLabel = make([]Drug, 0, len(k.drugs))
	for _, d := range k.drugs {
		k.byLabel = append(k.byLabel, d)
	}
	slices.SortFunc(k.byLabel, func(x, y Drug) int {
		return cmp.Or(cmp.Compare(x.Label, y.Label), cmp.Compare(x.ID, y.ID))
	})

	k.stats.Drugs = len(k.drugs)
	k.stats.Interactions = len(k.pairs)
	k.stats.Contraindications = len(k.contra)
	k.stats.FoodInteractions = len(b.seenFood)
	k.stats.FoodNotes = len(b.seenNotes)
	k.stats.DrugClasses = len(b.seenClass)

	b.kb = nil
	return k, nil
}
