// Package audit persists one summary record per completed check.
package audit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/medsafe/internal/engine"
)

// TimestampLayout is ISO-8601 at second precision, in local time.
const TimestampLayout = "2006-01-02T15:04:05"

// Header is the column order of every sink.
var Header = []string{"timestamp", "query_drug_id", "query_drug_label", "conditions", "current_meds", "warnings_count"}

type Record struct {
	ID                 string
	Timestamp          time.Time
	QueryDrugID        string
	QueryDrugLabel     string
	Conditions         []string
	CurrentMedications []string
	WarningCount       int
}

// Labeler resolves a drug id to its display label.
type Labeler interface {
	Label(id string) string
}

// Emitter persists records. Implementations serialize their own writes so
// that concurrent checks never interleave partial records.
type Emitter interface {
	Emit(ctx context.Context, rec Record) error
	Close() error
}

// NewRecord summarizes a completed check. Current medications are recorded by label.
func NewRecord(res engine.CheckResult, labels Labeler, at time.Time) Record {
	meds := make([]string, 0, len(res.Request.CurrentMedicationIDs))
	for _, id := range res.Request.CurrentMedicationIDs {
		meds = append(meds, labels.Label(id))
	}
	return Record{
		ID:                 uuid.NewString(),
		Timestamp:          at,
		QueryDrugID:        res.QueryDrug.ID,
		QueryDrugLabel:     res.QueryDrug.Label,
		Conditions:         append([]string(nil), res.Request.Conditions...),
		CurrentMedications: meds,
		WarningCount:       len(res.Warnings),
	}
}

// Fields renders the record in Header order. List columns are
// semicolon-joined and commas inside any field become spaces.
func (r Record) Fields() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		flatten(r.QueryDrugID),
		flatten(r.QueryDrugLabel),
		flatten(strings.Join(r.Conditions, ";")),
		flatten(strings.Join(r.CurrentMedications, ";")),
		strconv.Itoa(r.WarningCount),
	}
}

var flattener = strings.NewReplacer(",", " ", "\n", " ", "\r", " ")

func flatten(s string) string {
	return flattener.Replace(s)
}

// splitList undoes the semicolon join of a list column.
func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ";")
}

// Nop discards records.
type Nop struct{}

func (Nop) Emit(context.Context, Record) error { return nil }
func (Nop) Close() error                      { return nil }
