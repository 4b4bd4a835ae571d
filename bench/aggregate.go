package bench

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/shaynamir/archbench/archbench"
)

// CategoryStats are the per-category statistics of one variant. Statistics
// cover completed units only; Units vs Completed exposes how partial the run
// is instead of silently counting missing units as failures.
type CategoryStats struct {
	Category       archbench.Category           `json:"category"`
	Units          int                          `json:"units"`
	Completed      int                          `json:"completed"`
	SuccessRate    float64                      `json:"success_rate"`
	StatusRates    map[archbench.Status]float64 `json:"status_rates"`
	MeanElapsed    time.Duration                `json:"mean_elapsed_ns"`
	MedianElapsed  time.Duration                `json:"median_elapsed_ns"`
	EntityAccuracy float64                      `json:"entity_accuracy"`
}

// VariantSummary groups category statistics for one variant.
type VariantSummary struct {
	Variant    string          `json:"variant"`
	Categories []CategoryStats `json:"categories"`
}

// Summary is the aggregated result of a run, partial or complete.
type Summary struct {
	RunID          string           `json:"run_id"`
	TotalUnits     int              `json:"total_units"`
	CompletedUnits int              `json:"completed_units"`
	CompletionPct  float64          `json:"completion_pct"`
	ErroredUnits   []UnitKey        `json:"errored_units,omitempty"`
	MissingUnits   []UnitKey        `json:"missing_units,omitempty"`
	Variants       []VariantSummary `json:"variants"`
}

// Summarize aggregates the records of a run against its enumerated unit set.
// Units without a record are reported as missing, never folded into rates.
func Summarize(runID string, units []Unit, records []Record) Summary {
	byKey := make(map[UnitKey]Record, len(records))
	for _, rec := range records {
		byKey[rec.Key] = rec
	}

	sum := Summary{RunID: runID, TotalUnits: len(units)}

	type group struct {
		variant  string
		category archbench.Category
	}
	variantOrder := []string{}
	seenVariant := map[string]bool{}
	grouped := map[group][]Unit{}
	for _, u := range units {
		if !seenVariant[u.Key.Variant] {
			seenVariant[u.Key.Variant] = true
			variantOrder = append(variantOrder, u.Key.Variant)
		}
		g := group{u.Key.Variant, u.Command.Category}
		grouped[g] = append(grouped[g], u)

		rec, ok := byKey[u.Key]
		if !ok {
			sum.MissingUnits = append(sum.MissingUnits, u.Key)
			continue
		}
		sum.CompletedUnits++
		if rec.Outcome.Status == archbench.StatusError {
			sum.ErroredUnits = append(sum.ErroredUnits, u.Key)
		}
	}
	if sum.TotalUnits > 0 {
		sum.CompletionPct = float64(sum.CompletedUnits) / float64(sum.TotalUnits)
	}

	categories := []archbench.Category{
		archbench.CategoryAction, archbench.CategoryStatus, archbench.CategoryError,
	}
	for _, variant := range variantOrder {
		vs := VariantSummary{Variant: variant}
		for _, cat := range categories {
			groupUnits := grouped[group{variant, cat}]
			if len(groupUnits) == 0 {
				continue
			}
			vs.Categories = append(vs.Categories, categoryStats(cat, groupUnits, byKey))
		}
		sum.Variants = append(sum.Variants, vs)
	}
	return sum
}

func categoryStats(cat archbench.Category, units []Unit, byKey map[UnitKey]Record) CategoryStats {
	cs := CategoryStats{
		Category:    cat,
		Units:       len(units),
		StatusRates: make(map[archbench.Status]float64),
	}

	var elapsed []float64
	statusCounts := make(map[archbench.Status]int)
	entityMatches := 0
	for _, u := range units {
		rec, ok := byKey[u.Key]
		if !ok {
			continue
		}
		cs.Completed++
		statusCounts[rec.Outcome.Status]++
		elapsed = append(elapsed, float64(rec.Outcome.Elapsed))

		expected := archbench.NewEntitySet(u.Command.ExpectedEntities...)
		identified := archbench.NewEntitySet(rec.Outcome.IdentifiedEntities...)
		if expected.Equal(identified) {
			entityMatches++
		}
	}
	if cs.Completed == 0 {
		return cs
	}

	n := float64(cs.Completed)
	cs.SuccessRate = float64(statusCounts[archbench.StatusSuccess]) / n
	for status, count := range statusCounts {
		cs.StatusRates[status] = float64(count) / n
	}
	cs.EntityAccuracy = float64(entityMatches) / n

	sort.Float64s(elapsed)
	cs.MeanElapsed = time.Duration(stat.Mean(elapsed, nil))
	cs.MedianElapsed = time.Duration(stat.Quantile(0.5, stat.Empirical, elapsed, nil))
	return cs
}
