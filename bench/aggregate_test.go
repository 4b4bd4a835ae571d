package bench

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaynamir/archbench/archbench"
)

func makeUnits(variant string, cat archbench.Category, n int) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = Unit{
			Key: UnitKey{RunID: "run-a", CommandID: fmt.Sprintf("cmd-%d", i), Variant: variant},
			Command: archbench.Command{
				ID:               fmt.Sprintf("cmd-%d", i),
				Category:         cat,
				ExpectedEntities: []string{"light.bed_light"},
			},
		}
	}
	return units
}

func TestSummarizeStatusBreakdown(t *testing.T) {
	units := makeUnits("react/phi3:mini", archbench.CategoryAction, 4)
	statuses := []archbench.Status{
		archbench.StatusSuccess, archbench.StatusSuccess,
		archbench.StatusFailure, archbench.StatusTimeout,
	}
	records := make([]Record, len(units))
	for i, u := range units {
		records[i] = Record{Key: u.Key, Outcome: archbench.Outcome{
			Status:             statuses[i],
			Elapsed:            time.Duration(i+1) * 100 * time.Millisecond,
			IdentifiedEntities: []string{"light.bed_light"},
		}}
	}

	sum := Summarize("run-a", units, records)

	require.Len(t, sum.Variants, 1)
	require.Len(t, sum.Variants[0].Categories, 1)
	cs := sum.Variants[0].Categories[0]

	assert.Equal(t, 4, cs.Units)
	assert.Equal(t, 4, cs.Completed)
	assert.InDelta(t, 0.5, cs.SuccessRate, 1e-9)
	assert.InDelta(t, 0.25, cs.StatusRates[archbench.StatusFailure], 1e-9)
	assert.InDelta(t, 0.25, cs.StatusRates[archbench.StatusTimeout], 1e-9)
	assert.InDelta(t, 1.0, cs.EntityAccuracy, 1e-9)
	assert.Equal(t, 250*time.Millisecond, cs.MeanElapsed)
	assert.InDelta(t, 1.0, sum.CompletionPct, 1e-9)
	assert.Empty(t, sum.MissingUnits)
}

func TestSummarizePartialRun(t *testing.T) {
	units := makeUnits("tot/mistral", archbench.CategoryStatus, 2)
	records := []Record{{
		Key: units[0].Key,
		Outcome: archbench.Outcome{
			Status:             archbench.StatusSuccess,
			Elapsed:            time.Second,
			IdentifiedEntities: []string{"light.bed_light"},
		},
	}}

	sum := Summarize("run-a", units, records)

	assert.Equal(t, 2, sum.TotalUnits)
	assert.Equal(t, 1, sum.CompletedUnits)
	assert.InDelta(t, 0.5, sum.CompletionPct, 1e-9)
	require.Len(t, sum.MissingUnits, 1)
	assert.Equal(t, units[1].Key, sum.MissingUnits[0])

	cs := sum.Variants[0].Categories[0]
	assert.Equal(t, 2, cs.Units)
	assert.Equal(t, 1, cs.Completed)
	assert.InDelta(t, 1.0, cs.SuccessRate, 1e-9, "rates cover completed units only")
}

func TestSummarizeEmptyExpectedSetMatchesEmptyIdentified(t *testing.T) {
	unit := Unit{
		Key:     UnitKey{RunID: "run-a", CommandID: "err-1", Variant: "standard/phi3:mini"},
		Command: archbench.Command{ID: "err-1", Category: archbench.CategoryError},
	}
	rec := Record{Key: unit.Key, Outcome: archbench.Outcome{
		Status:  archbench.StatusFailure,
		Elapsed: time.Second,
	}}

	sum := Summarize("run-a", []Unit{unit}, []Record{rec})

	cs := sum.Variants[0].Categories[0]
	assert.Equal(t, archbench.CategoryError, cs.Category)
	assert.InDelta(t, 1.0, cs.EntityAccuracy, 1e-9)
}

func TestSummarizeTracksErroredUnits(t *testing.T) {
	units := makeUnits("cot/gemma3:4b", archbench.CategoryAction, 2)
	records := []Record{
		{Key: units[0].Key, Outcome: archbench.Outcome{Status: archbench.StatusError, Elapsed: time.Second}},
		{Key: units[1].Key, Outcome: archbench.Outcome{Status: archbench.StatusSuccess, Elapsed: time.Second,
			IdentifiedEntities: []string{"light.bed_light"}}},
	}

	sum := Summarize("run-a", units, records)

	require.Len(t, sum.ErroredUnits, 1)
	assert.Equal(t, units[0].Key, sum.ErroredUnits[0])
}
