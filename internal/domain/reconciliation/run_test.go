package reconciliation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	t.Run("not found sentinel", func(t *testing.T) {
		assert.Equal(t, OutcomeNoMatch, ClassifyStatus("Not found"))
	})

	t.Run("rebutted counts as regularized", func(t *testing.T) {
		assert.Equal(t, OutcomeRegularized, ClassifyStatus("Desvirtuado"))
		assert.Equal(t, OutcomeRegularized, ClassifyStatus("Presunto DESVIRTUADO"))
	})

	t.Run("favorable sentence counts as regularized", func(t *testing.T) {
		assert.Equal(t, OutcomeRegularized, ClassifyStatus("Sentencia Favorable"))
	})

	t.Run("anything else is a match", func(t *testing.T) {
		assert.Equal(t, OutcomeMatch, ClassifyStatus("Definitivo"))
		assert.Equal(t, OutcomeMatch, ClassifyStatus("Presunto"))
	})
}

func TestRunRecord(t *testing.T) {
	run := NewRun(uuid.New(), KindManual, "2026-08-01")

	run.Record("AAA010101AAA", "Acme SA", "Definitivo")
	run.Record("BBB020202BBB", "", "Not found")
	run.Record("CCC030303CCC", "Corp SA", "Desvirtuado")
	run.Record("DDD040404DDD", "", "Not found")

	assert.Equal(t, 4, run.TotalChecked)
	assert.Equal(t, 2, run.Matches)
	assert.Equal(t, 1, run.Regularized)
	assert.Equal(t, 2, run.NotFound)
	assert.Len(t, run.Details, 4)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, KindManual, run.Kind)

	first := run.Details[0]
	assert.Equal(t, run.ID, first.RunID)
	assert.Equal(t, OutcomeMatch, first.Outcome)
}

func TestRunRecordCountsRegularizedAsMatches(t *testing.T) {
	run := NewRun(uuid.New(), KindManual, "2026-08-01")

	run.Record("AAA010101AAA", "", "Definitivo")
	run.Record("BBB020202BBB", "", "Desvirtuado")
	run.Record("CCC030303CCC", "", "Not found")

	found := 0
	for _, d := range run.Details {
		if d.Status != "Not found" {
			found++
		}
	}
	assert.Equal(t, found, run.Matches)
	assert.Equal(t, 2, run.Matches)
	assert.Equal(t, 1, run.Regularized)
	assert.Equal(t, run.TotalChecked, run.Matches+run.NotFound)
}
