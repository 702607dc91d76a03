package analyze

import (
	"testing"

	"buildcheck/internal/client/engine"
	"buildcheck/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagedSlots(paths ...string) ([]domain.ImageResult, []domain.StagedFile) {
	results := make([]domain.ImageResult, len(paths))
	staged := make([]domain.StagedFile, 0, len(paths))
	for i, p := range paths {
		results[i] = domain.ImageResult{Filename: p}
		if p == "" {
			results[i].Error = string(domain.ReasonEmpty)
			continue
		}
		staged = append(staged, domain.StagedFile{Path: p, Seq: i, Filename: p})
	}
	return results, staged
}

func TestReconcileMatchesByPathRegardlessOfOrder(t *testing.T) {
	results, staged := stagedSlots("/shared/a.jpg", "/shared/b.jpg")

	Reconcile(results, staged, &engine.Response{HasResults: true, Results: []engine.Result{
		{OK: false, Path: "/shared/b.jpg", Error: "unreadable image"},
		{OK: true, Path: "/shared/a.jpg", DamageTypes: []string{"crack"}},
	}})

	assert.Equal(t, domain.ImageResult{
		Filename:    "/shared/a.jpg",
		OK:          true,
		DamageTypes: []string{"crack"},
		CostMin:     domain.CostRangeMin,
		CostMax:     domain.CostRangeMax,
	}, results[0])
	assert.False(t, results[1].OK)
	assert.Equal(t, "unreadable image", results[1].Error)
}

func TestReconcileCleansPaths(t *testing.T) {
	results, staged := stagedSlots("/shared/a.jpg")

	Reconcile(results, staged, &engine.Response{HasResults: true, Results: []engine.Result{
		{OK: true, Path: "/shared/./x/../a.jpg"},
	}})

	assert.True(t, results[0].OK)
	assert.NotNil(t, results[0].DamageTypes)
	assert.Empty(t, results[0].DamageTypes)
}

func TestReconcileFallsBackToUploadOrder(t *testing.T) {
	results, staged := stagedSlots("/s/a.jpg", "", "/s/c.jpg", "/s/d.jpg")

	Reconcile(results, staged, &engine.Response{HasResults: true, Results: []engine.Result{
		{OK: true, Path: "/s/c.jpg", DamageTypes: []string{"moisture"}},
		{OK: true, DamageTypes: []string{"crack"}},
		{OK: false},
	}})

	assert.True(t, results[0].OK)
	assert.Equal(t, []string{"crack"}, results[0].DamageTypes)

	assert.Equal(t, string(domain.ReasonEmpty), results[1].Error, "rejected slots pass through")
	assert.False(t, results[1].OK)

	assert.Equal(t, []string{"moisture"}, results[2].DamageTypes)

	assert.False(t, results[3].OK)
	assert.Equal(t, domain.MsgEngineFailedImage, results[3].Error)
}

func TestReconcileIgnoresUnknownAndDuplicatePaths(t *testing.T) {
	results, staged := stagedSlots("/s/a.jpg", "/s/b.jpg")

	Reconcile(results, staged, &engine.Response{HasResults: true, Results: []engine.Result{
		{OK: true, Path: "/s/a.jpg", DamageTypes: []string{"crack"}},
		{OK: false, Path: "/s/a.jpg", Error: "second answer"},
		{OK: true, Path: "/elsewhere/b.jpg"},
	}})

	assert.True(t, results[0].OK)
	assert.Equal(t, []string{"crack"}, results[0].DamageTypes)
	assert.False(t, results[1].OK)
	assert.Equal(t, domain.MsgMissingEngineResult, results[1].Error)
}

func TestReconcileFewerResultsThanStaged(t *testing.T) {
	results, staged := stagedSlots("/s/a.jpg", "/s/b.jpg", "/s/c.jpg")

	Reconcile(results, staged, &engine.Response{HasResults: true, Results: []engine.Result{
		{OK: true},
	}})

	assert.True(t, results[0].OK)
	for _, r := range results[1:] {
		assert.False(t, r.OK)
		assert.Equal(t, domain.MsgMissingEngineResult, r.Error)
	}
}

func TestReconcileExtraPathlessResultsAreDropped(t *testing.T) {
	results, staged := stagedSlots("/s/a.jpg")

	Reconcile(results, staged, &engine.Response{HasResults: true, Results: []engine.Result{
		{OK: false, Error: "first"},
		{OK: true},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, "first", results[0].Error)
}

func TestReconcileWithoutResults(t *testing.T) {
	t.Run("engine message", func(t *testing.T) {
		results, staged := stagedSlots("/s/a.jpg", "")
		Reconcile(results, staged, &engine.Response{Message: "engine overloaded"})

		assert.Equal(t, "engine overloaded", results[0].Error)
		assert.Equal(t, string(domain.ReasonEmpty), results[1].Error)
	})

	t.Run("fallback", func(t *testing.T) {
		results, staged := stagedSlots("/s/a.jpg")
		Reconcile(results, staged, nil)

		assert.Equal(t, domain.MsgEngineNoResults, results[0].Error)
	})
}
