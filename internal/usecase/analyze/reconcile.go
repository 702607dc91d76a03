package analyze

import (
	"path/filepath"

	"buildcheck/internal/client/engine"
	"buildcheck/internal/domain"
)

// Reconcile folds the engine's answer back onto the upload slots. results is
// indexed by upload position and staged[i].Seq points into it; rejected
// slots are never touched.
//
// Entries that echo a path are matched first, by exact path. Entries without
// a path then fill the remaining slots in upload order. Unknown or repeated
// paths are dropped, and a slot nobody claimed ends up as a failure.
func Reconcile(results []domain.ImageResult, staged []domain.StagedFile, resp *engine.Response) {
	if resp == nil || !resp.HasResults {
		msg := domain.MsgEngineNoResults
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		for _, sf := range staged {
			markFailed(&results[sf.Seq], msg)
		}
		return
	}

	filled := make([]bool, len(staged))
	slots := make(map[string]int, len(staged))
	for i, sf := range staged {
		slots[filepath.Clean(sf.Path)] = i
	}

	var pathless []engine.Result
	for _, r := range resp.Results {
		if r.Path == "" {
			pathless = append(pathless, r)
			continue
		}

		slot, ok := slots[filepath.Clean(r.Path)]
		if !ok || filled[slot] {
			continue
		}
		apply(&results[staged[slot].Seq], r)
		filled[slot] = true
	}

	cursor := 0
	for _, r := range pathless {
		for cursor < len(staged) && filled[cursor] {
			cursor++
		}
		if cursor == len(staged) {
			break
		}
		apply(&results[staged[cursor].Seq], r)
		filled[cursor] = true
	}

	for slot, ok := range filled {
		if !ok {
			markFailed(&results[staged[slot].Seq], domain.MsgMissingEngineResult)
		}
	}
}

func apply(res *domain.ImageResult, r engine.Result) {
	if !r.OK {
		msg := r.Error
		if msg == "" {
			msg = domain.MsgEngineFailedImage
		}
		markFailed(res, msg)
		return
	}

	res.OK = true
	res.Error = ""
	res.DamageTypes = append([]string{}, r.DamageTypes...)
	res.CostMin = domain.CostRangeMin
	res.CostMax = domain.CostRangeMax
}

func markFailed(res *domain.ImageResult, msg string) {
	res.OK = false
	res.Error = msg
	res.DamageTypes = nil
	res.CostMin = 0
	res.CostMax = 0
}

func anyOK(results []domain.ImageResult) bool {
	for _, r := range results {
		if r.OK {
			return true
		}
	}
	return false
}
