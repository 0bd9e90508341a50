// Package rank turns a breakdown report and a fleet snapshot into an ordered
// list of dispatch candidates.
package rank

import (
	"sort"

	"github.com/swarmsync/fleetd/core/logger"
	"github.com/swarmsync/fleetd/core/model"
)

// DefaultMaxCandidates bounds the ranked list returned to callers.
const DefaultMaxCandidates = 3

// Engine scores and orders candidate trucks. It is agnostic to which Scorer
// variant it holds; the variant is selected once at startup.
type Engine struct {
	scorer Scorer
	max    int
	log    logger.Logger
}

// NewEngine creates an Engine. maxCandidates <= 0 selects the default limit.
func NewEngine(scorer Scorer, maxCandidates int, log logger.Logger) *Engine {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Engine{scorer: scorer, max: maxCandidates, log: log}
}

// Method reports which scorer variant the engine holds.
func (e *Engine) Method() string { return e.scorer.Name() }

// Rank filters the snapshot down to dispatchable trucks, scores them and
// returns at most maxCandidates results ordered by descending score. Equal
// scores keep the fleet order. An empty snapshot yields an empty list, not
// an error.
func (e *Engine) Rank(report model.BreakdownReport, trucks []model.Truck) []model.Candidate {
	eligible := make([]model.Truck, 0, len(trucks))
	for _, t := range trucks {
		if t.Dispatchable() {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		e.log.Warnf("no dispatchable trucks for breakdown at (%.4f, %.4f)", report.Lat, report.Lng)
		return []model.Candidate{}
	}

	cands := e.scorer.Score(report, eligible)
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
	if len(cands) > e.max {
		cands = cands[:e.max]
	}
	e.log.Infof("ranked %d of %d trucks via %s", len(cands), len(trucks), e.scorer.Name())
	return cands
}
