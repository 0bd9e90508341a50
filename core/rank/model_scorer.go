package rank

import (
	"github.com/swarmsync/fleetd/core/forest"
	"github.com/swarmsync/fleetd/core/logger"
	"github.com/swarmsync/fleetd/core/model"
)

// modelScore is the confidence assigned to the classifier's pick.
const modelScore = 0.95

// ModelScorer wraps the classifier artifact. It derives the feature vector
// deterministically from the report, asks the forest for a truck, and boosts
// that truck above the heuristic baseline. When the prediction misses the
// candidate set the heuristic scores stand unchanged.
type ModelScorer struct {
	artifact *forest.Artifact
	base     HeuristicScorer
	log      logger.Logger
}

// NewModelScorer builds a ModelScorer around a loaded artifact.
func NewModelScorer(artifact *forest.Artifact, log logger.Logger) *ModelScorer {
	return &ModelScorer{artifact: artifact, log: log}
}

func (s *ModelScorer) Name() string { return "model" }

// cargoWeightFor maps urgency onto the cargo weight feature. Emergencies
// assume light cargo. The mapping is fixed so repeated rankings against an
// unchanged fleet stay identical.
func cargoWeightFor(u model.Urgency) float64 {
	switch u {
	case model.UrgencyHigh:
		return 5
	case model.UrgencyLow:
		return 17
	default:
		return 10
	}
}

// Score runs the heuristic baseline and overlays the model prediction.
func (s *ModelScorer) Score(report model.BreakdownReport, trucks []model.Truck) []model.Candidate {
	cands := s.base.Score(report, trucks)

	features := make([]float64, forest.NumFeatures)
	features[forest.FeatBreakLat] = report.Lat
	features[forest.FeatBreakLon] = report.Lng
	// The destination is unknown at report time; the breakdown point is the
	// deterministic stand-in.
	features[forest.FeatDestLat] = report.Lat
	features[forest.FeatDestLon] = report.Lng
	features[forest.FeatCargoWeight] = cargoWeightFor(report.Urgency)
	features[forest.FeatCargoType] = s.artifact.EncodeCargo("normal")

	predicted, err := s.artifact.Predict(features)
	if err != nil {
		s.log.Warnf("model prediction failed, keeping heuristic scores: %v", err)
		return cands
	}

	for i := range cands {
		if cands[i].TruckID == predicted {
			if cands[i].Score < modelScore {
				cands[i].Score = modelScore
			}
			cands[i].Method = model.MethodModel
			s.log.Infof("model predicted truck %s at %.1fkm", predicted, cands[i].DistanceKM)
			return cands
		}
	}
	s.log.Warnf("predicted truck %s is not a candidate, keeping heuristic scores", predicted)
	return cands
}
