// Package forest loads the pre-trained truck classifier artifact. The
// artifact is a random forest exported to JSON together with its label
// encoders; it is consumed only as predict(features) -> truck id.
package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNotLoaded is returned when no artifact is available and a prediction is
// requested anyway.
var ErrNotLoaded = errors.New("model artifact not loaded")

// Feature order expected by the classifier.
const (
	FeatBreakLat = iota
	FeatBreakLon
	FeatDestLat
	FeatDestLon
	FeatCargoWeight
	FeatCargoType
	NumFeatures
)

type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	// Leaf holds the predicted class index. Internal nodes leave it nil.
	Leaf *int `json:"leaf,omitempty"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// predict walks the tree from the root. Features at or below the threshold
// descend left.
func (t tree) predict(features []float64) (int, error) {
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if i < 0 || i >= len(t.Nodes) {
			return 0, fmt.Errorf("node index %d out of range", i)
		}
		n := t.Nodes[i]
		if n.Leaf != nil {
			return *n.Leaf, nil
		}
		if n.Feature < 0 || n.Feature >= NumFeatures {
			return 0, fmt.Errorf("feature index %d out of range", n.Feature)
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, errors.New("tree walk did not terminate")
}

// Artifact is the deserialized classifier plus its label encoders.
type Artifact struct {
	CargoLabels []string `json:"cargo_labels"`
	TruckLabels []string `json:"truck_labels"`
	Trees       []tree   `json:"trees"`
}

// Load reads and validates an artifact file.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	if len(a.Trees) == 0 {
		return errors.New("no trees")
	}
	if len(a.TruckLabels) == 0 {
		return errors.New("no truck labels")
	}
	for ti, t := range a.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf != nil {
				if *n.Leaf < 0 || *n.Leaf >= len(a.TruckLabels) {
					return fmt.Errorf("tree %d node %d: class %d out of range", ti, ni, *n.Leaf)
				}
				continue
			}
			if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}

// EncodeCargo maps a cargo type label onto its numeric encoding. Unknown
// labels encode as the first class, mirroring a degraded encoder rather than
// failing the whole prediction.
func (a *Artifact) EncodeCargo(label string) float64 {
	for i, l := range a.CargoLabels {
		if l == label {
			return float64(i)
		}
	}
	return 0
}

// Predict runs every tree and returns the truck label with the most votes.
// Ties resolve to the lowest class index, keeping predictions deterministic.
func (a *Artifact) Predict(features []float64) (string, error) {
	if a == nil {
		return "", ErrNotLoaded
	}
	if len(features) != NumFeatures {
		return "", fmt.Errorf("expected %d features, got %d", NumFeatures, len(features))
	}
	votes := make([]int, len(a.TruckLabels))
	for _, t := range a.Trees {
		class, err := t.predict(features)
		if err != nil {
			return "", err
		}
		votes[class]++
	}
	best := 0
	for i, v := range votes {
		if v > votes[best] {
			best = i
		}
	}
	return a.TruckLabels[best], nil
}
