package fleet

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/swarmsync/fleetd/core/model"
)

//go:embed seed.json
var defaultSeed []byte

// LoadSeed reads a fleet seed file. When path is empty or the file does not
// exist, the embedded default fleet is used so the service always starts.
func LoadSeed(path string) ([]model.Truck, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			data = b
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read seed %s: %w", path, err)
		}
	}
	var trucks []model.Truck
	if err := json.Unmarshal(data, &trucks); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return trucks, nil
}
