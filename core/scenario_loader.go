package core

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oboisot/BSARGeom/model"
)

// LoadScenario reads a YAML scenario from r, applies defaults and
// validates the result. It fails on YAML/structural errors and on any
// validation failure; a scenario that loads is a scenario the engine
// accepts.
func LoadScenario(r io.Reader) (model.Scenario, error) {
	var scn model.Scenario

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&scn); err != nil {
		return model.Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}

	applyScenarioDefaults(&scn)

	if err := scn.Validate(); err != nil {
		return model.Scenario{}, fmt.Errorf("validate scenario: %w", err)
	}
	return scn, nil
}

// LoadScenarioFile is LoadScenario over a file path.
func LoadScenarioFile(path string) (model.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()

	scn, err := LoadScenario(f)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("scenario %q: %w", path, err)
	}
	return scn, nil
}

func applyScenarioDefaults(scn *model.Scenario) {
	if scn.Tx.Name == "" {
		scn.Tx.Name = "tx"
	}
	if scn.Rx.Name == "" {
		scn.Rx.Name = "rx"
	}
	if scn.Tx.Motion == "" {
		scn.Tx.Motion = model.MotionSourceLinear
	}
	if scn.Rx.Motion == "" {
		scn.Rx.Motion = model.MotionSourceLinear
	}
}
