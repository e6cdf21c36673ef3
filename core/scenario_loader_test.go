package core

import (
	"strings"
	"testing"
	"time"

	"github.com/oboisot/BSARGeom/model"
)

const validScenarioYAML = `
origin:
  latitude_deg: 43.6
  longitude_deg: 1.44
tx:
  altitude_m: 8000
  ground_speed_mps: 200
  heading_deg: 0
rx:
  altitude_m: 6000
  ground_speed_mps: 180
  heading_deg: 0
  start_east_m: 50000
radar:
  wavelength_m: 0.03
  bandwidth_hz: 100.0e6
target_east_m: 25000
target_north_m: 10000
`

func TestLoadScenario_AppliesDefaults(t *testing.T) {
	scn, err := LoadScenario(strings.NewReader(validScenarioYAML))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	if scn.Tx.Name != "tx" || scn.Rx.Name != "rx" {
		t.Errorf("expected default platform names, got %q / %q", scn.Tx.Name, scn.Rx.Name)
	}
	if scn.Tx.Motion != model.MotionSourceLinear || scn.Rx.Motion != model.MotionSourceLinear {
		t.Errorf("expected default linear motion, got %q / %q", scn.Tx.Motion, scn.Rx.Motion)
	}
	if scn.Radar.WavelengthM != 0.03 {
		t.Errorf("wavelength not carried through: %g", scn.Radar.WavelengthM)
	}
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	yaml := strings.Replace(validScenarioYAML, "target_east_m:", "target_easting_m:", 1)
	if _, err := LoadScenario(strings.NewReader(yaml)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoadScenario_RejectsInvalidValues(t *testing.T) {
	yaml := strings.Replace(validScenarioYAML, "latitude_deg: 43.6", "latitude_deg: 143.6", 1)
	if _, err := LoadScenario(strings.NewReader(yaml)); err == nil {
		t.Fatalf("expected validation error for latitude 143.6")
	}

	yaml = strings.Replace(validScenarioYAML, "bandwidth_hz: 100.0e6", "bandwidth_hz: 0", 1)
	if _, err := LoadScenario(strings.NewReader(yaml)); err == nil {
		t.Fatalf("expected validation error for zero bandwidth")
	}
}

func TestLoadScenario_FeedsEngine(t *testing.T) {
	scn, err := LoadScenario(strings.NewReader(validScenarioYAML))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	snap, err := Publish(0, scn, time.Time{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if snap.Geometry.BistaticRangeM <= 0 {
		t.Errorf("expected positive bistatic range, got %g", snap.Geometry.BistaticRangeM)
	}
}
