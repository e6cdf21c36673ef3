package model

import "fmt"

// RadarParams carries the radar quantities the resolution calculator
// needs. No waveform-level parameters live here; this layer stops at
// wavelength, bandwidth and timing.
type RadarParams struct {
	// WavelengthM is the carrier wavelength. Exactly one of
	// WavelengthM and CenterFrequencyHz must be positive; when both
	// are given they must agree (c = λf is not re-derived silently).
	WavelengthM       float64 `yaml:"wavelength_m,omitempty" json:"wavelength_m,omitempty"`
	CenterFrequencyHz float64 `yaml:"center_frequency_hz,omitempty" json:"center_frequency_hz,omitempty"`

	// BandwidthHz is the transmitted bandwidth.
	BandwidthHz float64 `yaml:"bandwidth_hz" json:"bandwidth_hz"`

	// IntegrationTimeS is the coherent integration time. Zero selects
	// the automatic value that yields square resolution cells.
	IntegrationTimeS float64 `yaml:"integration_time_s,omitempty" json:"integration_time_s,omitempty"`

	// PRFHz is the pulse repetition frequency. Zero disables the
	// Doppler ambiguity check.
	PRFHz float64 `yaml:"prf_hz,omitempty" json:"prf_hz,omitempty"`

	// WeightedApertures applies the half-power width of the squared
	// cardinal sine to all resolution values, the convention of
	// weighted-aperture processing. Off by default: the unweighted values
	// reduce to the textbook monostatic c/2B limit.
	WeightedApertures bool `yaml:"weighted_apertures,omitempty" json:"weighted_apertures,omitempty"`
}

// SpeedOfLight is c in m/s (CODATA).
const SpeedOfLight = 299792458.0

// Wavelength resolves the carrier wavelength in metres from whichever
// of the two spellings the configuration used.
func (p RadarParams) Wavelength() float64 {
	if p.WavelengthM > 0 {
		return p.WavelengthM
	}
	if p.CenterFrequencyHz > 0 {
		return SpeedOfLight / p.CenterFrequencyHz
	}
	return 0
}

// Validate checks that the parameters define a usable radar.
func (p RadarParams) Validate() error {
	if p.WavelengthM <= 0 && p.CenterFrequencyHz <= 0 {
		return fmt.Errorf("radar: one of wavelength_m or center_frequency_hz must be positive")
	}
	if p.WavelengthM > 0 && p.CenterFrequencyHz > 0 {
		implied := SpeedOfLight / p.CenterFrequencyHz
		if diff := implied - p.WavelengthM; diff > 1e-9 || diff < -1e-9 {
			return fmt.Errorf("radar: wavelength %.6g m conflicts with center frequency %.6g Hz", p.WavelengthM, p.CenterFrequencyHz)
		}
	}
	if p.BandwidthHz <= 0 {
		return fmt.Errorf("radar: bandwidth must be positive, got %.6g Hz", p.BandwidthHz)
	}
	if p.IntegrationTimeS < 0 {
		return fmt.Errorf("radar: negative integration time %.6g s", p.IntegrationTimeS)
	}
	if p.PRFHz < 0 {
		return fmt.Errorf("radar: negative PRF %.6g Hz", p.PRFHz)
	}
	return nil
}
