// Command bsarsim sweeps a bistatic scenario over a time window and
// writes one geometry snapshot per tick, as CSV or JSON.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/oboisot/BSARGeom/core"
	"github.com/oboisot/BSARGeom/internal/logging"
	"github.com/oboisot/BSARGeom/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/airborne_bistatic.yaml", "path to a scenario YAML file")
	duration := flag.Float64("duration", 60, "simulation window in seconds")
	tick := flag.Float64("tick", 1, "tick interval in seconds")
	realtime := flag.Bool("realtime", false, "pace ticks against wall-clock time instead of running flat out")
	format := flag.String("format", "csv", "output format: csv or json")
	epochStr := flag.String("epoch", "", "RFC 3339 epoch for TLE-driven platforms (default: now)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	epoch := time.Now().UTC()
	if *epochStr != "" {
		var err error
		epoch, err = time.Parse(time.RFC3339, *epochStr)
		if err != nil {
			log.Error(ctx, "invalid epoch", logging.String("epoch", *epochStr), logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	scn, err := core.LoadScenarioFile(*scenarioPath)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", *scenarioPath), logging.String("error", err.Error()))
		os.Exit(1)
	}

	engine, err := core.NewEngine(scn, epoch)
	if err != nil {
		log.Error(ctx, "failed to build engine", logging.String("error", err.Error()))
		os.Exit(1)
	}

	var sink snapshotSink
	switch *format {
	case "csv":
		sink = newCSVSink(os.Stdout)
	case "json":
		sink = newJSONSink(os.Stdout)
	default:
		log.Error(ctx, "unknown output format", logging.String("format", *format))
		os.Exit(1)
	}

	mode := timectrl.Accelerated
	if *realtime {
		mode = timectrl.RealTime
	}
	tc := timectrl.NewTimeController(0, *tick, mode)

	failed := false
	tc.AddListener(func(t float64) {
		snap, err := engine.Publish(t)
		if err != nil {
			log.Error(ctx, "snapshot failed",
				logging.Float64("t", t),
				logging.String("error", err.Error()))
			failed = true
			return
		}
		if err := sink.write(snap); err != nil {
			log.Error(ctx, "write failed", logging.String("error", err.Error()))
			failed = true
		}
	})

	// Emit the t=0 sample before the loop starts ticking.
	snap, err := engine.Publish(0)
	if err != nil {
		log.Error(ctx, "snapshot failed", logging.Float64("t", 0), logging.String("error", err.Error()))
		os.Exit(1)
	}
	if err := sink.write(snap); err != nil {
		log.Error(ctx, "write failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info(ctx, "starting sweep",
		logging.String("scenario", *scenarioPath),
		logging.Float64("duration_s", *duration),
		logging.Float64("tick_s", *tick))

	<-tc.Start(*duration)

	if err := sink.close(); err != nil {
		log.Error(ctx, "flush failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

type snapshotSink interface {
	write(*core.GeometrySnapshot) error
	close() error
}

type csvSink struct {
	w           *csv.Writer
	wroteHeader bool
}

func newCSVSink(f *os.File) *csvSink { return &csvSink{w: csv.NewWriter(f)} }

func (s *csvSink) write(snap *core.GeometrySnapshot) error {
	if !s.wroteHeader {
		if err := s.w.Write([]string{
			"time_s",
			"tx_range_m", "rx_range_m", "bistatic_range_m",
			"bistatic_angle_deg",
			"doppler_hz", "range_rate_mps",
			"slant_range_res_m", "cross_range_res_m",
			"ground_range_res_m", "ground_cross_range_res_m",
			"cell_area_m2",
			"no_line_of_sight",
		}); err != nil {
			return err
		}
		s.wroteHeader = true
	}

	g := snap.Geometry
	r := snap.Resolution
	return s.w.Write([]string{
		f64(snap.TimeS),
		f64(g.TxRangeM), f64(g.RxRangeM), f64(g.BistaticRangeM),
		f64(g.BistaticAngleDeg),
		f64(r.DopplerFrequencyHz), f64(g.RangeRateMps),
		f64(r.SlantRange.ValueM), f64(r.CrossRange.ValueM),
		f64(r.GroundRange.ValueM), f64(r.GroundCrossRange.ValueM),
		f64(r.CellAreaM2),
		strconv.FormatBool(g.NoLineOfSight),
	})
}

func (s *csvSink) close() error {
	s.w.Flush()
	return s.w.Error()
}

func f64(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

type jsonSink struct {
	enc *json.Encoder
}

func newJSONSink(f *os.File) *jsonSink {
	enc := json.NewEncoder(f)
	return &jsonSink{enc: enc}
}

// write emits one JSON object per line.
func (s *jsonSink) write(snap *core.GeometrySnapshot) error {
	if err := s.enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot at t=%.3f: %w", snap.TimeS, err)
	}
	return nil
}

func (s *jsonSink) close() error { return nil }
