// Command strata plans extruder paths for a build plate. The plate is either
// a job script or a single STL file; the planned moves are written as text
// records, one per line.
//
//	strata -script plate.lisp -o plate.moves
//	strata -stl part.stl -layer-height 0.2 -volume 200,200,180
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/stlio"
	"github.com/chazu/strata/pkg/toolpath"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// volumeFlag parses "X,Y,Z" into the volume-* overrides.
type volumeFlag map[string]float64

func (v volumeFlag) String() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v["volume-x"], v["volume-y"], v["volume-z"])
}

func (v volumeFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("want X,Y,Z, got %q", s)
	}
	for i, key := range []string{"volume-x", "volume-y", "volume-z"} {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return fmt.Errorf("volume %c: %w", "xyz"[i], err)
		}
		v[key] = f
	}
	return nil
}

// run is main without the process exit, so it can be tested.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("strata", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", "", "YAML parameter file")
		scriptPath = fs.String("script", "", "job script describing the plate")
		stlPath    = fs.String("stl", "", "STL file to plan directly")
		outPath    = fs.String("o", "", "write moves here instead of stdout")
		meshPath   = fs.String("mesh", "", "also write the merged plate as binary STL")
		onBed      = fs.Bool("place", false, "drop the -stl mesh onto the bed and centre it in the build volume")
		verbose    = fs.Bool("v", false, "log debug output to stderr")
		volume     = volumeFlag{}
	)
	numeric := map[string]*float64{
		"layer-height":   fs.Float64("layer-height", 0, "slice spacing and extrusion width, mm"),
		"wall-thickness": fs.Float64("wall-thickness", 0, "wall thickness, mm"),
		"infill-density": fs.Float64("density", 0, "infill density, 0 to 1"),
		"workers":        fs.Float64("workers", 0, "layers sliced concurrently"),
		"resolution":     fs.Float64("resolution", 0, "marching cubes cells for scripted primitives"),
	}
	flagKey := map[string]string{"density": "infill-density"}
	fs.Var(volume, "volume", "build volume X,Y,Z in mm; enables clipping")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (*scriptPath == "") == (*stlPath == "") {
		fmt.Fprintln(stderr, "strata: exactly one of -script or -stl is required")
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer logging.SetLogger(nil)
	log := logging.Logger()

	params := config.Default()
	if *configPath != "" {
		var err error
		if params, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(stderr, "strata: %v\n", err)
			return 1
		}
	}

	// Only flags given on the command line override.
	overrides := map[string]float64{}
	fs.Visit(func(f *flag.Flag) {
		key := f.Name
		if k, ok := flagKey[key]; ok {
			key = k
		}
		if p, ok := numeric[key]; ok {
			overrides[key] = *p
		}
	})
	for k, v := range volume {
		overrides[k] = v
	}

	app := NewApp(params, overrides)
	var result *Result
	if *scriptPath != "" {
		src, err := os.ReadFile(*scriptPath)
		if err != nil {
			fmt.Fprintf(stderr, "strata: %v\n", err)
			return 1
		}
		app.SetBaseDir(filepath.Dir(*scriptPath))
		result = app.Evaluate(string(src))
	} else {
		m, err := stlio.ReadFile(*stlPath)
		if err != nil {
			fmt.Fprintf(stderr, "strata: %v\n", err)
			return 1
		}
		if m.Name == "" {
			m.Name = strings.TrimSuffix(filepath.Base(*stlPath), filepath.Ext(*stlPath))
		}
		if *onBed {
			m = placeOnBed(m, params, overrides)
		}
		result = app.SliceMesh(m)
	}

	for _, w := range result.Warnings {
		log.Warn(w.Message, "line", w.Line)
	}
	if !result.OK() {
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(stderr, "strata: line %d: %s\n", e.Line, e.Message)
			} else {
				fmt.Fprintf(stderr, "strata: %s\n", e.Message)
			}
		}
		return 1
	}
	if result.Plan == nil {
		fmt.Fprintln(stderr, "strata: nothing to print")
		return 1
	}

	if *meshPath != "" {
		if err := writeMesh(*meshPath, result.Plate); err != nil {
			fmt.Fprintf(stderr, "strata: %v\n", err)
			return 1
		}
	}
	if err := writeMoves(*outPath, stdout, result); err != nil {
		fmt.Fprintf(stderr, "strata: %v\n", err)
		return 1
	}

	log.Info("strata: done",
		"layers", len(result.Layers), "walls", result.Plan.Walls, "length", result.Length)
	return 0
}

// placeOnBed rests m on z = 0 and, when a build volume is configured,
// centres it in the volume's XY footprint.
func placeOnBed(m *mesh.Mesh, params config.Params, overrides map[string]float64) *mesh.Mesh {
	m = m.DropToFloor()
	p, err := params.Apply(overrides)
	if err != nil || p.Volume == nil {
		return m
	}
	return m.CenterOn(p.Volume.X/2, p.Volume.Y/2)
}

func writeMesh(path string, m *mesh.Mesh) error {
	if m == nil {
		return errors.New("no plate mesh to write")
	}
	return stlio.WriteFile(path, m)
}

func writeMoves(path string, stdout io.Writer, result *Result) (err error) {
	w := stdout
	if path != "" {
		var f *os.File
		if f, err = os.Create(path); err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return toolpath.WriteMoves(w, result.Plan.Moves())
}
