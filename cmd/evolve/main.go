package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot/vg"

	"roadgen/pkg/config"
	"roadgen/pkg/evaluate"
	"roadgen/pkg/export"
	osmplaces "roadgen/pkg/osm"
	"roadgen/pkg/problem"
	"roadgen/pkg/session"
)

func main() {
	config.Load()

	defaults := session.DefaultConfig()
	width := flag.Int("width", config.Int("ROADGEN_WIDTH", defaults.Width), "Map width")
	height := flag.Int("height", config.Int("ROADGEN_HEIGHT", defaults.Height), "Map height")
	cities := flag.Int("cities", config.Int("ROADGEN_CITIES", defaults.Cities), "Number of random cities, or the place limit with -osm")
	seed := flag.Int64("seed", config.Int64("ROADGEN_SEED", time.Now().UnixNano()), "Random seed")
	weights := flag.String("weights", config.String("ROADGEN_WEIGHTS", ""), "Comma-separated evaluator weights (default: equal)")
	evaluators := flag.String("evaluators", strings.Join(evaluate.Names(evaluate.Defaults()), ","), "Comma-separated evaluator names")
	ticks := flag.Int("ticks", 500, "Number of ticks to run")
	steps := flag.Int("steps", defaults.StepsPerTick, "Steps per tick")
	logEvery := flag.Int("log-every", 50, "Log progress every N ticks")
	parallel := flag.Bool("parallel", false, "Run evaluators concurrently")
	osmPath := flag.String("osm", "", "Place cities from an .osm or .osm.pbf file instead of at random")
	bbox := flag.String("bbox", "", "Bounding box for -osm: minLat,minLng,maxLat,maxLng")
	geojsonOut := flag.String("geojson", "", "Write the final network as GeoJSON to this path")
	pngOut := flag.String("png", "", "Write the final network as a PNG image to this path")
	flag.Parse()

	cfg := defaults
	cfg.Width, cfg.Height, cfg.Cities = *width, *height, *cities
	cfg.StepsPerTick = *steps
	cfg.Parallel = *parallel

	evals, err := namedEvaluators(*evaluators)
	if err != nil {
		log.Fatalf("Invalid evaluators: %v", err)
	}
	w, err := config.ParseFloats(*weights)
	if err != nil {
		log.Fatalf("Invalid weights: %v", err)
	}
	if w == nil {
		w = make([]float64, len(evals))
		for i := range w {
			w[i] = 1
		}
	}
	if _, err := evaluate.NormalizeWeights(w); err != nil {
		log.Fatalf("Invalid weights: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	log.Printf("Seed %d, %dx%d map", *seed, cfg.Width, cfg.Height)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var st session.State
	if *osmPath != "" {
		var pts []orb.Point
		pts, err = loadCities(ctx, *osmPath, *bbox, cfg)
		if err != nil {
			log.Fatalf("Failed to load cities: %v", err)
		}
		st, err = session.FromProblem(rng, cfg, problem.Description{
			Width: cfg.Width, Height: cfg.Height, Cities: pts, Evaluators: evals,
		})
	} else {
		st, err = session.New(rng, cfg, evals)
	}
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	log.Printf("%d cities, %d trips, initial cost %v", len(st.Cities()), len(st.Trips()), st.Cost())

	engine := cfg.Engine(rng)
	start := time.Now()
	for tick := 1; tick <= *ticks; tick++ {
		st, err = st.Tick(ctx, engine, w)
		if err != nil {
			log.Printf("Stopped at generation %d: %v", st.Generation(), err)
			break
		}
		if *logEvery > 0 && tick%*logEvery == 0 {
			score, _ := st.WeightedCost(w)
			log.Printf("Generation %d: %d segments, cost %.4f %v",
				st.Generation(), len(st.Segments()), score, st.Cost())
		}
	}
	log.Printf("Done in %s: generation %d, %d segments",
		time.Since(start).Round(time.Millisecond), st.Generation(), len(st.Segments()))

	snap, err := st.Snapshot(w)
	if err != nil {
		log.Fatalf("Snapshot failed: %v", err)
	}
	if *geojsonOut != "" {
		if err := writeGeoJSON(*geojsonOut, snap); err != nil {
			log.Fatalf("Failed to write GeoJSON: %v", err)
		}
		log.Printf("Wrote %s", *geojsonOut)
	}
	if *pngOut != "" {
		imgW := 10 * vg.Inch
		imgH := imgW * vg.Length(snap.Height) / vg.Length(snap.Width)
		if err := export.SavePNG(*pngOut, snap, imgW, imgH); err != nil {
			log.Fatalf("Failed to write PNG: %v", err)
		}
		log.Printf("Wrote %s", *pngOut)
	}
}

func namedEvaluators(list string) ([]evaluate.Evaluator, error) {
	var evals []evaluate.Evaluator
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		e, err := evaluate.Named(name)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	if len(evals) == 0 {
		return nil, problem.ErrNoEvaluators
	}
	return evals, nil
}

func loadCities(ctx context.Context, path, bbox string, cfg session.Config) ([]orb.Point, error) {
	opts := osmplaces.ParseOptions{Limit: cfg.Cities}
	if bbox != "" {
		var b osmplaces.BBox
		if _, err := fmt.Sscanf(bbox, "%f,%f,%f,%f", &b.MinLat, &b.MinLng, &b.MaxLat, &b.MaxLng); err != nil {
			return nil, fmt.Errorf("invalid bbox (expected minLat,minLng,maxLat,maxLng): %w", err)
		}
		opts.BBox = b
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var places []osmplaces.City
	if strings.HasSuffix(path, ".pbf") {
		places, err = osmplaces.ParsePBF(ctx, f, opts)
	} else {
		places, err = osmplaces.ParseXML(ctx, f, opts)
	}
	if err != nil {
		return nil, err
	}
	return osmplaces.Project(places, cfg.Width, cfg.Height, problem.Margin), nil
}

func writeGeoJSON(path string, snap session.Snapshot) error {
	data, err := export.GeoJSON(snap).MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
