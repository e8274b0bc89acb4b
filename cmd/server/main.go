package main

import (
	"flag"
	"log"
	"os"

	"roadgen/pkg/api"
	"roadgen/pkg/config"
	"roadgen/pkg/session"
)

func main() {
	config.Load()

	defaults := session.DefaultConfig()
	addr := flag.String("addr", config.String("ROADGEN_ADDR", ":8080"), "HTTP listen address")
	width := flag.Int("width", config.Int("ROADGEN_WIDTH", defaults.Width), "Default map width")
	height := flag.Int("height", config.Int("ROADGEN_HEIGHT", defaults.Height), "Default map height")
	cities := flag.Int("cities", config.Int("ROADGEN_CITIES", defaults.Cities), "Default number of cities")
	steps := flag.Int("steps", defaults.StepsPerTick, "Steps per tick when a step request omits the count")
	parallel := flag.Bool("parallel", false, "Run evaluators concurrently")
	maxSessions := flag.Int("max-sessions", 64, "Maximum number of live sessions (0 = unlimited)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	defaults.Width = *width
	defaults.Height = *height
	defaults.Cities = *cities
	defaults.StepsPerTick = *steps
	defaults.Parallel = *parallel
	log.Printf("Session defaults: %dx%d map, %d cities, %d steps per tick",
		defaults.Width, defaults.Height, defaults.Cities, defaults.StepsPerTick)

	cfg := api.DefaultConfig(*addr)
	cfg.CORSOrigin = *corsOrigin
	cfg.MaxSessions = *maxSessions

	handlers := api.NewHandlers(api.NewRegistry(cfg.MaxSessions), defaults)
	srv := api.NewServer(cfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
