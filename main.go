/*
Pathgrid serves a sparse 3D grid for pathfinding. Only walkable cells are stored; the
grid's extents are kept lazily, growing cheaply as cells are opened and recomputed
only when a cell on the bounding box is closed. A layout is loaded at startup, printed,
and then served over http for edits, path searches and a websocket feed of extent changes.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pathgrid/config"
	"pathgrid/grid"
	"pathgrid/grid_world"
	"pathgrid/models"
	"pathgrid/node_pool"
	"pathgrid/server"
)

var (
	configPath *string
	dbg        *bool
	host       *string
	port       *string
)

func init() {
	configPath = flag.String("config", "", "path to a yaml config; defaults are used if empty")
	dbg = flag.Bool("debug", false, "debug mode, serve the small debug layout")
	host = flag.String("host", "", "The host ip, overrides config")
	port = flag.String("port", "", "The host port, overrides config")
}

func loadConfig() (cfg *config.Config, err error) {
	cfg = config.Default()
	if *configPath != "" {
		if cfg, err = config.FromYaml(*configPath); err != nil {
			return nil, err
		}
	}

	if *dbg {
		cfg.Layout = config.LayoutConfig{Name: "debug"}
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	return cfg, nil
}

// buildGrid converts the configured layout into a fresh grid, returning the
// start and finish cells found in it.
func buildGrid(cfg *config.Config) (g *grid.DynamicGrid, starts, finishes []models.GridPos, err error) {
	var layout grid_world.Layout
	if layout, err = cfg.GridLayout(); err != nil {
		return
	}

	g = grid.NewDynamicGrid(node_pool.New())
	starts, finishes = grid_world.Convert(layout, g)
	return
}

func runApp() (err error) {
	flag.Parse()

	var cfg *config.Config
	if cfg, err = loadConfig(); err != nil {
		return
	}
	opts, err := cfg.SearchOptions()
	if err != nil {
		return
	}

	g, starts, finishes, err := buildGrid(cfg)
	if err != nil {
		return
	}
	grid_world.ShowGrid(os.Stdout, g)
	log.Printf("layout %q: %d starts, %d finishes, extents %dx%dx%d\n",
		cfg.Layout.Name, len(starts), len(finishes), g.Width(), g.Length(), g.Height())

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer appCancel()

	srv := server.NewServer(cfg.Addr(), g, opts)
	log.Println("serving on", cfg.Addr())
	err = srv.Serve(appCtx)
	return
}

func main() {
	if err := runApp(); err != nil {
		fmt.Println(err)
	}
}
