// Command charm is the CHARM router core's CLI entry point: it reads the
// input configuration, the placement bundle, and (when a cell library is
// configured) the .mag cells that back each placed block, runs the DFS
// rip-up controller to completion, and emits the finished layout as a
// drawing script. Its flag/log-based shape and staged log.Printf
// progress lines mirror the teacher's cmd/preprocess/main.go.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/config"
	"github.com/azybler/charm/internal/controller"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/lee"
	"github.com/azybler/charm/internal/magfile"
	"github.com/azybler/charm/internal/material"
	"github.com/azybler/charm/internal/pattern"
	"github.com/azybler/charm/internal/placement"
	"github.com/azybler/charm/internal/routeerr"
	"github.com/azybler/charm/internal/script"
)

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	tbl, err := material.NewTable(cfg.Layers)
	if err != nil {
		log.Fatalf("building material table: %v", err)
	}

	start := time.Now()

	log.Println("Reading placement bundle...")
	l, err := buildLayout(tbl, cfg)
	if err != nil {
		log.Fatalf("reading placement bundle: %v", err)
	}
	log.Printf("Loaded %d nets", len(l.NetLabels()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Println("Routing...")
	ctrl, err := controller.New(l, tbl, cfg.RouteModes, cfg.Order, patternRouteFunc(), leeRouteFunc())
	if err != nil {
		log.Fatalf("building controller: %v", err)
	}
	runErr := ctrl.Run(ctx)

	nRipups, nSuccess := ctrl.Stats()
	log.Printf("%d merges accepted, %d rip-ups", nSuccess, nRipups)

	outFile := cfg.Output
	if runErr != nil {
		switch {
		case errors.Is(runErr, routeerr.ErrCancelled):
			outFile = script.InterruptedName(cfg.Output)
			log.Printf("cancelled, writing partial layout to %s", outFile)
		case errors.Is(runErr, routeerr.ErrInfeasible):
			log.Fatalf("routing is infeasible: %v", runErr)
		default:
			log.Fatalf("routing failed: %v", runErr)
		}
	}

	log.Printf("Writing output to %s...", outFile)
	if err := writeScript(tbl, l, outFile); err != nil {
		log.Fatalf("writing output script: %v", err)
	}

	log.Printf("Done in %s", time.Since(start).Round(time.Millisecond))
}

func patternRouteFunc() controller.RouteFunc {
	return func(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string) (geom.Route, error) {
		return pattern.Route(ctx, l, tbl, c1, c2, label, lee.Elevate)
	}
}

func leeRouteFunc() controller.RouteFunc {
	return func(ctx context.Context, l *layout.Layout, tbl *material.Table, c1, c2 *component.Component, label string) (geom.Route, error) {
		return lee.Route(ctx, l, tbl, c1, c2, label)
	}
}

// buildLayout reads the configured placement bundle and optional cell
// library, and seeds a fresh Layout with one node (and one one-pin
// component) per net pin.
func buildLayout(tbl *material.Table, cfg *config.Config) (*layout.Layout, error) {
	nodesFile, err := os.Open(cfg.NodeFile)
	if err != nil {
		return nil, err
	}
	defer nodesFile.Close()
	netsFile, err := os.Open(cfg.NetFile)
	if err != nil {
		return nil, err
	}
	defer netsFile.Close()

	var placeFile *os.File
	if cfg.InputMode == "placed" {
		placeFile, err = os.Open(cfg.PlaceFile)
		if err != nil {
			return nil, err
		}
		defer placeFile.Close()
	}

	var bundle *placement.Bundle
	if placeFile != nil {
		bundle, err = placement.Read(tbl, nodesFile, netsFile, placeFile)
	} else {
		bundle, err = placement.Read(tbl, nodesFile, netsFile, nil)
	}
	if err != nil {
		return nil, err
	}

	l := layout.New(tbl)
	if cfg.CellDir != "" {
		if err := loadCells(tbl, l, bundle, cfg.CellDir); err != nil {
			return nil, err
		}
	}

	for _, net := range bundle.Nets {
		for _, pin := range net.Pins {
			x, y, err := placement.AbsolutePin(bundle.Blocks, pin, cfg.InputMode)
			if err != nil {
				return nil, err
			}
			w := tbl.MinWidth(pin.Mat)
			rect := geom.Rect{X0: x, Y0: y, W: w, H: w, Mat: pin.Mat, Label: net.Name, BlockID: geom.NoBlock}
			if _, err := l.AddRect(rect); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

// loadCells reads one .mag file per distinct block cell_type referenced
// by the placement bundle, registers each placed block as a layout Cell
// (so the output script can re-emit it via getcell/box position), and
// inserts the cell's own geometry into the layout at its placed offset
// as unlabeled obstacle rectangles the routers and DRC must route around.
func loadCells(tbl *material.Table, l *layout.Layout, bundle *placement.Bundle, cellDir string) error {
	cells := make(map[string]*magfile.Cell)
	for _, block := range bundle.Blocks {
		cell, ok := cells[block.CellType]
		if !ok {
			path := filepath.Join(cellDir, block.CellType+".mag")
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			cell, err = magfile.Parse(tbl, block.CellType, f)
			f.Close()
			if err != nil {
				return err
			}
			magfile.Translate(cell)
			cells[block.CellType] = cell
		}

		blockID := blockNumericID(block.ID)
		l.AddCell(layout.Cell{ID: blockID, Type: block.CellType + ".mag", X: block.X, Y: block.Y})
		for _, r := range cell.Rects {
			placed := geom.Rect{X0: r.X0 + block.X, Y0: r.Y0 + block.Y, W: r.W, H: r.H, Mat: r.Mat, BlockID: blockID}
			if _, err := l.AddRect(placed); err != nil {
				return err
			}
		}
	}
	return nil
}

// blockNumericID extracts the trailing digits of a block id like "o42"
// for use as a layout.Cell's numeric ID; malformed ids (no digits) get 0,
// which is harmless since Cell.ID is display/bookkeeping-only and never
// used as a map key.
func blockNumericID(id string) int32 {
	digits := strings.TrimLeft(id, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_")
	n, _ := strconv.Atoi(digits)
	return int32(n)
}

func writeScript(tbl *material.Table, l *layout.Layout, outFile string) error {
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return script.EmitLayoutTo(tbl, l, f, outFile)
}
