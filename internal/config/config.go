// Package config parses and validates CHARM's input configuration: the
// enumerated options spec.md §6 lists (`layers`, `order`, `route_modes`,
// `input_mode`, `cell_dir`, `nodefile`, `netfile`, `placefile`,
// `output`), taken from the command line via the standard `flag`
// package, matching the teacher's own `cmd/preprocess` CLI surface
// rather than a third-party flag/config library.
package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/azybler/charm/internal/material"
	"github.com/azybler/charm/internal/routeerr"
)

// Config holds one fully parsed, not-yet-validated run configuration.
type Config struct {
	Layers     int
	Order      string
	RouteModes string
	InputMode  string
	CellDir    string
	NodeFile   string
	NetFile    string
	PlaceFile  string
	Output     string
}

var validOrders = map[string]bool{
	"net_rule3":          true,
	"pair_rule3":         true,
	"pair_rule3_closest": true,
	"closest_first":      true,
}

var validInputModes = map[string]bool{
	"explicit": true,
	"placed":   true,
}

// Parse parses args (typically os.Args[1:]) into a Config. errOutput
// receives flag usage/error text, the same role os.Stderr plays in the
// teacher's cmd/preprocess.
func Parse(args []string, errOutput io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("charm", flag.ContinueOnError)
	fs.SetOutput(errOutput)

	c := &Config{}
	fs.IntVar(&c.Layers, "layers", 2, "number of metal routing layers")
	fs.StringVar(&c.Order, "order", "closest_first", "pair ordering rule: net_rule3, pair_rule3, pair_rule3_closest, closest_first")
	fs.StringVar(&c.RouteModes, "route_modes", "pl", "subset of \"pl\": pattern and/or Lee routing, tried in order")
	fs.StringVar(&c.InputMode, "input_mode", "explicit", "explicit or placed")
	fs.StringVar(&c.CellDir, "cell_dir", "", "directory containing .mag cell library files")
	fs.StringVar(&c.NodeFile, "nodefile", "", "path to the .nodes placement file")
	fs.StringVar(&c.NetFile, "netfile", "", "path to the .nets placement file")
	fs.StringVar(&c.PlaceFile, "placefile", "", "path to the .pl placement file (required when input_mode is placed)")
	fs.StringVar(&c.Output, "output", "out.mag", "output drawing script path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every enumerated option against the rules spec.md §9
// names explicitly (route_modes characters, layers range) plus the
// option sets §6 enumerates (order, input_mode). All violations are
// structural: a bad configuration can never be partially valid.
func (c *Config) Validate() error {
	if c.Layers < 1 || c.Layers > material.MaxMetals {
		return fmt.Errorf("config: %w: layers %d out of range [1, %d]", routeerr.ErrStructural, c.Layers, material.MaxMetals)
	}
	if !validOrders[c.Order] {
		return fmt.Errorf("config: %w: unrecognized order %q", routeerr.ErrStructural, c.Order)
	}
	if err := validateRouteModes(c.RouteModes); err != nil {
		return err
	}
	if !validInputModes[c.InputMode] {
		return fmt.Errorf("config: %w: unrecognized input_mode %q", routeerr.ErrStructural, c.InputMode)
	}
	if c.NodeFile == "" || c.NetFile == "" {
		return fmt.Errorf("config: %w: nodefile and netfile are required", routeerr.ErrStructural)
	}
	if c.InputMode == "placed" && c.PlaceFile == "" {
		return fmt.Errorf("config: %w: placefile is required when input_mode is \"placed\"", routeerr.ErrStructural)
	}
	if c.Output == "" {
		return fmt.Errorf("config: %w: output path must not be empty", routeerr.ErrStructural)
	}
	return nil
}

// validRouteModes is the literal set internal/controller's mode dispatch
// accepts. spec.md §6 describes route_modes as "subset of \"pl\"", which
// as a set has exactly these non-empty members; internal/controller
// dispatches on the string itself rather than a parsed set, so a
// character-valid but differently-ordered string like "lp" is rejected
// here too, not just permitted subsets by content.
var validRouteModes = map[string]bool{"p": true, "l": true, "pl": true}

func validateRouteModes(modes string) error {
	if !validRouteModes[modes] {
		return fmt.Errorf("config: %w: route_modes must be one of \"p\", \"l\", \"pl\", got %q", routeerr.ErrStructural, modes)
	}
	return nil
}
