package config

import (
	"bytes"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	var buf bytes.Buffer
	c, err := Parse(nil, &buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Layers != 2 || c.Order != "closest_first" || c.RouteModes != "pl" || c.InputMode != "explicit" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestParseOverridesFlags(t *testing.T) {
	var buf bytes.Buffer
	args := []string{"-layers=3", "-order=pair_rule3", "-route_modes=l", "-nodefile=a.nodes", "-netfile=a.nets"}
	c, err := Parse(args, &buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Layers != 3 || c.Order != "pair_rule3" || c.RouteModes != "l" {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	c := &Config{Layers: 2, Order: "closest_first", RouteModes: "pl", InputMode: "explicit", NodeFile: "a.nodes", NetFile: "a.nets", Output: "out.mag"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsLayersOutOfRange(t *testing.T) {
	c := &Config{Layers: 99, Order: "closest_first", RouteModes: "pl", InputMode: "explicit", NodeFile: "a.nodes", NetFile: "a.nets", Output: "out.mag"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for layers exceeding material.MaxMetals")
	}
}

func TestValidateRejectsInvalidRouteModes(t *testing.T) {
	for _, modes := range []string{"", "x", "ppl", "lp"} {
		c := &Config{Layers: 2, Order: "closest_first", RouteModes: modes, InputMode: "explicit", NodeFile: "a.nodes", NetFile: "a.nets", Output: "out.mag"}
		if err := c.Validate(); err == nil {
			t.Fatalf("expected an error for route_modes %q", modes)
		}
	}
}

func TestValidateRequiresPlaceFileInPlacedMode(t *testing.T) {
	c := &Config{Layers: 2, Order: "closest_first", RouteModes: "pl", InputMode: "placed", NodeFile: "a.nodes", NetFile: "a.nets", Output: "out.mag"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for placed mode missing placefile")
	}
}

func TestValidateRejectsUnknownOrder(t *testing.T) {
	c := &Config{Layers: 2, Order: "bogus", RouteModes: "pl", InputMode: "explicit", NodeFile: "a.nodes", NetFile: "a.nets", Output: "out.mag"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized order")
	}
}
