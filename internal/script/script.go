// Package script emits the CHARM output drawing script: a line-oriented
// language of `box`, `paint`, `box position`, `getcell`, `dump`, and
// `label` commands describing the finished layout. The writer buffers no
// state beyond "what material was last painted" so each emitted rect
// costs at most one extra `paint` line, mirroring the teacher's
// single-pass, unbuffered `io.Writer`-based emitters in cmd/preprocess.
package script

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/azybler/charm/internal/component"
	"github.com/azybler/charm/internal/geom"
	"github.com/azybler/charm/internal/layout"
	"github.com/azybler/charm/internal/material"
)

// Writer emits drawing-script commands to an underlying io.Writer.
type Writer struct {
	w           *bufio.Writer
	tbl         *material.Table
	lastMat     material.Material
	havePainted bool
}

// New wraps w in a script Writer.
func New(tbl *material.Table, w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), tbl: tbl}
}

// Box emits a `paint <mat>` line (only when the material differs from the
// last one painted) followed by a `box x0 y0 x1 y1` line.
func (s *Writer) Box(r geom.Rect) error {
	if !s.havePainted || s.lastMat != r.Mat {
		if _, err := fmt.Fprintf(s.w, "paint %s\n", s.tbl.Name(r.Mat)); err != nil {
			return err
		}
		s.lastMat, s.havePainted = r.Mat, true
	}
	_, err := fmt.Fprintf(s.w, "box %d %d %d %d\n", r.X0, r.Y0, r.X1(), r.Y1())
	return err
}

// BoxPosition emits `box position x y`.
func (s *Writer) BoxPosition(x, y int32) error {
	_, err := fmt.Fprintf(s.w, "box position %d %d\n", x, y)
	return err
}

// GetCell emits `getcell <file>`.
func (s *Writer) GetCell(file string) error {
	_, err := fmt.Fprintf(s.w, "getcell %s\n", file)
	return err
}

// Label emits `label <text>`.
func (s *Writer) Label(text string) error {
	_, err := fmt.Fprintf(s.w, "label %s\n", text)
	return err
}

// Dump emits `dump <file>` and flushes the buffered output.
func (s *Writer) Dump(file string) error {
	if _, err := fmt.Fprintf(s.w, "dump %s\n", file); err != nil {
		return err
	}
	return s.w.Flush()
}

// Flush flushes any buffered output without emitting a dump command.
func (s *Writer) Flush() error { return s.w.Flush() }

// EmitLayoutTo writes the layout's cells (getcell + box position) and
// routed geometry (paint + box, one block per component) to w, in a
// stable sorted order (by net label, then component ID, so repeated
// runs over the same Layout produce byte-identical scripts), then emits
// a final `dump outFile` command.
func EmitLayoutTo(tbl *material.Table, l *layout.Layout, w io.Writer, outFile string) error {
	s := New(tbl, w)
	for _, cell := range l.Cells {
		if err := s.GetCell(cell.Type); err != nil {
			return err
		}
		if err := s.BoxPosition(cell.X, cell.Y); err != nil {
			return err
		}
	}

	labels := make([]string, 0)
	all := l.AllComponents()
	for label := range all {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		comps := all[label]
		sort.Slice(comps, func(i, j int) bool { return comps[i].ID < comps[j].ID })
		for _, c := range comps {
			if err := emitComponent(tbl, s, c); err != nil {
				return err
			}
		}
		if err := s.Label(label); err != nil {
			return err
		}
	}

	return s.Dump(outFile)
}

func emitComponent(tbl *material.Table, s *Writer, c *component.Component) error {
	for _, r := range c.Nodes {
		if err := s.Box(r); err != nil {
			return err
		}
	}
	for _, seg := range c.Segments {
		if err := s.Box(geom.SegmentRect(tbl, seg.A, seg.B)); err != nil {
			return err
		}
	}
	for _, r := range c.Fillers {
		if err := s.Box(r); err != nil {
			return err
		}
	}
	return nil
}

// InterruptedName returns path with its base filename prefixed by
// "interrupted-", preserving its directory, for the clean-exit-under-a-
// renamed-output behavior spec.md §7/§8 scenario 11 requires on external
// cancellation.
func InterruptedName(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "interrupted-"+base)
}
