// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"fmt"
	"io"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// SaveDot writes a GraphViz dot graph of s's underlying diagram, grounded
// on the teacher package's own PrintDot: dashed edges for the low branch,
// solid for the high branch, boxed terminal nodes labeled with their value.
func (s *Set) SaveDot(w io.Writer) error {
	return saveDot(w, s.engine.bdd, s.root)
}

// SaveDot writes m's diagram the same way.
func (m *Map) SaveDot(w io.Writer) error {
	return saveDot(w, m.engine.bdd, m.root)
}

func saveDot(w io.Writer, engine *bdd.BDD, root bdd.Node) error {
	bw := newDotWriter(w)
	bw.printf("digraph G {\n")
	for _, n := range engine.ReachableNodes(root) {
		id := *n
		level, low, high, isTerm, value := engine.Describe(n)
		if isTerm {
			bw.printf("%d [shape=box, label=\"%d\"];\n", id, value)
			continue
		}
		bw.printf("%d [shape=circle, label=\"%d\"];\n", id, level)
		bw.printf("%d -> %d [style=dashed];\n", id, *low)
		bw.printf("%d -> %d [style=solid];\n", id, *high)
	}
	bw.printf("}\n")
	return bw.err
}

type dotWriter struct {
	w   io.Writer
	err error
}

func newDotWriter(w io.Writer) *dotWriter {
	return &dotWriter{w: w}
}

func (d *dotWriter) printf(format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}
