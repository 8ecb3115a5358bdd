// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Package bdd implements a reduced ordered binary decision diagram engine
// whose terminals may carry an arbitrary 64-bit value rather than only the
// two boolean constants. A classic BDD (every terminal is 0 or 1) is the
// special case used by Apply/Not/And/Or/Xor; Ite additionally accepts
// diagrams whose terminals carry other values, which is what lets the
// ipset package build integer-valued maps on top of this engine.
//
// The table of nodes is shared by every diagram built from the same *BDD:
// structurally identical sub-diagrams are always the same node id, so
// equality of two diagrams is pointer (id) equality, never a structural
// comparison. Nodes are reference counted and reclaimed by a mark-and-sweep
// collector that runs when the table fills up; a Node keeps its underlying
// id alive via a runtime finalizer, the same trick the teacher's package
// uses in place of the reference library's explicit bdd_ref/bdd_deref.
package bdd

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Node denotes a BDD: the root id of a sub-diagram inside some *BDD's node
// table. A nil Node is returned alongside an error, and as the absent
// children of a terminal by Low, High and Describe; the zero value is not a
// legal Node and must never be passed back in.
type Node = *int

// BDD is a single decision-diagram universe: one node table, one set of
// operation caches, one declared number of variables. Diagrams from
// different BDDs are never comparable or combinable.
type BDD struct {
	sync.RWMutex
	nt         *nodeTable
	varnum     int32
	vars       []int // vars[i] is the node id of the i-th variable (high=1, low=0)
	applycache *opcache
	itecache   *opcache
	notcache   *notcache
	err        error
}

// New creates a BDD engine declared over varnum boolean variables, numbered
// 0..varnum-1 in the order Apply/Ite traverse them. Options tune the
// initial table/cache sizes and growth policy; see Nodesize, Maxnodesize,
// Maxnodeincrease, Minfreenodes, Cachesize and Cacheratio.
func New(varnum int, options ...Option) (*BDD, error) {
	if varnum < 0 || int32(varnum) >= _MAXVAR {
		return nil, errors.Errorf("bdd: invalid variable count %d", varnum)
	}
	config := makeconfigs()
	for _, opt := range options {
		opt(&config)
	}
	nodesize := config.nodesize + varnum*2
	config.nodesize = primeGTE(nodesize)
	nt := newNodeTable(&config)
	b := &BDD{
		nt:         nt,
		varnum:     int32(varnum),
		vars:       make([]int, varnum),
		applycache: newopcache(primeGTE(config.cachesize)),
		itecache:   newopcache(primeGTE(config.cachesize)),
		notcache:   newnotcache(primeGTE(config.cachesize)),
	}
	nt.nodefinalizer = nt.unrefnode
	for i := varnum - 1; i >= 0; i-- {
		high, err := nt.nonterminal(int32(i), 0, 1, nil)
		if err != nil {
			return nil, errors.Wrap(err, "bdd: allocating variable nodes")
		}
		nt.nodes[high].refcou = _MAXREFCOUNT
		b.vars[i] = high
	}
	return b, nil
}

// Varnum returns the number of variables the BDD was created with.
func (b *BDD) Varnum() int {
	return int(b.varnum)
}

// False returns the constant 0 diagram.
func (b *BDD) False() Node {
	return b.nt.retnode(0)
}

// True returns the constant 1 diagram.
func (b *BDD) True() Node {
	return b.nt.retnode(1)
}

// Terminal returns the (possibly shared) diagram whose single leaf carries
// value. Passing 0 or 1 returns False/True.
func (b *BDD) Terminal(value int64) (Node, error) {
	b.Lock()
	defer b.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	id, err := b.nt.terminal(value, nil)
	if err != nil {
		return nil, b.seterrorLocked("terminal", err)
	}
	return b.nt.retnode(id), nil
}

// Ithvar returns the diagram for variable i alone (1 when the variable is
// true, 0 otherwise).
func (b *BDD) Ithvar(i int) (Node, error) {
	if i < 0 || i >= len(b.vars) {
		return nil, errors.Errorf("bdd: variable %d out of range", i)
	}
	return b.nt.retnode(b.vars[i]), nil
}

// NithVar returns the negation of Ithvar(i).
func (b *BDD) NithVar(i int) (Node, error) {
	v, err := b.Ithvar(i)
	if err != nil {
		return nil, err
	}
	id, err := b.not(*v)
	if err != nil {
		return nil, err
	}
	return b.nt.retnode(id), nil
}

func deref(n Node) int {
	if n == nil {
		return -1
	}
	return *n
}

// And returns f /\ g.
func (b *BDD) And(f, g Node) (Node, error) { return b.applyPub(opAnd, f, g) }

// Or returns f \/ g.
func (b *BDD) Or(f, g Node) (Node, error) { return b.applyPub(opOr, f, g) }

// Xor returns f xor g.
func (b *BDD) Xor(f, g Node) (Node, error) { return b.applyPub(opXor, f, g) }

func (b *BDD) applyPub(op Operator, f, g Node) (Node, error) {
	res, err := b.apply(op, deref(f), deref(g))
	if err != nil {
		return nil, err
	}
	return b.nt.retnode(res), nil
}

// Not returns the boolean complement of f.
func (b *BDD) Not(f Node) (Node, error) {
	res, err := b.not(deref(f))
	if err != nil {
		return nil, err
	}
	return b.nt.retnode(res), nil
}

// Ite returns the diagram that takes the value of g wherever f is true and
// the value of h wherever f is false. f must be boolean-terminal (0/1); g
// and h may carry arbitrary terminal values.
func (b *BDD) Ite(f, g, h Node) (Node, error) {
	res, err := b.ite(deref(f), deref(g), deref(h))
	if err != nil {
		return nil, err
	}
	return b.nt.retnode(res), nil
}

// Equal reports whether f and g are the same diagram (same node id, since
// every diagram in a BDD is canonicalized).
func (b *BDD) Equal(f, g Node) bool {
	return deref(f) == deref(g)
}

// IsTerminal reports whether f is a leaf, and if so its value.
func (b *BDD) IsTerminal(f Node) (int64, bool) {
	id := deref(f)
	if !b.nt.isTerminal(id) {
		return 0, false
	}
	return b.nt.value(id), true
}

// Var returns the variable level tested at the root of f, or -1 if f is a
// terminal.
func (b *BDD) Var(f Node) int {
	id := deref(f)
	if b.nt.isTerminal(id) {
		return -1
	}
	return int(b.nt.level(id))
}

// Low and High return the two children of a nonterminal f.
func (b *BDD) Low(f Node) Node {
	id := deref(f)
	if b.nt.isTerminal(id) {
		return nil
	}
	return b.nt.retnode(b.nt.low(id))
}

func (b *BDD) High(f Node) Node {
	id := deref(f)
	if b.nt.isTerminal(id) {
		return nil
	}
	return b.nt.retnode(b.nt.high(id))
}

// AllsatOf enumerates every root-to-terminal path of f, whatever terminal it
// reaches, each compressed to a sequence of {0,1,don't-care} values over the
// BDD's declared variables and paired with the terminal's value.
func (b *BDD) AllsatOf(f Node) []Assignment {
	return b.Allsat(deref(f), b.varnum)
}

// AllSat walks every path of f that reaches a terminal equal to desired,
// depth-first and low-before-high, calling f for each compressed
// assignment. Iteration stops at the first error f returns.
func (b *BDD) AllSat(n Node, desired int64, f func(Assignment) error) error {
	for _, a := range b.Allsat(deref(n), b.varnum) {
		if a.Value != desired {
			continue
		}
		if err := f(a); err != nil {
			return err
		}
	}
	return nil
}

// NodeCount returns the number of distinct nodes reachable from roots.
func (b *BDD) NodeCount(roots ...Node) int {
	ids := make([]int, len(roots))
	for i, r := range roots {
		ids[i] = deref(r)
	}
	return len(b.Reachable(ids...))
}

// ReachableCount is an alias for NodeCount, named to match the engine's
// conceptual "reachability" vocabulary used by the serializer.
func (b *BDD) ReachableCount(roots ...Node) int {
	return b.NodeCount(roots...)
}

// EvalAt follows f to the terminal reached when variable i is set to
// bits[i] for every i, and returns that terminal's value.
func (b *BDD) EvalAt(f Node, bits []int8) int64 {
	return b.Eval(deref(f), bits)
}

// ReachableNodes returns every node reachable from roots exactly once, in
// reverse topological order (children before parents) — the shape a
// serializer needs to write a DAG as a flat stream it can rebuild in one
// forward pass.
func (b *BDD) ReachableNodes(roots ...Node) []Node {
	ids := make([]int, len(roots))
	for i, r := range roots {
		ids[i] = deref(r)
	}
	order := b.Reachable(ids...)
	out := make([]Node, len(order))
	for i, id := range order {
		out[i] = b.nt.retnode(id)
	}
	return out
}

// Describe reports everything a serializer needs about f in one call: its
// variable level and children if it is a nonterminal, or its value if it is
// a terminal.
func (b *BDD) Describe(f Node) (level int, low, high Node, isTerminal bool, value int64) {
	id := deref(f)
	if b.nt.isTerminal(id) {
		return 0, nil, nil, true, b.nt.value(id)
	}
	return int(b.nt.level(id)), b.nt.retnode(b.nt.low(id)), b.nt.retnode(b.nt.high(id)), false, 0
}

// MakeNode rebuilds (or finds the existing canonical copy of) the
// nonterminal at level whose children are low and high. Used by the
// deserializer to replay a saved diagram node by node.
func (b *BDD) MakeNode(level int, low, high Node) (Node, error) {
	id, err := b.nt.nonterminal(int32(level), deref(low), deref(high), nil)
	if err != nil {
		return nil, b.seterror("makenode", err)
	}
	return b.nt.retnode(id), nil
}

// Stats returns a short human-readable summary of the node table, mirroring
// the teacher's tables.stats used for operational diagnostics.
func (b *BDD) Stats() string {
	return fmt.Sprintf("Variables: %d\n%s", b.varnum, b.nt.stats())
}
