// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import "testing"

func TestNewVariables(t *testing.T) {
	b, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Varnum() != 4 {
		t.Errorf("Varnum() = %d, want 4", b.Varnum())
	}
	v0, err := b.Ithvar(0)
	if err != nil {
		t.Fatalf("Ithvar(0): %v", err)
	}
	if b.Var(v0) != 0 {
		t.Errorf("Var(Ithvar(0)) = %d, want 0", b.Var(v0))
	}
}

func TestCanonicalization(t *testing.T) {
	b, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v0, _ := b.Ithvar(0)
	v1, _ := b.Ithvar(1)
	a, err := b.And(v0, v1)
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	c, err := b.And(v1, v0)
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	// apply orders AND's operands before computing, and both diagrams
	// denote the same function in any case, so the node table must give
	// them the same id.
	if !b.Equal(a, c) {
		t.Errorf("And(v0,v1) != And(v1,v0): distinct ids for the same function")
	}
}

func TestNotAndXor(t *testing.T) {
	b, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v0, _ := b.Ithvar(0)
	nv0, err := b.Not(v0)
	if err != nil {
		t.Fatalf("Not: %v", err)
	}
	x, err := b.Xor(v0, nv0)
	if err != nil {
		t.Fatalf("Xor: %v", err)
	}
	if !b.Equal(x, b.True()) {
		t.Errorf("v0 xor not(v0) should always be true")
	}
	x2, err := b.Xor(v0, v0)
	if err != nil {
		t.Fatalf("Xor: %v", err)
	}
	if !b.Equal(x2, b.False()) {
		t.Errorf("v0 xor v0 should always be false")
	}
}

func TestIteValuedTerminals(t *testing.T) {
	b, err := New(1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v0, _ := b.Ithvar(0)
	g, err := b.Terminal(42)
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	h, err := b.Terminal(7)
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	ite, err := b.Ite(v0, g, h)
	if err != nil {
		t.Fatalf("Ite: %v", err)
	}
	one := int8(1)
	zero := int8(0)
	got := b.Eval(*ite, []int8{one})
	if got != 42 {
		t.Errorf("Eval(Ite(true-branch)) = %d, want 42", got)
	}
	got = b.Eval(*ite, []int8{zero})
	if got != 7 {
		t.Errorf("Eval(Ite(false-branch)) = %d, want 7", got)
	}
}

func TestAllsatCompressesDontCares(t *testing.T) {
	b, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v0, _ := b.Ithvar(0)
	sats := b.AllsatOf(v0)
	found := false
	for _, a := range sats {
		if a.Value != 1 {
			continue
		}
		if a.Vars[0] == 1 && a.Vars[1] == -1 && a.Vars[2] == -1 {
			found = true
		}
	}
	if !found {
		t.Errorf("Allsat(v0) did not produce the expected compressed assignment [1,-1,-1]")
	}
}

func TestReachableOrder(t *testing.T) {
	b, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v0, _ := b.Ithvar(0)
	v1, _ := b.Ithvar(1)
	and, err := b.And(v0, v1)
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	nodes := b.ReachableNodes(and)
	if len(nodes) == 0 {
		t.Fatalf("ReachableNodes returned nothing for a nonconstant diagram")
	}
	// the root must be last: every child appears before its parent.
	last := nodes[len(nodes)-1]
	if *last != *and {
		t.Errorf("last reachable node is not the root")
	}
}
