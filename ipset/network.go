// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"net/netip"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// networkCombos expands the *interior* don't-care bits of one expansion —
// those strictly before the last fixed address bit — into every concrete
// combination, leaving the trailing run of don't-cares (if any) free. A
// path with a fixed bit after an interior don't-care denotes several
// disjoint maximal prefixes, not one over-wide prefix covering addresses
// that were never added; this is the enumeration spec.md §4.5 step 3 calls
// for. A BDD with such a path is not a hand-built corner case: unioning two
// networks that differ only in an interior bit (e.g. 192.168.1.0/30 and
// 192.168.1.128/30 — or even just Add(192.168.1.1) and Add(192.168.1.3))
// produces exactly this shape once the table is reduced.
type networkCombos struct {
	base       []int8
	expandAsV4 bool
	interior   []int // positions (0-indexed within the address) of interior don't-cares
	combo      uint64
	total      uint64
}

// maxNetworkInteriorBits bounds how many interior don't-cares a single path
// will be expanded into disjoint networks for. Beyond this the number of
// disjoint prefixes is astronomical and enumerating them one by one is never
// useful; such an expansion is skipped rather than spun through forever.
const maxNetworkInteriorBits = 32

func newNetworkCombos(e expansion) *networkCombos {
	width := 128
	if e.expandAsV4 {
		width = 32
	}
	lastFixed := -1
	for i := 0; i < width; i++ {
		if e.vars[i+1] != -1 {
			lastFixed = i
		}
	}
	var interior []int
	for i := 0; i < lastFixed; i++ {
		if e.vars[i+1] == -1 {
			interior = append(interior, i)
		}
	}
	nc := &networkCombos{base: e.vars, expandAsV4: e.expandAsV4, interior: interior}
	if len(interior) > maxNetworkInteriorBits {
		nc.total = 0
		return nc
	}
	nc.total = uint64(1) << uint(len(interior))
	return nc
}

func (nc *networkCombos) finished() bool {
	return nc.combo >= nc.total
}

// next resolves the current combination's interior bits and decodes the
// result, which by construction now has a single contiguous leading run of
// fixed bits — exactly what decodeAssignment expects.
func (nc *networkCombos) next() netip.Prefix {
	resolved := make([]int8, len(nc.base))
	copy(resolved, nc.base)
	for bit, pos := range nc.interior {
		if (nc.combo>>uint(bit))&1 == 1 {
			resolved[pos+1] = 1
		} else {
			resolved[pos+1] = 0
		}
	}
	nc.combo++
	addr, prefixLen := decodeAssignment(resolved, nc.expandAsV4)
	return netip.PrefixFrom(addr, prefixLen)
}

// NetworkIterator walks the CIDR networks that summarize a Set's members,
// one maximal disjoint prefix at a time, without expanding trailing
// don't-care runs into individual hosts. A single Allsat path may still
// yield several networks when it has an interior don't-care (see
// networkCombos).
type NetworkIterator struct {
	paths    []bdd.Assignment
	pi       int
	pending  []expansion // at most two: the double-expansion hard case
	combos   *networkCombos
	finished bool
	prefix   netip.Prefix
}

// IterateNetworks returns an iterator over the CIDR networks that summarize
// s's members (or non-members, if desiredMember is false).
func (s *Set) IterateNetworks(desiredMember bool) *NetworkIterator {
	desired := int64(0)
	if desiredMember {
		desired = 1
	}
	var paths []bdd.Assignment
	for _, a := range s.engine.bdd.AllsatOf(s.root) {
		if a.Value == desired {
			paths = append(paths, a)
		}
	}
	it := &NetworkIterator{paths: paths}
	it.loadPath()
	return it
}

func (it *NetworkIterator) loadPath() {
	for {
		if it.combos != nil && !it.combos.finished() {
			it.prefix = it.combos.next()
			return
		}
		if len(it.pending) == 0 {
			if it.pi >= len(it.paths) {
				it.finished = true
				return
			}
			it.pending = expansionsFor(it.paths[it.pi])
			it.pi++
			continue
		}
		e := it.pending[0]
		it.pending = it.pending[1:]
		it.combos = newNetworkCombos(e)
	}
}

// Finished reports whether the iterator has no more networks.
func (it *NetworkIterator) Finished() bool {
	return it.finished
}

// Advance moves to the next network.
func (it *NetworkIterator) Advance() {
	if it.finished {
		return
	}
	it.loadPath()
}

// Network returns the current CIDR network. Only valid while !Finished().
func (it *NetworkIterator) Network() netip.Prefix {
	return it.prefix
}
