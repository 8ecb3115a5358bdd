// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"net/netip"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// expansion is one root-to-terminal path from bdd.Allsat, together with the
// address family it is currently being expanded as. A path whose family bit
// (variable 0) is itself don't-care denotes both every matching IPv4 and
// every matching IPv6 address, so it produces two expansions — this is the
// "hard case" spec.md §4.5 calls out, and the reason the teacher's own
// single-pass Allsat (which never had a family bit to worry about) doesn't
// carry over unchanged.
type expansion struct {
	vars       []int8
	expandAsV4 bool
}

func expansionsFor(a bdd.Assignment) []expansion {
	switch a.Vars[famVar] {
	case 1:
		return []expansion{{vars: a.Vars, expandAsV4: true}}
	case 0:
		return []expansion{{vars: a.Vars, expandAsV4: false}}
	default:
		return []expansion{
			{vars: a.Vars, expandAsV4: true},
			{vars: a.Vars, expandAsV4: false},
		}
	}
}

// AddrIterator walks every individual host address that is (or, if
// constructed with desiredMember false, is not) a member of a Set,
// expanding each compressed don't-care assignment into concrete addresses.
// This is the "expand all hosts" mode of spec.md §4.5; for a set with wide
// don't-care runs this can enumerate astronomically many addresses; callers
// that only want a summary should use NetworkIterator instead. An expansion
// with 64 or more don't-care address bits is skipped, so its addresses are
// not produced.
type AddrIterator struct {
	expansions []expansion
	ei         int
	dontCares  []int // positions (0-indexed within the address) of free bits in the current expansion
	combo      uint64
	total      uint64
	finished   bool
	addr       netip.Addr
}

// Iterate returns an iterator over every host address with the given
// membership in s.
func (s *Set) Iterate(desiredMember bool) *AddrIterator {
	desired := int64(0)
	if desiredMember {
		desired = 1
	}
	return newAddrIterator(s.engine.bdd, s.root, desired)
}

func newAddrIterator(engine *bdd.BDD, root bdd.Node, desired int64) *AddrIterator {
	var exps []expansion
	for _, a := range engine.AllsatOf(root) {
		if a.Value != desired {
			continue
		}
		exps = append(exps, expansionsFor(a)...)
	}
	it := &AddrIterator{expansions: exps}
	it.loadExpansion()
	return it
}

func (it *AddrIterator) loadExpansion() {
	for it.ei < len(it.expansions) {
		e := it.expansions[it.ei]
		width := 128
		if e.expandAsV4 {
			width = 32
		}
		it.dontCares = it.dontCares[:0]
		for i := 0; i < width; i++ {
			if e.vars[i+1] == -1 {
				it.dontCares = append(it.dontCares, i)
			}
		}
		if len(it.dontCares) >= 64 {
			// Enumerating 2^64 or more concrete hosts from a single
			// assignment is never useful; skip straight to the next
			// expansion rather than spin forever.
			it.ei++
			continue
		}
		it.total = uint64(1) << uint(len(it.dontCares))
		it.combo = 0
		it.computeAddr(e)
		return
	}
	it.finished = true
}

func (it *AddrIterator) computeAddr(e expansion) {
	width := 128
	if e.expandAsV4 {
		width = 32
	}
	var bytes [16]byte
	for i := 0; i < width; i++ {
		v := e.vars[i+1]
		if v == -1 {
			continue
		}
		if v == 1 {
			bytes[i/8] |= 1 << uint(7-i%8)
		}
	}
	for bit, pos := range it.dontCares {
		if (it.combo>>uint(bit))&1 == 1 {
			bytes[pos/8] |= 1 << uint(7-pos%8)
		}
	}
	if e.expandAsV4 {
		it.addr = netip.AddrFrom4([4]byte{bytes[0], bytes[1], bytes[2], bytes[3]})
	} else {
		it.addr = netip.AddrFrom16(bytes)
	}
}

// Finished reports whether the iterator has no more addresses.
func (it *AddrIterator) Finished() bool {
	return it.finished
}

// Advance moves to the next host address.
func (it *AddrIterator) Advance() {
	if it.finished {
		return
	}
	it.combo++
	if it.combo >= it.total {
		it.ei++
		it.loadExpansion()
		return
	}
	it.computeAddr(it.expansions[it.ei])
}

// Addr returns the current host address. Only valid while !Finished().
func (it *AddrIterator) Addr() Addr {
	return AddrFromNetip(it.addr)
}
