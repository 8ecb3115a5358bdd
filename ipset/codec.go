// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"net/netip"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// literal is one fixed boolean variable in an assignment: variable index
// plus the value (0 or 1) it is pinned to.
type literal struct {
	v   int
	val int8
}

// encodeLiterals builds the literal sequence that exactly characterizes the
// network addr/prefixLen, following spec.md §3's variable-0-is-family-bit
// scheme: variable 0 pins the family, variables 1..prefixLen pin the
// leading address bits MSB-first, and every variable beyond prefixLen (up
// to the family's full width) is left unconstrained (don't-care).
func encodeLiterals(addr Addr, prefixLen int) ([]literal, error) {
	width := addr.Width()
	if prefixLen <= 0 || prefixLen > width {
		return nil, ErrInvalidPrefix
	}
	lits := make([]literal, 0, prefixLen+1)
	famVal := int8(0)
	if addr.Family() == 4 {
		famVal = 1
	}
	lits = append(lits, literal{v: famVar, val: famVal})
	for i := 0; i < prefixLen; i++ {
		lits = append(lits, literal{v: i + 1, val: addr.bit(i)})
	}
	return lits, nil
}

// fullBits zero-extends addr's bits to totalVars, for use with bdd.EvalAt.
// Variables beyond addr's own width are never tested along the path that
// addr's family bit selects, so the padding value is never observed.
func fullBits(addr Addr) []int8 {
	bits := make([]int8, totalVars)
	if addr.Family() == 4 {
		bits[famVar] = 1
	}
	width := addr.Width()
	for i := 0; i < width; i++ {
		bits[i+1] = addr.bit(i)
	}
	return bits
}

// buildNetworkNode constructs the BDD for exactly the literals list: the
// conjunction of ithvar(v) or nithvar(v) for each fixed literal, leaving
// every other variable don't-care (free).
func buildNetworkNode(engine *bdd.BDD, lits []literal) (bdd.Node, error) {
	result := engine.True()
	for _, l := range lits {
		var lv bdd.Node
		var err error
		if l.val == 1 {
			lv, err = engine.Ithvar(l.v)
		} else {
			lv, err = engine.NithVar(l.v)
		}
		if err != nil {
			return nil, err
		}
		result, err = engine.And(result, lv)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// decodeAssignment turns a compressed assignment back into the network it
// denotes, expanding the family bit either as IPv4 or IPv6 per expandAsV4.
// It assumes the fixed (non-don't-care) address bits form a single
// contiguous leading run — callers with an interior don't-care (a
// don't-care bit followed by a fixed one) must resolve it to a concrete
// value first, one combination at a time, as networkCombos does; passing
// such an assignment directly would silently report a shorter, over-wide
// prefix. The returned prefix length counts the leading fixed run; don't-care
// address bits past it are reported as zero in the address, matching the
// canonical "network address" representation.
func decodeAssignment(vars []int8, expandAsV4 bool) (netip.Addr, int) {
	width := 128
	if expandAsV4 {
		width = 32
	}
	var bytes [16]byte
	prefixLen := 0
	fixedSeen := false
	for i := 0; i < width; i++ {
		val := vars[i+1]
		if val == -1 {
			if !fixedSeen {
				continue
			}
			break
		}
		fixedSeen = true
		prefixLen = i + 1
		if val == 1 {
			byteIdx := i / 8
			bitIdx := 7 - uint(i%8)
			bytes[byteIdx] |= 1 << bitIdx
		}
	}
	if expandAsV4 {
		a := netip.AddrFrom4([4]byte{bytes[0], bytes[1], bytes[2], bytes[3]})
		return a, prefixLen
	}
	a := netip.AddrFrom16(bytes)
	return a, prefixLen
}
