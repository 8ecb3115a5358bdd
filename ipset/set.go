// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"net/netip"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// Set is a compact, set-theoretic container of IP addresses (v4 and v6
// freely mixed), backed by a single BDD root: the characteristic function
// that is true exactly for the encoded literals (§ codec) of every address
// or network the set contains. Mirrors ip_set_t's single set_bdd field.
type Set struct {
	engine *Engine
	root   bdd.Node
}

// New creates an empty Set on the package-level DefaultEngine.
func New() (*Set, error) {
	e, err := DefaultEngine()
	if err != nil {
		return nil, err
	}
	return NewWithEngine(e)
}

// NewWithEngine creates an empty Set on a caller-supplied Engine, letting
// several sets share one node table (and thus share structure) deliberately.
func NewWithEngine(e *Engine) (*Set, error) {
	return &Set{engine: e, root: e.bdd.False()}, nil
}

// IsEmpty reports whether the set contains no addresses.
func (s *Set) IsEmpty() bool {
	v, ok := s.engine.bdd.IsTerminal(s.root)
	return ok && v == 0
}

// Equal reports whether s and other contain exactly the same addresses.
// Both must share the same Engine (same node table), since diagram
// equality is only meaningful within one universe.
func (s *Set) Equal(other *Set) bool {
	return s.engine.bdd.Equal(s.root, other.root)
}

// NotEqual is the negation of Equal.
func (s *Set) NotEqual(other *Set) bool {
	return !s.Equal(other)
}

// MemorySize returns the number of distinct BDD nodes reachable from the
// set's root, and a best-effort byte estimate built from that count. Two
// sets sharing structure (built from the same Engine) will not sum to the
// total memory actually used, exactly as spec.md §9 notes.
func (s *Set) MemorySize() (nodes int, bytes int) {
	n := s.engine.bdd.NodeCount(s.root)
	return n, n * nodeByteEstimate
}

// nodeByteEstimate approximates the in-memory footprint of one bddnode on a
// 64-bit platform: one word each for low, high and value, plus level and
// refcou, each an int32 padded to a word.
const nodeByteEstimate = 40

// Add inserts a single host address, returning whether it was already
// present.
func (s *Set) Add(addr Addr) (bool, error) {
	return s.AddNetwork(addr, addr.Width())
}

// AddNetwork inserts every address sharing addr's first prefixLen bits.
// An invalid prefixLen is a documented no-op (spec.md §7): the set is left
// untouched and ErrInvalidPrefix is returned.
func (s *Set) AddNetwork(addr Addr, prefixLen int) (bool, error) {
	lits, err := encodeLiterals(addr, prefixLen)
	if err != nil {
		return false, err
	}
	network, err := buildNetworkNode(s.engine.bdd, lits)
	if err != nil {
		return false, err
	}
	already, err := s.containsNode(network)
	if err != nil {
		return false, err
	}
	newRoot, err := s.engine.bdd.Or(s.root, network)
	if err != nil {
		return false, err
	}
	s.root = newRoot
	return already, nil
}

// Contains reports whether addr is a member of the set.
func (s *Set) Contains(addr Addr) bool {
	lits, err := encodeLiterals(addr, addr.Width())
	if err != nil {
		return false
	}
	network, err := buildNetworkNode(s.engine.bdd, lits)
	if err != nil {
		return false
	}
	ok, err := s.containsNode(network)
	if err != nil {
		return false
	}
	return ok
}

// containsNode reports whether every address denoted by network is already
// in s: equivalently, whether network implies s.root (network AND NOT
// s.root is empty).
func (s *Set) containsNode(network bdd.Node) (bool, error) {
	notRoot, err := s.engine.bdd.Not(s.root)
	if err != nil {
		return false, err
	}
	diff, err := s.engine.bdd.And(network, notRoot)
	if err != nil {
		return false, err
	}
	v, ok := s.engine.bdd.IsTerminal(diff)
	return ok && v == 0, nil
}

// AddIPv4 and AddIPv4Network take a raw 4-byte big-endian address, mirroring
// ipset_ipv4_add/ipset_ipv4_add_network from the original C surface, which
// likewise don't care what higher-level type the caller used to produce the
// bytes.
func (s *Set) AddIPv4(a [4]byte) (bool, error) {
	return s.Add(AddrFromNetip(netip.AddrFrom4(a)))
}

func (s *Set) AddIPv4Network(a [4]byte, prefixLen int) (bool, error) {
	return s.AddNetwork(AddrFromNetip(netip.AddrFrom4(a)), prefixLen)
}

// AddIPv6 and AddIPv6Network are the IPv6 equivalents, taking a raw 16-byte
// big-endian address.
func (s *Set) AddIPv6(a [16]byte) (bool, error) {
	return s.Add(AddrFromNetip(netip.AddrFrom16(a)))
}

func (s *Set) AddIPv6Network(a [16]byte, prefixLen int) (bool, error) {
	return s.AddNetwork(AddrFromNetip(netip.AddrFrom16(a)), prefixLen)
}

// AddIP and AddIPNetwork are the family-generic entry points, identical to
// Add/AddNetwork; they exist so the public surface names every operation
// spec.md §6 lists (ipset_ip_add, ipset_ip_add_network) even though the
// generic Addr-based Add already covers both families.
func (s *Set) AddIP(addr Addr) (bool, error) { return s.Add(addr) }

func (s *Set) AddIPNetwork(addr Addr, prefixLen int) (bool, error) {
	return s.AddNetwork(addr, prefixLen)
}
