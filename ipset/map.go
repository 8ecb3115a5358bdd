// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"net/netip"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// Map is an IP-to-integer map: every address in existence has a value,
// starting out at a declared default, with SetNetwork overriding any
// prefix. Mirrors ip_map_t's (map_bdd, default_bdd) pair, collapsed here
// into a single root diagram whose terminals already carry the right value
// at every point — Ite keeps that collapsing exact, since Ite(selector,
// override, previous) on a nonboolean previous still produces the correct
// terminal-valued diagram (spec.md §4.3).
type Map struct {
	engine       *Engine
	root         bdd.Node
	defaultValue int64
}

// NewMap creates a Map on the package-level DefaultEngine whose every
// address initially carries defaultValue.
func NewMap(defaultValue int64) (*Map, error) {
	e, err := DefaultEngine()
	if err != nil {
		return nil, err
	}
	return NewMapWithEngine(e, defaultValue)
}

// NewMapWithEngine creates a Map on a caller-supplied Engine.
func NewMapWithEngine(e *Engine, defaultValue int64) (*Map, error) {
	term, err := e.bdd.Terminal(defaultValue)
	if err != nil {
		return nil, err
	}
	return &Map{engine: e, root: term, defaultValue: defaultValue}, nil
}

// Equal reports whether m and other assign the same value to every address.
func (m *Map) Equal(other *Map) bool {
	return m.engine.bdd.Equal(m.root, other.root)
}

func (m *Map) NotEqual(other *Map) bool {
	return !m.Equal(other)
}

// MemorySize mirrors Set.MemorySize.
func (m *Map) MemorySize() (nodes int, bytes int) {
	n := m.engine.bdd.NodeCount(m.root)
	return n, n * nodeByteEstimate
}

// Set assigns value to a single host address.
func (m *Map) Set(addr Addr, value int64) error {
	return m.SetNetwork(addr, addr.Width(), value)
}

// SetNetwork assigns value to every address sharing addr's first prefixLen
// bits, overriding whatever those addresses previously held.
func (m *Map) SetNetwork(addr Addr, prefixLen int, value int64) error {
	lits, err := encodeLiterals(addr, prefixLen)
	if err != nil {
		return err
	}
	selector, err := buildNetworkNode(m.engine.bdd, lits)
	if err != nil {
		return err
	}
	term, err := m.engine.bdd.Terminal(value)
	if err != nil {
		return err
	}
	newRoot, err := m.engine.bdd.Ite(selector, term, m.root)
	if err != nil {
		return err
	}
	m.root = newRoot
	return nil
}

// Get returns the value currently assigned to addr.
func (m *Map) Get(addr Addr) int64 {
	return m.engine.bdd.EvalAt(m.root, fullBits(addr))
}

// SetIPv4/SetIPv4Network/SetIPv6/SetIPv6Network/SetIP/SetIPNetwork mirror
// Set's IPv4/IPv6/generic wrappers, covering ipmap_ipv4_add-equivalent
// entry points for the value-carrying container.
func (m *Map) SetIPv4(a [4]byte, value int64) error {
	return m.Set(AddrFromNetip(netip.AddrFrom4(a)), value)
}

func (m *Map) SetIPv4Network(a [4]byte, prefixLen int, value int64) error {
	return m.SetNetwork(AddrFromNetip(netip.AddrFrom4(a)), prefixLen, value)
}

func (m *Map) SetIPv6(a [16]byte, value int64) error {
	return m.Set(AddrFromNetip(netip.AddrFrom16(a)), value)
}

func (m *Map) SetIPv6Network(a [16]byte, prefixLen int, value int64) error {
	return m.SetNetwork(AddrFromNetip(netip.AddrFrom16(a)), prefixLen, value)
}

func (m *Map) SetIP(addr Addr, value int64) error { return m.Set(addr, value) }

func (m *Map) SetIPNetwork(addr Addr, prefixLen int, value int64) error {
	return m.SetNetwork(addr, prefixLen, value)
}
