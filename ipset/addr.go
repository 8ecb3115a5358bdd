// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"net/netip"

	"github.com/pkg/errors"
)

// totalVars is the number of boolean variables every engine in this package
// is built over: one family-discriminator bit plus the 128 bits needed to
// address the widest family (IPv6). An IPv4 address only ever constrains
// variables 1..32; variables 33..128 stay don't-care.
const totalVars = 1 + 128

// famVar is the index of the family-discriminator variable: 1 selects
// IPv4, 0 selects IPv6.
const famVar = 0

// Addr wraps netip.Addr, the only address type in the retrieval pack that
// can represent both v4 and v6 without an explicit family tag, matching
// gaissmai/bart's own choice of representation.
type Addr struct {
	inner netip.Addr
}

// AddrFromNetip wraps an already-parsed netip.Addr.
func AddrFromNetip(a netip.Addr) Addr {
	return Addr{inner: a.Unmap()}
}

// ParseAddr accepts conventional dotted-quad ("192.0.2.1") and colon-hex
// ("2001:db8::1") notations, exactly as net/netip.ParseAddr does.
func ParseAddr(s string) (Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return Addr{}, errors.Wrap(err, "ipset: parsing address")
	}
	return Addr{inner: a.Unmap()}, nil
}

// Family returns 4 or 6.
func (a Addr) Family() int {
	if a.inner.Is4() {
		return 4
	}
	return 6
}

// Width returns the number of address bits for a's family (32 or 128).
func (a Addr) Width() int {
	if a.Family() == 4 {
		return 32
	}
	return 128
}

// Netip returns the underlying netip.Addr.
func (a Addr) Netip() netip.Addr {
	return a.inner
}

func (a Addr) String() string {
	return a.inner.String()
}

func (a Addr) IsValid() bool {
	return a.inner.IsValid()
}

// bit returns the i-th address bit (0-indexed, MSB first) of a.
func (a Addr) bit(i int) int8 {
	byteIdx := i / 8
	bitIdx := 7 - uint(i%8)
	var b byte
	if a.Family() == 4 {
		v4 := a.inner.As4()
		b = v4[byteIdx]
	} else {
		v6 := a.inner.As16()
		b = v6[byteIdx]
	}
	if (b>>bitIdx)&1 == 1 {
		return 1
	}
	return 0
}
