// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import "github.com/pkg/errors"

// ErrInvalidPrefix is returned when a prefix length is zero or wider than
// the address family allows (33+ for IPv4, 129+ for IPv6). Callers that
// want the original C library's silent-no-op behavior should treat it as
// ignorable rather than fatal; Add/AddNetwork never mutate the receiver
// when they return it.
var ErrInvalidPrefix = errors.New("ipset: invalid prefix length")

// ErrIO wraps a failure reading from or writing to the underlying stream
// during Save/Load.
var ErrIO = errors.New("ipset: i/o error")

// ErrBadFormat is returned by Load when the stream's magic, version, or
// topological node ordering doesn't match what Save produces.
var ErrBadFormat = errors.New("ipset: malformed stream")

// ErrOutOfMemory surfaces a failed BDD node table allocation.
var ErrOutOfMemory = errors.New("ipset: out of memory")
