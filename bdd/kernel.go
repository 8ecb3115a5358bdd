// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"errors"
	"math"
)

// _MAXVAR is the maximal number of levels in a BDD. We reserve the top of
// the int32 range to mark terminal nodes (see levelTerminal below), so a
// BDD can never actually grow that many variables in practice; the IP layer
// only ever asks for 129 (one family bit plus 128 address bits).
const _MAXVAR int32 = 0x1FFFFF

// levelTerminal is the sentinel level carried by every terminal node. It is
// strictly greater than any real variable index, which keeps the ordering
// invariant (strictly increasing levels root-to-leaf) true of terminals for
// free.
const levelTerminal int32 = math.MaxInt32

// _MAXREFCOUNT is the maximal value of the reference counter, also used to
// pin nodes (constants, variables) so the garbage collector never reclaims
// them.
const _MAXREFCOUNT int32 = 0x3FF

// _MINFREENODES is the minimal percentage of nodes that has to be left
// after a garbage collect before we resize instead.
const _MINFREENODES int = 20

// _DEFAULTMAXNODEINC bounds how much the node table grows in one resize.
const _DEFAULTMAXNODEINC int = 1 << 20

var errMemory = errors.New("unable to free memory or resize BDD")
var errResize = errors.New("should cache resize")
var errReset = errors.New("should cache reset")
