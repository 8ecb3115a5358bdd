// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"unsafe"
)

// bddnode is a single entry in the node table. It is either a nonterminal,
// carrying a variable level and two children, or a terminal, carrying an
// arbitrary value in the value field (level is then levelTerminal and low,
// high are unused). When a slot is unused, low is set to -1 and high points
// to the next free slot, mirroring the teacher's hudd implementation.
type bddnode struct {
	level  int32
	low    int
	high   int
	value  int64
	refcou int32
}

func (n bddnode) isTerminal() bool {
	return n.level == levelTerminal
}

// nodekey is the unicity key for a nonterminal.
type nodekey struct {
	level     int32
	low, high int
}

// nodeTable is the node cache: the interning table mapping (variable, low,
// high) to a canonical node id, plus a second table mapping terminal values
// to their canonical id. It owns every live node and is the sole owner of
// the canonicalization invariant: two ids are equal iff the sub-diagrams
// they denote are structurally identical.
type nodeTable struct {
	sync.RWMutex
	nodes         []bddnode
	unique        map[nodekey]int // unicity table for nonterminals
	terminals     map[int64]int   // unicity table for terminals
	freenum       int
	freepos       int
	produced      int
	nodefinalizer func(*int)
	uniqueAccess  int
	uniqueHit     int
	uniqueMiss    int
	gcstat
	configs
}

func newNodeTable(config *configs) *nodeTable {
	nt := &nodeTable{}
	nt.minfreenodes = config.minfreenodes
	nt.maxnodesize = config.maxnodesize
	nt.maxnodeincrease = config.maxnodeincrease
	nodesize := config.nodesize
	nt.nodes = make([]bddnode, nodesize)
	for k := range nt.nodes {
		nt.nodes[k] = bddnode{low: -1, high: k + 1}
	}
	nt.nodes[nodesize-1].high = 0
	nt.unique = make(map[nodekey]int, nodesize)
	nt.terminals = make(map[int64]int, 8)
	// bddzero and bddone are pinned; they are not part of the unicity table
	// proper since they have no (level, low, high) triple worth hashing.
	nt.nodes[0] = bddnode{level: levelTerminal, low: 0, high: 0, value: 0, refcou: _MAXREFCOUNT}
	nt.nodes[1] = bddnode{level: levelTerminal, low: 1, high: 1, value: 1, refcou: _MAXREFCOUNT}
	nt.terminals[0] = 0
	nt.terminals[1] = 1
	nt.freepos = 2
	nt.freenum = len(nt.nodes) - 2
	nt.gcstat.history = []gcpoint{}
	return nt
}

func (nt *nodeTable) size() int {
	nt.RLock()
	defer nt.RUnlock()
	return len(nt.nodes)
}

func (nt *nodeTable) level(n int) int32 {
	nt.RLock()
	defer nt.RUnlock()
	return nt.nodes[n].level
}

func (nt *nodeTable) low(n int) int {
	nt.RLock()
	defer nt.RUnlock()
	return nt.nodes[n].low
}

func (nt *nodeTable) high(n int) int {
	nt.RLock()
	defer nt.RUnlock()
	return nt.nodes[n].high
}

func (nt *nodeTable) value(n int) int64 {
	nt.RLock()
	defer nt.RUnlock()
	return nt.nodes[n].value
}

func (nt *nodeTable) isTerminal(n int) bool {
	nt.RLock()
	defer nt.RUnlock()
	return nt.nodes[n].isTerminal()
}

// terminal returns the canonical id of the leaf holding value, installing a
// new one if none exists yet.
func (nt *nodeTable) terminal(value int64, refstack []int) (int, error) {
	nt.Lock()
	if id, ok := nt.terminals[value]; ok {
		nt.Unlock()
		return id, nil
	}
	nt.Unlock()
	return nt.newslot(levelTerminal, 0, 0, value, refstack, true)
}

// nonterminal returns low directly if low == high (reduction), otherwise
// the existing id for (level, low, high) or a freshly installed one.
func (nt *nodeTable) nonterminal(level int32, low, high int, refstack []int) (int, error) {
	if low == high {
		return low, nil
	}
	nt.Lock()
	nt.uniqueAccess++
	key := nodekey{level, low, high}
	if id, ok := nt.unique[key]; ok {
		nt.uniqueHit++
		if _DEBUG && nt.uniqueAccess%1000 == 0 {
			logger.Debugw("bdd unicity cache", "access", nt.uniqueAccess, "hit", nt.uniqueHit, "miss", nt.uniqueMiss)
		}
		nt.Unlock()
		return id, nil
	}
	nt.uniqueMiss++
	nt.Unlock()
	return nt.newslot(level, low, high, 0, refstack, false)
}

// newslot allocates a fresh node, garbage collecting and resizing the table
// as needed when it is full.
func (nt *nodeTable) newslot(level int32, low, high int, value int64, refstack []int, isTerm bool) (int, error) {
	nt.Lock()
	defer nt.Unlock()
	if nt.freepos == 0 {
		nt.gbcLocked(refstack)
		if (nt.freenum*100)/len(nt.nodes) <= nt.minfreenodes {
			if err := nt.noderesizeLocked(); err != nil && err != errResize {
				return -1, errMemory
			}
		}
		if nt.freepos == 0 {
			return -1, errMemory
		}
	}
	id := nt.freepos
	nt.freepos = nt.nodes[id].high
	nt.freenum--
	nt.produced++
	nt.nodes[id] = bddnode{level: level, low: low, high: high, value: value}
	if isTerm {
		nt.terminals[value] = id
	} else {
		nt.unique[nodekey{level, low, high}] = id
	}
	return id, nil
}

func (nt *nodeTable) noderesizeLocked() error {
	oldsize := len(nt.nodes)
	nodesize := oldsize
	if (oldsize >= nt.maxnodesize) && (nt.maxnodesize > 0) {
		return errMemory
	}
	if oldsize > (math.MaxInt32 >> 1) {
		nodesize = math.MaxInt32 - 1
	} else {
		nodesize = nodesize << 1
	}
	if nt.maxnodeincrease > 0 && nodesize > (oldsize+nt.maxnodeincrease) {
		nodesize = oldsize + nt.maxnodeincrease
	}
	if (nodesize > nt.maxnodesize) && (nt.maxnodesize > 0) {
		nodesize = nt.maxnodesize
	}
	if nodesize <= oldsize {
		return errMemory
	}
	tmp := nt.nodes
	nt.nodes = make([]bddnode, nodesize)
	copy(nt.nodes, tmp)
	for n := oldsize; n < nodesize; n++ {
		nt.nodes[n] = bddnode{low: -1, high: n + 1}
	}
	nt.nodes[nodesize-1].high = nt.freepos
	nt.freepos = oldsize
	nt.freenum += nodesize - oldsize
	if _DEBUG {
		logger.Debugw("bdd resize", "old_size", oldsize, "new_size", nodesize)
	}
	return errResize
}

// gbcLocked reclaims nodes unreachable from refstack or from any node with a
// positive reference count. Called with the write lock already held.
func (nt *nodeTable) gbcLocked(refstack []int) {
	if _DEBUG {
		nt.gcstat.history = append(nt.gcstat.history, gcpoint{
			nodes:            len(nt.nodes),
			freenodes:        nt.freenum,
			setfinalizers:    nt.gcstat.setfinalizers,
			calledfinalizers: nt.gcstat.calledfinalizers,
		})
		logger.Debugw("bdd gc", "nodes", len(nt.nodes), "free_before", nt.freenum,
			"ext_refs", nt.gcstat.setfinalizers, "reclaimed", nt.gcstat.calledfinalizers)
		nt.gcstat.setfinalizers = 0
		nt.gcstat.calledfinalizers = 0
	} else {
		nt.gcstat.history = append(nt.gcstat.history, gcpoint{nodes: len(nt.nodes), freenodes: nt.freenum})
	}
	for _, r := range refstack {
		nt.markrec(r)
	}
	for k := range nt.nodes {
		if nt.nodes[k].refcou > 0 {
			nt.markrec(k)
		}
	}
	nt.freepos = 0
	nt.freenum = 0
	for n := len(nt.nodes) - 1; n > 1; n-- {
		if nt.ismarked(n) && nt.nodes[n].low != -1 {
			nt.unmarknode(n)
			continue
		}
		if nt.nodes[n].low != -1 {
			nt.deleteSlot(n)
		}
		nt.nodes[n].low = -1
		nt.nodes[n].high = nt.freepos
		nt.freepos = n
		nt.freenum++
	}
}

func (nt *nodeTable) deleteSlot(n int) {
	node := nt.nodes[n]
	if node.isTerminal() {
		delete(nt.terminals, node.value)
		return
	}
	delete(nt.unique, nodekey{node.level, node.low, node.high})
}

func (nt *nodeTable) ismarked(n int) bool {
	return (nt.nodes[n].refcou & 0x40000000) != 0
}

func (nt *nodeTable) marknode(n int) {
	nt.nodes[n].refcou |= 0x40000000
}

func (nt *nodeTable) unmarknode(n int) {
	nt.nodes[n].refcou &^= 0x40000000
}

func (nt *nodeTable) markrec(n int) {
	if n < 0 || nt.ismarked(n) || nt.nodes[n].low == -1 {
		return
	}
	nt.marknode(n)
	if nt.nodes[n].isTerminal() {
		return
	}
	nt.markrec(nt.nodes[n].low)
	nt.markrec(nt.nodes[n].high)
}

func (nt *nodeTable) unmarkall() {
	for k, v := range nt.nodes {
		if !nt.ismarked(k) || v.low == -1 {
			continue
		}
		nt.unmarknode(k)
	}
}

// retnode returns a Node for external use, pinning it against garbage
// collection with a refcount and a finalizer that decrements it when the
// Node is dropped by the client, exactly as in the teacher's retnode.
func (nt *nodeTable) retnode(n int) Node {
	if n < 0 || n >= len(nt.nodes) {
		return nil
	}
	x := new(int)
	*x = n
	nt.Lock()
	if nt.nodes[n].refcou < _MAXREFCOUNT {
		nt.nodes[n].refcou++
		runtime.SetFinalizer(x, nt.nodefinalizer)
		if _DEBUG {
			nt.gcstat.setfinalizers++
		}
	}
	nt.Unlock()
	return x
}

// unrefnode is the finalizer installed on every Node: it drops the pinning
// reference count by one when the client-visible *int is collected.
func (nt *nodeTable) unrefnode(x *int) {
	nt.Lock()
	n := *x
	if nt.nodes[n].refcou > 0 && nt.nodes[n].refcou < _MAXREFCOUNT {
		nt.nodes[n].refcou--
	}
	if _DEBUG {
		nt.gcstat.calledfinalizers++
	}
	nt.Unlock()
}

func (nt *nodeTable) stats() string {
	nt.RLock()
	defer nt.RUnlock()
	res := fmt.Sprintf("Allocated:  %d (%s)\n", len(nt.nodes), humanSize(len(nt.nodes), unsafe.Sizeof(bddnode{})))
	res += fmt.Sprintf("Produced:   %d\n", nt.produced)
	r := (float64(nt.freenum) / float64(len(nt.nodes))) * 100
	res += fmt.Sprintf("Free:       %d (%.3g %%)\n", nt.freenum, r)
	res += fmt.Sprintf("Used:       %d (%.3g %%)\n", len(nt.nodes)-nt.freenum, 100.0-r)
	res += "==============\n"
	res += fmt.Sprintf("# of GC:    %d\n", len(nt.gcstat.history))
	if _DEBUG {
		allocated := nt.gcstat.setfinalizers
		reclaimed := nt.gcstat.calledfinalizers
		for _, g := range nt.gcstat.history {
			allocated += g.setfinalizers
			reclaimed += g.calledfinalizers
		}
		res += fmt.Sprintf("Ext. refs:  %d\n", allocated)
		res += fmt.Sprintf("Reclaimed:  %d\n", reclaimed)
		res += "==============\n"
		res += fmt.Sprintf("Unique Access:  %d\n", nt.uniqueAccess)
		if nt.uniqueAccess > 0 {
			res += fmt.Sprintf("Unique Hit:     %d (%.1f%%)\n", nt.uniqueHit, (float64(nt.uniqueHit)*100)/float64(nt.uniqueAccess))
		}
		res += fmt.Sprintf("Unique Miss:    %d\n", nt.uniqueMiss)
	}
	return res
}

func humanSize(count int, sz uintptr) string {
	bytes := float64(count) * float64(sz)
	units := []string{"B", "KiB", "MiB", "GiB"}
	for _, u := range units {
		if bytes < 1024 {
			return fmt.Sprintf("%.3g %s", bytes, u)
		}
		bytes /= 1024
	}
	return fmt.Sprintf("%.3g TiB", bytes)
}
