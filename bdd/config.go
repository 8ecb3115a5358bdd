// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// configs groups the sizing knobs of a BDD. They are set once at
// construction time through functional options and never change
// afterwards; every subsequent resize is computed relative to them.
type configs struct {
	nodesize        int
	maxnodesize     int
	maxnodeincrease int
	minfreenodes    int
	cachesize       int
	cacheratio      int
}

// Option configures a BDD at construction time. Named and exported (rather
// than a bare func(*configs)) so that callers outside this package, such as
// ipset.Engine, can forward option slices without needing to spell an
// unexported type.
type Option func(*configs)

func makeconfigs() configs {
	return configs{
		nodesize:        1000,
		maxnodesize:     0,
		maxnodeincrease: _DEFAULTMAXNODEINC,
		minfreenodes:    _MINFREENODES,
		cachesize:       1000,
		cacheratio:      0,
	}
}

// Nodesize sets the initial number of nodes to allocate, before any
// resizing. Defaults to 1000.
func Nodesize(size int) Option {
	return func(c *configs) {
		if size > 0 {
			c.nodesize = size
		}
	}
}

// Maxnodesize bounds how large the node table is allowed to grow. A value of
// 0, the default, means unbounded.
func Maxnodesize(size int) Option {
	return func(c *configs) {
		if size >= 0 {
			c.maxnodesize = size
		}
	}
}

// Maxnodeincrease bounds how many nodes a single resize may add. Defaults to
// _DEFAULTMAXNODEINC.
func Maxnodeincrease(size int) Option {
	return func(c *configs) {
		if size > 0 {
			c.maxnodeincrease = size
		}
	}
}

// Minfreenodes sets the minimal percentage of free nodes that must remain
// after a garbage collection before a resize is triggered instead. Defaults
// to _MINFREENODES (20).
func Minfreenodes(percent int) Option {
	return func(c *configs) {
		if percent >= 0 && percent <= 100 {
			c.minfreenodes = percent
		}
	}
}

// Cachesize sets the initial size of the operation caches (Apply, Ite).
// Defaults to 1000.
func Cachesize(size int) Option {
	return func(c *configs) {
		if size > 0 {
			c.cachesize = size
		}
	}
}

// Cacheratio stores a node-table-to-cache size ratio in the configuration.
// No code reads it: the operation caches keep the size Cachesize gave them
// and do not grow with the node table.
func Cacheratio(ratio int) Option {
	return func(c *configs) {
		if ratio >= 0 {
			c.cacheratio = ratio
		}
	}
}
