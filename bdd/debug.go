// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// gcpoint is a snapshot of the node table taken right before a garbage
// collection pass, kept for Stats/diagnostics.
type gcpoint struct {
	nodes            int
	freenodes        int
	setfinalizers    int
	calledfinalizers int
}

// gcstat accumulates gcpoints plus running finalizer counters.
type gcstat struct {
	history          []gcpoint
	setfinalizers    int
	calledfinalizers int
}
