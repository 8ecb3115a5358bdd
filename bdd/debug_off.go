// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

//go:build !debug

package bdd

// _DEBUG controls whether the package counts finalizers for Stats, reports
// the unicity-cache counters in Stats, and logs GC passes, resizes and
// unicity hit ratios. The finalizer counters cost a field increment per Node
// handed out and per finalizer call, which is not free at the scale an IP
// set can reach, so it is off unless the caller builds with -tags debug.
const _DEBUG = false
