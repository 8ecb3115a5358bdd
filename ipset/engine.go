// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"sync"

	"github.com/welloo6/shadowsocks-ipset/bdd"
)

// Engine owns the single *bdd.BDD that every Set/Map built from it shares.
// It plays the role the original C library gave to ipset_init_library():
// a single idempotent construction point, except here there is no global
// mutable state to initialize — constructing an Engine just sizes a fresh
// node table for the 129 variables (family bit + widest address) this
// package's codec needs.
type Engine struct {
	bdd *bdd.BDD
}

// NewEngine allocates a fresh BDD sized for IP set/map work. Options are
// forwarded to bdd.New, so callers that expect to build very large sets can
// tune Nodesize/Maxnodesize/Cachesize up front.
func NewEngine(options ...bdd.Option) (*Engine, error) {
	b, err := bdd.New(totalVars, options...)
	if err != nil {
		return nil, err
	}
	return &Engine{bdd: b}, nil
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
	defaultEngineErr  error
)

// DefaultEngine returns a package-level Engine shared by every Set/Map that
// doesn't construct its own, built on first use and reused afterwards.
func DefaultEngine() (*Engine, error) {
	defaultEngineOnce.Do(func() {
		defaultEngine, defaultEngineErr = NewEngine()
	})
	return defaultEngine, defaultEngineErr
}
