// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import "go.uber.org/zap"

// logger is the package-wide sugared logger. GC passes, table resizes and
// unicity-cache hit ratios are only worth the allocation cost of structured
// logging when a caller built with -tags debug; see _DEBUG.
var logger = newLogger()

func newLogger() *zap.SugaredLogger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}
