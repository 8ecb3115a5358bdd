// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

//go:build debug

package bdd

// _DEBUG is forced on by the debug build tag; see debug_off.go.
const _DEBUG = true
