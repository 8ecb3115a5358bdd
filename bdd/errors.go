// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"github.com/pkg/errors"
)

// Errored reports whether b is in an error state, meaning an earlier
// operation failed and every call that checks the state (Terminal, And, Or,
// Xor, Not, NithVar, Ite) will now return the same error until the BDD is
// discarded. Mirrors the teacher's sticky
// error handling: a single out-of-memory condition taints the whole BDD
// rather than leaving it half-updated.
func (b *BDD) Errored() bool {
	b.RLock()
	defer b.RUnlock()
	return b.err != nil
}

// Error returns the error that put b in an error state, or nil.
func (b *BDD) Error() error {
	b.RLock()
	defer b.RUnlock()
	return b.err
}

// seterror records err as the (sticky) cause of b's error state, wrapping it
// with call-site context the way pkg/errors does throughout this package.
// Takes b's write lock itself; callers that already hold it must use
// seterrorLocked instead.
func (b *BDD) seterror(context string, err error) error {
	b.Lock()
	defer b.Unlock()
	return b.seterrorLocked(context, err)
}

// seterrorLocked is seterror for callers (apply/not/ite/Terminal) that
// already hold b's write lock for the duration of their own operation.
func (b *BDD) seterrorLocked(context string, err error) error {
	wrapped := errors.Wrap(err, context)
	if b.err == nil {
		b.err = wrapped
	}
	return wrapped
}
