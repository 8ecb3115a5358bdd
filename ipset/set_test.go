// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSet(t *testing.T) *Set {
	t.Helper()
	e, err := NewEngine()
	require.NoError(t, err)
	s, err := NewWithEngine(e)
	require.NoError(t, err)
	return s
}

func TestSetEmpty(t *testing.T) {
	s := newTestSet(t)
	require.True(t, s.IsEmpty())
	a, err := ParseAddr("192.0.2.1")
	require.NoError(t, err)
	require.False(t, s.Contains(a))
}

func TestSetAddAndContains(t *testing.T) {
	s := newTestSet(t)
	a, err := ParseAddr("192.0.2.1")
	require.NoError(t, err)
	already, err := s.Add(a)
	require.NoError(t, err)
	require.False(t, already)
	require.True(t, s.Contains(a))
	require.False(t, s.IsEmpty())

	already, err = s.Add(a)
	require.NoError(t, err)
	require.True(t, already, "adding the same address twice should report it was already present")

	other, err := ParseAddr("192.0.2.2")
	require.NoError(t, err)
	require.False(t, s.Contains(other))
}

func TestSetAddNetworkContainsHosts(t *testing.T) {
	s := newTestSet(t)
	network, err := ParseAddr("203.0.113.0")
	require.NoError(t, err)
	_, err = s.AddNetwork(network, 24)
	require.NoError(t, err)

	inside, err := ParseAddr("203.0.113.200")
	require.NoError(t, err)
	require.True(t, s.Contains(inside))

	outside, err := ParseAddr("203.0.114.1")
	require.NoError(t, err)
	require.False(t, s.Contains(outside))
}

func TestSetInvalidPrefix(t *testing.T) {
	s := newTestSet(t)
	a, err := ParseAddr("192.0.2.1")
	require.NoError(t, err)
	_, err = s.AddNetwork(a, 0)
	require.ErrorIs(t, err, ErrInvalidPrefix)
	require.True(t, s.IsEmpty(), "a rejected AddNetwork must leave the set untouched")

	_, err = s.AddNetwork(a, 33)
	require.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestSetMixedFamilies(t *testing.T) {
	s := newTestSet(t)
	v4, err := ParseAddr("198.51.100.7")
	require.NoError(t, err)
	v6, err := ParseAddr("2001:db8::1")
	require.NoError(t, err)

	_, err = s.Add(v4)
	require.NoError(t, err)
	_, err = s.Add(v6)
	require.NoError(t, err)

	require.True(t, s.Contains(v4))
	require.True(t, s.Contains(v6))

	otherV6, err := ParseAddr("2001:db8::2")
	require.NoError(t, err)
	require.False(t, s.Contains(otherV6))
}

func TestSetEqual(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	s1, err := NewWithEngine(e)
	require.NoError(t, err)
	s2, err := NewWithEngine(e)
	require.NoError(t, err)

	a, err := ParseAddr("10.0.0.1")
	require.NoError(t, err)
	_, err = s1.Add(a)
	require.NoError(t, err)
	require.True(t, s1.NotEqual(s2))

	_, err = s2.Add(a)
	require.NoError(t, err)
	require.True(t, s1.Equal(s2))
}

func TestSetSaveLoadRoundtrip(t *testing.T) {
	s := newTestSet(t)
	a1, err := ParseAddr("192.0.2.1")
	require.NoError(t, err)
	a2, err := ParseAddr("2001:db8::1")
	require.NoError(t, err)
	_, err = s.Add(a1)
	require.NoError(t, err)
	_, err = s.AddNetwork(a2, 64)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	loaded, err := LoadWithEngine(&buf, s.engine)
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
	require.True(t, loaded.Contains(a1))
	require.True(t, loaded.Contains(a2))
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not an ip set stream at all")))
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestLoadRejectsTruncatedStream(t *testing.T) {
	s := newTestSet(t)
	a, err := ParseAddr("192.0.2.1")
	require.NoError(t, err)
	_, err = s.Add(a)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))
	truncated := buf.Bytes()[:buf.Len()-2]

	_, err = LoadWithEngine(bytes.NewReader(truncated), s.engine)
	require.Error(t, err)
}
