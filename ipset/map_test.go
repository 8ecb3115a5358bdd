// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ipset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapDefaultAndNetworkOverride(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	m, err := NewMapWithEngine(e, -1)
	require.NoError(t, err)

	outside, err := ParseAddr("8.8.8.8")
	require.NoError(t, err)
	require.Equal(t, int64(-1), m.Get(outside))

	network, err := ParseAddr("10.0.0.0")
	require.NoError(t, err)
	require.NoError(t, m.SetNetwork(network, 8, 7))

	inside, err := ParseAddr("10.1.2.3")
	require.NoError(t, err)
	require.Equal(t, int64(7), m.Get(inside))
	require.Equal(t, int64(-1), m.Get(outside))

	require.NoError(t, m.Set(inside, 42))
	require.Equal(t, int64(42), m.Get(inside))

	sibling, err := ParseAddr("10.1.2.4")
	require.NoError(t, err)
	require.Equal(t, int64(7), m.Get(sibling), "overriding one host must not disturb the rest of the network")
}

func TestMapEqual(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	m1, err := NewMapWithEngine(e, -1)
	require.NoError(t, err)
	m2, err := NewMapWithEngine(e, -1)
	require.NoError(t, err)
	require.True(t, m1.Equal(m2))

	network, err := ParseAddr("10.0.0.0")
	require.NoError(t, err)
	require.NoError(t, m1.SetNetwork(network, 8, 7))
	require.True(t, m1.NotEqual(m2))

	require.NoError(t, m2.SetNetwork(network, 8, 7))
	require.True(t, m1.Equal(m2))
}

func TestMapSaveLoadRoundtrip(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	m, err := NewMapWithEngine(e, -1)
	require.NoError(t, err)
	network, err := ParseAddr("10.0.0.0")
	require.NoError(t, err)
	require.NoError(t, m.SetNetwork(network, 8, 7))

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	loaded, err := LoadMapWithEngine(&buf, e, -1)
	require.NoError(t, err)
	require.True(t, m.Equal(loaded))

	inside, err := ParseAddr("10.5.5.5")
	require.NoError(t, err)
	require.Equal(t, int64(7), loaded.Get(inside))
}
