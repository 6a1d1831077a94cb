package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amhuang/routing-protocols/internal/routing"
)

func TestEncodeDecodeTAB_RoundTrip(t *testing.T) {
	vector := routing.New()
	vector[2000] = routing.Entry{Cost: 1, NextHop: 2000}
	vector[2001] = routing.Entry{Cost: routing.Infinity, NextHop: routing.NoNextHop}

	payload, err := EncodeTAB(vector)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "TAB\n"))

	frame, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, KindTAB, frame.Kind)
	require.NotNil(t, frame.TAB)

	got := frame.TAB.Vector
	assert.Equal(t, float64(1), got[2000].Cost)
	assert.Equal(t, 2000, got[2000].NextHop)
	assert.True(t, got[2001].Cost > 0 && got[2001].Cost == routing.Infinity)
	assert.Equal(t, routing.NoNextHop, got[2001].NextHop)
}

func TestDecode_TAB_TrailingNewlineTolerated(t *testing.T) {
	vector := routing.New()
	vector[2000] = routing.Entry{Cost: 3, NextHop: 2000}
	payload, err := EncodeTAB(vector)
	require.NoError(t, err)

	frame, err := Decode(append(payload, '\n'))
	require.NoError(t, err)
	assert.Equal(t, float64(3), frame.TAB.Vector[2000].Cost)
}

func TestEncodeDecodeLSA_RoundTrip(t *testing.T) {
	neighbors := map[int]int{2001: 1, 2002: 4}
	payload, err := EncodeLSA(2000, neighbors, 1700000000.5)
	require.NoError(t, err)

	frame, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, KindLSA, frame.Kind)
	assert.Equal(t, 2000, frame.LSA.Origin)
	assert.Equal(t, 1700000000.5, frame.LSA.Sequence)
	assert.Equal(t, neighbors, frame.LSA.Neighbors)
}

func TestLSAFrame_RawFrameIsByteIdentical(t *testing.T) {
	neighbors := map[int]int{2001: 1}
	payload, err := EncodeLSA(2000, neighbors, 42)
	require.NoError(t, err)

	frame, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, frame.LSA.RawFrame())
}

func TestEncodeDecodeCOS_RoundTrip(t *testing.T) {
	payload, err := EncodeCOS(10)
	require.NoError(t, err)

	frame, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, KindCOS, frame.Kind)
	assert.Equal(t, 10, frame.COS.Cost)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte("BOGUS\nstuff"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecode_OversizedFrame(t *testing.T) {
	_, err := Decode(make([]byte, MaxFrameBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestEncodeTAB_RejectsOversizedFrame(t *testing.T) {
	vector := routing.New()
	for port := 0; port < 400; port++ {
		vector[10000+port] = routing.Entry{Cost: float64(port), NextHop: 10000 + port}
	}
	_, err := EncodeTAB(vector)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecode_MalformedLSANeighborMap(t *testing.T) {
	_, err := Decode([]byte("LSA\n2000\nnot-json\n1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}
