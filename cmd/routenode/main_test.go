package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amhuang/routing-protocols/internal/dv"
	"github.com/amhuang/routing-protocols/internal/node"
)

func TestParseArgs_ValidDVRegular(t *testing.T) {
	cfg, err := parseArgs([]string{"dv", "r", "5", "3000", "3001", "1", "3002", "2"})
	require.NoError(t, err)
	assert.Equal(t, node.AlgoDV, cfg.Algorithm)
	assert.Equal(t, dv.ModeRegular, cfg.Mode)
	assert.Equal(t, map[int]float64{3001: 1, 3002: 2}, cfg.Neighbors)
	assert.False(t, cfg.Last)
	assert.False(t, cfg.HasCostChange)
}

func TestParseArgs_ValidWithLastAndCostChange(t *testing.T) {
	cfg, err := parseArgs([]string{"dv", "p", "5", "3000", "3001", "1", "last", "10"})
	require.NoError(t, err)
	assert.True(t, cfg.Last)
	assert.True(t, cfg.HasCostChange)
	assert.Equal(t, float64(10), cfg.CostChange)
}

func TestParseArgs_LSRejectsPoisonedMode(t *testing.T) {
	_, err := parseArgs([]string{"ls", "p", "5", "3000", "3001", "1"})
	assert.Error(t, err)
}

func TestParseArgs_LSAcceptsRegularMode(t *testing.T) {
	_, err := parseArgs([]string{"ls", "r", "5", "3000", "3001", "1"})
	assert.NoError(t, err)
}

func TestParseArgs_BadAlgorithm(t *testing.T) {
	_, err := parseArgs([]string{"bogus", "r", "5", "3000", "3001", "1"})
	assert.Error(t, err)
}

func TestParseArgs_BadMode(t *testing.T) {
	_, err := parseArgs([]string{"dv", "x", "5", "3000", "3001", "1"})
	assert.Error(t, err)
}

func TestParseArgs_BadUpdateInterval(t *testing.T) {
	_, err := parseArgs([]string{"dv", "r", "0", "3000", "3001", "1"})
	assert.Error(t, err)

	_, err = parseArgs([]string{"dv", "r", "notanumber", "3000", "3001", "1"})
	assert.Error(t, err)
}

func TestParseArgs_BadLocalPort(t *testing.T) {
	_, err := parseArgs([]string{"dv", "r", "5", "80", "3001", "1"})
	assert.Error(t, err)

	_, err = parseArgs([]string{"dv", "r", "5", "99999", "3001", "1"})
	assert.Error(t, err)
}

func TestParseArgs_MissingNeighborCost(t *testing.T) {
	_, err := parseArgs([]string{"dv", "r", "5", "3000", "3001"})
	assert.Error(t, err)
}

func TestParseArgs_NoNeighbors(t *testing.T) {
	_, err := parseArgs([]string{"dv", "r", "5", "3000"})
	assert.Error(t, err)
}

func TestParseArgs_CostChangeWithoutLastRejected(t *testing.T) {
	_, err := parseArgs([]string{"dv", "r", "5", "3000", "3001", "1", "10"})
	assert.Error(t, err)
}

func TestParseArgs_TrailingGarbageRejected(t *testing.T) {
	_, err := parseArgs([]string{"dv", "r", "5", "3000", "3001", "1", "last", "10", "extra"})
	assert.Error(t, err)
}

func TestParseArgs_NotEnoughArguments(t *testing.T) {
	_, err := parseArgs([]string{"dv", "r"})
	assert.Error(t, err)
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort(1024))
	assert.NoError(t, validatePort(65535))
	assert.Error(t, validatePort(1023))
	assert.Error(t, validatePort(65536))
}
