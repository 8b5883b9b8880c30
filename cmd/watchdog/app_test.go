package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

func TestPrintResults(t *testing.T) {
	results := []model.TrafficLightResult{
		{Ticker: "AAPL", Status: model.StatusGreen, Emoji: "🟢", Price: 190.5, Note: "Trend healthy"},
		{Ticker: "ZZZ", Status: model.StatusError, Emoji: "⚠️", Note: "Cannot fetch price data"},
	}

	var buf bytes.Buffer
	require.NoError(t, printResults(&buf, results))
	assert.Contains(t, buf.String(), "🟢 AAPL     $190.50    GREEN   Trend healthy")
	assert.Contains(t, buf.String(), "ZZZ      -          ERROR")

	jsonOut = true
	defer func() { jsonOut = false }()
	buf.Reset()
	require.NoError(t, printResults(&buf, results))
	var decoded []model.TrafficLightResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}

func TestSummary(t *testing.T) {
	s := summary(map[model.Status]int{model.StatusGreen: 3, model.StatusRed: 1})
	assert.Equal(t, "🟢 3  🟡 0  🔴 1  ⚠️ 0", s)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"classify", "scan", "history", "run"} {
		assert.True(t, names[want], want)
	}
}

func TestWaitForShutdown(t *testing.T) {
	srvErr := make(chan error, 1)
	srvErr <- errors.New("listen tcp :8080: bind: address already in use")
	err := waitForShutdown(context.Background(), srvErr, zerolog.Nop())
	assert.ErrorContains(t, err, "address already in use")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, waitForShutdown(ctx, make(chan error), zerolog.Nop()))
}
