package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guimove/placefit/internal/model"
	"github.com/guimove/placefit/internal/placement"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"text info", "info", "text", false},
		{"json debug", "debug", "json", false},
		{"default format", "error", "", false},
		{"bad level", "loud", "text", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, logger.GetLevel().String())
		})
	}
}

func runLogged(t *testing.T, level string) []map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger, err := NewLogger(level, "json", &buf)
	require.NoError(t, err)

	engine := placement.NewEngine(placement.WithObserver(NewLogObserver(logger)))
	_, err = engine.Place(context.Background(),
		[]model.Service{
			{ID: "web", Demand: model.ResourceVector{2, 2}},
			{ID: "huge", Demand: model.ResourceVector{64, 64}},
		},
		[]model.Server{{ID: "node-1", Capacity: model.ResourceVector{8, 8}}},
	)
	require.NoError(t, err)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogObserver_Info(t *testing.T) {
	entries := runLogged(t, "info")

	var msgs []string
	for _, e := range entries {
		msgs = append(msgs, e["msg"].(string))
	}
	assert.Equal(t, []string{"no suitable server found", "service placed", "placement run completed"}, msgs)

	assert.Equal(t, "warning", entries[0]["level"])
	assert.Equal(t, "huge", entries[0]["service"])
	assert.Equal(t, "web", entries[1]["service"])
	assert.Equal(t, "node-1", entries[1]["server"])
	assert.InDelta(t, 1.0, entries[1]["score"], 1e-9)
	assert.EqualValues(t, 1, entries[2]["placed"])
	assert.EqualValues(t, 1, entries[2]["unassigned"])
}

func TestLogObserver_DebugIncludesCandidates(t *testing.T) {
	entries := runLogged(t, "debug")

	var skipped, evaluated int
	for _, e := range entries {
		switch e["msg"] {
		case "insufficient resources":
			skipped++
		case "candidate evaluated":
			evaluated++
		}
	}
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, evaluated)
}

func TestNewLogObserver_DefaultsToStandardLogger(t *testing.T) {
	o := NewLogObserver(nil)
	assert.Same(t, log.StandardLogger(), o.Logger)
}
