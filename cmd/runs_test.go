//go:build !integration

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/chokepoint/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	done := now.Add(1500 * time.Millisecond)
	runs := []model.Run{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Kind:        model.RunKindOverload,
			Source:      "testdata",
			Status:      model.RunStatusComplete,
			Summary:     &model.RunSummary{CriticalNodes: 4},
			CreatedAt:   now,
			CompletedAt: &done,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Kind:      model.RunKindProximity,
			Source:    "https://data.example.com/networks/region-north/2025",
			Status:    model.RunStatusFailed,
			Error:     "zone.csv: file not found",
			CreatedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "KIND")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "overload")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "1.5s")
	assert.Contains(t, output, "proximity")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "...")
	assert.NotContains(t, output, "https://")

	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[2], "4")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
