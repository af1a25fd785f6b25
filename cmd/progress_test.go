package cmd

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryProgressTracksSpawnedSubcommands(t *testing.T) {
	start := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	clock := start
	m := newQueryProgressModel("Fetching items...", nil, func() time.Time { return clock })

	assert.NotContains(t, m.View(), "op ")
	assert.Contains(t, m.View(), "Fetching items...")

	next, _ := m.Update(spawnMsg{command: "list items"})
	m = next.(queryProgressModel)
	next, _ = m.Update(spawnMsg{command: "get vault"})
	m = next.(queryProgressModel)
	clock = start.Add(1420 * time.Millisecond)

	view := m.View()
	assert.Contains(t, view, "op get vault")
	assert.Contains(t, view, "2 calls")
	assert.Contains(t, view, "1.4s")
	assert.Equal(t, 2, m.spawns)
}

func TestQueryProgressSingularCall(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	m := newQueryProgressModel("Fetching vaults...", nil, func() time.Time { return now })

	next, _ := m.Update(spawnMsg{command: "list vaults"})
	view := next.(queryProgressModel).View()
	assert.Contains(t, view, "1 call")
	assert.NotContains(t, view, "1 calls")
}

func TestQueryProgressQuitsWithQueryError(t *testing.T) {
	now := time.Now()
	m := newQueryProgressModel("Fetching...", nil, func() time.Time { return now })
	boom := errors.New("boom")

	next, cmd := m.Update(queryDoneMsg{err: boom})
	done := next.(queryProgressModel)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, done.done)
	assert.ErrorIs(t, done.err, boom)
	assert.Empty(t, done.View())
}

func TestProgressReporterIgnoresSpawnsWithoutProgram(t *testing.T) {
	var r progressReporter
	assert.NotPanics(t, func() { r.reportSpawn("get account") })
}
