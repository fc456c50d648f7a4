package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VideoDigest/internal/domain"
)

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "short", truncateCell("short", 10))

	got := truncateCell("a very long video title indeed", 10)
	assert.True(t, strings.HasPrefix(got, "a very"))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, runewidth.StringWidth(got), 10)

	// Wide runes occupy two cells each.
	wide := truncateCell("日本語のタイトル", 6)
	assert.True(t, strings.HasPrefix(wide, "日本"))
	assert.LessOrEqual(t, runewidth.StringWidth(wide), 6)
}

func TestOutcomeRowsWithoutColor(t *testing.T) {
	rows := outcomeRows([]domain.ItemOutcome{
		{
			Item:        domain.Item{ID: "vid1", Title: "First"},
			ChannelName: "Channel One",
			Result:      domain.Completed(domain.Artifacts{}, "output/vid1.txt", true),
		},
		{
			Item:        domain.Item{ID: "vid2", Title: "Second"},
			ChannelName: "Channel Two",
			Result:      domain.TransientFailure(errors.New("smtp down")),
		},
	}, false)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"vid1", "Channel One", "First", "completed", "yes"}, rows[0])
	assert.Equal(t, []string{"vid2", "Channel Two", "Second", "transient_failure", "no"}, rows[1])
}

func TestColorText(t *testing.T) {
	assert.Equal(t, "ok", colorText("ok", ansiGreen, false))
	assert.Equal(t, "ok", colorText("ok", "", true))
	assert.Equal(t, ansiGreen+"ok"+ansiReset, colorText("ok", ansiGreen, true))
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, domain.RunReport{
		NewCount: 1,
		Elapsed:  1500 * time.Millisecond,
		Outcomes: []domain.ItemOutcome{{
			Item:        domain.Item{ID: "vid1", Title: "First"},
			ChannelName: "Channel One",
			Result:      domain.SkippedNoTranscript(),
		}},
		PersistenceErrors: []error{errors.New("read-only file system")},
	})

	out := buf.String()
	assert.Contains(t, out, "skipped_no_transcript")
	assert.Contains(t, out, "Processed 1 new videos in 1.50 seconds")
	assert.Contains(t, out, "WARNING: processed state not saved: read-only file system")
}

func TestPrintReportWithoutOutcomesPrintsOnlySummary(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, domain.RunReport{})

	assert.Equal(t, "Processed 0 new videos in 0.00 seconds\n", buf.String())
}

func TestCheckConfigCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := `
youtube:
  scanner: rss
channels:
  - UCaaaaaaaaaaaaaaaaaaaaaa
  - id: UCbbbbbbbbbbbbbbbbbbbbbb
    scanner: rss
generator:
  apiKey: real-key
email:
  smtpServer: smtp.example.com
  smtpUser: digest
  smtpPassword: secret
  sender: digest@example.com
recipients:
  default: [ops@example.com]
  channels:
    UCbbbbbbbbbbbbbbbbbbbbbb: [a@example.com, b@example.com]
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check-config", "--config", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "UCbbbbbbbbbbbbbbbbbbbbbb")
	assert.Contains(t, out.String(), "configuration OK")
}

func TestCheckConfigCommandRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channels: []\n"), 0o644))

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"check-config", "-c", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
