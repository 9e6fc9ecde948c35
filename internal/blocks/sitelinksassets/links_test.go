package sitelinksassets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flyberryhq/auditpipe/internal/model"
)

func TestRunDefaultsFlagOneBrokenLink(t *testing.T) {
	t.Parallel()

	result, err := New().Run(context.Background(), nil, nil)
	require.NoError(t, err)

	cr := result.CheckResults[0]
	require.Equal(t, "links.broken", cr.CheckID)
	require.Equal(t, model.StatusFail, cr.Status)
	require.Equal(t, 2, cr.Metrics["links_total"])
	require.Equal(t, 1, cr.Metrics["links_broken"])

	issue := cr.Issues[0]
	require.Equal(t, "links.broken:/missing", issue.ID)
	require.Equal(t, "a[href='/missing']", issue.Location["selector"])
	require.Equal(t, "status 404", issue.Evidence["note"])
}

func TestRunWithLinkFixture(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "links.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"links": [
  {"href": "/a", "status": 200},
  {"href": "/b", "status": 301},
  {"href": "/c", "status": 404},
  {"href": "/d", "status": 500},
  {"href": "", "status": 403}
]}`), 0o600))

	result, err := New().Run(context.Background(), []string{cfgPath}, nil)
	require.NoError(t, err)

	cr := result.CheckResults[0]
	require.Equal(t, 5, cr.Metrics["links_total"])
	require.Equal(t, 3, cr.Metrics["links_broken"])
	require.Len(t, cr.Issues, 3)

	// An empty href falls back to the index for the issue id, and gets no selector.
	last := cr.Issues[2]
	require.Equal(t, "links.broken:4", last.ID)
	require.Empty(t, last.Location["selector"])
}

func TestRunAllHealthyPasses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "links.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"links": [{"href": "/ok", "status": 200}]}`), 0o600))

	result, err := New().Run(context.Background(), []string{cfgPath}, nil)
	require.NoError(t, err)
	require.Equal(t, model.StatusPass, result.CheckResults[0].Status)
	require.Empty(t, result.CheckResults[0].Issues)
}
