package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTextfileIncludesCollectors(t *testing.T) {
	ParseOutcomes().WithLabelValues("standard", "answer_is").Add(3)
	AnalysisRuns().WithLabelValues("standard").Inc()

	path := filepath.Join(t.TempDir(), "katz.prom")
	require.NoError(t, WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), `katz_eval_parse_outcomes_total{outcome="answer_is",variant="standard"} 3`)
	require.Contains(t, string(content), "katz_eval_analysis_runs_total")
}
