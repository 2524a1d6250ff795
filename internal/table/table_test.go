package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFromParsesHeaderAndRows(t *testing.T) {
	input := "\ufeffID,model_response,values\n1,\"The answer is a, clearly\",[1 2 3 4]\n2,,[4 3 2 1]\n"
	tbl, err := ReadFrom(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []string{"ID", "model_response", "values"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, "The answer is a, clearly", tbl.Value(0, "model_response"))
	require.Equal(t, "", tbl.Value(1, "model_response"))
	require.Equal(t, "", tbl.Value(1, "unknown"))
	require.Equal(t, "", tbl.Value(5, "ID"))
}

func TestReadFromRejectsEmptyInput(t *testing.T) {
	_, err := ReadFrom(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyTable)
}

func TestRequireReportsMissingColumn(t *testing.T) {
	tbl := New([]string{"a"}, nil)
	require.NoError(t, tbl.Require("a"))

	err := tbl.Require("a", "b")
	require.ErrorIs(t, err, ErrMissingColumn)
	require.Contains(t, err.Error(), `"b"`)

	_, err = tbl.Column("b")
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestSetColumnAppendsAndReplaces(t *testing.T) {
	tbl := New([]string{"id"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, tbl.SetColumn("raw_guess", []string{"a", ""}))
	require.Equal(t, []string{"id", "raw_guess"}, tbl.Header)
	require.Equal(t, "a", tbl.Value(0, "raw_guess"))

	require.NoError(t, tbl.SetColumn("raw_guess", []string{"b", "c"}))
	require.Equal(t, []string{"id", "raw_guess"}, tbl.Header)
	require.Equal(t, "c", tbl.Value(1, "raw_guess"))

	require.Error(t, tbl.SetColumn("score", []string{"1"}))
}

func TestFilterCopiesRows(t *testing.T) {
	tbl := New([]string{"ID"}, [][]string{{"1"}, {"67"}, {"3"}})
	kept := tbl.Filter(func(row int) bool { return tbl.Value(row, "ID") != "67" })
	require.Equal(t, 2, kept.Len())
	require.NoError(t, kept.SetColumn("score", []string{"4", "1"}))
	require.Equal(t, []string{"ID"}, tbl.Header)
	require.Len(t, tbl.Rows[0], 1)
}

func TestWriteAndReadRoundTripPreservesMissingMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "out.csv")
	tbl := New([]string{"model_response", "values"}, [][]string{
		{"the answer is d", "[1 3 2 4]"},
		{"no idea", "[1 3 2 4]"},
		{"", "[2 1 4 3]"},
	})
	require.NoError(t, tbl.SetColumn("appropriateness_score", []string{"4", "", ""}))
	require.NoError(t, tbl.SetColumn("raw_guess", []string{"d", "", ""}))
	require.NoError(t, tbl.Write(path))

	reread, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, tbl.Header, reread.Header)
	require.Equal(t, tbl.Rows, reread.Rows)

	scores, err := reread.Column("appropriateness_score")
	require.NoError(t, err)
	require.Equal(t, []string{"4", "", ""}, scores)
}

func TestReadRejectsBinaryInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.csv")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	_, err := Read(path)
	require.ErrorIs(t, err, ErrNotText)
}

func TestWriteToQuotesMultilineCells(t *testing.T) {
	tbl := New([]string{"prompt"}, [][]string{{"\"Time is money\"\n\na) x\nb) y"}})
	var buf bytes.Buffer
	require.NoError(t, tbl.WriteTo(&buf))

	reread, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, tbl.Rows, reread.Rows)
}
