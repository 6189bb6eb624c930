package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractFromTextFlagJSON(t *testing.T) {
	out, err := runCommand(t, "",
		"extract", "--text", "Bedaquiline targets AtpE in tuberculosis.", "-o", "json")
	require.NoError(t, err)

	var result ner.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Entities, 3)
	assert.Equal(t, "Bedaquiline", result.Entities[0].Canonical)
	assert.Equal(t, ner.TypeCompound, result.Entities[0].Type)
	assert.Equal(t, ner.TypeTarget, result.Entities[1].Type)
	assert.Equal(t, ner.TypeDisease, result.Entities[2].Type)
}

func TestExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Rv0005 encodes the GyrB subunit."), 0o644))

	out, err := runCommand(t, "", "extract", path, "-o", "json")
	require.NoError(t, err)

	var result ner.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Entities)
	assert.Equal(t, "Rv0005", result.Entities[0].Text)
	assert.Equal(t, ner.TypeAccession, result.Entities[0].Type)
}

func TestExtractFromStdin(t *testing.T) {
	out, err := runCommand(t, "Isoniazid inhibits InhA.", "extract", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Isoniazid")
	assert.Contains(t, out, "InhA")
}

func TestExtractTableOutput(t *testing.T) {
	out, err := runCommand(t, "",
		"extract", "--text", "Bedaquiline and Isoniazid.", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Bedaquiline")
	assert.Contains(t, out, "Isoniazid")
	assert.Contains(t, out, "2 entities")
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	_, err := runCommand(t, "", "extract")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.GetCode(err))
}

func TestExtractRejectsUnknownFormat(t *testing.T) {
	_, err := runCommand(t, "", "extract", "--text", "Bedaquiline", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.GetCode(err))
}

func TestExtractMissingFile(t *testing.T) {
	_, err := runCommand(t, "", "extract", "/nonexistent/doc.txt")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.GetCode(err))
}

func TestGazetteersSummaryJSON(t *testing.T) {
	out, err := runCommand(t, "", "gazetteers", "-o", "json")
	require.NoError(t, err)

	var report gazetteerReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.Fingerprint)
	assert.Equal(t, ner.DefaultFuzzyThreshold, report.FuzzyThreshold)
	assert.Positive(t, report.TermCount)
	assert.Positive(t, report.PatternCount)
	assert.Positive(t, report.TermsByType[string(ner.TypeCompound)])
	assert.Empty(t, report.Terms)
}

func TestGazetteersTermListFiltered(t *testing.T) {
	out, err := runCommand(t, "", "gazetteers", "--terms", "--type", "compound_name", "-o", "json")
	require.NoError(t, err)

	var report gazetteerReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotEmpty(t, report.Terms)
	for _, term := range report.Terms {
		assert.Equal(t, string(ner.TypeCompound), term.Type)
	}
	assert.Len(t, report.TermsByType, 1)
}

func TestGazetteersUnknownTypeFails(t *testing.T) {
	_, err := runCommand(t, "", "gazetteers", "--type", "nope")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestGazetteerDirFlagExtendsDictionary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compound_name.yml"),
		[]byte("- ZZ-Experimental-1\n"), 0o644))

	out, err := runCommand(t, "",
		"extract", "--text", "Dosing ZZ-Experimental-1 daily.",
		"--gazetteer-dir", dir, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "ZZ-Experimental-1")
}

func TestVersionString(t *testing.T) {
	out, err := runCommand(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "sfner")
}
