package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkReport struct {
	WCAGLevel   string  `json:"wcag_level"`
	TargetRatio float64 `json:"target_ratio"`
	TotalPairs  int     `json:"total_pairs"`
	PassedPairs int     `json:"passed_pairs"`
	FailedPairs int     `json:"failed_pairs"`
	Pairs       []struct {
		Label       string            `json:"label"`
		Foreground  string            `json:"foreground"`
		Background  string            `json:"background"`
		Ratio       float64           `json:"ratio"`
		Suggestions []json.RawMessage `json:"suggestions"`
	} `json:"color_pairs"`
	Skipped []struct {
		Index int `json:"index"`
	} `json:"skipped"`
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

func decodeReport(t *testing.T, out string) checkReport {
	t.Helper()
	var r checkReport
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func TestCheck_Pairs(t *testing.T) {
	out, err := execute(t, "", "check",
		"--pair", "#000:#fff:Heading",
		"--pair", "#777777:#FFFFFF:Body: muted")
	require.NoError(t, err)

	r := decodeReport(t, out)
	assert.Equal(t, "AA", r.WCAGLevel)
	assert.Equal(t, 4.5, r.TargetRatio)
	assert.Equal(t, 2, r.TotalPairs)
	assert.Equal(t, 1, r.PassedPairs)
	assert.Equal(t, 1, r.FailedPairs)

	require.Len(t, r.Pairs, 2)
	assert.Equal(t, "Heading", r.Pairs[0].Label)
	assert.Equal(t, "#000000", r.Pairs[0].Foreground)
	assert.Equal(t, 21.0, r.Pairs[0].Ratio)
	assert.Empty(t, r.Pairs[0].Suggestions)

	assert.Equal(t, "Body: muted", r.Pairs[1].Label, "label keeps its colons")
	assert.Equal(t, 4.48, r.Pairs[1].Ratio)
	assert.NotEmpty(t, r.Pairs[1].Suggestions)
}

func TestCheck_Level(t *testing.T) {
	out, err := execute(t, "", "check", "--pair", "#000:#fff", "--level", "AAA")
	require.NoError(t, err)
	r := decodeReport(t, out)
	assert.Equal(t, "AAA", r.WCAGLevel)
	assert.Equal(t, 7.0, r.TargetRatio)

	_, err = execute(t, "", "check", "--pair", "#000:#fff", "--level", "AAAA")
	assert.Error(t, err)
}

func TestCheck_File(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(bare, []byte(`[{"foreground":"#fff","background":"#000","label":"inverse"}]`), 0o644))
	out, err := execute(t, "", "check", "--file", bare)
	require.NoError(t, err)
	r := decodeReport(t, out)
	require.Len(t, r.Pairs, 1)
	assert.Equal(t, "inverse", r.Pairs[0].Label)

	wrapped := filepath.Join(dir, "wrapped.json")
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"pairs":[{"foreground":"#333","background":"#eee"},{"foreground":"zzz","background":"#eee"}]}`), 0o644))
	out, err = execute(t, "", "check", "--file", wrapped, "--pair", "#000:#fff")
	require.NoError(t, err)
	r = decodeReport(t, out)
	assert.Equal(t, 2, r.TotalPairs)
	require.Len(t, r.Skipped, 1)
	assert.Equal(t, 2, r.Skipped[0].Index, "flag pairs come before file pairs")
}

func TestCheck_Stdin(t *testing.T) {
	out, err := execute(t, `[{"foreground":"#000","background":"#fff"}]`, "check", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, 1, decodeReport(t, out).PassedPairs)
}

func TestCheck_HTML(t *testing.T) {
	out, err := execute(t, "", "check", "--pair", "#777777:#FFFFFF:Body", "--html")
	require.NoError(t, err)
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "#777777")
	assert.Contains(t, out, "4.48:1")
}

func TestCheck_Strict(t *testing.T) {
	out, err := execute(t, "", "check", "--strict", "--pair", "#777777:#FFFFFF")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 pair(s) fail")
	assert.NotEmpty(t, out, "the report is printed before failing")

	_, err = execute(t, "", "check", "--strict", "--pair", "#000:#fff")
	assert.NoError(t, err)
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", []string{"check"}, "no pairs given"},
		{"bad pair", []string{"check", "--pair", "#000"}, "invalid pair"},
		{"empty color", []string{"check", "--pair", ":#fff"}, "invalid pair"},
		{"missing file", []string{"check", "--file", "does-not-exist.json"}, "read pairs"},
		{"image with pairs", []string{"check", "--image", "x.png", "--pair", "#000:#fff"}, "cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheck_ImageLoadFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.png")
	out, err := execute(t, "", "check", "--image", missing)
	require.Error(t, err)

	r := decodeReport(t, out)
	assert.Equal(t, 0, r.TotalPairs)
	assert.Empty(t, r.Pairs)
}

func TestParsePairFlag(t *testing.T) {
	p, err := parsePairFlag(" #111 : #eee ")
	require.NoError(t, err)
	assert.Equal(t, "#111", p.Foreground)
	assert.Equal(t, "#eee", p.Background)
	assert.Empty(t, p.Label)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "contrast-mcp")
	assert.Contains(t, out, Version)
}
