package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmouel/sniffy/internal/fixture"
	"github.com/chmouel/sniffy/internal/language"
)

func sampleResults() []VerifyResult {
	return []VerifyResult{
		{
			Path:   "counter.go",
			Status: StatusPass,
			Actual: &fixture.Counts{Blank: 3, Comment: 5, Code: 5, Total: 13},
		},
		{
			Path:   "script.py",
			Status: StatusFail,
			Actual: &fixture.Counts{Blank: 4, Comment: 6, Code: 5, Total: 15},
			Mismatches: []fixture.Mismatch{
				{Category: "Blank", Expected: 3, Actual: 4},
				{Category: "Code", Expected: 6, Actual: 5},
			},
		},
		{
			Path:     "missing.rb",
			Status:   StatusError,
			Problems: []string{"missing.rb: no expected counts annotation"},
		},
	}
}

func TestVerifyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).VerifyTable(sampleResults()))
	out := buf.String()

	assert.Contains(t, out, "PASS  counter.go (blank 3, comment 5, code 5, total 13)")
	assert.Contains(t, out, "FAIL  script.py\n")
	assert.Contains(t, out, "      Blank: expected 3, got 4")
	assert.Contains(t, out, "      Code: expected 6, got 5")
	assert.Contains(t, out, "ERROR  missing.rb")
	assert.Contains(t, out, "no expected counts annotation")
	assert.True(t, strings.HasSuffix(out, "1 passed, 2 failed\n"))
}

func TestVerifyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, VerifyJSON(&buf, sampleResults()))

	var got struct {
		Results []VerifyResult `json:"results"`
		Passed  int            `json:"passed"`
		Failed  int            `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 2, got.Failed)
	require.Len(t, got.Results, 3)
	assert.Len(t, got.Results[1].Mismatches, 2)
	assert.Nil(t, got.Results[2].Actual)

	buf.Reset()
	require.NoError(t, VerifyJSON(&buf, nil))
	assert.Contains(t, buf.String(), `"results": []`)
}

func TestPlainTableAndLanguagesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).PlainTable([]string{"Name", "Ext"}, [][]string{{"Go", "go"}}))
	assert.Contains(t, buf.String(), "Name")
	assert.Contains(t, buf.String(), "Go")

	buf.Reset()
	det := language.NewDetector()
	require.NoError(t, LanguagesJSON(&buf, det.All()))
	assert.Contains(t, buf.String(), `"name": "Go"`)
	assert.Contains(t, buf.String(), `"extensions": [`)
}
