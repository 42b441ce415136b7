package common

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "APT28 Fancy Bear", CleanText("  APT28 \n\t Fancy   Bear  "))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "empty",
			in:   "",
			want: []string{},
		},
		{
			name: "single sentence",
			in:   "Ransomware-as-a-Service.",
			want: []string{"Ransomware-as-a-Service."},
		},
		{
			name: "two sentences",
			in:   "Ransomware-as-a-Service. Seit 2019 aktiv.",
			want: []string{"Ransomware-as-a-Service.", "Seit 2019 aktiv."},
		},
		{
			name: "umlaut sentence start",
			in:   "Aktiv seit 2020. Öffentlich bekannt.",
			want: []string{"Aktiv seit 2020.", "Öffentlich bekannt."},
		},
		{
			name: "no split before lowercase",
			in:   "Aktiv seit ca. zwei Jahren. Zielt auf Banken.",
			want: []string{"Aktiv seit ca. zwei Jahren.", "Zielt auf Banken."},
		},
		{
			name: "exclamation",
			in:   "Sehr aktiv! Zielt auf Banken.",
			want: []string{"Sehr aktiv!", "Zielt auf Banken."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

const tableHTML = `
<html><body>
<table class="alternativ2">
  <thead>
    <tr><th> Gruppenname </th><th>Beschreibung</th></tr>
  </thead>
  <tbody>
    <tr><td> LockBit </td><td>Ransomware-Gruppe.
       Seit 2019   aktiv.</td></tr>
    <tr><td>N/A</td><td></td></tr>
  </tbody>
</table>
</body></html>`

func TestFindTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	require.NoError(t, err)

	table, err := FindTable(doc, "alternativ2")
	require.NoError(t, err)
	require.NotNil(t, table)

	_, err = FindTable(doc, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestExtractRows(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	require.NoError(t, err)

	table, err := FindTable(doc, "alternativ2")
	require.NoError(t, err)

	rows := ExtractRows(table)
	require.Len(t, rows, 2)
	assert.Equal(t, "LockBit", rows[0]["Gruppenname"])
	assert.Equal(t, "Ransomware-Gruppe. Seit 2019 aktiv.", rows[0]["Beschreibung"])
	assert.Equal(t, "N/A", rows[1]["Gruppenname"])
	assert.Equal(t, "", rows[1]["Beschreibung"])
}
