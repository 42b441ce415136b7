package common

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var whitespace = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces and trims the ends.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// FindTable returns the first table with the given class, or an error when the
// page layout changed and the table is gone.
func FindTable(doc *goquery.Document, class string) (*goquery.Selection, error) {
	table := doc.Find("table." + class).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table with class %q found", class)
	}
	return table, nil
}

// ExtractRows reads the thead headers of a table and returns one
// header-to-cell map per body row, all values whitespace-cleaned.
func ExtractRows(table *goquery.Selection) []map[string]string {
	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, CleanText(th.Text()))
	})

	var rows []map[string]string
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		row := make(map[string]string, len(headers))
		tr.Find("td").Each(func(i int, td *goquery.Selection) {
			if i < len(headers) {
				row[headers[i]] = CleanText(td.Text())
			}
		})
		rows = append(rows, row)
	})
	return rows
}

// SplitSentences splits text after a "." or "!" that is followed by
// whitespace and an uppercase letter (umlauts included). Pieces are trimmed;
// empty pieces are dropped.
func SplitSentences(text string) []string {
	sentences := []string{}
	rest := text
	for {
		loc := sentenceBreak.FindStringIndex(rest)
		if loc == nil {
			break
		}
		// The match ends on the uppercase rune that starts the next
		// sentence; cut just before it.
		_, size := utf8.DecodeLastRuneInString(rest[:loc[1]])
		head := rest[:loc[0]+1]
		if s := strings.TrimSpace(head); s != "" {
			sentences = append(sentences, s)
		}
		rest = rest[loc[1]-size:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

var sentenceBreak = regexp.MustCompile(`[.!]\s+[A-ZÄÖÜ]`)
