package apt

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"bsiwatch/internal/model"
	"bsiwatch/internal/providers/common"
)

const (
	pageURL = "https://www.bsi.bund.de/DE/Themen/Unternehmen-und-Organisationen/Cyber-Sicherheitslage" +
		"/Analysen-und-Prognosen/Threat-Intelligence/Aktive_APT-Gruppen/aktive-apt-gruppen_node.html"

	headerName       = "Gruppenname und Aliase"
	headerSectors    = "Wirtschaftszweig in Deutschland nach WZ 2008"
	headerProperties = "Besondere Eigenschaften"

	noCharacteristics = "No specific characteristics listed"
)

type Scraper struct {
	client *resty.Client
	url    string
}

func NewScraper(client *resty.Client) *Scraper {
	return &Scraper{client: client, url: pageURL}
}

func (s *Scraper) Source() string {
	return model.SourceAPT
}

func (s *Scraper) Scrape(ctx context.Context) (*model.Snapshot, error) {
	log.Printf("[apt] fetching %s", s.url)

	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, err
	}

	groups, err := extractGroups(doc)
	if err != nil {
		return nil, err
	}

	log.Printf("[apt] found %d groups", len(groups))
	return &model.Snapshot{
		Source:    model.SourceAPT,
		PageURL:   s.url,
		FetchedAt: time.Now(),
		APT:       groups,
	}, nil
}

func extractGroups(doc *goquery.Document) ([]model.APTGroup, error) {
	table, err := common.FindTable(doc, "alternativ2")
	if err != nil {
		return nil, err
	}

	rows := common.ExtractRows(table)
	groups := make([]model.APTGroup, 0, len(rows))
	for _, row := range rows {
		name, aliases := parseAliases(row[headerName])
		group := model.APTGroup{
			Name:            name,
			Aliases:         aliases,
			TargetedSectors: splitSectors(row[headerSectors]),
			Characteristics: splitProperties(row[headerProperties]),
		}
		if len(group.Characteristics) == 0 {
			group.Characteristics = []string{noCharacteristics}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// parseAliases splits "Name / Alias1 / Alias2" into the primary name and its
// aliases.
func parseAliases(text string) (string, []string) {
	parts := strings.Split(common.CleanText(text), "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 0 {
		return "Unknown", []string{}
	}
	aliases := []string{}
	if len(parts) > 1 {
		aliases = parts[1:]
	}
	return parts[0], aliases
}

// The sector cell concatenates WZ 2008 sector names without separators. These
// are the known sector-name endings; a boundary is such an ending directly
// followed by an uppercase letter.
var sectorBoundaries = compileBoundaries([]string{
	"Ordnung",
	"Verwaltung",
	"Vereinigungen",
	"Informationstechnologie",
	"Luftfahrt",
	"Kunstwissenschaften",
	"Unterricht",
	"Rechtsberatung",
	"Tätigkeiten",
	"Munition",
	"Raumfahrzeugbau",
	"Schifffahrt",
	"Wirtschaftsaufsicht",
})

func compileBoundaries(endings []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(endings))
	for _, ending := range endings {
		patterns = append(patterns, regexp.MustCompile("("+ending+")([A-ZÄÖÜ])"))
	}
	return patterns
}

func splitSectors(text string) []string {
	lower := strings.ToLower(text)
	if text == "" || lower == "unbekannt" || lower == "diverse" {
		if text == "" {
			return []string{"unbekannt"}
		}
		return []string{text}
	}

	for _, boundary := range sectorBoundaries {
		text = replaceUntilStable(boundary, text, "$1|$2")
	}

	sectors := []string{}
	for _, part := range strings.Split(text, "|") {
		if part = strings.TrimSpace(part); part != "" {
			sectors = append(sectors, part)
		}
	}
	if len(sectors) == 0 {
		return []string{text}
	}
	return sectors
}

var (
	// A CVE reference with its parenthesized product must stay one item.
	cveBoundary    = regexp.MustCompile(`(CVE-\d{4}-\d{4,6}\s*\([^)]+\))([A-Z])`)
	serverBoundary = regexp.MustCompile(`(Server\s+)([A-Z])`)
)

// replaceUntilStable reapplies the replacement until it no longer changes the
// text. The boundary patterns consume the uppercase letter that starts the
// next item, so a single pass misses the second of two adjacent matches that
// share that letter.
func replaceUntilStable(re *regexp.Regexp, text, replacement string) string {
	for {
		next := re.ReplaceAllString(text, replacement)
		if next == text {
			return next
		}
		text = next
	}
}

// splitProperties breaks the concatenated "Besondere Eigenschaften" cell into
// separate characteristics.
func splitProperties(text string) []string {
	if text == "" {
		return []string{}
	}

	text = replaceUntilStable(cveBoundary, text, "$1|||$2")
	text = replaceUntilStable(serverBoundary, text, "$1|||$2")

	properties := []string{}
	for _, part := range strings.Split(text, "|||") {
		part = strings.TrimSpace(part)
		if part == "" || part == "." || part == "B." || part == "z." {
			continue
		}
		properties = append(properties, part)
	}
	return properties
}
