package crime

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
		"/Analysen-und-Prognosen/Threat-Intelligence/Aktive-Crime-Gruppen/aktive-crime-gruppen_node.html"

	headerName        = "Gruppenname"
	headerDescription = "Beschreibung"
	headerProperties  = "Besondere Eigenschaften"

	responsibleMarker = "Verantwortlich für "
)

type Scraper struct {
	client *resty.Client
	url    string
}

func NewScraper(client *resty.Client) *Scraper {
	return &Scraper{client: client, url: pageURL}
}

func (s *Scraper) Source() string {
	return model.SourceCrime
}

func (s *Scraper) Scrape(ctx context.Context) (*model.Snapshot, error) {
	log.Printf("[crime] fetching %s", s.url)

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

	log.Printf("[crime] found %d groups", len(groups))
	return &model.Snapshot{
		Source:    model.SourceCrime,
		PageURL:   s.url,
		FetchedAt: time.Now(),
		Crime:     groups,
	}, nil
}

func extractGroups(doc *goquery.Document) ([]model.CrimeGroup, error) {
	table, err := common.FindTable(doc, "alternativ2")
	if err != nil {
		return nil, err
	}

	rows := common.ExtractRows(table)
	groups := make([]model.CrimeGroup, 0, len(rows))
	for _, row := range rows {
		name, aliases := parseAliases(row[headerName])
		characteristics := parseCharacteristics(row[headerProperties])

		groups = append(groups, model.CrimeGroup{
			Name:                      name,
			Aliases:                   aliases,
			Description:               common.SplitSentences(row[headerDescription]),
			ResponsibleFor:            characteristics.responsibleFor,
			HasLeakSite:               characteristics.leakSite,
			AdditionalCharacteristics: characteristics.additionalInfo,
		})
	}
	return groups, nil
}

var akaPattern = regexp.MustCompile(`^([^(]+)\s*\(aka\s+([^)]+)\)`)

// parseAliases handles the crime table's name formats: plain names, "N/A",
// "Name (aka A, B)", and comma-separated lists.
func parseAliases(text string) (string, []string) {
	text = common.CleanText(text)

	if strings.EqualFold(text, "N/A") {
		return "N/A", []string{}
	}

	if strings.Contains(text, " (aka ") || strings.Contains(text, "(aka") {
		if match := akaPattern.FindStringSubmatch(text); match != nil {
			aliases := []string{}
			for _, alias := range strings.Split(match[2], ",") {
				if alias = strings.TrimSpace(alias); alias != "" {
					aliases = append(aliases, alias)
				}
			}
			return strings.TrimSpace(match[1]), aliases
		}
	}

	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	aliases := []string{}
	if len(parts) > 1 {
		aliases = parts[1:]
	}
	return parts[0], aliases
}

type characteristics struct {
	responsibleFor []string
	leakSite       bool
	additionalInfo []string
}

var leakSitePattern = regexp.MustCompile(`Leak-Seite[n]?\s+bekannt\.?\s*`)

// parseCharacteristics pulls leak-site mentions and "Verantwortlich für"
// claims out of the properties cell; everything else becomes additional info.
func parseCharacteristics(text string) characteristics {
	result := characteristics{
		responsibleFor: []string{},
		additionalInfo: []string{},
	}
	if text == "" {
		return result
	}

	if strings.Contains(text, "Leak-Seite bekannt") || strings.Contains(text, "Leak-Seiten") {
		result.leakSite = true
		text = leakSitePattern.ReplaceAllString(text, " ")
	}

	segments := strings.Split(text, responsibleMarker)
	for i, segment := range segments {
		if i == 0 {
			for _, sentence := range common.SplitSentences(segment) {
				if !strings.HasPrefix(sentence, "Verantwortlich") {
					result.additionalInfo = append(result.additionalInfo, sentence)
				}
			}
			continue
		}
		// Only the first sentence after the marker names what the group
		// is responsible for.
		responsible := strings.TrimSpace(strings.SplitN(segment, ".", 2)[0])
		if responsible != "" {
			result.responsibleFor = append(result.responsibleFor, responsible)
		}
	}

	if len(result.responsibleFor) == 0 && len(result.additionalInfo) == 0 {
		result.additionalInfo = common.SplitSentences(text)
	}

	return result
}
