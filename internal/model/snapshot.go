package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	SourceAPT   = "apt"
	SourceCrime = "crime"
)

// Snapshot is the full result of scraping one BSI group table.
// Exactly one of APT or Crime is populated, depending on Source.
type Snapshot struct {
	Source    string
	PageURL   string
	FetchedAt time.Time

	APT   []APTGroup
	Crime []CrimeGroup
}

func (s *Snapshot) Len() int {
	switch s.Source {
	case SourceAPT:
		return len(s.APT)
	case SourceCrime:
		return len(s.Crime)
	}
	return 0
}

// Filename is the artifact file name for this snapshot, e.g. groups_apt.json.
func (s *Snapshot) Filename() string {
	return "groups_" + s.Source + ".json"
}

// MarshalGroups renders the group list as the artifact payload:
// two-space indented JSON, unescaped HTML, trailing newline.
func (s *Snapshot) MarshalGroups() ([]byte, error) {
	var payload any
	switch s.Source {
	case SourceAPT:
		payload = s.APT
	case SourceCrime:
		payload = s.Crime
	default:
		return nil, fmt.Errorf("unknown snapshot source: %q", s.Source)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Records flattens the snapshot into storage rows, one per group, with the
// full group document as the payload.
func (s *Snapshot) Records() ([]GroupRecord, error) {
	records := make([]GroupRecord, 0, s.Len())

	switch s.Source {
	case SourceAPT:
		for _, group := range s.APT {
			payload, err := json.Marshal(group)
			if err != nil {
				return nil, err
			}
			records = append(records, GroupRecord{
				Source:  s.Source,
				Name:    group.Name,
				Aliases: group.Aliases,
				Payload: payload,
				Link:    s.PageURL,
			})
		}
	case SourceCrime:
		for _, group := range s.Crime {
			payload, err := json.Marshal(group)
			if err != nil {
				return nil, err
			}
			records = append(records, GroupRecord{
				Source:  s.Source,
				Name:    group.Name,
				Aliases: group.Aliases,
				Payload: payload,
				Link:    s.PageURL,
			})
		}
	default:
		return nil, fmt.Errorf("unknown snapshot source: %q", s.Source)
	}

	return records, nil
}
