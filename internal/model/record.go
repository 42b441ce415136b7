package model

import "time"

// GroupRecord is the flattened form of a scraped group handed to storage
// and alerting.
type GroupRecord struct {
	Source  string
	Name    string
	Aliases []string
	Payload []byte
	Link    string
}

// StoredGroup is a group row as persisted, with its database identity.
type StoredGroup struct {
	ID        int32
	Source    string
	Name      string
	Aliases   []string
	FirstSeen time.Time
}

// RunReport summarizes one scraper's share of a pipeline run.
type RunReport struct {
	Source     string
	Fetched    int
	Saved      int
	Duplicates int
	StartedAt  time.Time
	FinishedAt time.Time
}
