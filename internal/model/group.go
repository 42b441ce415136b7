package model

// APTGroup is one row of the BSI "Aktive APT-Gruppen" table.
type APTGroup struct {
	Name            string   `json:"group_name"`
	Aliases         []string `json:"aliases"`
	TargetedSectors []string `json:"targeted_sectors"`
	Characteristics []string `json:"characteristics"`
}

// CrimeGroup is one row of the BSI "Aktive Crime-Gruppen" table.
type CrimeGroup struct {
	Name                      string   `json:"group_name"`
	Aliases                   []string `json:"aliases"`
	Description               []string `json:"description"`
	ResponsibleFor            []string `json:"responsible_for"`
	HasLeakSite               bool     `json:"has_leak_site"`
	AdditionalCharacteristics []string `json:"additional_characteristics"`
}
