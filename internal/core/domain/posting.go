package domain

import (
	"fmt"
	"time"
)

// Posting is one job posting row from the source dataset.
type Posting struct {
	ID          string
	Title       string
	Description string
	Skills      string
	Location    string
	Company     string
	Experience  string
	WorkType    string
}

// Document renders the text the index embeds for this posting.
func (p Posting) Document() string {
	return fmt.Sprintf("Title: %s\nLocation: %s\nSkills: %s\nDescription: %s",
		p.Title, p.Location, p.Skills, p.Description)
}

// Metadata returns the filterable fields stored next to the document. Keys
// match the Field* constants used by the filter compiler.
func (p Posting) Metadata() map[string]string {
	return map[string]string{
		FieldTitle:      p.Title,
		FieldLocation:   p.Location,
		FieldCompany:    p.Company,
		FieldExperience: p.Experience,
		FieldWorkType:   p.WorkType,
	}
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Rows             int
	Indexed          int
	Skipped          int
	Batches          int
	Locations        int
	ExperienceLevels int
	WorkTypes        int
	EventPublished   bool
	Duration         time.Duration
}
