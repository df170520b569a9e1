// Package domain defines core domain types, constants, and validation for the
// jobHunterAi engine. It acts as the validation gate at pipeline entry points.
package domain

import "time"

// RawOffer is the adapter-native shape of a scraped listing. Fields an
// adapter cannot map stay zero-valued, never fabricated.
type RawOffer struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	JobType     string    `json:"job_type,omitempty"`
	WorkMode    string    `json:"work_mode,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// Offer is the canonical offer shape every source is normalized onto.
type Offer struct {
	ID             string    `json:"id,omitempty"`
	JobTitle       string    `json:"job_title"`
	CompanyName    string    `json:"company_name"`
	Location       string    `json:"location,omitempty"`
	Description    string    `json:"description,omitempty"`
	SourceURL      string    `json:"source_url"`
	SourcePlatform string    `json:"source_platform"`
	JobType        string    `json:"job_type,omitempty"`
	WorkMode       string    `json:"work_mode,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	PublishedAt    time.Time `json:"published_at,omitzero"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

// Query describes what a caller is searching for.
type Query struct {
	Keywords string `json:"keywords"`
	Location string `json:"location,omitempty"`
	JobType  string `json:"job_type,omitempty"`
	WorkMode string `json:"work_mode,omitempty"`
	Company  string `json:"company,omitempty"`
}

// Recognized job types.
const (
	JobTypeFullTime   = "fulltime"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
	JobTypePartTime   = "parttime"
)

// Recognized work modes.
const (
	WorkModeRemote = "remote"
	WorkModeHybrid = "hybrid"
	WorkModeOnsite = "onsite"
)

// ValidWorkModes is the set of recognised work modes.
var ValidWorkModes = map[string]bool{
	WorkModeRemote: true, WorkModeHybrid: true, WorkModeOnsite: true,
}

// ValidJobTypes is the set of recognised job types.
var ValidJobTypes = map[string]bool{
	JobTypeFullTime: true, JobTypeContract: true,
	JobTypeInternship: true, JobTypePartTime: true,
}
