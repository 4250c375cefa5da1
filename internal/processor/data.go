package processor

import "time"

/*
Responsibilities
- Validate raw listings, accumulating every violation
- Normalize each field independently
- Classify category and tags
- Score completeness and fingerprint for dedup

A processed Event is immutable; its identity is ContentHash.
*/

// RawEvent is the untyped bag of strings scraped from one listing element.
type RawEvent struct {
	Title        string
	DateText     string
	LocationText string
	ImageURL     string
	ImageAlt     string
	PriceText    string
	Description  string
	Organizer    string
	URL          string
	Source       string
	ScrapedAt    time.Time
}

type Location struct {
	Venue   string `json:"venue"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type Price struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
	IsFree   bool    `json:"isFree"`
}

// Event is the canonical, normalized listing.
type Event struct {
	Title              string     `json:"title"`
	Date               *time.Time `json:"date"`
	Location           Location   `json:"location"`
	Image              *Image     `json:"image"`
	Price              *Price     `json:"price"`
	Description        string     `json:"description,omitempty"`
	Organizer          string     `json:"organizer,omitempty"`
	URL                string     `json:"url,omitempty"`
	Category           string     `json:"category"`
	CategoryConfidence float64    `json:"categoryConfidence"`
	Tags               []string   `json:"tags"`
	QualityScore       float64    `json:"qualityScore"`
	ContentHash        string     `json:"contentHash"`
	Source             string     `json:"source"`
	ScrapedAt          time.Time  `json:"scrapedAt"`
}

// Rules are the per-source quality filters.
type Rules struct {
	MinTitleLength     int
	RequireImage       bool
	RequireDescription bool
	FutureOnly         bool
	Currency           string
}

func DefaultRules() Rules {
	return Rules{
		MinTitleLength: 5,
		FutureOnly:     true,
		Currency:       "BRL",
	}
}

// Validation codes reported in ProcessResult.Errors.
const (
	CodeMissingTitle       = "missing_title"
	CodeMissingDate        = "missing_date"
	CodeMissingLocation    = "missing_location"
	CodeTitleTooShort      = "title_too_short"
	CodeInvalidDate        = "invalid_date"
	CodePastDate           = "past_date"
	CodeMissingImage       = "missing_image"
	CodeMissingDescription = "missing_description"
	CodeDuplicate          = "duplicate"
)

type ProcessResult struct {
	Success bool
	Event   *Event
	Errors  []string
}

type Rejection struct {
	Raw    RawEvent
	Errors []string
}

type ProcessingStats struct {
	Total      int
	Successful int
	Rejected   int
	Duplicates int
	ByReason   map[string]int
}

type BatchResult struct {
	Successful []Event
	Rejected   []Rejection
	Errors     []error
	Stats      ProcessingStats
}

// quality weights; they sum to 1.
const (
	weightTitle       = 0.25
	weightDate        = 0.25
	weightLocation    = 0.20
	weightImage       = 0.10
	weightDescription = 0.10
	weightURL         = 0.10
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)
