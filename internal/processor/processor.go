package processor

import (
	"sort"
	"strings"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/category"
	"github.com/rohmanhakim/event-scraper/internal/dateparse"
	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/hashutil"
	"github.com/rohmanhakim/event-scraper/pkg/urlutil"
)

// Processor turns RawEvents into Events. It holds no per-run state and is
// safe for concurrent use.
type Processor struct {
	dates        *dateparse.Parser
	categories   *category.Classifier
	rules        map[string]Rules
	defaultRules Rules
	metadataSink metadata.MetadataSink
	now          func() time.Time
	toMarkdown   func(string) (string, error)
}

func NewProcessor(
	dates *dateparse.Parser,
	categories *category.Classifier,
	metadataSink metadata.MetadataSink,
) *Processor {
	return &Processor{
		dates:        dates,
		categories:   categories,
		rules:        make(map[string]Rules),
		defaultRules: DefaultRules(),
		metadataSink: metadataSink,
		now:          time.Now,
		toMarkdown:   markdownConverter,
	}
}

// WithRules sets the quality filters for one source.
func (p *Processor) WithRules(source string, rules Rules) *Processor {
	p.rules[source] = rules
	return p
}

func (p *Processor) WithDefaultRules(rules Rules) *Processor {
	p.defaultRules = rules
	return p
}

func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

func (p *Processor) RulesFor(source string) Rules {
	if r, ok := p.rules[source]; ok {
		return r
	}
	return p.defaultRules
}

// ProcessEventData validates and normalizes one raw listing. Every
// violation is reported; the error return is reserved for caller mistakes.
func (p *Processor) ProcessEventData(raw RawEvent, sourceName string) (ProcessResult, failure.ClassifiedError) {
	if strings.TrimSpace(sourceName) == "" {
		return ProcessResult{}, &ProcessorError{
			Message: "processEventData called without a source",
			Cause:   ErrCauseMissingSource,
		}
	}
	rules := p.RulesFor(sourceName)
	var codes []string

	title := normalizeTitle(raw.Title)
	if title == "" {
		codes = append(codes, CodeMissingTitle)
	}
	dateText := collapse(raw.DateText)
	if dateText == "" {
		codes = append(codes, CodeMissingDate)
	}
	location := parseLocation(raw.LocationText)
	if location.Venue == "" {
		codes = append(codes, CodeMissingLocation)
	}

	if title != "" && len([]rune(title)) < rules.MinTitleLength {
		codes = append(codes, CodeTitleTooShort)
	}

	var date *time.Time
	if dateText != "" {
		parsed, ok := p.dates.ParseDateTime(dateText)
		switch {
		case !ok || !p.dates.IsValidDate(parsed):
			codes = append(codes, CodeInvalidDate)
		case rules.FutureOnly && parsed.Before(startOfDay(p.now(), parsed.Location())):
			codes = append(codes, CodePastDate)
		default:
			date = &parsed
		}
	}

	image := normalizeImage(raw.ImageURL, raw.ImageAlt, raw.URL)
	if rules.RequireImage && image == nil {
		codes = append(codes, CodeMissingImage)
	}

	description, err := normalizeDescription(raw.Description, p.toMarkdown)
	if err != nil {
		// fall back to the visible text rather than dropping the listing
		description = collapse(reHTMLTag.ReplaceAllString(raw.Description, " "))
		descErr := &ProcessorError{Message: err.Error(), Cause: ErrCauseDescriptionFailed}
		p.metadataSink.RecordError(
			p.now(),
			"processor",
			"Processor.ProcessEventData",
			descErr.ErrorType(),
			descErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSeverity, descErr.Severity().String()),
				metadata.NewAttr(metadata.AttrURL, raw.URL),
			},
		)
	}
	if rules.RequireDescription && description == "" {
		codes = append(codes, CodeMissingDescription)
	}

	if len(codes) > 0 {
		p.metadataSink.RecordEvent(metadata.EventRejected, sourceName, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrReason, strings.Join(codes, ",")),
			metadata.NewAttr(metadata.AttrURL, raw.URL),
		})
		return ProcessResult{Success: false, Errors: codes}, nil
	}

	currency := rules.Currency
	if currency == "" {
		currency = DefaultRules().Currency
	}

	classification := p.categories.ClassifyEvent(title, description)
	tags := p.categories.ExtractTags(title, description)
	price := parsePrice(raw.PriceText, currency)
	if price != nil && price.IsFree {
		tags = addTag(tags, "gratuito")
	}

	scrapedAt := raw.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = p.now()
	}

	event := &Event{
		Title:              title,
		Date:               date,
		Location:           location,
		Image:              image,
		Price:              price,
		Description:        description,
		Organizer:          collapse(raw.Organizer),
		URL:                canonicalURL(raw.URL),
		Category:           classification.Category,
		CategoryConfidence: classification.Confidence,
		Tags:               tags,
		Source:             sourceName,
		ScrapedAt:          scrapedAt,
	}
	event.QualityScore = QualityScore(*event)
	event.ContentHash = ContentHash(event.Title, event.Date, event.Location.Venue)

	p.metadataSink.RecordEvent(metadata.EventAccepted, sourceName, []metadata.Attribute{
		metadata.NewAttr(metadata.AttrContentHash, event.ContentHash),
		metadata.NewAttr(metadata.AttrCategory, event.Category),
	})
	return ProcessResult{Success: true, Event: event}, nil
}

// ProcessEventsBatch processes raws in order and drops later listings whose
// content hash was already accepted.
func (p *Processor) ProcessEventsBatch(raws []RawEvent, sourceName string) BatchResult {
	result := BatchResult{Stats: ProcessingStats{ByReason: make(map[string]int)}}
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		result.Stats.Total++

		res, err := p.ProcessEventData(raw, sourceName)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if !res.Success {
			result.Rejected = append(result.Rejected, Rejection{Raw: raw, Errors: res.Errors})
			result.Stats.Rejected++
			for _, code := range res.Errors {
				result.Stats.ByReason[code]++
			}
			continue
		}
		if _, dup := seen[res.Event.ContentHash]; dup {
			result.Rejected = append(result.Rejected, Rejection{Raw: raw, Errors: []string{CodeDuplicate}})
			result.Stats.Rejected++
			result.Stats.Duplicates++
			result.Stats.ByReason[CodeDuplicate]++
			p.metadataSink.RecordEvent(metadata.EventDuplicate, sourceName, []metadata.Attribute{
				metadata.NewAttr(metadata.AttrContentHash, res.Event.ContentHash),
			})
			continue
		}
		seen[res.Event.ContentHash] = struct{}{}
		result.Successful = append(result.Successful, *res.Event)
		result.Stats.Successful++
	}
	return result
}

// QualityScore is the weighted presence of title, date, location, image,
// description and url, clamped to [0,1].
func QualityScore(e Event) float64 {
	score := 0.0
	if e.Title != "" {
		score += weightTitle
	}
	if e.Date != nil {
		score += weightDate
	}
	if e.Location.Venue != "" {
		score += weightLocation
	}
	if e.Image != nil && e.Image.URL != "" {
		score += weightImage
	}
	if e.Description != "" {
		score += weightDescription
	}
	if e.URL != "" {
		score += weightURL
	}
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// ContentHash fingerprints the normalized title, date and venue.
func ContentHash(title string, date *time.Time, venue string) string {
	dateKey := ""
	if date != nil {
		dateKey = date.UTC().Format(time.RFC3339)
	}
	return hashutil.Fingerprint(fold(title), dateKey, fold(venue))
}

func canonicalURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return urlutil.CanonicalString(raw)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func addTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	tags = append(tags, tag)
	sort.Strings(tags)
	return tags
}
