// Package transcript turns free-text booking requests ("book an appointment
// for Jane Doe with Dr. Smith on June 20 at 3:30 pm") into structured fields.
// Extraction is best effort: any field may come back empty and the booking
// path validates the result exactly like directly supplied input.
package transcript

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fields is the structured output of an extraction.
type Fields struct {
	PatientName  string
	ProviderName string
	DateTime     string
}

// Extractor turns free text into booking fields.
type Extractor interface {
	Extract(ctx context.Context, text string) (Fields, error)
}

var (
	patientRe = regexp.MustCompile(`(?i)\bfor\s+(?:patient\s+)?([a-z][a-z'.-]*(?:\s+[a-z][a-z'.-]*)*?)(?:\s+(?:with|on|at|tomorrow)\b|\s*[.,;]|\s*$)`)
	doctorRe  = regexp.MustCompile(`(?i)\bwith\s+((?:dr\.?\s+)?[a-z][a-z'.-]*(?:\s+[a-z][a-z'.-]*)*?)(?:\s+(?:on|at|for|tomorrow)\b|\s*[.,;]|\s*$)`)
	isoRe     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:?\d{2})?`)
	dateRe    = regexp.MustCompile(`(?i)\bon\s+(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?`)
	timeRe    = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	tomorrow  = regexp.MustCompile(`(?i)\btomorrow\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// HeuristicExtractor matches the phrasing front-desk staff dictate. Zone-less
// results are rendered in loc and left for the booking service to interpret.
type HeuristicExtractor struct {
	now func() time.Time
	loc *time.Location
}

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{now: time.Now, loc: time.Local}
}

func (e *HeuristicExtractor) Extract(_ context.Context, text string) (Fields, error) {
	f := Fields{}
	if m := patientRe.FindStringSubmatch(text); m != nil {
		f.PatientName = strings.TrimSpace(m[1])
	}
	if m := doctorRe.FindStringSubmatch(text); m != nil {
		f.ProviderName = normalizeDoctor(m[1])
	}
	f.DateTime = e.extractDateTime(text)
	return f, nil
}

func normalizeDoctor(raw string) string {
	name := strings.TrimSpace(raw)
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "dr ") {
		return "Dr. " + strings.TrimSpace(name[3:])
	}
	if strings.HasPrefix(lower, "dr. ") {
		return "Dr. " + strings.TrimSpace(name[4:])
	}
	return name
}

func (e *HeuristicExtractor) extractDateTime(text string) string {
	// An embedded machine timestamp wins over spoken forms.
	if m := isoRe.FindString(text); m != "" {
		return strings.Replace(m, " ", "T", 1)
	}

	tm := timeRe.FindStringSubmatch(text)
	if tm == nil {
		return ""
	}
	hour, _ := strconv.Atoi(tm[1])
	minute := 0
	if tm[2] != "" {
		minute, _ = strconv.Atoi(tm[2])
	}
	switch strings.ToLower(tm[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return ""
	}

	now := e.now().In(e.loc)

	if dm := dateRe.FindStringSubmatch(text); dm != nil {
		month := monthsByName[strings.ToLower(dm[1])]
		day, _ := strconv.Atoi(dm[2])
		year := now.Year()
		explicitYear := dm[3] != ""
		if explicitYear {
			year, _ = strconv.Atoi(dm[3])
		}
		t := time.Date(year, month, day, hour, minute, 0, 0, e.loc)
		// "on June 20" in December means next June.
		if !explicitYear && t.Before(now) {
			t = time.Date(year+1, month, day, hour, minute, 0, 0, e.loc)
		}
		return formatLocal(t)
	}

	if tomorrow.MatchString(text) {
		d := now.AddDate(0, 0, 1)
		return formatLocal(time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, e.loc))
	}

	return ""
}

func formatLocal(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute())
}
