// Package feed implements the calendar feed source: the feed URL comes from
// the parameter store, the payload is fetched over HTTP and parsed from
// iCalendar into event definitions.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"calbook-backend/application/ports"
	"calbook-backend/domain/calendar"
	appErrors "calbook-backend/pkg/errors"
)

const fetchTimeout = 15 * time.Second

// ICSFeedSource fetches and parses the iCalendar feed.
type ICSFeedSource struct {
	params   ports.ParameterStore
	urlParam string
	client   *http.Client
	logger   *zap.Logger
}

// NewICSFeedSource creates a feed source that resolves the feed URL from
// the named parameter on every fetch.
func NewICSFeedSource(params ports.ParameterStore, urlParam string, logger *zap.Logger) *ICSFeedSource {
	return &ICSFeedSource{
		params:   params,
		urlParam: urlParam,
		client:   &http.Client{Timeout: fetchTimeout},
		logger:   logger,
	}
}

// FetchFeed retrieves and parses the feed. Individual VEVENTs that cannot
// be read are skipped with a log line; only a feed that cannot be fetched
// or parsed at all is an error.
func (s *ICSFeedSource) FetchFeed(ctx context.Context) (calendar.Feed, error) {
	feedURL, err := s.params.GetParameter(ctx, s.urlParam)
	if err != nil {
		return calendar.Feed{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return calendar.Feed{}, appErrors.NewUnavailableError("calendar feed", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return calendar.Feed{}, appErrors.NewUnavailableError("calendar feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return calendar.Feed{}, appErrors.NewUnavailableError("calendar feed", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	cal, err := ical.ParseCalendar(resp.Body)
	if err != nil {
		return calendar.Feed{}, appErrors.NewUnavailableError("calendar feed", err)
	}

	feed := s.toFeed(cal)
	s.logger.Info("calendar feed fetched",
		zap.Int("event_count", len(feed.Events)),
	)
	return feed, nil
}

func (s *ICSFeedSource) toFeed(cal *ical.Calendar) calendar.Feed {
	var feed calendar.Feed
	for _, ve := range cal.Events() {
		def, err := parseVEvent(ve)
		if err != nil {
			s.logger.Warn("skipping unreadable VEVENT", zap.Error(err))
			continue
		}
		feed.Events = append(feed.Events, def)
	}
	return feed
}

func parseVEvent(ve *ical.VEvent) (calendar.EventDefinition, error) {
	var def calendar.EventDefinition

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return def, fmt.Errorf("missing UID")
	}
	def.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		def.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		def.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		def.Location = p.Value
	}

	def.StartIsDate = isDateValue(ve.GetProperty(ical.ComponentPropertyDtStart))
	def.EndIsDate = isDateValue(ve.GetProperty(ical.ComponentPropertyDtEnd))

	// A start that fails to parse stays zero; the expander skips such
	// entries instead of failing the whole listing.
	if def.StartIsDate {
		if t, err := ve.GetAllDayStartAt(); err == nil {
			def.Start = t
		}
	} else if t, err := ve.GetStartAt(); err == nil {
		def.Start = t
	}

	if def.EndIsDate {
		if t, err := ve.GetAllDayEndAt(); err == nil {
			def.End = t
		}
	} else if t, err := ve.GetEndAt(); err == nil {
		def.End = t
	}
	if def.End.IsZero() {
		def.End = def.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		def.RecurrenceRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				def.ExceptionDates = append(def.ExceptionDates, t)
			}
		}
	}

	return def, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime reads basic DATE / DATE-TIME / UTC forms onto the naive
// timeline.
func parseICSTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}
