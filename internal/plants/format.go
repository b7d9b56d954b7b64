package plants

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/en_GB"
	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/it"
	"github.com/go-playground/locales/nl"
	ut "github.com/go-playground/universal-translator"
)

// UnknownTimestamp is rendered for both display fields when a timestamp
// cannot be parsed.
const UnknownTimestamp = "unknown"

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

var ErrUnknownLocale = errors.New("unsupported display locale")

var universal = ut.New(en.New(),
	en.New(),
	en_US.New(),
	en_GB.New(),
	de.New(),
	fr.New(),
	it.New(),
	es.New(),
	nl.New(),
)

// Accepted layouts, most specific first. Layouts without a zone are
// interpreted in the formatter's location.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Formatter renders sample timestamps into locale-specific time and date
// strings. Output depends only on the configured locale and location, never
// on the host defaults.
type Formatter struct {
	trans locales.Translator
	loc   *time.Location
}

// NewFormatter returns a Formatter for locale (e.g. "en", "en-US", "de").
// A nil loc means UTC.
func NewFormatter(locale string, loc *time.Location) (*Formatter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	if loc == nil {
		loc = time.UTC
	}

	key := strings.ReplaceAll(strings.TrimSpace(locale), "-", "_")
	trans, found := universal.GetTranslator(key)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}

	return &Formatter{trans: trans, loc: loc}, nil
}

// Locale returns the resolved locale identifier.
func (f *Formatter) Locale() string {
	return f.trans.Locale()
}

// Location returns the zone timestamps are rendered in.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Format parses ts and returns its rendered time and date. When ts is not
// parseable both strings are UnknownTimestamp and ok is false.
func (f *Formatter) Format(ts string) (formattedTime, formattedDate string, ok bool) {
	t, err := ParseTimestamp(ts, f.loc)
	if err != nil {
		return UnknownTimestamp, UnknownTimestamp, false
	}
	t = t.In(f.loc)
	return f.trans.FmtTimeMedium(t), f.trans.FmtDateShort(t), true
}

// ParseTimestamp accepts RFC 3339 and the common ISO-8601 variants without
// a zone offset.
func ParseTimestamp(ts string, loc *time.Location) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}

	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, ts, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", ts)
}
