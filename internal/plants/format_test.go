package plants

import (
	"testing"
	"time"

	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatterLocales(t *testing.T) {
	for _, locale := range []string{"", "en", "en-US", "en_GB", "de", "fr"} {
		f, err := NewFormatter(locale, nil)
		require.NoError(t, err, "locale %q", locale)
		assert.Equal(t, time.UTC, f.Location())
	}

	_, err := NewFormatter("tlh", nil)
	assert.ErrorIs(t, err, ErrUnknownLocale)
}

func TestFormatMatchesLocaleRendering(t *testing.T) {
	ts := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

	f, err := NewFormatter("en", time.UTC)
	require.NoError(t, err)
	gotTime, gotDate, ok := f.Format("2024-01-01T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, en.New().FmtTimeMedium(ts), gotTime)
	assert.Equal(t, en.New().FmtDateShort(ts), gotDate)

	g, err := NewFormatter("de", time.UTC)
	require.NoError(t, err)
	gotTime, gotDate, ok = g.Format("2024-01-01T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, de.New().FmtTimeMedium(ts), gotTime)
	assert.Equal(t, de.New().FmtDateShort(ts), gotDate)
}

func TestFormatRendersInConfiguredZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	f, err := NewFormatter("en", zone)
	require.NoError(t, err)

	gotTime, gotDate, ok := f.Format("2024-01-01T22:30:00Z")
	require.True(t, ok)

	local := time.Date(2024, time.January, 2, 1, 30, 0, 0, zone)
	assert.Equal(t, en.New().FmtTimeMedium(local), gotTime)
	assert.Equal(t, en.New().FmtDateShort(local), gotDate)
}

func TestFormatUnparseable(t *testing.T) {
	f, err := NewFormatter("en", nil)
	require.NoError(t, err)

	for _, ts := range []string{"", "yesterday", "2024-13-45T99:00:00Z", "1704103200"} {
		gotTime, gotDate, ok := f.Format(ts)
		assert.False(t, ok, "timestamp %q", ts)
		assert.Equal(t, UnknownTimestamp, gotTime)
		assert.Equal(t, UnknownTimestamp, gotDate)
	}
}

func TestParseTimestampVariants(t *testing.T) {
	want := time.Date(2024, time.March, 5, 8, 15, 0, 0, time.UTC)

	for _, ts := range []string{
		"2024-03-05T08:15:00Z",
		"2024-03-05T08:15:00+00:00",
		"2024-03-05T09:15:00+01:00",
		"2024-03-05T08:15:00.000Z",
		"2024-03-05T08:15:00",
		"2024-03-05 08:15:00",
		"2024-03-05T08:15",
		" 2024-03-05T08:15:00Z ",
	} {
		got, err := ParseTimestamp(ts, time.UTC)
		require.NoError(t, err, "timestamp %q", ts)
		assert.True(t, want.Equal(got), "timestamp %q parsed as %v", ts, got)
	}

	day, err := ParseTimestamp("2024-03-05", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), day)
}
