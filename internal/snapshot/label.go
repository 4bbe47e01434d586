package snapshot

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Kind selects the default label prefix.
type Kind int

const (
	// KindUpdate is a plain save. An explicit message is used verbatim.
	KindUpdate Kind = iota
	// KindVersion is an explicit version request. The label is always prefixed.
	KindVersion
)

const (
	updatePrefix  = "Update: "
	versionPrefix = "Version: "
)

// supportedLocales and timestampLayouts are index-aligned. The first entry is
// the fallback for unmatched tags.
var (
	supportedLocales = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.German,
		language.French,
		language.Spanish,
		language.Italian,
		language.Dutch,
		language.Japanese,
	}
	timestampLayouts = []string{
		"1/2/2006, 3:04:05 PM",
		"02/01/2006, 15:04:05",
		"2.1.2006, 15:04:05",
		"02/01/2006 15:04:05",
		"2/1/2006, 15:04:05",
		"2/1/2006, 15:04:05",
		"2-1-2006, 15:04:05",
		"2006/1/2 15:04:05",
	}
	localeMatcher = language.NewMatcher(supportedLocales)
)

// FormatTimestamp renders t the way the locale shows a date and time.
func FormatTimestamp(t time.Time, tag language.Tag) string {
	_, idx, _ := localeMatcher.Match(tag)
	return t.Format(timestampLayouts[idx])
}

// ParseLocale turns a BCP 47 tag or a POSIX locale such as "de_DE.UTF-8" into
// a language tag. Empty, "C" and "POSIX" values and parse failures yield
// American English.
func ParseLocale(s string) language.Tag {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return language.AmericanEnglish
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// Labeler builds snapshot messages.
type Labeler struct {
	Locale language.Tag
	Now    func() time.Time
}

// Label returns the snapshot message for kind. explicit is the caller-supplied
// message or label; empty means synthesize one from the current time.
func (l Labeler) Label(kind Kind, explicit string) string {
	switch kind {
	case KindVersion:
		if explicit != "" {
			return versionPrefix + explicit
		}
		return versionPrefix + l.timestamp()
	default:
		if explicit != "" {
			return explicit
		}
		return updatePrefix + l.timestamp()
	}
}

func (l Labeler) timestamp() string {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	return FormatTimestamp(now(), l.Locale)
}
