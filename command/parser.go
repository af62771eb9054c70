// Package command parses one line of inbound chat text into a structured
// bot command: a keyword group, optional coordinates, and an optional
// forecast horizon in hours or days.
package command

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Group identifies a set of synonymous command keywords.
type Group string

const (
	// GroupNone means no recognized keyword was found.
	GroupNone Group = ""
	// GroupForecast requests a weather forecast.
	GroupForecast Group = "forecast"
	// GroupHelp requests usage guidance.
	GroupHelp Group = "help"
	// GroupTest requests a self-test echo.
	GroupTest Group = "test"
	// GroupPing requests a fixed ping reply.
	GroupPing Group = "ping"
)

// synonyms maps each keyword group to its accepted surface tokens.
// Tokens are matched after normalization, so case and combining marks
// do not matter. Adding a locale means adding tokens here only.
var synonyms = map[Group][]string{
	GroupForecast: {"прогноз", "погода", "prognoz", "pogoda", "weather", "forecast"},
	GroupHelp:     {"помощь", "pomosh", "pomosch", "help"},
	GroupTest:     {"тест", "test"},
	GroupPing:     {"пинг", "ping"},
}

// keywords is the flattened lookup table built from synonyms.
var keywords = func() map[string]Group {
	m := make(map[string]Group)
	for group, tokens := range synonyms {
		for _, token := range tokens {
			m[normalize(token)] = group
		}
	}
	return m
}()

// pattern accepts, in order and all optional: a sigil-prefixed keyword,
// a pair of decimal coordinates (dot or comma separator), a day count and
// an hour count with latin or cyrillic unit letters. The input is
// lowercased before matching, so only lowercase unit letters appear here.
var pattern = regexp.MustCompile(`^\s*#?\s*(?:(?P<kw>[\p{L}\p{M}\p{N}_]+)\s*)?` +
	`(?:(?P<lat>\d+[.,]?\d*)\s+(?P<lon>\d+[.,]?\d*)\s*)?` +
	`(?:(?P<d>\d+)\s*[dд]\s*)?(?:(?P<h>\d+)\s*[hч]\s*)?`)

// Command is one parsed inbound message.
type Command struct {
	Group     Group
	Keyword   string // normalized surface token that matched
	Latitude  *float64
	Longitude *float64
	Days      int
	Hours     int
}

// HasCoordinates reports whether the command carried an explicit position.
func (c Command) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Parse extracts a Command from one line of user text. The second return
// value is false when the text contains no recognized keyword, including
// when the text is not valid UTF-8; such messages are ignored upstream.
func Parse(raw string) (Command, bool) {
	if !utf8.ValidString(raw) {
		return Command{}, false
	}

	match := pattern.FindStringSubmatch(strings.ToLower(raw))
	if match == nil {
		return Command{}, false
	}

	get := func(name string) string {
		return match[pattern.SubexpIndex(name)]
	}

	keyword := normalize(get("kw"))
	group, ok := keywords[keyword]
	if !ok {
		return Command{}, false
	}

	cmd := Command{Group: group, Keyword: keyword}

	if lat, lon := get("lat"), get("lon"); lat != "" && lon != "" {
		latVal, latErr := parseCoordinate(lat)
		lonVal, lonErr := parseCoordinate(lon)
		if latErr == nil && lonErr == nil {
			cmd.Latitude = &latVal
			cmd.Longitude = &lonVal
		}
	}

	if d := get("d"); d != "" {
		cmd.Days, _ = strconv.Atoi(d)
	}
	if h := get("h"); h != "" {
		cmd.Hours, _ = strconv.Atoi(h)
	}

	return cmd, true
}

// stripMarks removes combining marks so that accented or stressed
// spellings match their plain forms.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalize(s string) string {
	out, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func parseCoordinate(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
