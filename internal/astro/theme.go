package astro

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Theme is the life area a prediction talks about most.
type Theme string

const (
	ThemeGeneral  Theme = "general"
	ThemeCareer   Theme = "career"
	ThemeLove     Theme = "love"
	ThemeHealth   Theme = "health"
	ThemeWealth   Theme = "wealth"
	ThemeSpirit   Theme = "spirit"
	ThemeJourneys Theme = "travel"
)

// Emoji returns the glyph printed on memes for the theme.
func (t Theme) Emoji() string {
	switch t {
	case ThemeCareer:
		return "💼"
	case ThemeLove:
		return "💞"
	case ThemeHealth:
		return "🌿"
	case ThemeWealth:
		return "💰"
	case ThemeSpirit:
		return "🕉️"
	case ThemeJourneys:
		return "✈️"
	default:
		return "🔮"
	}
}

var themeKeywords = map[string]Theme{
	"career":       ThemeCareer,
	"job":          ThemeCareer,
	"business":     ThemeCareer,
	"promotion":    ThemeCareer,
	"leadership":   ThemeCareer,
	"success":      ThemeCareer,
	"marriage":     ThemeLove,
	"love":         ThemeLove,
	"romance":      ThemeLove,
	"romantic":     ThemeLove,
	"partner":      ThemeLove,
	"relationship": ThemeLove,
	"family":       ThemeLove,
	"health":       ThemeHealth,
	"healing":      ThemeHealth,
	"vitality":     ThemeHealth,
	"wellness":     ThemeHealth,
	"wealth":       ThemeWealth,
	"money":        ThemeWealth,
	"financial":    ThemeWealth,
	"prosperity":   ThemeWealth,
	"prosperous":   ThemeWealth,
	"spiritual":    ThemeSpirit,
	"meditation":   ThemeSpirit,
	"karma":        ThemeSpirit,
	"intuition":    ThemeSpirit,
	"travel":       ThemeJourneys,
	"journey":      ThemeJourneys,
	"abroad":       ThemeJourneys,
}

var themeMatcher = func() ahocorasick.AhoCorasick {
	patterns := make([]string, 0, len(themeKeywords))
	for k := range themeKeywords {
		patterns = append(patterns, k)
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
	})
	return builder.Build(patterns)
}()

// themeOrder breaks ties between equally frequent themes.
var themeOrder = []Theme{ThemeCareer, ThemeLove, ThemeWealth, ThemeHealth, ThemeSpirit, ThemeJourneys}

// DominantTheme scans text once and returns the theme with the most keyword
// hits, or ThemeGeneral when nothing matches.
func DominantTheme(text string) Theme {
	text = strings.ToLower(text)
	matches := themeMatcher.FindAll(text)
	if len(matches) == 0 {
		return ThemeGeneral
	}

	counts := make(map[Theme]int)
	for _, m := range matches {
		counts[themeKeywords[text[m.Start():m.End()]]]++
	}

	best, bestCount := ThemeGeneral, 0
	for _, t := range themeOrder {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best
}
