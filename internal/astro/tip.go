package astro

import "time"

// TipSource is reported alongside every tip.
const TipSource = "JyotAI Daily Wisdom"

// TipOfTheDay picks the tip for the calendar day of t. The rotation is keyed
// by day-of-year, so every process serving the same date agrees.
func TipOfTheDay(t time.Time) string {
	return tips[t.YearDay()%len(tips)]
}
