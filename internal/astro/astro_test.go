package astro

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNakshatraFor(t *testing.T) {
	tests := []struct {
		dob    string
		want   string
		wantOK bool
	}{
		{"1985-09-09", "Ashwini", true},
		{"1990-01-01", "Bharani", true},
		{"1990-03-15", "Krittika", true},
		{"2000-12-31", "Punarvasu", true},
		{"1990/01/01", "Bharani", true},
		{"not a date", "Ashwini", false},
	}
	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			got, ok := NakshatraFor(tt.dob)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestNakshatras_ReturnsCopy(t *testing.T) {
	table := Nakshatras()
	require.Len(t, table, 9)
	table[0].Name = "changed"
	assert.Equal(t, "Ashwini", Nakshatras()[0].Name)
}

func TestTipOfTheDay(t *testing.T) {
	jan1 := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, Tips()[1], TipOfTheDay(jan1))

	// Ten days later the rotation wraps to the same tip.
	assert.Equal(t, TipOfTheDay(jan1), TipOfTheDay(jan1.AddDate(0, 0, 10)))
	assert.NotEqual(t, TipOfTheDay(jan1), TipOfTheDay(jan1.AddDate(0, 0, 1)))
}

func TestMuhurat(t *testing.T) {
	m := Muhurat()
	assert.Equal(t, "11:24 AM - 12:12 PM", m.Abhijit)
	assert.Equal(t, "4:24 AM - 5:12 AM", m.Brahma)
	assert.Equal(t, "2:24 PM - 3:12 PM", m.Vijaya)
	assert.Equal(t, "6:24 PM - 7:12 PM", m.Godhuli)
}

func TestChartGenerator(t *testing.T) {
	g := &ChartGenerator{Jitter: func() float64 { return 0.5 }}
	chart := g.Generate()

	assert.Len(t, chart.Houses, 12)
	assert.Equal(t, "1st House - Self & Personality", chart.Houses[0])
	require.Len(t, chart.PlanetaryPositions, 9)
	assert.InDelta(t, 15.0, chart.PlanetaryPositions["Sun"], 0.0001)
	assert.InDelta(t, 335.0, chart.PlanetaryPositions["Ketu"], 0.0001)
	assert.True(t, strings.HasPrefix(chart.SVGData, "<svg"))
	assert.Contains(t, chart.SVGData, "Birth Chart")
	assert.Contains(t, chart.SVGData, ">Ke</text>")
}

func TestChartGenerator_PositionsInRange(t *testing.T) {
	g := NewChartGenerator()
	for range 100 {
		for planet, deg := range g.Generate().PlanetaryPositions {
			if deg < 0 || deg >= 360 {
				t.Fatalf("%s at %v, want [0,360)", planet, deg)
			}
		}
	}
}

func TestReferralCode(t *testing.T) {
	code := ReferralCode("asha@example.com")
	assert.Len(t, code, 11)
	assert.True(t, strings.HasPrefix(code, "JYOTASH"), code)
	assert.Equal(t, strings.ToUpper(code), code)

	short := ReferralCode("ab")
	assert.True(t, strings.HasPrefix(short, "JYOTAB"), short)
	assert.Len(t, short, 10)
}

func TestNormalizeReferralCode(t *testing.T) {
	assert.Equal(t, "JYOTASH1A2B", NormalizeReferralCode("  jyotash1a2b "))
}

func TestDominantTheme(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Theme
	}{
		{"career", "A prosperous period awaits you with significant career advancement and business success.", ThemeCareer},
		{"love", "Marriage is near. Your partner and family bring romance.", ThemeLove},
		{"nothing", "The moon is bright.", ThemeGeneral},
		{"case insensitive", "WEALTH and MONEY", ThemeWealth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DominantTheme(tt.text))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc...", Truncate("abcdef", 3, false))
	assert.Equal(t, "abc", Truncate("abc", 3, false))
	assert.Equal(t, "abc...", Truncate("abc", 3, true))
	assert.Equal(t, "नमस...", Truncate("नमस्ते", 3, false))
}

func TestMemeSVG(t *testing.T) {
	summary := strings.Repeat("x", 300)
	svg := MemeSVG("Ravi <script>", summary, ThemeCareer)

	assert.Contains(t, svg, "For Ravi &lt;script&gt;")
	assert.Contains(t, svg, strings.Repeat("x", 200)+"...")
	assert.NotContains(t, svg, strings.Repeat("x", 201))
	assert.Contains(t, svg, "💼 JyotAI Prediction")
	assert.Contains(t, svg, `x1="0%"`)

	uri := DataURI(svg)
	require.True(t, strings.HasPrefix(uri, "data:image/svg+xml;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/svg+xml;base64,"))
	require.NoError(t, err)
	assert.Equal(t, svg, string(decoded))
}
