// Package astro holds the static astrology tables and the deterministic
// computations built on them: life-path numbers, nakshatra lookup, muhurat
// windows, the daily tip, birth chart and meme rendering.
//
// All tables are immutable after package initialization.
package astro

import "github.com/DukeRupert/jyotai/internal/domain"

var tips = [...]string{
	"🌟 Chant 'Om Gam Ganapataye Namaha' 108 times for removing obstacles",
	"🌙 Meditate during early morning hours (4-6 AM) for better spiritual connection",
	"💎 Wear your lucky gemstone on the prescribed finger for maximum benefits",
	"🕉️ Practice gratitude daily to attract positive cosmic energy",
	"⭐ Check your daily nakshatra for important decision making",
	"🔥 Light a diya every evening to invite prosperity into your home",
	"🌸 Offer water to the Sun every morning facing east for vitality",
	"🙏 Read your zodiac mantra during your ruling planetary hour",
	"🌺 Keep fresh flowers in your home to maintain positive vibrations",
	"📿 Wear rudraksha beads to enhance spiritual protection",
}

var nakshatras = [...]domain.Nakshatra{
	{Name: "Ashwini", Ruler: "Ketu", Element: "Earth", LuckyGem: "Red Coral"},
	{Name: "Bharani", Ruler: "Venus", Element: "Earth", LuckyGem: "Diamond"},
	{Name: "Krittika", Ruler: "Sun", Element: "Fire", LuckyGem: "Ruby"},
	{Name: "Rohini", Ruler: "Moon", Element: "Earth", LuckyGem: "Pearl"},
	{Name: "Mrigashira", Ruler: "Mars", Element: "Earth", LuckyGem: "Red Coral"},
	{Name: "Ardra", Ruler: "Rahu", Element: "Air", LuckyGem: "Hessonite"},
	{Name: "Punarvasu", Ruler: "Jupiter", Element: "Water", LuckyGem: "Yellow Sapphire"},
	{Name: "Pushya", Ruler: "Saturn", Element: "Water", LuckyGem: "Blue Sapphire"},
	{Name: "Ashlesha", Ruler: "Mercury", Element: "Water", LuckyGem: "Emerald"},
}

var lifePathSummaries = map[int]string{
	1:  "You are a natural born leader with strong independence and pioneering spirit.",
	2:  "You are a peacemaker with exceptional diplomatic skills and cooperative nature.",
	3:  "You are creative and expressive with natural communication and artistic talents.",
	4:  "You are practical and hardworking with strong organizational abilities.",
	5:  "You are adventurous and freedom-loving with a dynamic personality.",
	6:  "You are nurturing and responsible with natural healing and caring abilities.",
	7:  "You are spiritual and analytical with deep intuitive understanding.",
	8:  "You are ambitious and material-focused with strong business acumen.",
	9:  "You are humanitarian and generous with universal love and wisdom.",
	11: "You are highly intuitive and inspirational with spiritual leadership qualities.",
	22: "You are a master builder with the ability to turn dreams into reality.",
	33: "You are a master teacher with exceptional healing and guidance abilities.",
}

// Houses are the twelve bhavas in chart order.
var Houses = [...]string{
	"1st House - Self & Personality",
	"2nd House - Wealth & Family",
	"3rd House - Communication",
	"4th House - Home & Mother",
	"5th House - Children & Education",
	"6th House - Health & Enemies",
	"7th House - Marriage & Partnership",
	"8th House - Longevity & Secrets",
	"9th House - Fortune & Spirituality",
	"10th House - Career & Status",
	"11th House - Gains & Friendship",
	"12th House - Loss & Liberation",
}

// Planets are the nine grahas placed on the chart.
var Planets = [...]string{"Sun", "Moon", "Mars", "Mercury", "Jupiter", "Venus", "Saturn", "Rahu", "Ketu"}

var muhurat = domain.MuhuratTimes{
	Abhijit: "11:24 AM - 12:12 PM",
	Brahma:  "4:24 AM - 5:12 AM",
	Vijaya:  "2:24 PM - 3:12 PM",
	Godhuli: "6:24 PM - 7:12 PM",
}

// Nakshatras returns a copy of the nakshatra table.
func Nakshatras() []domain.Nakshatra {
	out := make([]domain.Nakshatra, len(nakshatras))
	copy(out, nakshatras[:])
	return out
}

// Tips returns a copy of the daily tip rotation.
func Tips() []string {
	out := make([]string, len(tips))
	copy(out, tips[:])
	return out
}

// Muhurat returns the fixed auspicious windows.
func Muhurat() domain.MuhuratTimes {
	return muhurat
}
