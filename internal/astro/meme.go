package astro

import (
	"encoding/base64"
	"fmt"
	"html"
	"unicode/utf8"
)

// memeSummaryLimit is the number of summary characters printed on a meme.
const memeSummaryLimit = 200

// Truncate shortens s to at most n runes and appends "..." when it was cut.
// With always set, the ellipsis is appended even when nothing was removed.
func Truncate(s string, n int, always bool) string {
	if utf8.RuneCountInString(s) <= n {
		if always {
			return s + "..."
		}
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// MemeSVG renders the shareable 800x600 prediction card.
func MemeSVG(name, summary string, theme Theme) string {
	return fmt.Sprintf(`<svg width="800" height="600" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="bgGradient" x1="0%%" y1="0%%" x2="0%%" y2="100%%">
      <stop offset="0%%" style="stop-color:#FF6B6B;stop-opacity:1" />
      <stop offset="100%%" style="stop-color:#4ECDC4;stop-opacity:1" />
    </linearGradient>
  </defs>
  <rect width="800" height="600" fill="url(#bgGradient)"/>
  <text x="400" y="60" font-family="Arial, sans-serif" font-size="36" font-weight="bold" text-anchor="middle" fill="white">%s JyotAI Prediction</text>
  <text x="400" y="100" font-family="Arial, sans-serif" font-size="24" font-weight="bold" text-anchor="middle" fill="white">For %s</text>
  <foreignObject x="50" y="130" width="700" height="300">
    <div xmlns="http://www.w3.org/1999/xhtml" style="font-family: Arial, sans-serif; font-size: 18px; line-height: 1.5; color: white; padding: 20px; word-wrap: break-word;">%s</div>
  </foreignObject>
  <text x="400" y="550" font-family="Arial, sans-serif" font-size="20" font-weight="bold" text-anchor="middle" fill="white">✨ Generated by JyotAI ✨</text>
</svg>`,
		theme.Emoji(),
		html.EscapeString(name),
		html.EscapeString(Truncate(summary, memeSummaryLimit, true)),
	)
}

// DataURI encodes an SVG document as a base64 data URI.
func DataURI(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
