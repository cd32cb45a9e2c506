package orchestrator

import (
	"regexp"
	"strconv"
	"strings"
)

// knownDestinations is the fixed city list used for best-effort destination
// extraction from plan text. First match wins.
var knownDestinations = []string{
	"Paris", "London", "Tokyo", "Kyoto", "Osaka", "New York", "Rome",
	"Venice", "Florence", "Barcelona", "Madrid", "Lisbon", "Amsterdam",
	"Berlin", "Munich", "Prague", "Vienna", "Istanbul", "Athens",
	"Beijing", "Shanghai", "Hong Kong", "Singapore", "Bangkok", "Phuket",
	"Bali", "Seoul", "Sydney", "Melbourne", "Dubai", "Los Angeles",
	"San Francisco", "Las Vegas", "Chicago", "Miami", "Cairo", "Marrakech",
	"Reykjavik", "Copenhagen", "Stockholm", "Oslo", "Helsinki", "Zurich",
}

// dayCountPattern matches "3-day", "3 day", "3 days".
var dayCountPattern = regexp.MustCompile(`(?i)\b(\d{1,2})[ -]?days?\b`)

// ExtractMeta pulls a best-effort destination and day count out of plan
// text. Either result may be absent; extraction never fails.
func ExtractMeta(text string) (destination string, days *int) {
	lower := strings.ToLower(text)
	for _, city := range knownDestinations {
		if strings.Contains(lower, strings.ToLower(city)) {
			destination = city
			break
		}
	}

	if m := dayCountPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			days = &n
		}
	}
	return destination, days
}
