package influx

import (
	"strings"
	"unicode"

	"github.com/emirpasic/gods/sets/hashset"
)

// influxqlKeywords are the statement-leading keywords of InfluxQL. A query
// whose first word is one of these is routed to the v1-compatibility path.
var influxqlKeywords = hashset.New()

func init() {
	for _, kw := range []string{
		"select",
		"show",
		"create",
		"drop",
		"delete",
		"alter",
		"grant",
		"revoke",
	} {
		influxqlKeywords.Add(kw)
	}
}

// IsInfluxQL reports whether raw query text looks like InfluxQL rather than
// Flux. This is a keyword-prefix heuristic, not a parser: a Flux script that
// happens to begin with an InfluxQL keyword would be misclassified.
func IsInfluxQL(query string) bool {
	q := strings.TrimSpace(query)
	end := len(q)
	for i, r := range q {
		if !unicode.IsLetter(r) {
			end = i
			break
		}
	}
	if end == 0 {
		return false
	}
	return influxqlKeywords.Contains(strings.ToLower(q[:end]))
}
