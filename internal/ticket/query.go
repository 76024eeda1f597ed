package ticket

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/railbot/train-linebot-go/internal/errors"
)

// queryTimeZone is the zone used when defaulting the travel date.
// Train schedules on the upstream API are mainland-China local time.
var queryTimeZone = mustLoadLocation("Asia/Shanghai")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// Query holds the parsed parameters of one ticket lookup.
type Query struct {
	Departure string
	Arrival   string
	Date      string
	TrainType string
}

// ParseQueryText parses the text of a 火车票 command into a Query.
// The expected form is "火车票 <departure> <arrival> [date] [type]".
// Departure and arrival are mandatory; date defaults to today and
// type defaults to defaultType.
//
// Returns ErrInvalidInput when fewer than two arguments follow the
// command keyword.
func ParseQueryText(text, defaultType string, now time.Time) (Query, error) {
	tokens := strings.Fields(text)
	if len(tokens) < 3 {
		return Query{}, fmt.Errorf("%w: need departure and arrival, got %d arguments",
			apperrors.ErrInvalidInput, len(tokens)-1)
	}

	q := Query{
		Departure: tokens[1],
		Arrival:   tokens[2],
		Date:      now.In(queryTimeZone).Format("2006-01-02"),
		TrainType: defaultType,
	}

	if len(tokens) >= 4 {
		q.Date = tokens[3]
	}
	if len(tokens) >= 5 {
		q.TrainType = tokens[4]
	}

	return q, nil
}

// Key returns a stable identifier for deduplicating identical
// concurrent queries.
func (q Query) Key() string {
	return strings.Join([]string{q.Departure, q.Arrival, q.Date, q.TrainType}, "|")
}
