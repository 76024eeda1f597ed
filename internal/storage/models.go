package storage

import "time"

// QueryRecord is one completed ticket lookup.
type QueryRecord struct {
	ID          string
	UserID      string
	Departure   string
	Arrival     string
	TravelDate  string
	TrainType   string
	ResultCount int
	QueriedAt   time.Time
}
