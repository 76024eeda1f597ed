// Package ticket queries the upstream train-ticket API and models its
// responses. It owns the query grammar for the 火车票 command and the
// HTTP client that performs the lookup.
package ticket

import (
	"encoding/json"
	"fmt"
)

// Seat is one fare tier of a train with its availability and price.
type Seat struct {
	Name   string     `json:"name"`
	Status string     `json:"status"`
	Price  FlexString `json:"price"`
}

// Train is one candidate train returned by the upstream API.
// The API owns this shape; fields it omits are left zero.
type Train struct {
	TrainNumber string `json:"TrainNumber"`
	TrainType   string `json:"TrainType"`
	Depart      string `json:"Depart"`
	Dest        string `json:"Dest"`
	DepartTime  string `json:"DepartTime"`
	DestTime    string `json:"DestTime"`
	TotalTime   string `json:"TotalTime"`
	Seats       []Seat `json:"seats"`
}

// apiResponse is the upstream envelope. The code field is "200" on
// success; anything else is an upstream failure.
type apiResponse struct {
	Code FlexString `json:"code"`
	Text string     `json:"text"`
	Data []Train    `json:"data"`
}

// FlexString decodes a JSON string or number into a string.
// The upstream API is inconsistent about which it sends for codes
// and prices.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	if string(data) == "null" {
		*f = ""
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the decoded value.
func (f FlexString) String() string {
	return string(f)
}
