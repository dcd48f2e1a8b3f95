package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// QuoteRequestStatus represents where a quote request is in the sales pipeline
type QuoteRequestStatus int

const (
	QuoteRequestStatusPending   QuoteRequestStatus = 0
	QuoteRequestStatusContacted QuoteRequestStatus = 1
	QuoteRequestStatusQuoted    QuoteRequestStatus = 2
	QuoteRequestStatusAccepted  QuoteRequestStatus = 3
	QuoteRequestStatusConverted QuoteRequestStatus = 4
	QuoteRequestStatusRejected  QuoteRequestStatus = 5
)

var quoteRequestStatusNames = [...]string{"PENDING", "CONTACTED", "QUOTED", "ACCEPTED", "CONVERTED", "REJECTED"}

// QuoteRequestStatuses lists every status in pipeline order
func QuoteRequestStatuses() []QuoteRequestStatus {
	out := make([]QuoteRequestStatus, len(quoteRequestStatusNames))
	for i := range quoteRequestStatusNames {
		out[i] = QuoteRequestStatus(i)
	}
	return out
}

func (s QuoteRequestStatus) String() string {
	if int(s) < 0 || int(s) >= len(quoteRequestStatusNames) {
		return "PENDING"
	}
	return quoteRequestStatusNames[s]
}

// Valid reports whether s is one of the declared statuses
func (s QuoteRequestStatus) Valid() bool {
	return int(s) >= 0 && int(s) < len(quoteRequestStatusNames)
}

// ParseQuoteRequestStatus accepts a status name (any case) or its numeric value
func ParseQuoteRequestStatus(s string) (QuoteRequestStatus, error) {
	for i, name := range quoteRequestStatusNames {
		if strings.EqualFold(name, s) {
			return QuoteRequestStatus(i), nil
		}
	}
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err == nil && QuoteRequestStatus(i).Valid() {
		return QuoteRequestStatus(i), nil
	}
	return QuoteRequestStatusPending, fmt.Errorf("unknown quote request status %q", s)
}

func (s QuoteRequestStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *QuoteRequestStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = QuoteRequestStatus(i)
		return nil
	}
	parsed, err := ParseQuoteRequestStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s QuoteRequestStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *QuoteRequestStatus) Scan(value interface{}) error {
	if value == nil {
		*s = QuoteRequestStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = QuoteRequestStatus(v)
	case int:
		*s = QuoteRequestStatus(v)
	}
	return nil
}
