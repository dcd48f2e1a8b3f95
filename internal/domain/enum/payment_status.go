package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentStatus tracks the payment of an order and of its security deposit
type PaymentStatus int

const (
	PaymentStatusPending  PaymentStatus = 0
	PaymentStatusPartial  PaymentStatus = 1
	PaymentStatusPaid     PaymentStatus = 2
	PaymentStatusRefunded PaymentStatus = 3
)

var paymentStatusNames = [...]string{"PENDING", "PARTIAL", "PAID", "REFUNDED"}

func (s PaymentStatus) String() string {
	if int(s) < 0 || int(s) >= len(paymentStatusNames) {
		return "PENDING"
	}
	return paymentStatusNames[s]
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PaymentStatus(i)
		return nil
	}
	for i, name := range paymentStatusNames {
		if name == str {
			*s = PaymentStatus(i)
			return nil
		}
	}
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	}
	return nil
}
