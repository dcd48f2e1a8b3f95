package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ItemKind tells the pricing engine how a line item is priced and costed
type ItemKind int

const (
	ItemKindProduct    ItemKind = 0
	ItemKindPersonnel  ItemKind = 1
	ItemKindConsumable ItemKind = 2
)

var itemKindNames = [...]string{"Product", "Personnel", "Consumable"}

func (k ItemKind) String() string {
	if int(k) < 0 || int(k) >= len(itemKindNames) {
		return "Product"
	}
	return itemKindNames[k]
}

// Valid reports whether k is one of the declared kinds
func (k ItemKind) Valid() bool {
	return int(k) >= 0 && int(k) < len(itemKindNames)
}

// ParseItemKind parses a kind name, case-insensitive
func ParseItemKind(s string) (ItemKind, error) {
	for i, name := range itemKindNames {
		if strings.EqualFold(name, s) {
			return ItemKind(i), nil
		}
	}
	return ItemKindProduct, fmt.Errorf("unknown item kind %q", s)
}

func (k ItemKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ItemKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !ItemKind(i).Valid() {
			return fmt.Errorf("unknown item kind %d", i)
		}
		*k = ItemKind(i)
		return nil
	}
	parsed, err := ParseItemKind(str)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k ItemKind) Value() (driver.Value, error) {
	return int64(k), nil
}

func (k *ItemKind) Scan(value interface{}) error {
	if value == nil {
		*k = ItemKindProduct
		return nil
	}
	var kind ItemKind
	switch v := value.(type) {
	case int64:
		kind = ItemKind(v)
	case int:
		kind = ItemKind(v)
	default:
		return fmt.Errorf("cannot scan %T into ItemKind", value)
	}
	if !kind.Valid() {
		return fmt.Errorf("unknown item kind %d", kind)
	}
	*k = kind
	return nil
}
