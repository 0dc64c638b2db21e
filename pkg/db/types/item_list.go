package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Item is a single belonging a visitor carries through the gate. The type
// field is free text at the storage layer; the UI offers personal, company,
// supply and other.
type Item struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
}

// ItemList stores the ordered item sequence of a visit as a JSON column.
type ItemList []Item

// Value marshals the list for the driver. An empty list is stored as [] so
// the NOT NULL default on the column holds.
func (l ItemList) Value() (driver.Value, error) {
	if l == nil {
		l = ItemList{}
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("items: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the JSON column back into the list.
func (l *ItemList) Scan(value interface{}) error {
	if value == nil {
		*l = ItemList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("items: unsupported scan type %T", value)
	}

	if len(raw) == 0 {
		*l = ItemList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}
