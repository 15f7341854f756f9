package jsonb

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Map is a free-form JSON object stored in a jsonb column.
type Map map[string]interface{}

// Value implements driver.Valuer.
func (m Map) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Map) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Map{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonb: cannot scan %T", src)
	}
	out := Map{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// Merge copies every key of src into m, allocating m if needed.
func (m *Map) Merge(src map[string]interface{}) {
	if *m == nil {
		*m = Map{}
	}
	for k, v := range src {
		(*m)[k] = v
	}
}
