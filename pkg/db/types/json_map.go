package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores free-form attributes (dimensions, metadata) as JSON.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	buf, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (m *JSONMap) Scan(src any) error {
	raw, err := rawBytes(src)
	if err != nil {
		return fmt.Errorf("JSONMap: %w", err)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	result := make(JSONMap)
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("JSONMap: %w", err)
	}
	*m = result
	return nil
}
