package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx/types"
)

// jsonListValue encodes a JSONB list column. A nil list is stored as [].
func jsonListValue(v interface{}, isNil bool) (driver.Value, error) {
	if isNil {
		return types.JSONText(`[]`).Value()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return types.JSONText(raw).Value()
}

// scanJSONList decodes a JSONB list column into dest. NULL leaves dest untouched.
func scanJSONList(src interface{}, dest interface{}) error {
	if src == nil {
		return nil
	}
	var raw types.JSONText
	if err := raw.Scan(src); err != nil {
		return fmt.Errorf("scan jsonb: %w", err)
	}
	return raw.Unmarshal(dest)
}
