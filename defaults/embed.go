// Package defaults carries the field definitions used before the backend has
// ever answered.
package defaults

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/designcomb/influenter/client/internal/types"
)

//go:embed system_fields.json
var systemFieldsJSON []byte

// SystemFields returns a fresh copy of the embedded system field definitions.
func SystemFields() ([]types.CaseField, error) {
	var fields []types.CaseField
	if err := json.Unmarshal(systemFieldsJSON, &fields); err != nil {
		return nil, fmt.Errorf("embedded system fields: %w", err)
	}
	return fields, nil
}
