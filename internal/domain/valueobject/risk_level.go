package valueobject

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the coarse label shown next to each transaction attribute.
// It is independent of the numeric fraud score.
type RiskLevel struct {
	value string
}

var (
	RiskLevelLow    = RiskLevel{value: "Low"}
	RiskLevelMedium = RiskLevel{value: "Medium"}
	RiskLevelHigh   = RiskLevel{value: "High"}
)

// RiskLevelFromString reconstructs a RiskLevel from its string representation.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch s {
	case "Low":
		return RiskLevelLow, nil
	case "Medium":
		return RiskLevelMedium, nil
	case "High":
		return RiskLevelHigh, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %q", s)
	}
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return r.value
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}

// MarshalJSON encodes the level as its label.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

// UnmarshalJSON decodes a label produced by MarshalJSON.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, err := RiskLevelFromString(s)
	if err != nil {
		return err
	}
	*r = level
	return nil
}
