package model

import "github.com/fraudscope/fraudscope/internal/domain/valueobject"

// RiskFactors holds one label per transaction attribute. Field order is the
// serialisation order.
type RiskFactors struct {
	Amount   valueobject.RiskLevel `json:"amount"`
	Location valueobject.RiskLevel `json:"location"`
	Time     valueobject.RiskLevel `json:"time"`
	Device   valueobject.RiskLevel `json:"device"`
}

// Map returns the labels keyed by attribute name.
func (f RiskFactors) Map() map[string]string {
	return map[string]string{
		"amount":   f.Amount.String(),
		"location": f.Location.String(),
		"time":     f.Time.String(),
		"device":   f.Device.String(),
	}
}
