package service

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fraudscope/fraudscope/internal/domain/model"
	"github.com/fraudscope/fraudscope/internal/domain/valueobject"
)

// amountRule labels amounts strictly greater than Above.
type amountRule struct {
	Above decimal.Decimal
	Level valueobject.RiskLevel
}

// categoryRule labels values contained in Values.
type categoryRule struct {
	Values []string
	Level  valueobject.RiskLevel
}

// Display thresholds. These deliberately do not mirror the encoder weights;
// no location ever labels High.
var (
	amountRules = []amountRule{
		{Above: decimal.NewFromInt(20000), Level: valueobject.RiskLevelHigh},
		{Above: decimal.NewFromInt(5000), Level: valueobject.RiskLevelMedium},
	}

	locationRules = []categoryRule{
		{Values: []string{"Delhi", "Mumbai"}, Level: valueobject.RiskLevelMedium},
		{Values: []string{"Kolkata", "Jaipur"}, Level: valueobject.RiskLevelMedium},
	}

	timeRules = []categoryRule{
		{Values: []string{"Night", "Late Night"}, Level: valueobject.RiskLevelHigh},
		{Values: []string{"Evening"}, Level: valueobject.RiskLevelMedium},
	}

	deviceRules = []categoryRule{
		{Values: []string{"Mobile Android"}, Level: valueobject.RiskLevelMedium},
		{Values: []string{"Tablet"}, Level: valueobject.RiskLevelMedium},
	}
)

// RiskLabeler derives display labels for each transaction attribute.
type RiskLabeler struct{}

// NewRiskLabeler creates a new RiskLabeler instance.
func NewRiskLabeler() *RiskLabeler {
	return &RiskLabeler{}
}

// Label evaluates each dimension independently; within a dimension the first
// matching rule wins and anything unmatched is Low.
func (l *RiskLabeler) Label(tx model.Transaction) model.RiskFactors {
	return model.RiskFactors{
		Amount:   labelAmount(tx.Amount()),
		Location: labelCategory(locationRules, tx.Location()),
		Time:     labelCategory(timeRules, tx.Time()),
		Device:   labelCategory(deviceRules, tx.Device()),
	}
}

func labelAmount(amount decimal.Decimal) valueobject.RiskLevel {
	for _, rule := range amountRules {
		if amount.GreaterThan(rule.Above) {
			return rule.Level
		}
	}
	return valueobject.RiskLevelLow
}

func labelCategory(rules []categoryRule, value string) valueobject.RiskLevel {
	for _, rule := range rules {
		if slices.Contains(rule.Values, value) {
			return rule.Level
		}
	}
	return valueobject.RiskLevelLow
}
