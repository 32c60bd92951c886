package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fraudscope/fraudscope/internal/domain/valueobject"
)

// ErrInvalidTransaction is returned when a transaction violates its invariants.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction is the immutable input to a single scoring request.
type Transaction struct {
	amount   decimal.Decimal
	location string
	time     string
	device   string
}

// NewTransaction builds a Transaction, enforcing a strictly positive amount and
// membership of each categorical field in its enumerated set.
func NewTransaction(amount decimal.Decimal, location, timeOfDay, device string) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if !valueobject.IsLocation(location) {
		return Transaction{}, fmt.Errorf("%w: unsupported location %q", ErrInvalidTransaction, location)
	}
	if !valueobject.IsTimeOfDay(timeOfDay) {
		return Transaction{}, fmt.Errorf("%w: unsupported time %q", ErrInvalidTransaction, timeOfDay)
	}
	if !valueobject.IsDevice(device) {
		return Transaction{}, fmt.Errorf("%w: unsupported device %q", ErrInvalidTransaction, device)
	}

	return UncheckedTransaction(amount, location, timeOfDay, device), nil
}

// UncheckedTransaction builds a Transaction without validation. The scoring
// components degrade to defaults for values they do not recognise, so this is
// safe to feed into them.
func UncheckedTransaction(amount decimal.Decimal, location, timeOfDay, device string) Transaction {
	return Transaction{
		amount:   amount,
		location: location,
		time:     timeOfDay,
		device:   device,
	}
}

func (t Transaction) Amount() decimal.Decimal { return t.amount }
func (t Transaction) Location() string        { return t.location }
func (t Transaction) Time() string            { return t.time }
func (t Transaction) Device() string          { return t.device }
