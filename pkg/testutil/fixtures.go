package testutil

import "fmt"

// TransactionJSON renders a transaction the way clients send it.
func TransactionJSON(amount, location, timeOfDay, device string) []byte {
	return []byte(fmt.Sprintf(
		`{"amount": %s, "location": %q, "time": %q, "device": %q}`,
		amount, location, timeOfDay, device,
	))
}
