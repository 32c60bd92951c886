package valueobject

import "slices"

// Enumerated transaction attributes accepted at the service boundary.
var (
	Locations = []string{
		"Mumbai", "Delhi", "Bangalore", "Hyderabad", "Chennai",
		"Kolkata", "Pune", "Ahmedabad", "Jaipur",
	}

	TimesOfDay = []string{
		"Morning", "Afternoon", "Evening", "Night", "Late Night",
	}

	Devices = []string{
		"Mobile Android", "Mobile iOS", "Desktop Windows", "Desktop Mac", "Tablet",
	}
)

// IsLocation reports whether s is a supported city.
func IsLocation(s string) bool { return slices.Contains(Locations, s) }

// IsTimeOfDay reports whether s is a supported day-part label.
func IsTimeOfDay(s string) bool { return slices.Contains(TimesOfDay, s) }

// IsDevice reports whether s is a supported device class.
func IsDevice(s string) bool { return slices.Contains(Devices, s) }
