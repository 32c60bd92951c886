package service

// Dimension identifies a categorical transaction attribute.
type Dimension string

const (
	DimensionLocation Dimension = "location"
	DimensionTime     Dimension = "time"
	DimensionDevice   Dimension = "device"
)

// DefaultRiskWeight applies to any category missing from its table,
// including an absent (empty) value.
const DefaultRiskWeight = 0.5

var riskWeights = map[Dimension]map[string]float64{
	DimensionLocation: {
		"Mumbai":    0.2,
		"Delhi":     0.3,
		"Bangalore": 0.1,
		"Hyderabad": 0.15,
		"Chennai":   0.2,
		"Kolkata":   0.25,
		"Pune":      0.1,
		"Ahmedabad": 0.2,
		"Jaipur":    0.3,
	},
	DimensionTime: {
		"Morning":    0.1,
		"Afternoon":  0.2,
		"Evening":    0.3,
		"Night":      0.6,
		"Late Night": 0.8,
	},
	DimensionDevice: {
		"Mobile Android":  0.3,
		"Mobile iOS":      0.2,
		"Desktop Windows": 0.15,
		"Desktop Mac":     0.1,
		"Tablet":          0.25,
	},
}

// Encode maps a category value to the model weight for its dimension. It never
// fails: unknown dimensions and values fall back to DefaultRiskWeight.
func Encode(dim Dimension, value string) float64 {
	if w, ok := riskWeights[dim][value]; ok {
		return w
	}
	return DefaultRiskWeight
}

// LocationRisk returns the model weight for a city.
func LocationRisk(location string) float64 { return Encode(DimensionLocation, location) }

// TimeRisk returns the model weight for a day-part.
func TimeRisk(timeOfDay string) float64 { return Encode(DimensionTime, timeOfDay) }

// DeviceRisk returns the model weight for a device class.
func DeviceRisk(device string) float64 { return Encode(DimensionDevice, device) }
