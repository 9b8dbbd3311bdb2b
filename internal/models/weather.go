package models

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// WeatherObservation is the subset of provider data used for rain inference.
// Optional readings are nil when the provider did not report them.
type WeatherObservation struct {
	ConditionMain        string `json:"condition_main"`
	ConditionDescription string `json:"condition_description"`
	CloudCoveragePercent *int   `json:"cloud_coverage_percent,omitempty"`
	HumidityPercent      *int   `json:"humidity_percent,omitempty"`
}

type RainCheckResponse struct {
	RainPercentage string `json:"rain_percentage"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
