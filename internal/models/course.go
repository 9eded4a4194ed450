package models

// Institution is a campus offering courses.
type Institution struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// Course is a programme in the catalog.
type Course struct {
	ID             string  `json:"id"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Department     string  `json:"department"`
	DurationMonths int     `json:"durationMonths"`
	Fee            float64 `json:"fee"`
	InstitutionID  string  `json:"institutionId"`
}
