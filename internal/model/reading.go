package model

// Reading is one text candidate returned by the recognizer for a crop.
type Reading struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
