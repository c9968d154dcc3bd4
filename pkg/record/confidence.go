package record

// Confidence is a coarse label for how strongly a source points at the target.
// A nil *Confidence means there was not enough signal to say anything.
type Confidence string

const (
	ConfidenceExtremelyLow  Confidence = "extremely_low"
	ConfidenceVeryLow       Confidence = "very_low"
	ConfidenceLow           Confidence = "low"
	ConfidenceOkay          Confidence = "okay"
	ConfidenceLittleHigh    Confidence = "little_high"
	ConfidenceVeryHigh      Confidence = "very_high"
	ConfidenceExtremelyHigh Confidence = "extremely_high"
)

// ConfidenceFromPercent maps a 0-100 percentage to its label.
func ConfidenceFromPercent(percent float64) *Confidence {
	var c Confidence
	switch {
	case percent >= 100:
		c = ConfidenceExtremelyHigh
	case percent >= 80:
		c = ConfidenceVeryHigh
	case percent >= 60:
		c = ConfidenceLittleHigh
	case percent >= 40:
		c = ConfidenceOkay
	case percent >= 20:
		c = ConfidenceLow
	case percent >= 10:
		c = ConfidenceVeryLow
	default:
		c = ConfidenceExtremelyLow
	}
	return &c
}
