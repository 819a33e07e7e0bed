package ndvi

// Status is the qualitative reading of a health score
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusModerate  Status = "moderate"
	StatusPoor      Status = "poor"
)

// Score thresholds, each compared with a strict greater-than
const (
	ThresholdExcellent = 70.0
	ThresholdGood      = 50.0
	ThresholdModerate  = 30.0
)

// Health is the weighted crop health assessment of an area
type Health struct {
	Score           float64 `json:"score"`
	Status          Status  `json:"status"`
	Dominant        string  `json:"dominant_class"`
	DominantPercent float64 `json:"dominant_percent"`
}

// StatusFor maps a score in [0,100] to its status
func StatusFor(score float64) Status {
	switch {
	case score > ThresholdExcellent:
		return StatusExcellent
	case score > ThresholdGood:
		return StatusGood
	case score > ThresholdModerate:
		return StatusModerate
	default:
		return StatusPoor
	}
}

// ScoreHealth computes the weight x percentage sum over the scheme and the dominant class.
// Ties for the dominant class go to the class that comes first in the scheme.
func ScoreHealth(p ClassPercentages, s Scheme) (Health, error) {
	if !p.HasValidData() {
		return Health{}, ErrNoValidData
	}

	var h Health
	for i, class := range s.bands() {
		pct := p.Get(class.Label)
		h.Score += class.Weight * pct
		if i == 0 || pct > h.DominantPercent {
			h.Dominant = class.Label
			h.DominantPercent = pct
		}
	}
	h.Score = clamp(h.Score, 0, 100)
	h.Status = StatusFor(h.Score)
	return h, nil
}
