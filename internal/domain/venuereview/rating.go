package venuereviews

const (
	MinScore = 1
	MaxScore = 10
)

// Rating holds the four sub-scores of a review. A zero sub-score is unset.
type Rating struct {
	Service    int     `json:"service"`
	Ambience   int     `json:"ambience"`
	Value      int     `json:"value"`
	Experience int     `json:"experience"`
	Average    float64 `json:"average"`
}

func (r Rating) Scores() [4]int {
	return [4]int{r.Service, r.Ambience, r.Value, r.Experience}
}

// ComputeAverage is the mean of the set sub-scores, or zero when none is set.
func (r Rating) ComputeAverage() float64 {
	sum, n := 0, 0
	for _, s := range r.Scores() {
		if s != 0 {
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// WithAverage returns r with Average derived from the sub-scores.
func (r Rating) WithAverage() Rating {
	r.Average = r.ComputeAverage()
	return r
}

// InRange reports whether a single sub-score is a valid rating.
func InRange(score int) bool {
	return score >= MinScore && score <= MaxScore
}
