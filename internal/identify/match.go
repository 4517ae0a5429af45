package identify

import "encoding/json"

// Verdict labels for Match results.
const (
	VerdictLikelyAccurate      = "likely_accurate"
	VerdictPotentialInaccurate = "potential_inaccurate"
)

// Match is the outcome of an identification. Similarity always reports the
// best score found, even when no entry cleared the threshold.
type Match struct {
	Entity     string
	Similarity float64
	Matched    bool
	Verdict    string
}

// MarshalJSON renders the wire shape: entity is null when nothing matched.
func (m Match) MarshalJSON() ([]byte, error) {
	payload := struct {
		Entity     *string `json:"entity"`
		Similarity float64 `json:"similarity"`
		Verdict    string  `json:"verdict"`
	}{
		Similarity: m.Similarity,
		Verdict:    m.Verdict,
	}
	if m.Matched {
		payload.Entity = &m.Entity
	}
	return json.Marshal(payload)
}

func newMatch(entity string, similarity float64, threshold float64) Match {
	m := Match{Similarity: similarity}
	if similarity >= threshold {
		m.Entity = entity
		m.Matched = true
		m.Verdict = VerdictLikelyAccurate
	} else {
		m.Verdict = VerdictPotentialInaccurate
	}
	return m
}
