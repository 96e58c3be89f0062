package srs

import "fmt"

// Quality is a 0-5 self-assessment of how well an item was recalled.
type Quality int

const (
	Blackout          Quality = iota // Complete failure to recall.
	Incorrect                        // Wrong, but remembered once the answer was shown.
	IncorrectFamiliar                // Wrong, but the answer felt familiar.
	CorrectDifficult                 // Correct with serious difficulty.
	CorrectHesitant                  // Correct after some hesitation.
	Perfect                          // Instant, perfect recall.
)

// PassingQuality is the lowest quality that counts as a successful recall.
const PassingQuality = CorrectDifficult

var qualityNames = [...]string{
	Blackout:          "Blackout",
	Incorrect:         "Incorrect",
	IncorrectFamiliar: "IncorrectFamiliar",
	CorrectDifficult:  "CorrectDifficult",
	CorrectHesitant:   "CorrectHesitant",
	Perfect:           "Perfect",
}

// Qualities lists every valid quality in ascending order.
var Qualities = []Quality{Blackout, Incorrect, IncorrectFamiliar, CorrectDifficult, CorrectHesitant, Perfect}

var _ fmt.Stringer = Quality(0)

// String returns the quality name, or "Quality(n)" for out-of-range values.
func (q Quality) String() string {
	if q.IsValid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// IsValid reports whether q is within [Blackout, Perfect].
func (q Quality) IsValid() bool {
	return q >= Blackout && q <= Perfect
}

// Passed reports whether q is a successful recall (q >= PassingQuality).
func (q Quality) Passed() bool {
	return q >= PassingQuality
}

// Response is one recall observation for an item.
type Response struct {
	Quality Quality `json:"quality"`
}
