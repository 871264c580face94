package checker

import (
	"math/rand/v2"

	"github.com/use-agent/linkguard/models"
)

// SelectLinks picks the followed links for a run. The origin always
// consumes one of the limit's slots, so at most limit-1 candidates are
// kept. With OrderRandom the candidates are uniformly shuffled before
// truncation; with OrderFirstN discovery order is preserved. The input
// slice is never mutated.
func SelectLinks(links []models.LinkCandidate, limit int, order models.LinkOrder) []models.LinkCandidate {
	keep := limit - 1
	if keep < 0 {
		keep = 0
	}

	out := make([]models.LinkCandidate, len(links))
	copy(out, links)

	if order == models.OrderRandom {
		rand.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}

	if len(out) > keep {
		out = out[:keep]
	}
	return out
}
