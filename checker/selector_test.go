package checker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/linkguard/models"
)

func TestSelectLinksFirstNPreservesOrder(t *testing.T) {
	links := candidates("https://a", "https://b", "https://c", "https://d")

	out := SelectLinks(links, 4, models.OrderFirstN)

	require.Len(t, out, 3)
	assert.Equal(t, "https://a", out[0].TargetURI)
	assert.Equal(t, "https://b", out[1].TargetURI)
	assert.Equal(t, "https://c", out[2].TargetURI)
}

func TestSelectLinksTruncation(t *testing.T) {
	tests := []struct {
		name  string
		links int
		limit int
		want  int
	}{
		{"fewer links than slots", 2, 10, 2},
		{"exactly filling slots", 9, 10, 9},
		{"more links than slots", 20, 10, 9},
		{"limit one leaves nothing", 5, 1, 0},
		{"no links", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := make([]models.LinkCandidate, tt.links)
			for i := range links {
				links[i].TargetURI = fmt.Sprintf("https://example.com/%d", i)
			}
			out := SelectLinks(links, tt.limit, models.OrderFirstN)
			assert.Len(t, out, tt.want)
		})
	}
}

func TestSelectLinksDoesNotMutateInput(t *testing.T) {
	links := candidates("https://a", "https://b", "https://c", "https://d", "https://e")
	before := make([]models.LinkCandidate, len(links))
	copy(before, links)

	for i := 0; i < 50; i++ {
		SelectLinks(links, 3, models.OrderRandom)
	}
	assert.Equal(t, before, links)
}

func TestSelectLinksRandomKeepsOnlyDiscoveredLinks(t *testing.T) {
	links := candidates("https://a", "https://b", "https://c", "https://d", "https://e")
	valid := map[string]bool{}
	for _, l := range links {
		valid[l.TargetURI] = true
	}

	out := SelectLinks(links, 4, models.OrderRandom)
	require.Len(t, out, 3)
	seen := map[string]bool{}
	for _, l := range out {
		assert.True(t, valid[l.TargetURI])
		assert.False(t, seen[l.TargetURI], "duplicate selection %s", l.TargetURI)
		seen[l.TargetURI] = true
	}
}

func TestSelectLinksRandomEventuallyVariesOrder(t *testing.T) {
	links := candidates("https://a", "https://b", "https://c", "https://d", "https://e", "https://f")

	// With 6 candidates the probability of 100 consecutive identity
	// shuffles is (1/720)^100; a flake here means the shuffle is broken.
	varied := false
	for i := 0; i < 100; i++ {
		out := SelectLinks(links, len(links)+1, models.OrderRandom)
		require.Len(t, out, len(links))
		for j := range out {
			if out[j].TargetURI != links[j].TargetURI {
				varied = true
				break
			}
		}
		if varied {
			break
		}
	}
	assert.True(t, varied, "random order never deviated from discovery order")
}
