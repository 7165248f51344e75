package dashboard

import (
	"fmt"
	"sort"

	"stockgrid/internal/domain"
	"stockgrid/internal/grid"
)

// Activity tiers by turnover rank.
const (
	TierActive   = "ACTIVE"
	TierModerate = "MODERATE"
	TierSporadic = "SPORADIC"
)

var tierRank = map[string]int{TierActive: 0, TierModerate: 1, TierSporadic: 2}

// AssignTiers ranks quotes by turnover and returns symbol→tier: the top
// 10% are ACTIVE, the next 30% MODERATE and the rest SPORADIC.
func AssignTiers(quotes []domain.Quote) map[string]string {
	idx := make([]int, len(quotes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return quotes[idx[a]].Turnover > quotes[idx[b]].Turnover
	})

	n := len(quotes)
	active := (n + 9) / 10
	moderate := active + (3*n+9)/10

	tiers := make(map[string]string, n)
	for rank, i := range idx {
		switch {
		case rank < active:
			tiers[quotes[i].Symbol] = TierActive
		case rank < moderate:
			tiers[quotes[i].Symbol] = TierModerate
		default:
			tiers[quotes[i].Symbol] = TierSporadic
		}
	}
	return tiers
}

// TierCounts returns how many symbols fall in each tier.
func TierCounts(tiers map[string]string) map[string]int {
	counts := map[string]int{TierActive: 0, TierModerate: 0, TierSporadic: 0}
	for _, t := range tiers {
		counts[t]++
	}
	return counts
}

// TierComparator orders rows by tier rank rather than alphabetically.
// Unknown tier names are an error.
func TierComparator(dataIndex string) grid.Comparator {
	return grid.CompareFunc(func(a, b grid.Record) (int, error) {
		ra, err := rankOf(a[dataIndex])
		if err != nil {
			return 0, err
		}
		rb, err := rankOf(b[dataIndex])
		if err != nil {
			return 0, err
		}
		return ra - rb, nil
	})
}

func rankOf(v any) (int, error) {
	s, _ := v.(string)
	if s == "" {
		return len(tierRank), nil
	}
	r, ok := tierRank[s]
	if !ok {
		return 0, fmt.Errorf("unknown tier %q", s)
	}
	return r, nil
}
