package normalize

import "GeoTradeAI/internal/domain"

// unionFind keeps duplicate merging symmetric and transitively closed:
// if A~B and B~C, all three land in one cluster.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// clusterDuplicates groups article indices whose fingerprints match or whose
// title similarity meets the threshold. Clusters preserve input order.
func clusterDuplicates(articles []domain.NormalizedArticle, threshold float64) [][]int {
	uf := newUnionFind(len(articles))
	tokens := make([]map[string]struct{}, len(articles))
	for i, a := range articles {
		tokens[i] = titleTokens(a.Title)
	}

	for i := 0; i < len(articles); i++ {
		for j := i + 1; j < len(articles); j++ {
			if articles[i].Fingerprint == articles[j].Fingerprint ||
				jaccard(tokens[i], tokens[j]) >= threshold {
				uf.union(i, j)
			}
		}
	}

	order := make([]int, 0)
	byRoot := map[int][]int{}
	for i := range articles {
		root := uf.find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	clusters := make([][]int, 0, len(order))
	for _, root := range order {
		clusters = append(clusters, byRoot[root])
	}
	return clusters
}

// jaccard measures token overlap between two title token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
