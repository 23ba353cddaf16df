package embed

import (
	"fmt"
	"sort"

	"github.com/pvsignal/engine/internal/models"
)

// unionFind is a deterministic union-find keyed by event ID, used so the
// agglomeration order never depends on map iteration order.
type unionFind struct {
	parent map[string]string
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(ids))}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(x string) string {
	for uf.parent[x] != x {
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	// Lexicographically smaller root wins, keeping component identity
	// reproducible regardless of merge order.
	if ra < rb {
		uf.parent[rb] = ra
	} else {
		uf.parent[ra] = rb
	}
}

// Cluster groups near-duplicate events by agglomerative single-linkage
// clustering: connect events whose cosine similarity clears mergeThreshold
// (via connected components over the threshold graph), then split any
// resulting cluster whose mean intra-cluster cosine (cohesion) falls below
// minCohesion back into singletons, guarding against chained merges.
func Cluster(events []models.Event, vectors map[string][]float64, mergeThreshold, minCohesion float64) []models.EventCluster {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.EventID)
	}
	sort.Strings(ids)

	type pair struct {
		a, b string
		sim  float64
	}
	var edges []pair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			sim := CosineSimilarity(vectors[ids[i]], vectors[ids[j]])
			if sim >= mergeThreshold {
				edges = append(edges, pair{ids[i], ids[j], sim})
			}
		}
	}
	// Process strongest similarities first, ties broken lexicographically,
	// so the resulting components are independent of map/slice ordering.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].sim != edges[j].sim {
			return edges[i].sim > edges[j].sim
		}
		if edges[i].a != edges[j].a {
			return edges[i].a < edges[j].a
		}
		return edges[i].b < edges[j].b
	})

	uf := newUnionFind(ids)
	for _, e := range edges {
		uf.union(e.a, e.b)
	}

	members := make(map[string][]string) // root -> member event IDs
	for _, id := range ids {
		root := uf.find(id)
		members[root] = append(members[root], id)
	}

	var out []models.EventCluster
	clusterSeq := 0
	for _, root := range sortedRoots(members) {
		group := members[root]
		sort.Strings(group)

		if len(group) == 1 {
			out = append(out, models.EventCluster{
				EventID:               group[0],
				ClusterID:             group[0],
				RepresentativeEventID: group[0],
				Cohesion:              1.0,
			})
			continue
		}

		cohesion := meanPairwiseCosine(group, vectors)
		if cohesion < minCohesion {
			for _, id := range group {
				out = append(out, models.EventCluster{
					EventID:               id,
					ClusterID:             id,
					RepresentativeEventID: id,
					Cohesion:              1.0,
				})
			}
			continue
		}

		clusterID := fmt.Sprintf("cluster:%d", clusterSeq)
		clusterSeq++
		rep := group[0] // lexicographically smallest, deterministic
		for _, id := range group {
			out = append(out, models.EventCluster{
				EventID:               id,
				ClusterID:             clusterID,
				RepresentativeEventID: rep,
				Cohesion:              cohesion,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

func sortedRoots(members map[string][]string) []string {
	roots := make([]string, 0, len(members))
	for r := range members {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	return roots
}

func meanPairwiseCosine(group []string, vectors map[string][]float64) float64 {
	if len(group) < 2 {
		return 1.0
	}
	var sum float64
	var n int
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			sum += CosineSimilarity(vectors[group[i]], vectors[group[j]])
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}
