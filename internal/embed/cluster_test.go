package embed

import (
	"testing"

	"github.com/pvsignal/engine/internal/models"
	"github.com/stretchr/testify/require"
)

func TestClusterGroupsSimilarVectors(t *testing.T) {
	events := []models.Event{{EventID: "E1"}, {EventID: "E2"}, {EventID: "E3"}}
	vectors := map[string][]float64{
		"E1": {1, 0, 0},
		"E2": {0.99, 0.01, 0},
		"E3": {0, 0, 1},
	}
	clusters := Cluster(events, vectors, 0.85, 0.7)

	byID := make(map[string]models.EventCluster)
	for _, c := range clusters {
		byID[c.EventID] = c
	}
	require.Equal(t, byID["E1"].ClusterID, byID["E2"].ClusterID)
	require.NotEqual(t, byID["E1"].ClusterID, byID["E3"].ClusterID)
	require.Equal(t, "E3", byID["E3"].ClusterID, "singleton clusters retain cluster_id == event_id")
}

func TestClusterDeterministicAcrossRuns(t *testing.T) {
	events := []models.Event{{EventID: "E1"}, {EventID: "E2"}, {EventID: "E3"}, {EventID: "E4"}}
	vectors := map[string][]float64{
		"E1": {1, 0},
		"E2": {0.9, 0.1},
		"E3": {0.95, 0.05},
		"E4": {-1, 0},
	}
	a := Cluster(events, vectors, 0.8, 0.5)
	b := Cluster(events, vectors, 0.8, 0.5)
	require.Equal(t, a, b)
}

func TestClusterSplitsLowCohesionChain(t *testing.T) {
	// E1~E2 and E2~E3 both clear the merge threshold but E1 and E3 are far
	// apart, so single-linkage would chain all three together with poor
	// cohesion; the guard must split them back into singletons.
	events := []models.Event{{EventID: "E1"}, {EventID: "E2"}, {EventID: "E3"}}
	vectors := map[string][]float64{
		"E1": {1, 0},
		"E2": {0.86, 0.51},
		"E3": {0.5, 0.866},
	}
	clusters := Cluster(events, vectors, 0.85, 0.9)
	for _, c := range clusters {
		require.Equal(t, c.EventID, c.ClusterID, "low-cohesion merges must split back to singletons")
	}
}
