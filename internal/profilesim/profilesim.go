// Package profilesim backs compareAgents' cluster output: a qdrant-indexed
// store of agents' normalized axis vectors plus a local k-means pass, in the
// storage.Storage + collection-as-index idiom the teacher uses for memory
// embeddings, applied here to 15-dimensional moral-profile vectors instead
// of text embeddings.
package profilesim

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// AxisVectorDim is the fixed dimensionality of a profile vector: one
// component per axis (12 core + 3 optional memory axes), each holding the
// fitted RLTM threshold b normalized to [-1, 1] (0.5 subtracted, doubled).
const AxisVectorDim = 15

// Store indexes agent profile vectors in qdrant for nearest-neighbour
// lookup.
type Store struct {
	client     *qdrant.Client
	collection string
}

// NewStore connects to qdrant and ensures the profile-vector collection
// exists, mirroring memory.Storage's ensureCollection sequence.
func NewStore(addr, collection, apiKey string) (*Store, error) {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	host := addr
	if idx := strings.Index(addr, ":"); idx != -1 {
		host = addr[:idx]
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: 6334, APIKey: apiKey, UseTLS: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &Store{client: client, collection: collection}
	if err := s.ensureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection existence: %w", err)
	}
	if exists {
		return nil
	}
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     AxisVectorDim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// Upsert indexes one agent's current profile vector, replacing any prior one.
func (s *Store) Upsert(ctx context.Context, agentID string, vector []float32) error {
	if len(vector) != AxisVectorDim {
		return fmt.Errorf("profilesim: vector has %d dims, want %d", len(vector), AxisVectorDim)
	}
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(stableUint64(agentID)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]any{"agent_id": agentID}),
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	return err
}

// Neighbor is one nearest-neighbour candidate.
type Neighbor struct {
	AgentID string
	Score   float32
}

// NearestNeighbors finds the agents with the most similar profile vector.
// CompareAgents does not call it; its k-means runs over every compared
// agent.
func (s *Store) NearestNeighbors(ctx context.Context, vector []float32, limit uint64) ([]Neighbor, error) {
	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("profilesim query: %w", err)
	}
	out := make([]Neighbor, 0, len(result))
	for _, point := range result {
		agentID := ""
		if v, ok := point.Payload["agent_id"]; ok {
			agentID = v.GetStringValue()
		}
		out = append(out, Neighbor{AgentID: agentID, Score: point.Score})
	}
	return out, nil
}

// stableUint64 derives a deterministic numeric point ID from an agent ID
// string (qdrant point IDs are UUID or uint64; agent IDs here are opaque
// strings, so they're hashed rather than parsed).
func stableUint64(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// Cluster is one k-means cluster over agent profile vectors.
type Cluster struct {
	Centroid []float64
	Members  []string
}

// KMeans clusters the given agent->vector map into k clusters using
// Lloyd's algorithm with deterministic (sorted-key) initial centroids so
// compareAgents is reproducible for a fixed input set.
func KMeans(vectors map[string][]float64, k, iterations int) []Cluster {
	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if k <= 0 || len(ids) == 0 {
		return nil
	}
	if k > len(ids) {
		k = len(ids)
	}

	dim := len(vectors[ids[0]])
	centroids := make([][]float64, k)
	step := len(ids) / k
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[ids[i*step]]...)
	}

	assignment := make(map[string]int, len(ids))
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for _, id := range ids {
			best, bestDist := 0, distance(vectors[id], centroids[0])
			for c := 1; c < k; c++ {
				d := distance(vectors[id], centroids[c])
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignment[id] != best {
				changed = true
			}
			assignment[id] = best
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for _, id := range ids {
			c := assignment[id]
			counts[c]++
			for d := 0; d < dim; d++ {
				sums[c][d] += vectors[id][d]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
		if !changed && iter > 0 {
			break
		}
	}

	clusters := make([]Cluster, k)
	for c := 0; c < k; c++ {
		clusters[c] = Cluster{Centroid: centroids[c]}
	}
	for _, id := range ids {
		c := assignment[id]
		clusters[c].Members = append(clusters[c].Members, id)
	}
	return clusters
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
