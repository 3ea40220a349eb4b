package fuzz

import (
	"context"
	"testing"

	grpcserver "github.com/Billy-Davies-2/fighter-matchup/internal/grpc"
	"github.com/Billy-Davies-2/fighter-matchup/internal/pubsub"
)

// FuzzGRPCRecommend fuzzes the gRPC Recommend call with arbitrary inputs
func FuzzGRPCRecommend(f *testing.F) {
	f.Add("Legends", "lock_p1:medusa", "Melee", 0.5)
	f.Add("", "generate", "", 0.0)
	f.Add("Wilds", "unlock_opp", "Far", 7.0)

	server := grpcserver.NewServer(newEngine(f), pubsub.New())

	f.Fuzz(func(t *testing.T, set, action, rng string, weight float64) {
		in, err := grpcserver.Encode(map[string]any{
			"owned_sets":      []string{set},
			"action":          action,
			"p1":              map[string]any{"range": rng},
			"fairness_weight": weight,
		})
		if err != nil {
			// NaN and infinities have no JSON form
			return
		}
		_, _ = server.Recommend(context.Background(), in)
	})
}

// FuzzGRPCOpponents fuzzes the gRPC Opponents call
func FuzzGRPCOpponents(f *testing.F) {
	f.Add("king_arthur", "Legends", 3)
	f.Add("", "", 0)
	f.Add("bigfoot", "Legends", -5)

	server := grpcserver.NewServer(newEngine(f), pubsub.New())

	f.Fuzz(func(t *testing.T, fighterID, set string, quantity int) {
		in, err := grpcserver.Encode(map[string]any{
			"fighter_id": fighterID,
			"owned_sets": []string{set},
			"quantity":   quantity,
		})
		if err != nil {
			return
		}
		_, _ = server.Opponents(context.Background(), in)
	})
}

// FuzzGRPCBatch fuzzes the gRPC Batch call
func FuzzGRPCBatch(f *testing.F) {
	f.Add("Legends", "Wilds", 5)
	f.Add("Wilds", "", 1)

	server := grpcserver.NewServer(newEngine(f), pubsub.New())

	f.Fuzz(func(t *testing.T, a, b string, quantity int) {
		in, err := grpcserver.Encode(map[string]any{
			"owned_sets": []string{a, b},
			"quantity":   quantity,
		})
		if err != nil {
			return
		}
		_, _ = server.Batch(context.Background(), in)
	})
}
