package fraud

import (
	"context"

	"upiswitch/internal/clients/forensic"
	"upiswitch/internal/models"
	"upiswitch/internal/repositories/cache"
)

// Service is the fraud decision pipeline consumed by the router.
type Service interface {
	Score(ctx context.Context, req *models.PaymentRequest) (Verdict, error)
	BlockMuleRing(ctx context.Context, sourceID, targetID string) error
}

// BlocklistStore is the suspicious-entity lookup used by the rule stage.
type BlocklistStore interface {
	FindByEntityValue(ctx context.Context, value string) (*models.SuspiciousEntity, error)
}

// GraphStore reads the user relationship graph.
type GraphStore interface {
	Subgraph(ctx context.Context, userID string) ([]int64, error)
	NodeID(ctx context.Context, userID string) (int64, error)
	Accomplices(ctx context.Context, userID string) ([]string, error)
}

// FeatureCache serves per-user fraud features and profile context.
type FeatureCache interface {
	Features(ctx context.Context, userID string) [2]float32
	Profile(ctx context.Context, userID string) cache.UserProfile
}

// GraphModel scores a local subgraph.
type GraphModel interface {
	Score(ctx context.Context, features []float32, numNodes int, edges []int64) (float64, error)
}

// PolicyModel maps a 4-float state vector to per-action logits.
type PolicyModel interface {
	Logits(ctx context.Context, state [4]float32) ([]float64, error)
}

// ForensicNotifier triggers forensic investigation reports.
type ForensicNotifier interface {
	GenerateReport(ctx context.Context, report forensic.ReportRequest) error
}

// AccessBlocker marks account devices untrusted at the gateway.
type AccessBlocker interface {
	BlockUsers(ctx context.Context, userIDs []string, reason string) error
}
