// Package fraud implements the layered risk-scoring pipeline: an
// authoritative blocklist stage, a graph-risk inference stage and a policy
// decision stage. The rule stage fails closed; the inference stages fail
// open toward availability, because an unavailable model must never become a
// denial of service for legitimate payments.
package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"upiswitch/internal/clients/forensic"
	"upiswitch/internal/models"
	"upiswitch/internal/repositories/cache"
	"upiswitch/internal/utils"
)

// ServiceConfig wires the pipeline's collaborators. Blocklist is required;
// every other dependency is optional and its stage degrades per the
// documented fallback when absent.
type ServiceConfig struct {
	Blocklist   BlocklistStore
	Graph       GraphStore
	Features    FeatureCache
	GraphModel  GraphModel
	PolicyModel PolicyModel
	Forensic    ForensicNotifier
	Access      AccessBlocker

	ForensicTimeout time.Duration
}

type service struct {
	blocklist   BlocklistStore
	graph       GraphStore
	features    FeatureCache
	graphModel  GraphModel
	policyModel PolicyModel
	forensic    ForensicNotifier
	access      AccessBlocker

	forensicTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewService creates the fraud decision pipeline.
func NewService(cfg ServiceConfig) Service {
	if cfg.Blocklist == nil {
		panic("blocklist store is required")
	}
	if cfg.ForensicTimeout <= 0 {
		cfg.ForensicTimeout = 15 * time.Second
	}
	return &service{
		blocklist:       cfg.Blocklist,
		graph:           cfg.Graph,
		features:        cfg.Features,
		graphModel:      cfg.GraphModel,
		policyModel:     cfg.PolicyModel,
		forensic:        cfg.Forensic,
		access:          cfg.Access,
		forensicTimeout: cfg.ForensicTimeout,
		logger:          slog.With("component", "fraud_pipeline"),
		now:             time.Now,
	}
}

// Score runs the pipeline for a payment intent.
func (s *service) Score(ctx context.Context, req *models.PaymentRequest) (Verdict, error) {
	if req == nil {
		return Verdict{Score: allowScore, Action: ActionAllow, Stage: StageRules}, nil
	}
	log := s.logger.With("txn_id", req.TxnID, "payer", utils.MaskVPA(req.PayerVPA))

	// Stage 1: blocklist. Authoritative and fail-closed.
	if req.FraudCheck != nil {
		for _, value := range []string{req.FraudCheck.IPAddress, req.FraudCheck.DeviceID} {
			blocked, err := s.isEntityBlocked(ctx, value)
			if err != nil {
				return Verdict{}, fmt.Errorf("%w: %v", ErrBlocklistUnavailable, err)
			}
			if blocked {
				log.Warn("blocked by rules", "entity", value)
				verdict := Verdict{Score: blockScore, Action: ActionBlock, Stage: StageRules}
				s.triggerForensic(req, verdict, "Blocklisted entity: "+value)
				return verdict, nil
			}
		}
	}

	// Stage 2: graph risk. Skipped, not fatal, when the model or graph
	// store is unavailable.
	graphRisk := s.graphRisk(ctx, req.PayerVPA, req.PayeeVPA)

	// Stage 3: policy decision over the 4-feature state vector.
	profile := s.profile(ctx, req.PayerVPA)
	normAmount := float32(min(req.Amount.InexactFloat64()/maxTxnAmount, 1.0))
	action := s.decide(ctx, [4]float32{float32(graphRisk), normAmount, profile.HistoricalRisk, profile.TimeDelta})

	switch action {
	case ActionBlock:
		log.Warn("blocked by policy", "graph_risk", graphRisk)
		verdict := Verdict{Score: blockScore, Action: ActionBlock, Stage: StagePolicy}
		s.triggerForensic(req, verdict, fmt.Sprintf("Policy blocked. Graph risk: %.2f", graphRisk))
		return verdict, nil
	case ActionChallenge:
		log.Info("challenged by policy", "graph_risk", graphRisk)
		return Verdict{Score: challengeScore, Action: ActionChallenge, Stage: StagePolicy}, nil
	default:
		score := allowScore
		if graphRisk > highGraphRisk {
			// Context override: the policy allowed a high-risk graph score.
			// Surface the raw score for observability.
			log.Warn("allowed high-risk transaction", "graph_risk", graphRisk)
			score = graphRisk
		}
		return Verdict{Score: score, Action: ActionAllow, Stage: StagePolicy}, nil
	}
}

func (s *service) isEntityBlocked(ctx context.Context, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	entity, err := s.blocklist.FindByEntityValue(ctx, value)
	if err != nil {
		return false, err
	}
	return entity != nil && entity.BlockedAt(s.now()), nil
}

// graphRisk builds the local subgraph around the payer and scores it.
// Every failure path resolves to 0.0: stage 2 fails open.
func (s *service) graphRisk(ctx context.Context, payerVPA, payeeVPA string) float64 {
	if s.graphModel == nil || s.graph == nil || payerVPA == "" || payeeVPA == "" {
		return 0.0
	}

	rawEdges, err := s.graph.Subgraph(ctx, payerVPA)
	if err != nil {
		s.logger.Warn("subgraph fetch failed, skipping graph stage", "error", err)
		return 0.0
	}
	sourceID, err := s.graph.NodeID(ctx, payerVPA)
	if err != nil {
		s.logger.Warn("payer node lookup failed, skipping graph stage", "error", err)
		return 0.0
	}
	targetID, err := s.graph.NodeID(ctx, payeeVPA)
	if err != nil {
		s.logger.Warn("payee node lookup failed, skipping graph stage", "error", err)
		return 0.0
	}

	// Inject the candidate edge in both directions so the model always sees
	// the transfer under evaluation.
	rawEdges = append(rawEdges, sourceID, targetID, targetID, sourceID)

	// Remap global node ids onto a dense local index range with the payer
	// at index 0, as the model expects.
	mapping := map[int64]int{sourceID: 0}
	numNodes := 1
	remapped := make([]int64, 0, len(rawEdges))
	for _, globalID := range rawEdges {
		local, ok := mapping[globalID]
		if !ok {
			local = numNodes
			mapping[globalID] = local
			numNodes++
		}
		remapped = append(remapped, int64(local))
	}

	// Payer gets its cached feature vector; every other node a zero vector.
	features := make([]float32, numNodes*2)
	payerFeatures := [2]float32{0.0, 1.0}
	if s.features != nil {
		payerFeatures = s.features.Features(ctx, payerVPA)
	}
	features[0] = payerFeatures[0]
	features[1] = payerFeatures[1]

	risk, err := s.graphModel.Score(ctx, features, numNodes, remapped)
	if err != nil {
		s.logger.Warn("graph model inference failed, skipping graph stage", "error", err)
		return 0.0
	}
	return risk
}

func (s *service) profile(ctx context.Context, userID string) cache.UserProfile {
	if s.features == nil {
		return cache.UserProfile{HistoricalRisk: cache.DefaultHistoricalRisk, TimeDelta: cache.DefaultTimeDelta}
	}
	return s.features.Profile(ctx, userID)
}

// decide asks the policy model for an action. When the model is unavailable
// the pipeline falls back to CHALLENGE: never a silent allow, never a hard
// block.
func (s *service) decide(ctx context.Context, state [4]float32) Action {
	if s.policyModel == nil {
		s.logger.Warn("policy model unavailable, falling back to challenge")
		return ActionChallenge
	}
	logits, err := s.policyModel.Logits(ctx, state)
	if err != nil {
		s.logger.Warn("policy inference failed, falling back to challenge", "error", err)
		return ActionChallenge
	}
	return Action(argmax(logits))
}

// argmax returns the index of the highest value; ties resolve to the lowest
// index.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// triggerForensic requests an investigation report for a blocked payment.
// It runs detached from the request path and never blocks or fails the
// caller.
func (s *service) triggerForensic(req *models.PaymentRequest, verdict Verdict, reason string) {
	if s.forensic == nil {
		return
	}
	report := forensic.ReportRequest{
		TxnID:    req.TxnID,
		PayerVPA: req.PayerVPA,
		PayeeVPA: req.PayeeVPA,
		Amount:   req.Amount,
		Reason:   reason,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.forensicTimeout)
		defer cancel()
		if err := s.forensic.GenerateReport(ctx, report); err != nil {
			s.logger.Error("forensic report trigger failed", "txn_id", report.TxnID, "error", err)
			return
		}
		s.logger.Info("forensic report triggered", "txn_id", report.TxnID, "stage", verdict.Stage)
	}()
}

// BlockMuleRing traces the accomplice neighborhood of a confirmed-fraud
// account and issues a single batch block call to the gateway. The trace
// tolerates partial failure; the block call's failure is surfaced but never
// panics the caller.
func (s *service) BlockMuleRing(ctx context.Context, sourceID, targetID string) error {
	if s.access == nil {
		return fmt.Errorf("access blocker not configured")
	}
	s.logger.Warn("initiating mule ring takedown", "source", sourceID, "target", targetID)

	seen := map[string]bool{sourceID: true, targetID: true}
	ring := []string{sourceID, targetID}

	if s.graph != nil {
		accomplices, err := s.graph.Accomplices(ctx, sourceID)
		if err != nil {
			// Continue with whatever was discovered.
			s.logger.Error("accomplice trace failed", "source", sourceID, "error", err)
		}
		for _, id := range accomplices {
			if !seen[id] {
				seen[id] = true
				ring = append(ring, id)
			}
		}
	}

	if err := s.access.BlockUsers(ctx, ring, "Detected by fraud engine"); err != nil {
		s.logger.Error("gateway block call failed", "ring_size", len(ring), "error", err)
		return fmt.Errorf("block mule ring: %w", err)
	}
	s.logger.Info("mule ring blocked", "ring_size", len(ring))
	return nil
}
