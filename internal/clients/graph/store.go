// Package graph reads the user relationship graph from Neo4j. The fraud
// pipeline uses it for local subgraph extraction and for bounded-depth
// accomplice traces during incident response.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const subgraphLimit = 50

// Store wraps a Neo4j driver. Sessions are scoped per call and closed on
// every exit path.
type Store struct {
	driver neo4j.DriverWithContext
}

// New connects to Neo4j with basic auth.
func New(uri, username, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Store{driver: driver}, nil
}

// Subgraph returns the 1-2 hop neighborhood edges of a user as a flattened
// src,dst sequence of internal node ids. The result is bounded to keep the
// feature matrix small.
func (s *Store) Subgraph(ctx context.Context, userID string) ([]int64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {userId: $uid})-[r*1..2]-(n)
		RETURN id(startNode(last(r))) AS src, id(endNode(last(r))) AS dst
		LIMIT ` + fmt.Sprint(subgraphLimit)

	result, err := session.Run(ctx, query, map[string]any{"uid": userID})
	if err != nil {
		return nil, fmt.Errorf("subgraph query: %w", err)
	}

	var edges []int64
	for result.Next(ctx) {
		rec := result.Record()
		src, _ := rec.Get("src")
		dst, _ := rec.Get("dst")
		s, sok := src.(int64)
		d, dok := dst.(int64)
		if !sok || !dok {
			continue
		}
		edges = append(edges, s, d)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("subgraph result: %w", err)
	}
	return edges, nil
}

// NodeID upserts the user node and returns its stable internal id.
func (s *Store) NodeID(ctx context.Context, userID string) (int64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MERGE (u:User {userId: $uid}) RETURN id(u)", map[string]any{"uid": userID})
	if err != nil {
		return 0, fmt.Errorf("merge user node: %w", err)
	}
	rec, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("read merged node id: %w", err)
	}
	id, ok := rec.Values[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected node id type %T", rec.Values[0])
	}
	return id, nil
}

// Accomplices returns all user ids reachable from the source within two
// hops. Used by the mule-ring kill switch.
func (s *Store) Accomplices(ctx context.Context, userID string) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := "MATCH (u:User {userId: $uid})-[*1..2]-(accomplice:User) RETURN DISTINCT accomplice.userId AS uid"
	result, err := session.Run(ctx, query, map[string]any{"uid": userID})
	if err != nil {
		return nil, fmt.Errorf("accomplice trace: %w", err)
	}

	var ids []string
	for result.Next(ctx) {
		if uid, ok := result.Record().Get("uid"); ok {
			if str, ok := uid.(string); ok && str != "" {
				ids = append(ids, str)
			}
		}
	}
	if err := result.Err(); err != nil {
		return ids, fmt.Errorf("accomplice result: %w", err)
	}
	return ids, nil
}

// Close releases the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
