package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// InsertProposal persists a draft proposal and returns its generated ID.
func (s *Store) InsertProposal(ctx context.Context, rec ProposalRecord) (uuid.UUID, error) {
	team, err := json.Marshal(rec.TeamComposition)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling team composition: %w", err)
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO proposals
		   (tenant_id, rfp_id, proposal_title, proposal_status,
		    internal_resources_used, total_cost, team_composition, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'ai')
		 RETURNING id`,
		rec.TenantID, rec.RFPID, rec.Title, rec.Status,
		rec.ResourceIDs, rec.TotalCost, team,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting proposal: %w", err)
	}

	s.logger.Debug("inserted proposal", "id", id, "rfp_id", rec.RFPID,
		"resources", len(rec.ResourceIDs), "total_cost", rec.TotalCost)
	return id, nil
}
