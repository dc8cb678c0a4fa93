// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"fmt"

	"gridwatch/internal/model"
)

// InsertCorrelation appends an analysis row and sets its ID. A zero
// AnalysisDate is stored as now.
func (s *Store) InsertCorrelation(ctx context.Context, c *model.Correlation) error {
	significant := 0
	if c.IsSignificant {
		significant = 1
	}
	analysisDate := s.now()
	if !c.AnalysisDate.IsZero() {
		analysisDate = s.timestamp(c.AnalysisDate)
	}
	id, err := s.insert(ctx, `INSERT INTO correlation_analysis (player_id, event_type, correlation_coefficient,
sample_size, p_value, mean_before, mean_after, is_significant, analysis_date, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.PlayerID, c.EventType, c.CorrelationCoefficient, c.SampleSize, c.PValue,
		c.MeanBefore, c.MeanAfter, significant, analysisDate, c.Notes)
	if err != nil {
		return fmt.Errorf("insert correlation: %w", err)
	}
	c.ID = id
	return nil
}

// LatestCorrelations returns the newest analysis per event category for a player.
func (s *Store) LatestCorrelations(ctx context.Context, playerID int64) ([]model.Correlation, error) {
	rows, err := s.query(ctx, `
SELECT c.id, c.player_id, c.event_type, c.correlation_coefficient, c.sample_size, c.p_value,
       c.mean_before, c.mean_after, c.is_significant, c.analysis_date, c.notes
FROM correlation_analysis c
WHERE c.player_id = ?
  AND c.id = (SELECT MAX(c2.id) FROM correlation_analysis c2
              WHERE c2.player_id = c.player_id AND c2.event_type = c.event_type)
ORDER BY c.event_type`, playerID)
	if err != nil {
		return nil, fmt.Errorf("latest correlations: %w", err)
	}
	defer rows.Close()

	var out []model.Correlation
	for rows.Next() {
		var c model.Correlation
		var significant int
		if err := rows.Scan(&c.ID, &c.PlayerID, &c.EventType, &c.CorrelationCoefficient, &c.SampleSize,
			&c.PValue, &c.MeanBefore, &c.MeanAfter, &significant, timeCol{&c.AnalysisDate}, &c.Notes); err != nil {
			return nil, err
		}
		c.IsSignificant = significant != 0
		out = append(out, c)
	}
	return out, rows.Err()
}
