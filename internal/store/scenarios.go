// internal/store/scenarios.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"vendoreval-engine/internal/models"
)

// ScenarioStore persists sensitivity scenarios. Adjustments and results are
// stored as JSON so the authored adjustment order survives round-trips.
type ScenarioStore struct {
	db *sql.DB
}

func NewScenarioStore(db *sql.DB) *ScenarioStore {
	return &ScenarioStore{db: db}
}

// Insert writes a new scenario with empty results.
func (s *ScenarioStore) Insert(ctx context.Context, scenario *models.SensitivityScenario) error {
	if scenario.ID == "" {
		scenario.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	scenario.CreatedAt = now
	scenario.UpdatedAt = now

	adjustments, err := json.Marshal(scenario.Adjustments)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sensitivity_scenarios (id, project_id, name, description, baseline,
		                                   adjustments, ranking_changed, recommendation_changed,
		                                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		scenario.ID, scenario.ProjectID, scenario.Name, scenario.Description, scenario.Baseline,
		adjustments, scenario.RankingChanged, scenario.RecommendationChanged,
		scenario.CreatedAt, scenario.UpdatedAt,
	)
	return err
}

// GetByID returns one scenario, or sql.ErrNoRows.
func (s *ScenarioStore) GetByID(ctx context.Context, id string) (*models.SensitivityScenario, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, description, baseline,
		       adjustments, results, ranking_changed, recommendation_changed,
		       last_run_at, created_at, updated_at
		FROM sensitivity_scenarios
		WHERE id = $1`, id)
	return scanScenario(row)
}

// ListByProject returns a project's scenarios in creation order.
func (s *ScenarioStore) ListByProject(ctx context.Context, projectID string) ([]*models.SensitivityScenario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, description, baseline,
		       adjustments, results, ranking_changed, recommendation_changed,
		       last_run_at, created_at, updated_at
		FROM sensitivity_scenarios
		WHERE project_id = $1
		ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []*models.SensitivityScenario
	for rows.Next() {
		scenario, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, rows.Err()
}

// SaveResults overwrites the scenario's results map and change flags.
func (s *ScenarioStore) SaveResults(ctx context.Context, scenario *models.SensitivityScenario) error {
	now := time.Now().UTC()
	scenario.LastRunAt = &now
	scenario.UpdatedAt = now

	results, err := json.Marshal(scenario.Results)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sensitivity_scenarios
		SET results = $1, ranking_changed = $2, recommendation_changed = $3,
		    last_run_at = $4, updated_at = $5
		WHERE id = $6`,
		results, scenario.RankingChanged, scenario.RecommendationChanged,
		scenario.LastRunAt, scenario.UpdatedAt, scenario.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanScenario(row rowScanner) (*models.SensitivityScenario, error) {
	var scenario models.SensitivityScenario
	var adjustments []byte
	var results []byte
	var lastRunAt sql.NullTime

	err := row.Scan(
		&scenario.ID, &scenario.ProjectID, &scenario.Name, &scenario.Description, &scenario.Baseline,
		&adjustments, &results, &scenario.RankingChanged, &scenario.RecommendationChanged,
		&lastRunAt, &scenario.CreatedAt, &scenario.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(adjustments) > 0 {
		if err := json.Unmarshal(adjustments, &scenario.Adjustments); err != nil {
			return nil, err
		}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &scenario.Results); err != nil {
			return nil, err
		}
	}
	if lastRunAt.Valid {
		t := lastRunAt.Time
		scenario.LastRunAt = &t
	}
	return &scenario, nil
}
