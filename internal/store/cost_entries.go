// internal/store/cost_entries.go

// Package store holds the row-store access layer. Queries use database/sql
// with lib/pq placeholders; errors bubble up unchanged so callers decide
// about retries.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"vendoreval-engine/internal/models"
	"vendoreval-engine/pkg/catalog"
)

// CostEntryStore persists itemized cost entries.
type CostEntryStore struct {
	db *sql.DB
}

func NewCostEntryStore(db *sql.DB) *CostEntryStore {
	return &CostEntryStore{db: db}
}

const costEntryColumns = `id, project_id, vendor_id, category, description,
		       year1, year2, year3, year4, year5,
		       recurring, estimated, source_notes, created_at, updated_at`

// Insert writes a new entry, minting its id and timestamps.
func (s *CostEntryStore) Insert(ctx context.Context, entry *models.CostEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_entries (id, project_id, vendor_id, category, description,
		                          year1, year2, year3, year4, year5,
		                          recurring, estimated, source_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		entry.ID, entry.ProjectID, entry.VendorID, string(entry.Category), entry.Description,
		entry.Year1, entry.Year2, entry.Year3, entry.Year4, entry.Year5,
		entry.Recurring, entry.Estimated, entry.SourceNotes, entry.CreatedAt, entry.UpdatedAt,
	)
	return err
}

// Get returns one entry by id, or sql.ErrNoRows.
func (s *CostEntryStore) Get(ctx context.Context, id string) (*models.CostEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+costEntryColumns+`
		FROM cost_entries
		WHERE id = $1`, id)
	return scanCostEntry(row)
}

// Update rewrites the mutable fields of an existing entry.
func (s *CostEntryStore) Update(ctx context.Context, entry *models.CostEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE cost_entries
		SET category = $1, description = $2,
		    year1 = $3, year2 = $4, year3 = $5, year4 = $6, year5 = $7,
		    recurring = $8, estimated = $9, source_notes = $10, updated_at = $11
		WHERE id = $12`,
		string(entry.Category), entry.Description,
		entry.Year1, entry.Year2, entry.Year3, entry.Year4, entry.Year5,
		entry.Recurring, entry.Estimated, entry.SourceNotes, entry.UpdatedAt,
		entry.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an entry permanently (hard delete).
func (s *CostEntryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cost_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByProject returns every entry of a project in insertion order.
func (s *CostEntryStore) ListByProject(ctx context.Context, projectID string) ([]*models.CostEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+costEntryColumns+`
		FROM cost_entries
		WHERE project_id = $1
		ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCostEntries(rows)
}

// ListByProjectVendor returns a vendor's entries in insertion order.
func (s *CostEntryStore) ListByProjectVendor(ctx context.Context, projectID, vendorID string) ([]*models.CostEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+costEntryColumns+`
		FROM cost_entries
		WHERE project_id = $1 AND vendor_id = $2
		ORDER BY created_at, id`, projectID, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCostEntries(rows)
}

// VendorsForProject returns the distinct vendor ids of a project, ordered by
// first appearance so batch calculations walk vendors deterministically.
func (s *CostEntryStore) VendorsForProject(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor_id
		FROM cost_entries
		WHERE project_id = $1
		GROUP BY vendor_id
		ORDER BY MIN(created_at), vendor_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCostEntry(row rowScanner) (*models.CostEntry, error) {
	var entry models.CostEntry
	var category string
	err := row.Scan(
		&entry.ID, &entry.ProjectID, &entry.VendorID, &category, &entry.Description,
		&entry.Year1, &entry.Year2, &entry.Year3, &entry.Year4, &entry.Year5,
		&entry.Recurring, &entry.Estimated, &entry.SourceNotes, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Category = catalog.CostCategory(category)
	return &entry, nil
}

func scanCostEntries(rows *sql.Rows) ([]*models.CostEntry, error) {
	var entries []*models.CostEntry
	for rows.Next() {
		entry, err := scanCostEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
