// internal/engine/ledger/service.go

// Package ledger owns itemized per-vendor, per-category cost entries and
// their validation. It has no side effects beyond the store.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"math"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/common/logger"
	"vendoreval-engine/internal/models"
	"vendoreval-engine/internal/store"
	"vendoreval-engine/pkg/catalog"
)

// CacheInvalidator drops any cached dashboard aggregate for a project after
// its entries change. Implemented by the dashboard service.
type CacheInvalidator interface {
	InvalidateProject(ctx context.Context, projectID string)
}

type Service struct {
	entries *store.CostEntryStore
	cache   CacheInvalidator
	logger  logger.Logger
}

func NewService(entries *store.CostEntryStore, cache CacheInvalidator, log logger.Logger) *Service {
	return &Service{
		entries: entries,
		cache:   cache,
		logger:  log.WithFields(map[string]interface{}{"component": "cost-ledger"}),
	}
}

// Create validates and persists a new cost entry. An entry lacking its
// project or vendor reference is a fatal precondition failure surfaced to
// the caller, not retried.
func (s *Service) Create(ctx context.Context, entry *models.CostEntry) (*models.CostEntry, error) {
	if entry.ProjectID == "" || entry.VendorID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId and vendorId are required")
	}
	if !catalog.Valid(entry.Category) {
		return nil, stderrors.NewInvalidCategoryError(string(entry.Category))
	}

	entry.Year1 = coerceAmount(entry.Year1)
	entry.Year2 = coerceAmount(entry.Year2)
	entry.Year3 = coerceAmount(entry.Year3)
	entry.Year4 = coerceAmount(entry.Year4)
	entry.Year5 = coerceAmount(entry.Year5)
	for i, v := range entry.YearlyAmounts() {
		if v < 0 {
			return nil, stderrors.NewNegativeCostError(i+1, v)
		}
	}

	if err := s.entries.Insert(ctx, entry); err != nil {
		return nil, stderrors.NewStoreUpsertError(err)
	}

	s.invalidate(ctx, entry.ProjectID)
	s.logger.Info("cost entry created", map[string]interface{}{
		"entryId":   entry.ID,
		"projectId": entry.ProjectID,
		"vendorId":  entry.VendorID,
		"category":  entry.Category,
	})
	return entry, nil
}

// Update applies the non-nil fields of patch to an existing entry.
func (s *Service) Update(ctx context.Context, id string, patch models.CostEntryPatch) (*models.CostEntry, error) {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewCostEntryNotFoundError(id)
		}
		return nil, stderrors.NewStoreQueryError(err)
	}

	if patch.Category != nil {
		if !catalog.Valid(*patch.Category) {
			return nil, stderrors.NewInvalidCategoryError(string(*patch.Category))
		}
		entry.Category = *patch.Category
	}
	if patch.Description != nil {
		entry.Description = *patch.Description
	}
	years := [5]*float64{&entry.Year1, &entry.Year2, &entry.Year3, &entry.Year4, &entry.Year5}
	for i, p := range patch.YearPointers() {
		if p == nil {
			continue
		}
		v := coerceAmount(*p)
		if v < 0 {
			return nil, stderrors.NewNegativeCostError(i+1, v)
		}
		*years[i] = v
	}
	if patch.Recurring != nil {
		entry.Recurring = *patch.Recurring
	}
	if patch.Estimated != nil {
		entry.Estimated = *patch.Estimated
	}
	if patch.SourceNotes != nil {
		entry.SourceNotes = *patch.SourceNotes
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewCostEntryNotFoundError(id)
		}
		return nil, stderrors.NewStoreUpsertError(err)
	}

	s.invalidate(ctx, entry.ProjectID)
	return entry, nil
}

// Delete removes an entry permanently. The entry is loaded first so the
// project's dashboard cache can be dropped after the delete commits.
func (s *Service) Delete(ctx context.Context, id string) error {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stderrors.NewCostEntryNotFoundError(id)
		}
		return stderrors.NewStoreQueryError(err)
	}

	if err := s.entries.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stderrors.NewCostEntryNotFoundError(id)
		}
		return stderrors.NewStoreUpsertError(err)
	}

	s.invalidate(ctx, entry.ProjectID)
	s.logger.Info("cost entry deleted", map[string]interface{}{"entryId": id})
	return nil
}

// List returns a project's entries, optionally restricted to one vendor.
func (s *Service) List(ctx context.Context, projectID, vendorID string) ([]*models.CostEntry, error) {
	if projectID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId is required")
	}

	var entries []*models.CostEntry
	var err error
	if vendorID == "" {
		entries, err = s.entries.ListByProject(ctx, projectID)
	} else {
		entries, err = s.entries.ListByProjectVendor(ctx, projectID, vendorID)
	}
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	return entries, nil
}

func (s *Service) invalidate(ctx context.Context, projectID string) {
	if s.cache != nil {
		s.cache.InvalidateProject(ctx, projectID)
	}
}

// coerceAmount maps invalid numeric input to 0. Negative values pass through
// so validation can reject them explicitly.
func coerceAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
