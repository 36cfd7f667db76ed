// Package service contains the business logic layer.
//
// This file implements read access to customers and their credit ledger.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/google/uuid"
)

// Ledger page sizes.
const (
	DefaultLedgerLimit = 50
	MaxLedgerLimit     = 500
)

// CustomerService defines the interface for customer lookups.
type CustomerService interface {
	// GetByID retrieves a customer by ID.
	// Returns domain.ENOTFOUND if the customer does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)

	// Ledger returns the customer's most recent credit ledger entries, newest
	// first. A limit of zero or less uses DefaultLedgerLimit.
	// Returns domain.ENOTFOUND if the customer does not exist.
	Ledger(ctx context.Context, id uuid.UUID, limit int) ([]domain.LedgerEntry, error)
}

type customerService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(queries repository.Querier, logger *slog.Logger) CustomerService {
	return &customerService{
		queries: queries,
		logger:  logger,
	}
}

func (s *customerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	const op = "CustomerService.GetByID"

	row, err := s.queries.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "customer", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve customer")
	}

	return repoCustomerToDomain(row), nil
}

func (s *customerService) Ledger(ctx context.Context, id uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	const op = "CustomerService.Ledger"

	if limit <= 0 {
		limit = DefaultLedgerLimit
	}
	if limit > MaxLedgerLimit {
		return nil, domain.Invalid(op, "limit must be 500 or less")
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.queries.ListLedgerEntriesByCustomer(ctx, repository.ListLedgerEntriesByCustomerParams{
		CustomerID: id,
		Limit:      int32(limit),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list credit ledger")
	}

	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, repoLedgerToDomain(r))
	}
	return entries, nil
}

var _ CustomerService = (*customerService)(nil)
