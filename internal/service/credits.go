package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/metrics"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/DukeRupert/samplebase/internal/storage"
	"github.com/google/uuid"
)

// DefaultDownloadURLTTL is how long presigned download links stay valid.
const DefaultDownloadURLTTL = 15 * time.Minute

// =============================================================================
// Interface Definition
// =============================================================================

// CreditService prices samples and moves credits.
type CreditService interface {
	// Quote prices a stored sample.
	// Returns domain.ENOTFOUND if the sample does not exist.
	Quote(ctx context.Context, sampleID uuid.UUID) (*domain.SampleQuote, error)

	// QuoteAttributes prices a sample that has not been saved.
	// Returns domain.EINVALID for an unknown sample type.
	QuoteAttributes(params domain.QuoteParams) (*domain.SampleQuote, error)

	// Ranges returns display ranges for the standard, premium and stems prices.
	Ranges() []domain.CostRangeInfo

	// SetCostOverride sets or clears (nil) a sample's manual price.
	// Returns domain.EINVALID for a non-positive override and
	// domain.ENOTFOUND if the sample does not exist.
	SetCostOverride(ctx context.Context, sampleID uuid.UUID, override *int) (*domain.SampleQuote, error)

	// Download charges a customer for a sample and returns signed links to
	// its files. The debit and its ledger entry commit together.
	// Returns domain.EPAYMENT when the balance is too low.
	Download(ctx context.Context, customerID, sampleID uuid.UUID) (*domain.SampleDownload, error)

	// GrantForInvoice credits a customer with their tier's per-period grant,
	// at most once per invoice. It runs on q so callers can include it in a
	// transaction. Returns the number of credits added.
	GrantForInvoice(ctx context.Context, q repository.Querier, customerID uuid.UUID, tier domain.SubscriptionTier, invoiceID string) (int, error)
}

// CreditConfig holds pricing and grant settings.
type CreditConfig struct {
	Pricing        domain.CreditPricing
	Grants         domain.CreditGrants
	DownloadURLTTL time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

type creditService struct {
	store   repository.Store
	files   storage.Storage
	pricing domain.CreditPricing
	grants  domain.CreditGrants
	urlTTL  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewCreditService creates a new CreditService.
func NewCreditService(store repository.Store, files storage.Storage, cfg CreditConfig, logger *slog.Logger) CreditService {
	ttl := cfg.DownloadURLTTL
	if ttl <= 0 {
		ttl = DefaultDownloadURLTTL
	}
	return &creditService{
		store:   store,
		files:   files,
		pricing: cfg.Pricing,
		grants:  cfg.Grants,
		urlTTL:  ttl,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *creditService) Quote(ctx context.Context, sampleID uuid.UUID) (*domain.SampleQuote, error) {
	sample, err := s.getSample(ctx, "CreditService.Quote", sampleID)
	if err != nil {
		return nil, err
	}
	q := s.pricing.Quote(sample)
	return &q, nil
}

func (s *creditService) QuoteAttributes(params domain.QuoteParams) (*domain.SampleQuote, error) {
	const op = "CreditService.QuoteAttributes"

	t, err := domain.ParseSampleType(params.Type)
	if err != nil {
		return nil, domain.Invalid(op, "type must be one_shot or loop")
	}

	q := s.pricing.Quote(&domain.Sample{
		Type:               t,
		IsPremium:          params.IsPremium,
		HasStems:           params.HasStems,
		CreditCostOverride: params.CreditCostOverride,
	})
	return &q, nil
}

func (s *creditService) Ranges() []domain.CostRangeInfo {
	return s.pricing.CostRanges()
}

func (s *creditService) SetCostOverride(ctx context.Context, sampleID uuid.UUID, override *int) (*domain.SampleQuote, error) {
	const op = "CreditService.SetCostOverride"

	if override != nil && *override <= 0 {
		return nil, domain.Invalid(op, "credit cost override must be a positive number of credits")
	}

	row, err := s.store.UpdateSampleCostOverride(ctx, repository.UpdateSampleCostOverrideParams{
		ID:                 sampleID,
		CreditCostOverride: domain.ToNullInt32(override),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "sample", sampleID.String())
		}
		return nil, domain.Internal(err, op, "Failed to update sample price")
	}

	s.logger.Info("sample cost override updated",
		"sample_id", sampleID,
		"override", override,
	)

	q := s.pricing.Quote(repoSampleToDomain(row))
	return &q, nil
}

// =============================================================================
// Download
// =============================================================================

func (s *creditService) Download(ctx context.Context, customerID, sampleID uuid.UUID) (*domain.SampleDownload, error) {
	const op = "CreditService.Download"

	sample, err := s.getSample(ctx, op, sampleID)
	if err != nil {
		return nil, err
	}
	quote := s.pricing.Quote(sample)

	// Links are signed before charging so a storage failure never costs
	// the customer credits.
	ok, err := s.files.Exists(ctx, sample.FileKey)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to check sample file")
	}
	if !ok {
		s.logger.Error("sample file missing from storage", "sample_id", sampleID, "key", sample.FileKey)
		return nil, domain.InvalidState(op, "Sample file is not available")
	}
	fileURL, err := s.files.URL(ctx, sample.FileKey, s.urlTTL)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to sign download link")
	}
	var stemsURL string
	if sample.HasStems && sample.StemsKey != "" {
		stemsURL, err = s.files.URL(ctx, sample.StemsKey, s.urlTTL)
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to sign stems link")
		}
	}

	now := s.now()
	var balance int32
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		balance, err = q.DebitCustomerCredits(ctx, repository.DebitCustomerCreditsParams{
			Amount: int32(quote.Total),
			ID:     customerID,
		})
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return domain.Internal(err, op, "Failed to debit credits")
			}
			customer, err := q.GetCustomerByID(ctx, customerID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return domain.NotFound(op, "customer", customerID.String())
				}
				return domain.Internal(err, op, "Failed to retrieve customer")
			}
			return domain.PaymentRequired(op, quote.Total, int(customer.Credits))
		}

		_, err = q.InsertLedgerEntry(ctx, repository.InsertLedgerEntryParams{
			CustomerID:   customerID,
			Delta:        -int32(quote.Total),
			BalanceAfter: balance,
			Reason:       string(domain.LedgerReasonDownload),
			Reference:    domain.DownloadReference(sampleID, now),
		})
		if err != nil {
			return domain.Internal(err, op, "Failed to record ledger entry")
		}
		return nil
	})
	if err != nil {
		if domain.IsCode(err, domain.EPAYMENT) {
			metrics.DownloadRejected()
		}
		return nil, err
	}

	metrics.DownloadCharged(quote.Total)
	s.logger.Info("sample downloaded",
		"customer_id", customerID,
		"sample_id", sampleID,
		"cost", quote.Total,
		"balance", balance,
	)

	return &domain.SampleDownload{
		SampleID:     sampleID,
		Cost:         quote.Total,
		BalanceAfter: int(balance),
		FileURL:      fileURL,
		StemsURL:     stemsURL,
		ExpiresAt:    now.Add(s.urlTTL),
	}, nil
}

// =============================================================================
// Grants
// =============================================================================

func (s *creditService) GrantForInvoice(ctx context.Context, q repository.Querier, customerID uuid.UUID, tier domain.SubscriptionTier, invoiceID string) (int, error) {
	const op = "CreditService.GrantForInvoice"

	amount := s.grants.For(tier)
	if amount <= 0 || invoiceID == "" {
		return 0, nil
	}

	ref := domain.InvoiceReference(invoiceID)
	exists, err := q.LedgerReferenceExists(ctx, ref)
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to check ledger")
	}
	if exists {
		return 0, nil
	}

	balance, err := q.AddCustomerCredits(ctx, repository.AddCustomerCreditsParams{
		Amount: int32(amount),
		ID:     customerID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.NotFound(op, "customer", customerID.String())
		}
		return 0, domain.Internal(err, op, "Failed to add credits")
	}

	_, err = q.InsertLedgerEntry(ctx, repository.InsertLedgerEntryParams{
		CustomerID:   customerID,
		Delta:        int32(amount),
		BalanceAfter: balance,
		Reason:       string(domain.LedgerReasonPlanGrant),
		Reference:    ref,
	})
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to record ledger entry")
	}

	metrics.CreditsGranted(string(tier), amount)
	s.logger.Info("credits granted",
		"customer_id", customerID,
		"tier", tier,
		"amount", amount,
		"invoice_id", invoiceID,
	)
	return amount, nil
}

func (s *creditService) getSample(ctx context.Context, op string, id uuid.UUID) (*domain.Sample, error) {
	row, err := s.store.GetSampleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "sample", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve sample")
	}
	return repoSampleToDomain(row), nil
}

var _ CreditService = (*creditService)(nil)
