package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/metrics"
	"github.com/DukeRupert/samplebase/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PlanService manages the catalog of purchasable subscription plans.
type PlanService interface {
	// ListActive returns the plans customers can subscribe or switch to.
	ListActive(ctx context.Context) ([]domain.Plan, error)

	// GetByPriceID returns an active plan by its Stripe price ID.
	// Returns domain.ENOTFOUND for unknown or deactivated prices.
	GetByPriceID(ctx context.Context, priceID string) (*domain.Plan, error)

	// Create adds a plan to the catalog, importing an existing Stripe price
	// or creating a new one on an existing product.
	// Returns domain.EINVALID for bad input, domain.ECONFLICT if the price is
	// already in the catalog and domain.EUPSTREAM if Stripe fails.
	Create(ctx context.Context, params domain.CreatePlanParams) (*domain.Plan, error)

	// Deactivate removes a plan from sale. Existing subscriptions on the
	// price are unaffected.
	// Returns domain.ENOTFOUND if no plan has the price ID.
	Deactivate(ctx context.Context, priceID string) error

	// TierForPrice resolves the tier a Stripe price grants. The static
	// price map wins; otherwise the catalog is consulted, including
	// deactivated plans. Unknown and empty price IDs resolve to free.
	TierForPrice(ctx context.Context, priceID string) (domain.SubscriptionTier, error)
}

// PlanCatalog is the read path for plans, usually a cache.PlanCatalog in
// front of the database.
type PlanCatalog interface {
	ListActivePlans(ctx context.Context) ([]repository.Plan, error)
	GetPlanByPriceID(ctx context.Context, stripePriceID string) (repository.Plan, error)
	Invalidate(ctx context.Context, stripePriceIDs ...string)
}

// =============================================================================
// Implementation
// =============================================================================

type planService struct {
	queries repository.Querier
	catalog PlanCatalog
	billing billing.Service
	tiers   billing.PriceTiers
	logger  *slog.Logger
}

// NewPlanService creates a new PlanService.
//
// Dependencies:
// - queries: database writes
// - catalog: cached plan reads
// - billingService: Stripe price lookups and creation
// - tiers: static price to tier map from configuration
func NewPlanService(
	queries repository.Querier,
	catalog PlanCatalog,
	billingService billing.Service,
	tiers billing.PriceTiers,
	logger *slog.Logger,
) PlanService {
	return &planService{
		queries: queries,
		catalog: catalog,
		billing: billingService,
		tiers:   tiers,
		logger:  logger,
	}
}

func (s *planService) ListActive(ctx context.Context) ([]domain.Plan, error) {
	const op = "PlanService.ListActive"

	rows, err := s.catalog.ListActivePlans(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list plans")
	}

	plans := make([]domain.Plan, 0, len(rows))
	for _, r := range rows {
		plans = append(plans, repoPlanToDomain(r))
	}
	return plans, nil
}

func (s *planService) GetByPriceID(ctx context.Context, priceID string) (*domain.Plan, error) {
	const op = "PlanService.GetByPriceID"

	row, err := s.catalog.GetPlanByPriceID(ctx, priceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "plan", priceID)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve plan")
	}
	if !row.Active {
		return nil, domain.NotFound(op, "plan", priceID)
	}

	plan := repoPlanToDomain(row)
	return &plan, nil
}

// =============================================================================
// Create
// =============================================================================

func (s *planService) Create(ctx context.Context, params domain.CreatePlanParams) (*domain.Plan, error) {
	const op = "PlanService.Create"

	params.Name = strings.TrimSpace(params.Name)
	params.StripePriceID = strings.TrimSpace(params.StripePriceID)
	params.StripeProductID = strings.TrimSpace(params.StripeProductID)
	if err := validateCreatePlanParams(op, &params); err != nil {
		return nil, err
	}

	var (
		price *domain.ProviderPrice
		err   error
	)
	if params.StripePriceID != "" {
		if _, err := s.queries.GetPlanByPriceID(ctx, params.StripePriceID); err == nil {
			return nil, domain.Conflict(op, "A plan for this price already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Internal(err, op, "Failed to check existing plans")
		}

		price, err = s.billing.GetPrice(ctx, params.StripePriceID)
		metrics.StripeCall("get_price", err)
		if err != nil {
			return nil, domain.Upstream(err, op, "Failed to look up price with the billing provider")
		}
		if price.Interval == "" {
			return nil, domain.Invalid(op, "Price is not recurring")
		}
	} else {
		price, err = s.billing.CreatePrice(ctx, billing.PriceParams{
			ProductID:   params.StripeProductID,
			AmountCents: params.AmountCents,
			Currency:    params.Currency,
			Interval:    params.Interval,
		})
		metrics.StripeCall("create_price", err)
		if err != nil {
			return nil, domain.Upstream(err, op, "Failed to create price with the billing provider")
		}
	}

	row, err := s.queries.CreatePlan(ctx, repository.CreatePlanParams{
		Name:            params.Name,
		Tier:            string(params.Tier),
		StripePriceID:   price.ID,
		StripeProductID: price.ProductID,
		AmountCents:     price.AmountCents,
		Currency:        price.Currency,
		BillingInterval: string(price.Interval),
		TrialDays:       int32(params.TrialDays),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.Conflict(op, "A plan for this price already exists")
		}
		return nil, domain.Internal(err, op, "Failed to create plan")
	}

	s.catalog.Invalidate(ctx, price.ID)

	s.logger.Info("plan created",
		"plan_id", row.ID,
		"price_id", price.ID,
		"tier", params.Tier,
		"imported", params.StripePriceID != "",
	)

	plan := repoPlanToDomain(row)
	return &plan, nil
}

// validateCreatePlanParams normalizes and validates plan input. Amount,
// currency and interval are only checked when a new price is created.
func validateCreatePlanParams(op string, p *domain.CreatePlanParams) error {
	if p.Name == "" {
		return domain.Invalid(op, "name is required")
	}
	if len(p.Name) > 100 {
		return domain.Invalid(op, "name must be 100 characters or less")
	}
	if p.Tier != domain.SubscriptionTierStarter && p.Tier != domain.SubscriptionTierPro {
		return domain.Invalid(op, "tier must be starter or pro")
	}
	if p.TrialDays < 0 || p.TrialDays > 365 {
		return domain.Invalid(op, "trial_days must be between 0 and 365")
	}
	if p.StripePriceID != "" {
		return nil
	}

	if p.StripeProductID == "" {
		return domain.Invalid(op, "stripe_product_id is required when no stripe_price_id is given")
	}
	if p.AmountCents <= 0 {
		return domain.Invalid(op, "amount_cents must be positive")
	}

	p.Currency = strings.ToLower(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = "usd"
	}
	if len(p.Currency) != 3 {
		return domain.Invalid(op, "currency must be a three-letter ISO code")
	}

	if p.Interval == "" {
		p.Interval = domain.PlanIntervalMonth
	}
	if p.Interval != domain.PlanIntervalMonth && p.Interval != domain.PlanIntervalYear {
		return domain.Invalid(op, "interval must be month or year")
	}
	return nil
}

// =============================================================================
// Deactivate
// =============================================================================

func (s *planService) Deactivate(ctx context.Context, priceID string) error {
	const op = "PlanService.Deactivate"

	n, err := s.queries.DeactivatePlan(ctx, priceID)
	if err != nil {
		return domain.Internal(err, op, "Failed to deactivate plan")
	}
	if n == 0 {
		return domain.NotFound(op, "plan", priceID)
	}

	s.catalog.Invalidate(ctx, priceID)
	s.logger.Info("plan deactivated", "price_id", priceID)
	return nil
}

// =============================================================================
// Tier resolution
// =============================================================================

func (s *planService) TierForPrice(ctx context.Context, priceID string) (domain.SubscriptionTier, error) {
	const op = "PlanService.TierForPrice"

	if priceID == "" {
		return domain.SubscriptionTierFree, nil
	}
	if tier, ok := s.tiers.Lookup(priceID); ok {
		return tier, nil
	}

	row, err := s.catalog.GetPlanByPriceID(ctx, priceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("unknown price, defaulting to free tier", "price_id", priceID)
			return domain.SubscriptionTierFree, nil
		}
		return "", domain.Internal(err, op, "Failed to resolve plan tier")
	}
	return domain.SubscriptionTier(row.Tier), nil
}

var _ PlanService = (*planService)(nil)
