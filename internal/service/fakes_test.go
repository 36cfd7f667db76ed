package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/DukeRupert/samplebase/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stripe/stripe-go/v79"
)

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// In-memory store
// =============================================================================

type fakeState struct {
	customers map[uuid.UUID]repository.Customer
	subs      map[string]repository.Subscription
	plans     map[string]repository.Plan
	samples   map[uuid.UUID]repository.Sample
	events    map[string]repository.BillingEvent
	ledger    []repository.CreditLedger
	jobs      []repository.Job
}

func (s fakeState) clone() fakeState {
	return fakeState{
		customers: maps.Clone(s.customers),
		subs:      maps.Clone(s.subs),
		plans:     maps.Clone(s.plans),
		samples:   maps.Clone(s.samples),
		events:    maps.Clone(s.events),
		ledger:    slices.Clone(s.ledger),
		jobs:      slices.Clone(s.jobs),
	}
}

// fakeStore implements repository.Store in memory. ExecTx restores the
// previous state when fn fails. failOn makes the named method return the
// given error.
type fakeStore struct {
	fakeState
	seq     int
	txCount int
	failOn  map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fakeState: fakeState{
			customers: map[uuid.UUID]repository.Customer{},
			subs:      map[string]repository.Subscription{},
			plans:     map[string]repository.Plan{},
			samples:   map[uuid.UUID]repository.Sample{},
			events:    map[string]repository.BillingEvent{},
		},
		failOn: map[string]error{},
	}
}

func (f *fakeStore) tick() time.Time {
	f.seq++
	return testEpoch.Add(time.Duration(f.seq) * time.Second)
}

func (f *fakeStore) fail(method string) error {
	return f.failOn[method]
}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	f.txCount++
	snapshot := f.fakeState.clone()
	if err := fn(f); err != nil {
		f.fakeState = snapshot
		return err
	}
	return nil
}

// Seeding helpers

func (f *fakeStore) addCustomer(stripeID string, credits int32) repository.Customer {
	c := repository.Customer{
		ID:               uuid.New(),
		Email:            fmt.Sprintf("customer%d@example.com", len(f.customers)+1),
		Name:             sql.NullString{String: "Test Customer", Valid: true},
		StripeCustomerID: domain.ToNullString(stripeID),
		SubscriptionTier: string(domain.SubscriptionTierFree),
		Credits:          credits,
		CreatedAt:        testEpoch,
		UpdatedAt:        testEpoch,
	}
	f.customers[c.ID] = c
	return c
}

func (f *fakeStore) addSubscription(customerID uuid.UUID, stripeID, priceID string, tier domain.SubscriptionTier, status domain.SubscriptionStatus) repository.Subscription {
	now := f.tick()
	s := repository.Subscription{
		ID:                   uuid.New(),
		CustomerID:           customerID,
		StripeSubscriptionID: stripeID,
		StripePriceID:        priceID,
		StripeItemID:         "si_" + stripeID,
		Tier:                 string(tier),
		Status:               string(status),
		CurrentPeriodStart:   testEpoch,
		CurrentPeriodEnd:     testEpoch.AddDate(0, 1, 0),
		StartedAt:            now,
		UpdatedAt:            now,
	}
	f.subs[stripeID] = s
	return s
}

func (f *fakeStore) addPlan(name string, tier domain.SubscriptionTier, priceID string, active bool) repository.Plan {
	p := repository.Plan{
		ID:              uuid.New(),
		Name:            name,
		Tier:            string(tier),
		StripePriceID:   priceID,
		StripeProductID: "prod_" + name,
		AmountCents:     1000,
		Currency:        "usd",
		BillingInterval: string(domain.PlanIntervalMonth),
		Active:          active,
		CreatedAt:       testEpoch,
		UpdatedAt:       testEpoch,
	}
	f.plans[priceID] = p
	return p
}

func (f *fakeStore) addSample(t domain.SampleType, premium, stems bool) repository.Sample {
	s := repository.Sample{
		ID:         uuid.New(),
		PackID:     uuid.New(),
		Name:       "Kick 01",
		SampleType: string(t),
		IsPremium:  premium,
		HasStems:   stems,
		FileKey:    "samples/kick01.wav",
		CreatedAt:  testEpoch,
		UpdatedAt:  testEpoch,
	}
	if stems {
		s.StemsKey = sql.NullString{String: "stems/kick01.zip", Valid: true}
	}
	f.samples[s.ID] = s
	return s
}

func (f *fakeStore) jobsOfKind(kind domain.BillingEmailKind) int {
	n := 0
	for _, j := range f.jobs {
		if strings.Contains(string(j.Payload), `"kind":"`+string(kind)+`"`) {
			n++
		}
	}
	return n
}

// Customers

func (f *fakeStore) AddCustomerCredits(ctx context.Context, arg repository.AddCustomerCreditsParams) (int32, error) {
	if err := f.fail("AddCustomerCredits"); err != nil {
		return 0, err
	}
	c, ok := f.customers[arg.ID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	c.Credits += arg.Amount
	f.customers[c.ID] = c
	return c.Credits, nil
}

func (f *fakeStore) DebitCustomerCredits(ctx context.Context, arg repository.DebitCustomerCreditsParams) (int32, error) {
	if err := f.fail("DebitCustomerCredits"); err != nil {
		return 0, err
	}
	c, ok := f.customers[arg.ID]
	if !ok || c.Credits < arg.Amount {
		return 0, sql.ErrNoRows
	}
	c.Credits -= arg.Amount
	f.customers[c.ID] = c
	return c.Credits, nil
}

func (f *fakeStore) GetCustomerByID(ctx context.Context, id uuid.UUID) (repository.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return repository.Customer{}, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) GetCustomerByStripeCustomerID(ctx context.Context, stripeCustomerID string) (repository.Customer, error) {
	if err := f.fail("GetCustomerByStripeCustomerID"); err != nil {
		return repository.Customer{}, err
	}
	for _, c := range f.customers {
		if c.StripeCustomerID.Valid && c.StripeCustomerID.String == stripeCustomerID {
			return c, nil
		}
	}
	return repository.Customer{}, sql.ErrNoRows
}

func (f *fakeStore) LinkStripeCustomer(ctx context.Context, arg repository.LinkStripeCustomerParams) (int64, error) {
	c, ok := f.customers[arg.ID]
	if !ok {
		return 0, nil
	}
	if c.StripeCustomerID.Valid && c.StripeCustomerID.String != arg.StripeCustomerID {
		return 0, nil
	}
	c.StripeCustomerID = sql.NullString{String: arg.StripeCustomerID, Valid: true}
	f.customers[c.ID] = c
	return 1, nil
}

func (f *fakeStore) UpdateCustomerTier(ctx context.Context, arg repository.UpdateCustomerTierParams) error {
	if err := f.fail("UpdateCustomerTier"); err != nil {
		return err
	}
	c, ok := f.customers[arg.ID]
	if !ok {
		return nil
	}
	c.SubscriptionTier = arg.SubscriptionTier
	f.customers[c.ID] = c
	return nil
}

// Ledger

func (f *fakeStore) InsertLedgerEntry(ctx context.Context, arg repository.InsertLedgerEntryParams) (repository.CreditLedger, error) {
	if err := f.fail("InsertLedgerEntry"); err != nil {
		return repository.CreditLedger{}, err
	}
	for _, e := range f.ledger {
		if e.Reference == arg.Reference {
			return repository.CreditLedger{}, &pgconn.PgError{Code: "23505"}
		}
	}
	e := repository.CreditLedger{
		ID:           uuid.New(),
		CustomerID:   arg.CustomerID,
		Delta:        arg.Delta,
		BalanceAfter: arg.BalanceAfter,
		Reason:       arg.Reason,
		Reference:    arg.Reference,
		CreatedAt:    f.tick(),
	}
	f.ledger = append(f.ledger, e)
	return e, nil
}

func (f *fakeStore) LedgerReferenceExists(ctx context.Context, reference string) (bool, error) {
	for _, e := range f.ledger {
		if e.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListLedgerEntriesByCustomer(ctx context.Context, arg repository.ListLedgerEntriesByCustomerParams) ([]repository.CreditLedger, error) {
	var out []repository.CreditLedger
	for i := len(f.ledger) - 1; i >= 0 && len(out) < int(arg.Limit); i-- {
		if f.ledger[i].CustomerID == arg.CustomerID {
			out = append(out, f.ledger[i])
		}
	}
	return out, nil
}

// Plans

func (f *fakeStore) CreatePlan(ctx context.Context, arg repository.CreatePlanParams) (repository.Plan, error) {
	if _, ok := f.plans[arg.StripePriceID]; ok {
		return repository.Plan{}, &pgconn.PgError{Code: "23505"}
	}
	p := repository.Plan{
		ID:              uuid.New(),
		Name:            arg.Name,
		Tier:            arg.Tier,
		StripePriceID:   arg.StripePriceID,
		StripeProductID: arg.StripeProductID,
		AmountCents:     arg.AmountCents,
		Currency:        arg.Currency,
		BillingInterval: arg.BillingInterval,
		TrialDays:       arg.TrialDays,
		Active:          true,
		CreatedAt:       f.tick(),
	}
	f.plans[p.StripePriceID] = p
	return p, nil
}

func (f *fakeStore) DeactivatePlan(ctx context.Context, stripePriceID string) (int64, error) {
	p, ok := f.plans[stripePriceID]
	if !ok {
		return 0, nil
	}
	p.Active = false
	f.plans[stripePriceID] = p
	return 1, nil
}

func (f *fakeStore) GetPlanByPriceID(ctx context.Context, stripePriceID string) (repository.Plan, error) {
	if err := f.fail("GetPlanByPriceID"); err != nil {
		return repository.Plan{}, err
	}
	p, ok := f.plans[stripePriceID]
	if !ok {
		return repository.Plan{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) ListActivePlans(ctx context.Context) ([]repository.Plan, error) {
	var out []repository.Plan
	for _, p := range f.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b repository.Plan) int {
		return int(a.AmountCents - b.AmountCents)
	})
	return out, nil
}

// Samples

func (f *fakeStore) GetSampleByID(ctx context.Context, id uuid.UUID) (repository.Sample, error) {
	s, ok := f.samples[id]
	if !ok {
		return repository.Sample{}, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) UpdateSampleCostOverride(ctx context.Context, arg repository.UpdateSampleCostOverrideParams) (repository.Sample, error) {
	s, ok := f.samples[arg.ID]
	if !ok {
		return repository.Sample{}, sql.ErrNoRows
	}
	s.CreditCostOverride = arg.CreditCostOverride
	f.samples[s.ID] = s
	return s, nil
}

// Subscriptions

func (f *fakeStore) GetCurrentSubscriptionByCustomer(ctx context.Context, arg repository.GetCurrentSubscriptionByCustomerParams) (repository.Subscription, error) {
	var (
		found repository.Subscription
		ok    bool
	)
	for _, s := range f.subs {
		if s.CustomerID != arg.CustomerID || !slices.Contains(arg.Statuses, s.Status) {
			continue
		}
		if !ok || s.StartedAt.After(found.StartedAt) {
			found, ok = s, true
		}
	}
	if !ok {
		return repository.Subscription{}, sql.ErrNoRows
	}
	return found, nil
}

func (f *fakeStore) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (repository.Subscription, error) {
	s, ok := f.subs[stripeSubscriptionID]
	if !ok {
		return repository.Subscription{}, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) MarkSubscriptionCanceled(ctx context.Context, stripeSubscriptionID string) (repository.Subscription, error) {
	s, ok := f.subs[stripeSubscriptionID]
	if !ok {
		return repository.Subscription{}, sql.ErrNoRows
	}
	s.Status = string(domain.SubscriptionStatusCanceled)
	s.CancelAtPeriodEnd = false
	f.subs[stripeSubscriptionID] = s
	return s, nil
}

func (f *fakeStore) SetSubscriptionCancelAtPeriodEnd(ctx context.Context, arg repository.SetSubscriptionCancelAtPeriodEndParams) error {
	if err := f.fail("SetSubscriptionCancelAtPeriodEnd"); err != nil {
		return err
	}
	for k, s := range f.subs {
		if s.ID == arg.ID {
			s.CancelAtPeriodEnd = arg.CancelAtPeriodEnd
			f.subs[k] = s
		}
	}
	return nil
}

func (f *fakeStore) UpdateSubscriptionPrice(ctx context.Context, arg repository.UpdateSubscriptionPriceParams) error {
	for k, s := range f.subs {
		if s.ID == arg.ID {
			s.StripePriceID = arg.StripePriceID
			s.Tier = arg.Tier
			f.subs[k] = s
		}
	}
	return nil
}

func (f *fakeStore) UpdateSubscriptionStatusByStripeID(ctx context.Context, arg repository.UpdateSubscriptionStatusByStripeIDParams) (repository.Subscription, error) {
	s, ok := f.subs[arg.StripeSubscriptionID]
	if !ok || s.Status == string(domain.SubscriptionStatusCanceled) {
		return repository.Subscription{}, sql.ErrNoRows
	}
	s.Status = arg.Status
	f.subs[arg.StripeSubscriptionID] = s
	return s, nil
}

func (f *fakeStore) UpsertSubscription(ctx context.Context, arg repository.UpsertSubscriptionParams) (repository.Subscription, error) {
	if err := f.fail("UpsertSubscription"); err != nil {
		return repository.Subscription{}, err
	}
	s, ok := f.subs[arg.StripeSubscriptionID]
	if !ok {
		s.ID = uuid.New()
		s.StartedAt = f.tick()
	} else if s.Status == string(domain.SubscriptionStatusCanceled) && arg.Status != string(domain.SubscriptionStatusCanceled) {
		return repository.Subscription{}, sql.ErrNoRows
	}
	s.CustomerID = arg.CustomerID
	s.StripeSubscriptionID = arg.StripeSubscriptionID
	s.StripePriceID = arg.StripePriceID
	s.StripeItemID = arg.StripeItemID
	s.Tier = arg.Tier
	s.Status = arg.Status
	s.CurrentPeriodStart = arg.CurrentPeriodStart
	s.CurrentPeriodEnd = arg.CurrentPeriodEnd
	s.CancelAtPeriodEnd = arg.CancelAtPeriodEnd
	s.TrialStart = arg.TrialStart
	s.TrialEnd = arg.TrialEnd
	f.subs[arg.StripeSubscriptionID] = s
	return s, nil
}

// Billing events

func (f *fakeStore) RecordBillingEvent(ctx context.Context, arg repository.RecordBillingEventParams) (repository.BillingEvent, error) {
	e, ok := f.events[arg.StripeEventID]
	if !ok {
		e = repository.BillingEvent{
			ID:            uuid.New(),
			StripeEventID: arg.StripeEventID,
			EventType:     arg.EventType,
			Payload:       arg.Payload,
			ReceivedAt:    f.tick(),
		}
	}
	e.DeliveryCount++
	f.events[arg.StripeEventID] = e
	return e, nil
}

func (f *fakeStore) CompleteBillingEvent(ctx context.Context, arg repository.CompleteBillingEventParams) error {
	e, ok := f.events[arg.StripeEventID]
	if !ok {
		return nil
	}
	e.Outcome = arg.Outcome
	e.ErrorMessage = arg.ErrorMessage
	e.ProcessedAt = sql.NullTime{Time: f.tick(), Valid: true}
	f.events[arg.StripeEventID] = e
	return nil
}

// Jobs

func (f *fakeStore) EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	if err := f.fail("EnqueueJob"); err != nil {
		return repository.Job{}, err
	}
	if arg.DedupKey.Valid {
		for _, existing := range f.jobs {
			if existing.DedupKey == arg.DedupKey {
				return repository.Job{}, sql.ErrNoRows
			}
		}
	}
	j := repository.Job{
		ID:          uuid.New(),
		JobType:     arg.JobType,
		Payload:     arg.Payload,
		Status:      "pending",
		Priority:    arg.Priority,
		MaxAttempts: arg.MaxAttempts,
		ScheduledAt: arg.ScheduledAt,
		CreatedAt:   f.tick(),
		DedupKey:    arg.DedupKey,
	}
	f.jobs = append(f.jobs, j)
	return j, nil
}

func (f *fakeStore) DequeueJob(ctx context.Context) (repository.Job, error) {
	return repository.Job{}, sql.ErrNoRows
}

func (f *fakeStore) RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error) {
	return 0, nil
}

func (f *fakeStore) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeStore) UpdateJobFailed(ctx context.Context, arg repository.UpdateJobFailedParams) error {
	return nil
}

func (f *fakeStore) UpdateJobFailedPermanently(ctx context.Context, arg repository.UpdateJobFailedPermanentlyParams) error {
	return nil
}

func (f *fakeStore) UpdateJobStarted(ctx context.Context, id uuid.UUID) error { return nil }

var _ repository.Store = (*fakeStore)(nil)

// =============================================================================
// Stripe
// =============================================================================

type fakeBilling struct {
	subs   map[string]*domain.ProviderSubscription
	prices map[string]*domain.ProviderPrice
	err    error
	calls  map[string]int

	lastCheckout billing.CheckoutParams
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{
		subs:   map[string]*domain.ProviderSubscription{},
		prices: map[string]*domain.ProviderPrice{},
		calls:  map[string]int{},
	}
}

func (b *fakeBilling) sub(id string) (*domain.ProviderSubscription, error) {
	if b.err != nil {
		return nil, b.err
	}
	s, ok := b.subs[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription: %s", id)
	}
	return s, nil
}

func (b *fakeBilling) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (string, error) {
	b.calls["checkout"]++
	if b.err != nil {
		return "", b.err
	}
	b.lastCheckout = params
	return "https://checkout.stripe.test/c/" + params.PriceID, nil
}

func (b *fakeBilling) CreatePortalSession(ctx context.Context, stripeCustomerID, returnURL string) (string, error) {
	b.calls["portal"]++
	if b.err != nil {
		return "", b.err
	}
	return "https://billing.stripe.test/p/" + stripeCustomerID, nil
}

func (b *fakeBilling) GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	b.calls["get_subscription"]++
	return b.sub(subscriptionID)
}

func (b *fakeBilling) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	b.calls["cancel"]++
	s, err := b.sub(subscriptionID)
	if err != nil {
		return nil, err
	}
	s.CancelAtPeriodEnd = true
	return s, nil
}

func (b *fakeBilling) Resume(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	b.calls["resume"]++
	s, err := b.sub(subscriptionID)
	if err != nil {
		return nil, err
	}
	s.CancelAtPeriodEnd = false
	return s, nil
}

func (b *fakeBilling) ChangePrice(ctx context.Context, subscriptionID, itemID, priceID string) (*domain.ProviderSubscription, error) {
	b.calls["change_price"]++
	s, err := b.sub(subscriptionID)
	if err != nil {
		return nil, err
	}
	s.PriceID = priceID
	return s, nil
}

func (b *fakeBilling) GetPrice(ctx context.Context, priceID string) (*domain.ProviderPrice, error) {
	b.calls["get_price"]++
	if b.err != nil {
		return nil, b.err
	}
	p, ok := b.prices[priceID]
	if !ok {
		return nil, fmt.Errorf("no such price: %s", priceID)
	}
	return p, nil
}

func (b *fakeBilling) CreatePrice(ctx context.Context, params billing.PriceParams) (*domain.ProviderPrice, error) {
	b.calls["create_price"]++
	if b.err != nil {
		return nil, b.err
	}
	p := &domain.ProviderPrice{
		ID:          fmt.Sprintf("price_new_%d", len(b.prices)+1),
		ProductID:   params.ProductID,
		AmountCents: params.AmountCents,
		Currency:    params.Currency,
		Interval:    params.Interval,
	}
	b.prices[p.ID] = p
	return p, nil
}

func (b *fakeBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	return stripe.Event{}, nil
}

var _ billing.Service = (*fakeBilling)(nil)

// =============================================================================
// Object storage
// =============================================================================

type fakeFiles struct {
	err     error
	missing map[string]bool
	signed  []string
}

func (s *fakeFiles) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.signed = append(s.signed, key)
	return "https://files.test/" + key + "?expires=" + expires.String(), nil
}

func (s *fakeFiles) Exists(ctx context.Context, key string) (bool, error) {
	return !s.missing[key], nil
}

var _ storage.Storage = (*fakeFiles)(nil)
