package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/DukeRupert/samplebase/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noAuth(next http.Handler) http.Handler { return next }

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) JSONErrorBody {
	t.Helper()
	var body JSONError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

// =============================================================================
// Services
// =============================================================================

type fakeSubscriptions struct {
	sub    *domain.Subscription
	cancel *domain.CancelResult
	resume *domain.ResumeResult
	change *domain.ChangePlanResult
	url    string
	err    error

	gotCustomer  uuid.UUID
	gotPrice     string
	gotCheckout  domain.CheckoutRequest
	gotReturnURL string
}

func (f *fakeSubscriptions) Current(ctx context.Context, customerID uuid.UUID) (*domain.Subscription, error) {
	f.gotCustomer = customerID
	return f.sub, f.err
}

func (f *fakeSubscriptions) CancelAtPeriodEnd(ctx context.Context, customerID uuid.UUID) (*domain.CancelResult, error) {
	f.gotCustomer = customerID
	return f.cancel, f.err
}

func (f *fakeSubscriptions) Resume(ctx context.Context, customerID uuid.UUID) (*domain.ResumeResult, error) {
	f.gotCustomer = customerID
	return f.resume, f.err
}

func (f *fakeSubscriptions) ChangePlan(ctx context.Context, customerID uuid.UUID, priceID string) (*domain.ChangePlanResult, error) {
	f.gotCustomer = customerID
	f.gotPrice = priceID
	return f.change, f.err
}

func (f *fakeSubscriptions) StartCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	f.gotCheckout = req
	return f.url, f.err
}

func (f *fakeSubscriptions) PortalURL(ctx context.Context, customerID uuid.UUID, returnURL string) (string, error) {
	f.gotCustomer = customerID
	f.gotReturnURL = returnURL
	return f.url, f.err
}

var _ service.SubscriptionService = (*fakeSubscriptions)(nil)

type fakeCredits struct {
	quote    *domain.SampleQuote
	download *domain.SampleDownload
	ranges   []domain.CostRangeInfo
	err      error

	gotSample   uuid.UUID
	gotCustomer uuid.UUID
	gotOverride *int
	gotParams   domain.QuoteParams
	calls       int
}

func (f *fakeCredits) Quote(ctx context.Context, sampleID uuid.UUID) (*domain.SampleQuote, error) {
	f.calls++
	f.gotSample = sampleID
	return f.quote, f.err
}

func (f *fakeCredits) QuoteAttributes(params domain.QuoteParams) (*domain.SampleQuote, error) {
	f.calls++
	f.gotParams = params
	return f.quote, f.err
}

func (f *fakeCredits) Ranges() []domain.CostRangeInfo {
	f.calls++
	return f.ranges
}

func (f *fakeCredits) SetCostOverride(ctx context.Context, sampleID uuid.UUID, override *int) (*domain.SampleQuote, error) {
	f.calls++
	f.gotSample = sampleID
	f.gotOverride = override
	return f.quote, f.err
}

func (f *fakeCredits) Download(ctx context.Context, customerID, sampleID uuid.UUID) (*domain.SampleDownload, error) {
	f.calls++
	f.gotCustomer = customerID
	f.gotSample = sampleID
	return f.download, f.err
}

func (f *fakeCredits) GrantForInvoice(ctx context.Context, q repository.Querier, customerID uuid.UUID, tier domain.SubscriptionTier, invoiceID string) (int, error) {
	return 0, nil
}

var _ service.CreditService = (*fakeCredits)(nil)

type fakePlans struct {
	plans []domain.Plan
	plan  *domain.Plan
	err   error

	gotParams   domain.CreatePlanParams
	deactivated string
	calls       int
}

func (f *fakePlans) ListActive(ctx context.Context) ([]domain.Plan, error) {
	f.calls++
	return f.plans, f.err
}

func (f *fakePlans) GetByPriceID(ctx context.Context, priceID string) (*domain.Plan, error) {
	f.calls++
	return f.plan, f.err
}

func (f *fakePlans) Create(ctx context.Context, params domain.CreatePlanParams) (*domain.Plan, error) {
	f.calls++
	f.gotParams = params
	return f.plan, f.err
}

func (f *fakePlans) Deactivate(ctx context.Context, priceID string) error {
	f.calls++
	f.deactivated = priceID
	return f.err
}

func (f *fakePlans) TierForPrice(ctx context.Context, priceID string) (domain.SubscriptionTier, error) {
	return domain.SubscriptionTierFree, nil
}

var _ service.PlanService = (*fakePlans)(nil)

type fakeCustomers struct {
	customer *domain.Customer
	entries  []domain.LedgerEntry
	err      error

	gotLimit int
}

func (f *fakeCustomers) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return f.customer, f.err
}

func (f *fakeCustomers) Ledger(ctx context.Context, id uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	f.gotLimit = limit
	return f.entries, f.err
}

var _ service.CustomerService = (*fakeCustomers)(nil)

// =============================================================================
// Webhook collaborators
// =============================================================================

type fakeVerifier struct {
	event stripe.Event
	err   error
}

func (f *fakeVerifier) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	return f.event, f.err
}

type completion struct {
	eventID string
	outcome domain.Outcome
	err     error
}

type fakeEventLog struct {
	processed   bool
	beginErr    error
	completeErr error

	begun     []string
	completed []completion
}

func (f *fakeEventLog) Begin(ctx context.Context, eventID, eventType string, payload []byte) (bool, error) {
	f.begun = append(f.begun, eventID)
	return f.processed, f.beginErr
}

func (f *fakeEventLog) Complete(ctx context.Context, eventID string, outcome domain.Outcome, procErr error) error {
	f.completed = append(f.completed, completion{eventID, outcome, procErr})
	return f.completeErr
}

var _ service.EventLog = (*fakeEventLog)(nil)

type fakeReconciler struct {
	outcome domain.Outcome
	err     error
	got     []domain.BillingEvent
}

func (f *fakeReconciler) Reconcile(ctx context.Context, event domain.BillingEvent) (domain.Outcome, error) {
	f.got = append(f.got, event)
	return f.outcome, f.err
}

var _ service.Reconciler = (*fakeReconciler)(nil)
