package httptransport

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"referearn/internal/notify"
	"referearn/internal/platform/logger"
	"referearn/internal/platform/metrics"
	"referearn/internal/platform/middleware"
	"referearn/internal/referral/handler"
	"referearn/internal/referral/models"
	"referearn/internal/referral/service"
	"referearn/internal/referral/store/memory"
	"referearn/pkg/testutil"
)

const frontendURL = "http://localhost:3000"

type recordingDialer struct {
	mu   sync.Mutex
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

type stack struct {
	router   http.Handler
	store    *memory.InMemory
	dialer   *recordingDialer
	registry *prometheus.Registry
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := logger.Discard()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	st := memory.New()
	dialer := &recordingDialer{}
	svc := service.New(st, notify.NewSMTPWithDialer(dialer, "noreply@referearn.test"),
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	router := NewRouter(Config{
		FrontendURL: frontendURL,
		Logger:      log,
		Metrics:     m,
		Gatherer:    registry,
	}, handler.New(svc, log))
	return &stack{router: router, store: st, dialer: dialer, registry: registry}
}

func (s *stack) list(t *testing.T) []models.Referral {
	t.Helper()
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/api/referrals", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return *testutil.UnmarshalResponse[[]models.Referral](t, rr)
}

func aliceRefersBob() map[string]string {
	return map[string]string{
		"referrerName":  "Alice",
		"referrerEmail": "alice@x.com",
		"refereeName":   "Bob",
		"refereeEmail":  "bob@x.com",
		"course":        "Go101",
	}
}

func TestSubmitReferral(t *testing.T) {
	testutil.Scenario(t, "valid submission is stored and the referee is emailed", func(t *testing.T) {
		s := newStack(t)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/referrals", aliceRefersBob()))

		testutil.Then(t, "the record is created as pending", func(t *testing.T) {
			require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
			body := testutil.UnmarshalResponse[handler.CreateResponse](t, rr)
			assert.Equal(t, "Referral created successfully", body.Message)
			require.NotNil(t, body.Referral)
			assert.Equal(t, models.StatusPending, body.Referral.Status)
			assert.Equal(t, "Alice", body.Referral.ReferrerName)
			assert.Equal(t, "bob@x.com", body.Referral.RefereeEmail)
			assert.Equal(t, "Go101", body.Referral.Course)
			assert.False(t, body.Referral.CreatedAt.IsZero())
		})
		testutil.Then(t, "exactly one email goes to the referee", func(t *testing.T) {
			require.Len(t, s.dialer.sent, 1)
			msg := s.dialer.sent[0]
			assert.Equal(t, []string{"bob@x.com"}, msg.GetHeader("To"))
			assert.Equal(t, []string{"Alice has referred you to a course!"}, msg.GetHeader("Subject"))
		})
	})

	testutil.Scenario(t, "missing field is rejected without side effects", func(t *testing.T) {
		s := newStack(t)
		body := aliceRefersBob()
		body["referrerEmail"] = ""

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/referrals", body))

		testutil.AssertErrorResponse(t, rr, http.StatusBadRequest, "All fields are required")
		assert.Empty(t, s.list(t))
		assert.Empty(t, s.dialer.sent)
	})

	testutil.Scenario(t, "failed email still leaves the record stored", func(t *testing.T) {
		s := newStack(t)
		s.dialer.err = errors.New("535 authentication failed")

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/referrals", aliceRefersBob()))

		testutil.AssertErrorResponse(t, rr, http.StatusInternalServerError, "Failed to process referral")
		listed := s.list(t)
		require.Len(t, listed, 1)
		assert.Equal(t, "Alice", listed[0].ReferrerName)
		assert.Equal(t, models.StatusPending, listed[0].Status)
	})
}

func TestListReferrals(t *testing.T) {
	s := newStack(t)
	for _, name := range []string{"Alice", "Carol", "Dave"} {
		body := aliceRefersBob()
		body["referrerName"] = name
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/referrals", body))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	first := s.list(t)
	require.Len(t, first, 3)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].CreatedAt.After(first[i-1].CreatedAt), "list must be newest first")
	}
	assert.Equal(t, first, s.list(t), "listing twice without writes returns the same sequence")
}

func TestListReferralsStoreFailure(t *testing.T) {
	s := newStack(t)
	require.NoError(t, s.store.Close())

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/api/referrals", nil))

	testutil.AssertErrorResponse(t, rr, http.StatusInternalServerError, "Failed to fetch referrals")
}

func TestHealth(t *testing.T) {
	t.Run("store reachable", func(t *testing.T) {
		s := newStack(t)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		body := testutil.UnmarshalResponse[models.HealthStatus](t, rr)
		assert.Equal(t, "OK", body.Status)
		assert.Equal(t, "Refer & Earn API", body.Service)
		assert.Equal(t, "Connected", body.DatabaseConnection)
		assert.False(t, body.Timestamp.IsZero())
	})

	t.Run("store unreachable still answers 200", func(t *testing.T) {
		s := newStack(t)
		require.NoError(t, s.store.Close())

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		body := testutil.UnmarshalResponse[models.HealthStatus](t, rr)
		assert.Equal(t, "OK", body.Status)
		assert.Equal(t, "Not Connected", body.DatabaseConnection)
	})
}

func TestCORS(t *testing.T) {
	s := newStack(t)

	t.Run("allowed origin is echoed with credentials", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/api/referrals", nil)
		req.Header.Set("Origin", frontendURL)

		rr := testutil.DoRequest(s.router, req)

		assert.Equal(t, frontendURL, rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight for POST is answered", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodOptions, "/api/referrals", nil)
		req.Header.Set("Origin", frontendURL)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		rr := testutil.DoRequest(s.router, req)

		assert.Less(t, rr.Code, 300)
		assert.Equal(t, frontendURL, rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("other origins get no allow header", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/api/referrals", nil)
		req.Header.Set("Origin", "http://evil.example")

		rr := testutil.DoRequest(s.router, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newStack(t)
	req := testutil.NewJSONRequest(t, http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")

	rr := testutil.DoRequest(s.router, req)

	assert.Equal(t, "req-123", rr.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newStack(t)
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/referrals", aliceRefersBob()))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `referearn_referrals_submitted_total{outcome="created"} 1`)
	assert.Contains(t, rr.Body.String(), "referearn_http_request_duration_seconds")
}
