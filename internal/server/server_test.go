package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fixitapp/internal/booking"
	"fixitapp/internal/catalog"
	"fixitapp/internal/config"
	"fixitapp/internal/inventory"
	"fixitapp/internal/otp"
	"fixitapp/internal/repository"
	"fixitapp/internal/repository/memory"
	"fixitapp/internal/schedule"
	"fixitapp/internal/server"
	"fixitapp/internal/servicearea"
	"fixitapp/internal/wizard"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGeocoder struct{}

func (stubGeocoder) Search(ctx context.Context, query string) ([]servicearea.Candidate, error) {
	return []servicearea.Candidate{{
		Display: "12 King St, Saint Augustine, FL",
		City:    "Saint Augustine",
		State:   "FL",
	}}, nil
}

type captureSender struct {
	mu   sync.Mutex
	code string
}

func (s *captureSender) Send(ctx context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	return nil
}

func (s *captureSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

type testServer struct {
	router http.Handler
	repos  *repository.Repositories
	sender *captureSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{Debug: true}
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 5
	cfg.Server.WriteTimeout = 5
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 24
	cfg.Business.Name = "FixIt Phone Repair"

	cat, err := catalog.Default()
	require.NoError(t, err)

	repos := memory.NewRepositories()
	checker := inventory.NewChecker(inventory.NewStaticProvider(cat.StockTable()))
	matcher := schedule.NewMatcher(checker)
	validator := servicearea.NewValidator("FL", []string{"Saint Augustine", "Jacksonville"})
	sender := &captureSender{}
	codes := otp.NewController(otp.NewMemoryStore(), sender, 10*time.Minute)
	committer := booking.NewCommitter(repos.Customers, repos.Bookings, cat, zap.NewNop())

	engine := wizard.NewEngine(cat, checker, matcher, validator,
		schedule.NewStaticProvider(nil), stubGeocoder{}, codes, committer, zap.NewNop())

	sessions := wizard.NewStore(time.Minute)
	t.Cleanup(sessions.Close)

	srv := server.New(cfg, repos, engine, sessions, zap.NewNop())
	return &testServer{router: srv.GetRouter(), repos: repos, sender: sender}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return ts.doWithCookies(t, method, path, body, nil)
}

func (ts *testServer) doWithCookies(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	require.Equal(t, "ok", body["status"])
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/catalog/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var devices []map[string]interface{}
	decodeBody(t, rec, &devices)
	require.Len(t, devices, 5)

	rec = ts.do(t, http.MethodGet, "/api/catalog/tiers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tiers []map[string]interface{}
	decodeBody(t, rec, &tiers)
	require.Len(t, tiers, 3)
}

func TestTierOptions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/catalog/options?deviceId=3&repair=screen", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var options []struct {
		Tier  struct{ ID string }
		Price float64
		Stock string
	}
	decodeBody(t, rec, &options)
	require.Len(t, options, 3)

	// iPhone SE screens offer only two tiers
	rec = ts.do(t, http.MethodGet, "/api/catalog/options?deviceId=1&repair=screen", nil)
	decodeBody(t, rec, &options)
	require.Len(t, options, 2)

	rec = ts.do(t, http.MethodGet, "/api/catalog/options?deviceId=99&repair=screen", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownSessionReturns404(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/sessions/nope/", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuardRefusalReturns422(t *testing.T) {
	ts := newTestServer(t)

	var view struct{ ID string }
	rec := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeBody(t, rec, &view)

	// Next without a device selection
	rec = ts.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errBody struct{ Code string }
	decodeBody(t, rec, &errBody)
	require.Equal(t, "validation_blocked", errBody.Code)
}

func TestVerifyConfirmRequiresSixDigits(t *testing.T) {
	ts := newTestServer(t)

	var view struct{ ID string }
	rec := ts.do(t, http.MethodPost, "/api/sessions", nil)
	decodeBody(t, rec, &view)

	rec = ts.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/verify/confirm",
		map[string]interface{}{"digits": []string{"1", "2", "3"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFullBookingFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	var view struct {
		ID          string
		Step        string
		MinimumDate string
	}
	rec := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeBody(t, rec, &view)
	base := "/api/sessions/" + view.ID

	rec = ts.do(t, http.MethodPost, base+"/device", map[string]interface{}{"deviceId": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/issues", map[string]interface{}{"repairId": "screen"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, base+"/tier", map[string]interface{}{"repairId": "screen", "tierId": "premium"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	require.NotEmpty(t, view.MinimumDate)

	rec = ts.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	require.Equal(t, "schedule", view.Step)

	// Slots for the earliest date
	rec = ts.do(t, http.MethodGet, base+"/slots?date="+view.MinimumDate, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slots struct{ Slots []string }
	decodeBody(t, rec, &slots)
	require.NotEmpty(t, slots.Slots)

	rec = ts.do(t, http.MethodPost, base+"/schedule",
		map[string]interface{}{"date": view.MinimumDate, "timeSlot": slots.Slots[0]})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/address/select", map[string]interface{}{
		"display": "12 King St, Saint Augustine, FL",
		"city":    "Saint Augustine",
		"state":   "FL",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	require.Equal(t, "review", view.Step)

	rec = ts.do(t, http.MethodPost, base+"/contact", map[string]interface{}{
		"name": "Ana Lopez", "email": "ana@example.com", "phone": "555-0101",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	require.Equal(t, "verify", view.Step)

	rec = ts.do(t, http.MethodPost, base+"/verify/request", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/verify/confirm",
		map[string]interface{}{"code": ts.sender.last()})
	require.Equal(t, http.StatusOK, rec.Code)

	var confirmed struct {
		Session struct {
			Step       string
			BookingRef string
		}
		Booking struct {
			Reference     string
			Status        string
			TotalEstimate float64
		}
	}
	decodeBody(t, rec, &confirmed)
	require.Equal(t, "booked", confirmed.Session.Step)
	require.Equal(t, confirmed.Booking.Reference, confirmed.Session.BookingRef)
	require.Equal(t, "pending", confirmed.Booking.Status)
	require.Equal(t, 198.0, confirmed.Booking.TotalEstimate)

	// Verification signs the customer in for later visits
	cookies := rec.Result().Cookies()
	var authCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == "auth_token" {
			authCookie = c
		}
	}
	require.NotNil(t, authCookie)

	var authed struct{ Authenticated bool }
	rec = ts.doWithCookies(t, http.MethodPost, "/api/sessions", nil, []*http.Cookie{authCookie})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeBody(t, rec, &authed)
	require.True(t, authed.Authenticated)

	// The committed booking is retrievable, with its QR label
	rec = ts.do(t, http.MethodGet, "/api/bookings/"+confirmed.Booking.Reference, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/bookings/%s/label.png", confirmed.Booking.Reference), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestRejectedAddressOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	var view struct{ ID string }
	rec := ts.do(t, http.MethodPost, "/api/sessions", nil)
	decodeBody(t, rec, &view)
	base := "/api/sessions/" + view.ID

	ts.do(t, http.MethodPost, base+"/device", map[string]interface{}{"deviceId": 3})
	ts.do(t, http.MethodPost, base+"/next", nil)
	ts.do(t, http.MethodPost, base+"/issues", map[string]interface{}{"repairId": "screen"})
	ts.do(t, http.MethodPost, base+"/tier", map[string]interface{}{"repairId": "screen", "tierId": "premium"})
	ts.do(t, http.MethodPost, base+"/next", nil)

	rec = ts.do(t, http.MethodPost, base+"/address/select", map[string]interface{}{
		"display": "100 Congress Ave, Austin, TX",
		"city":    "Austin",
		"state":   "TX",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errBody struct{ Code string }
	decodeBody(t, rec, &errBody)
	require.Equal(t, "service_area_rejected", errBody.Code)
}

func TestConcurrentSessionReadsAndWrites(t *testing.T) {
	ts := newTestServer(t)

	var view struct{ ID string }
	rec := ts.do(t, http.MethodPost, "/api/sessions", nil)
	decodeBody(t, rec, &view)
	base := "/api/sessions/" + view.ID

	ts.do(t, http.MethodPost, base+"/device", map[string]interface{}{"deviceId": 3})
	ts.do(t, http.MethodPost, base+"/next", nil)

	// Racing mutations and view renders for one session must stay safe
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				ts.do(t, http.MethodPost, base+"/notes",
					map[string]interface{}{"notes": fmt.Sprintf("note %d-%d", n, j)})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				rec := ts.do(t, http.MethodGet, base+"/", nil)
				require.Equal(t, http.StatusOK, rec.Code)
			}
		}()
	}
	wg.Wait()
}

func TestBookingNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/bookings/FX-NOPE", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
