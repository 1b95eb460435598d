package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/imelnik/fintrack/internal/domain"
	"github.com/imelnik/fintrack/internal/handler"
	"github.com/imelnik/fintrack/internal/infra/cache"
	"github.com/imelnik/fintrack/internal/infra/observability"
	"github.com/imelnik/fintrack/internal/service"
)

// stubStore serves canned data and optionally fails every call.
type stubStore struct {
	credits  []domain.Credit
	payments []domain.Payment
	plans    []domain.Plan
	failing  bool
}

func (s *stubStore) err() error {
	if s.failing {
		return errors.New("store down")
	}
	return nil
}

func (s *stubStore) CreditsIssuedBetween(context.Context, time.Time, time.Time) ([]domain.Credit, error) {
	return s.credits, s.err()
}
func (s *stubStore) PaymentsBetween(context.Context, time.Time, time.Time) ([]domain.Payment, error) {
	return s.payments, s.err()
}
func (s *stubStore) PlansBetween(context.Context, time.Time, time.Time) ([]domain.Plan, error) {
	return s.plans, s.err()
}
func (s *stubStore) CreditsByUser(_ context.Context, userID int64) ([]domain.Credit, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	var out []domain.Credit
	for _, c := range s.credits {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (s *stubStore) PaymentsByCredits(context.Context, []int64) ([]domain.Payment, error) {
	return s.payments, s.err()
}
func (s *stubStore) PlansUpTo(context.Context, time.Time) ([]domain.Plan, error) {
	return s.plans, s.err()
}
func (s *stubStore) InsertPlans(_ context.Context, plans []domain.Plan) (int, error) {
	if err := s.err(); err != nil {
		return 0, err
	}
	for _, p := range plans {
		for _, existing := range s.plans {
			if existing.Period.Equal(p.Period) && existing.Category == p.Category {
				return 0, &domain.ErrDuplicate{Key: "plan"}
			}
		}
	}
	s.plans = append(s.plans, plans...)
	return len(plans), nil
}
func (s *stubStore) Ping(context.Context) error { return s.err() }

func newTestServer(t *testing.T, store *stubStore) *httptest.Server {
	t.Helper()
	metrics := observability.NewMetrics()
	svc := service.NewReportService(store, cache.New(time.Minute), service.Config{
		CacheTTL: time.Minute,
		Now:      func() time.Time { return time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC) },
	}, metrics, zap.NewNop())

	srv := httptest.NewServer(handler.NewRouter(svc, metrics, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func seededStub() *stubStore {
	return &stubStore{
		credits: []domain.Credit{
			{ID: 1, UserID: 1, IssuanceDate: time.Date(2021, time.March, 5, 0, 0, 0, 0, time.UTC),
				ReturnDate: time.Date(2022, time.March, 5, 0, 0, 0, 0, time.UTC), Body: 1000, Percent: 120},
		},
		plans: []domain.Plan{
			{ID: 1, Period: time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC), Sum: 2000, Category: domain.CategoryIssuance},
		},
	}
}

func TestYearPerformanceEndpoint(t *testing.T) {
	srv := newTestServer(t, seededStub())

	resp, err := http.Get(srv.URL + "/year_performance?year=2021")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rows []domain.MonthlyPerformance
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}
	if rows[0].MonthYear != "2021-01" {
		t.Errorf("expected first row 2021-01, got %s", rows[0].MonthYear)
	}
}

func TestYearPerformanceEndpoint_BadParams(t *testing.T) {
	srv := newTestServer(t, seededStub())

	for _, path := range []string{"/year_performance", "/year_performance?year=abc"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestYearPerformanceEndpoint_StoreDown(t *testing.T) {
	store := seededStub()
	store.failing = true
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/year_performance?year=2021")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestUserCreditsEndpoint(t *testing.T) {
	srv := newTestServer(t, seededStub())

	resp, err := http.Get(srv.URL + "/user_credits/1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var summaries []domain.CreditSummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
}

func TestUserCreditsEndpoint_UnknownUserEmptyArray(t *testing.T) {
	srv := newTestServer(t, seededStub())

	resp, err := http.Get(srv.URL + "/user_credits/9999")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	if got := strings.TrimSpace(body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

func TestUserCreditsEndpoint_BadID(t *testing.T) {
	srv := newTestServer(t, seededStub())

	resp, err := http.Get(srv.URL + "/user_credits/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlansPerformanceEndpoint(t *testing.T) {
	srv := newTestServer(t, seededStub())

	resp, err := http.Get(srv.URL + "/plans_performance?check_date=2021-12-31")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rows []domain.PlanPerformanceRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestPlansPerformanceEndpoint_BadDate(t *testing.T) {
	srv := newTestServer(t, seededStub())

	for _, path := range []string{"/plans_performance", "/plans_performance?check_date=31.12.2021"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func multipartCSV(t *testing.T, contents string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", "plans.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(contents))
	mw.Close()
	return buf, mw.FormDataContentType()
}

func TestPlansInsertEndpoint_Multipart(t *testing.T) {
	srv := newTestServer(t, seededStub())

	body, contentType := multipartCSV(t, "month,category_name,sum\n2021-06-01,Collection,10000\n")
	resp, err := http.Post(srv.URL+"/plans_insert", contentType, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Message  string `json:"message"`
		Inserted int    `json:"inserted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Message != "Plans inserted successfully" || out.Inserted != 1 {
		t.Errorf("unexpected response: %+v", out)
	}
}

func TestPlansInsertEndpoint_RawBody(t *testing.T) {
	srv := newTestServer(t, seededStub())

	csv := "month,category_name,sum\n2021-07-01,Issuance,8000\n"
	resp, err := http.Post(srv.URL+"/plans_insert", "text/csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestPlansInsertEndpoint_UnknownCategory(t *testing.T) {
	srv := newTestServer(t, seededStub())

	body, contentType := multipartCSV(t, "month,category_name,sum\n2021-06-01,Bogus,10000\n")
	resp, err := http.Post(srv.URL+"/plans_insert", contentType, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlansInsertEndpoint_DuplicateConflict(t *testing.T) {
	srv := newTestServer(t, seededStub()) // already has 2021-03 issuance

	body, contentType := multipartCSV(t, "month,category_name,sum\n2021-03-01,Issuance,500\n")
	resp, err := http.Post(srv.URL+"/plans_insert", contentType, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestPlansInsertEndpoint_EmptyFile(t *testing.T) {
	srv := newTestServer(t, seededStub())

	body, contentType := multipartCSV(t, "")
	resp, err := http.Post(srv.URL+"/plans_insert", contentType, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, seededStub())

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHealthz_StoreDown(t *testing.T) {
	store := seededStub()
	store.failing = true
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestCacheMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, seededStub())

	// Miss then hit.
	http.Get(srv.URL + "/year_performance?year=2021")
	http.Get(srv.URL + "/year_performance?year=2021")

	resp, err := http.Get(srv.URL + "/v1/metrics/cache")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var snap domain.CacheMetrics
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Hits < 1 || snap.Misses < 1 {
		t.Errorf("expected at least one hit and one miss, got %+v", snap)
	}
}
