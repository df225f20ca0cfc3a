package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"vehicle-dashboard/charts"
	"vehicle-dashboard/models"
	"vehicle-dashboard/services"
	"vehicle-dashboard/utils"
)

type stubLoader struct {
	rs    *models.RecordSet
	err   error
	calls int
}

func (s *stubLoader) Load(context.Context) (*models.RecordSet, error) {
	s.calls++
	return s.rs, s.err
}

func twoPointSet() *models.RecordSet {
	return &models.RecordSet{
		Columns: []string{"price", "odometer", "condition"},
		Vehicles: []*models.Vehicle{
			{
				Price:     sql.NullFloat64{Float64: 20000, Valid: true},
				Odometer:  sql.NullFloat64{Float64: 10000, Valid: true},
				Condition: "good",
				Values:    []string{"20000", "10000", "good"},
			},
			{
				Price:     sql.NullFloat64{Float64: 10000, Valid: true},
				Odometer:  sql.NullFloat64{Float64: 50000, Valid: true},
				Condition: "fair",
				Values:    []string{"10000", "50000", "fair"},
			},
		},
	}
}

func newTestServer(t *testing.T, loader DatasetLoader) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := utils.Discard()
	srv, err := NewServer(loader, services.NewDashboardService(logger), charts.NewRenderer(), logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndexRendersActiveViews(t *testing.T) {
	loader := &stubLoader{rs: twoPointSet()}
	srv := newTestServer(t, loader)

	rec := get(t, srv, "/?odometer_histogram=1&raw_preview=on")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()

	for _, want := range []string{
		"Total vehicles",
		"$15,000",
		`src="/charts/odometer_histogram.png"`,
		"Showing the first 2 rows of 2 total records",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `id="price_histogram"`) {
		t.Error("inactive view rendered")
	}
	if loader.calls != 1 {
		t.Errorf("loader calls: got %d, want 1", loader.calls)
	}
}

func TestIndexDataUnavailable(t *testing.T) {
	srv := newTestServer(t, &stubLoader{err: fmt.Errorf("load: %w", models.ErrDataUnavailable)})

	rec := get(t, srv, "/")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Data unavailable") {
		t.Error("expected a blocking error message")
	}
}

func TestAPIDashboard(t *testing.T) {
	srv := newTestServer(t, &stubLoader{rs: twoPointSet()})

	rec := get(t, srv, "/api/dashboard?odometer_price_scatter=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var payload struct {
		Branches []struct {
			ID          string `json:"id"`
			Correlation struct {
				Value struct {
					Value *float64 `json:"value"`
				} `json:"value"`
				Relation string `json:"relation"`
			} `json:"correlation"`
		} `json:"branches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Branches) != 1 || payload.Branches[0].ID != models.BranchOdometerPriceScatter {
		t.Fatalf("unexpected branches: %+v", payload.Branches)
	}
	corr := payload.Branches[0].Correlation
	if corr.Value.Value == nil || *corr.Value.Value != -1 || corr.Relation != models.RelationNegative {
		t.Errorf("unexpected correlation: %+v", corr)
	}
}

func TestAPIUndefinedStatIsNull(t *testing.T) {
	rs := twoPointSet()
	rs.Vehicles[1].Odometer = sql.NullFloat64{}
	srv := newTestServer(t, &stubLoader{rs: rs})

	rec := get(t, srv, "/api/dashboard?odometer_price_scatter=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"label":"Correlation","value":null`)) {
		t.Errorf("expected null correlation: %s", rec.Body.String())
	}
}

func TestAPIWideRangeHistogram(t *testing.T) {
	rs := twoPointSet()
	rs.Vehicles[0].Price = sql.NullFloat64{Float64: -1e308, Valid: true}
	rs.Vehicles[1].Price = sql.NullFloat64{Float64: 1e308, Valid: true}
	srv := newTestServer(t, &stubLoader{rs: rs})

	rec := get(t, srv, "/api/dashboard?price_histogram=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var payload struct {
		Branches []struct {
			Histogram struct {
				Bins []struct {
					Count int `json:"count"`
				} `json:"bins"`
			} `json:"histogram"`
		} `json:"branches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if len(payload.Branches) != 1 || len(payload.Branches[0].Histogram.Bins) != 50 {
		t.Fatalf("unexpected branches: %+v", payload.Branches)
	}
}

func TestAPIDataUnavailable(t *testing.T) {
	srv := newTestServer(t, &stubLoader{err: models.ErrDataUnavailable})
	if rec := get(t, srv, "/api/dashboard"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rec.Code)
	}
}

func TestChartEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubLoader{rs: twoPointSet()})

	rec := get(t, srv, "/charts/condition_scatter.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type: got %q", ct)
	}

	for _, target := range []string{"/charts/raw_preview.png", "/charts/pie.png", "/charts/price_histogram"} {
		if rec := get(t, srv, target); rec.Code != http.StatusNotFound {
			t.Errorf("%s: got %d, want 404", target, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubLoader{})
	if rec := get(t, srv, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestParseFlagsRoundTrip(t *testing.T) {
	flags := models.ViewFlags{OdometerHistogram: true, ConditionScatter: true}
	values, err := url.ParseQuery(Query(flags))
	if err != nil {
		t.Fatal(err)
	}
	if got := ParseFlags(values.Get); got != flags {
		t.Errorf("round trip: got %+v, want %+v", got, flags)
	}

	junk := url.Values{"price_histogram": {"maybe"}, "raw_preview": {"YES"}}
	got := ParseFlags(junk.Get)
	if got.PriceHistogram || !got.RawPreview {
		t.Errorf("unexpected flags: %+v", got)
	}
}
