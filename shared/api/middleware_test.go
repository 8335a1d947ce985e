package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/logging"
)

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logging.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body JSONErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != http.StatusInternalServerError || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestBaseServerMiddleware(t *testing.T) {
	bs := NewBaseServer(":0", logging.Discard())
	bs.Router.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		WriteErrorDetails(w, http.StatusTeapot, "short and stout", "teapot")
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	bs.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
	var body JSONErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Details != "teapot" {
		t.Errorf("details = %q", body.Details)
	}
}
