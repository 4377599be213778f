package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/tansaku/internal/models"
)

func TestSearchViaHTTP(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.NewSearchResult(gotQuery, "iPhone 15", []string{"iPhone 15"}, nil))
	}))
	defer ts.Close()

	res, err := SearchViaHTTP(context.Background(), ts.Client(), ts.URL+"/", "iphone 15 & pro")
	if err != nil {
		t.Fatalf("SearchViaHTTP: %v", err)
	}
	if gotQuery != "iphone 15 & pro" {
		t.Errorf("server saw q=%q", gotQuery)
	}
	if res.Corrected != "iPhone 15" || len(res.Suggestions) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSearchViaHTTP_errorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"connection refused"}`))
	}))
	defer ts.Close()

	_, err := SearchViaHTTP(context.Background(), nil, ts.URL, "iphone")
	if err == nil || !strings.Contains(err.Error(), "connection refused") || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected server error with message, got %v", err)
	}
}

func TestSearchViaHTTP_unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if _, err := SearchViaHTTP(context.Background(), nil, url, "iphone"); err == nil {
		t.Error("expected error for unreachable server")
	}
}
