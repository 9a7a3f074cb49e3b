package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/trivia/go/internal/models"
)

type fakeProvider struct {
	sessions []models.SessionSummary
}

func (f fakeProvider) Sessions() []models.SessionSummary { return f.sessions }

func (f fakeProvider) Session(id string) (models.SessionSummary, bool) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return models.SessionSummary{}, false
}

func TestStateRoutes(t *testing.T) {
	provider := fakeProvider{sessions: []models.SessionSummary{
		{ID: "alpha", State: models.SessionStateLobby, PlayerCount: 2},
		{ID: "beta", State: models.SessionStateInProgress, PlayerCount: 3},
	}}
	mux := http.NewServeMux()
	NewStateHandler(provider).RegisterStateRoutes(mux)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"list", "/api/sessions", http.StatusOK},
		{"single", "/api/sessions/beta", http.StatusOK},
		{"missing", "/api/sessions/gamma", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/beta", nil))
	var got models.SessionSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "beta" || got.State != models.SessionStateInProgress || got.PlayerCount != 3 {
		t.Errorf("unexpected summary %+v", got)
	}
}
