package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/app"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/config"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/db/dbtest"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
)

func newTestApp(t *testing.T) (*gin.Engine, dbtest.Fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := dbtest.Open(t)
	store := db.NewStore(conn)
	proc := scheduling.NewProcessor(store, scheduling.WithClock(func() time.Time {
		return time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	}))
	a := &app.App{
		Config:    &config.Config{JWTSecret: "secret", OpsToken: "ops"},
		DB:        conn,
		Store:     store,
		Processor: proc,
		Query:     scheduling.NewQueryService(store, proc),
		Watch:     scheduling.NewWatchRecorder(store, nil, time.Now),
		Schedule:  scheduling.NewScheduleService(store, nil),
	}
	r := gin.New()
	RegisterRoutes(r, a)
	return r, dbtest.Seed(t, store, "guardian@example.com", 1, 1)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestApp(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

// A guardian schedules an item, nobody watches it, the nightly sweep runs,
// and the child sees it carried over the next day.
func TestScheduleSweepAndChildView(t *testing.T) {
	r, fx := newTestApp(t)
	token, err := middleware.GenerateJWT(fx.Guardian, "secret")
	require.NoError(t, err)
	child, item := fx.Children[0].ID, fx.Items[0].ID

	body, _ := json.Marshal(map[string]any{
		"approved_item_ids": []int{item},
		"child_ids":         []int{child},
		"date":              "2026-10-10",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/guardian/schedules", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/ops/carryover", strings.NewReader(`{"date":"2026-10-10"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.OpsTokenHeader, "ops")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/child/children/%d/schedule?date=2026-10-11", child), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view struct {
		Items []struct {
			ScheduledDate string `json:"scheduled_date"`
			OriginalDate  string `json:"original_date"`
			CarriedOver   bool   `json:"carried_over"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, "2026-10-11", view.Items[0].ScheduledDate)
	assert.Equal(t, "2026-10-10", view.Items[0].OriginalDate)
	assert.True(t, view.Items[0].CarriedOver)
}
