package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/server/internal/analysis"
	"dealdesk/server/internal/auth"
	"dealdesk/server/internal/database"
	"dealdesk/server/internal/metrics"
	"dealdesk/server/internal/photos"
	"dealdesk/server/internal/portfolio"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *database.Database
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	analyzer, err := analysis.NewAnalyzer(analysis.DefaultAssumptions())
	require.NoError(t, err)
	store, err := photos.NewStore(t.TempDir(), 1024, logger)
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		DB:          db,
		Service:     portfolio.NewService(db, analyzer, portfolio.WithLogger(logger)),
		Tokens:      auth.NewTokenService("test-secret", time.Hour),
		Photos:      store,
		Metrics:     metrics.New(),
		Logger:      logger,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{t: t, router: router, db: db}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "correct horse"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(s.t, w)["token"].(string)
}

func (s *testServer) createProperty(token string, body gin.H) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/properties", token, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(s.t, w)["id"].(float64))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func rentalProperty() gin.H {
	return gin.H{
		"street":         "12 Elm Street",
		"city":           "Springfield",
		"purchase_price": 250000,
		"current_value":  300000,
		"type":           "rent",
	}
}

func rentalScenario() gin.H {
	return gin.H{
		"name":             "Long-term rental",
		"purchase_price":   250000,
		"rehab_cost":       20000,
		"holding_costs":    5000,
		"closing_costs":    5000,
		"interest_rate":    6,
		"hold_time_months": 12,
		"exit_strategy":    "rent",
		"monthly_rent":     2200,
		"occupancy_rate":   95,
	}
}

func flipScenario() gin.H {
	return gin.H{
		"name":             "Flip",
		"purchase_price":   100000,
		"rehab_cost":       30000,
		"holding_costs":    5000,
		"closing_costs":    3000,
		"interest_rate":    0,
		"hold_time_months": 6,
		"exit_strategy":    "flip",
		"sale_price":       180000,
		"selling_costs":    12000,
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dealdesk_http_requests_total")
}

func TestRequestID_Propagated(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	token := s.register("Ann@Example.com")

	tests := []struct {
		name       string
		path       string
		body       gin.H
		wantStatus int
	}{
		{name: "Duplicate email", path: "/api/auth/register", body: gin.H{"email": "ann@example.com", "password": "correct horse"}, wantStatus: http.StatusConflict},
		{name: "Weak password", path: "/api/auth/register", body: gin.H{"email": "bob@example.com", "password": "short"}, wantStatus: http.StatusBadRequest},
		{name: "Invalid email", path: "/api/auth/register", body: gin.H{"email": "nope", "password": "correct horse"}, wantStatus: http.StatusBadRequest},
		{name: "Login", path: "/api/auth/login", body: gin.H{"email": "ann@example.com", "password": "correct horse"}, wantStatus: http.StatusOK},
		{name: "Wrong password", path: "/api/auth/login", body: gin.H{"email": "ann@example.com", "password": "wrong horse"}, wantStatus: http.StatusUnauthorized},
		{name: "Unknown user", path: "/api/auth/login", body: gin.H{"email": "zed@example.com", "password": "correct horse"}, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	w := s.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodGet, "/api/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "ann@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")
}

func TestProperties(t *testing.T) {
	s := newTestServer(t)
	ann := s.register("ann@example.com")
	bob := s.register("bob@example.com")

	id := s.createProperty(ann, rentalProperty())

	w := s.do(http.MethodGet, fmt.Sprintf("/api/properties/%d", id), ann, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lead", decode(t, w)["status"])

	w = s.do(http.MethodGet, fmt.Sprintf("/api/properties/%d", id), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "Unknown type", body: gin.H{"type": "timeshare"}},
		{name: "Missing type", body: gin.H{"street": "1 Road"}},
		{name: "Unknown status", body: gin.H{"type": "rent", "status": "dreaming"}},
		{name: "Negative price", body: gin.H{"type": "rent", "purchase_price": -1}},
		{name: "Latitude without longitude", body: gin.H{"type": "rent", "latitude": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/properties", ann, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w = s.do(http.MethodGet, "/api/properties?status=lead", ann, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	w = s.do(http.MethodGet, "/api/properties?status=bogus", ann, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/properties/abc", ann, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/properties/%d", id), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/properties/%d", id), ann, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/properties/%d", id), ann, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScenarios(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ann@example.com")
	propertyID := s.createProperty(token, rentalProperty())
	scenarios := fmt.Sprintf("/api/properties/%d/scenarios", propertyID)

	w := s.do(http.MethodPost, scenarios, token, rentalScenario())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rental := decode(t, w)
	assert.Equal(t, 20.2, rental["roi"])
	assert.Equal(t, 549.17, rental["monthly_noi"])
	rentalID := uint(rental["id"].(float64))

	w = s.do(http.MethodPost, scenarios, token, rentalScenario())
	assert.Equal(t, http.StatusConflict, w.Code)

	invalid := rentalScenario()
	invalid["name"] = "Overbooked"
	invalid["occupancy_rate"] = 150
	w = s.do(http.MethodPost, scenarios, token, invalid)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "INVALID_INPUT", body["kind"])
	assert.Equal(t, []interface{}{"occupancy_rate"}, body["fields"])

	w = s.do(http.MethodPost, scenarios, token, flipScenario())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 21.7, decode(t, w)["roi"])

	w = s.do(http.MethodGet, scenarios, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	t.Run("Compare", func(t *testing.T) {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/properties/%d/compare?metric=roi", propertyID), token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		rankings := decode(t, w)["rankings"].([]interface{})
		require.Len(t, rankings, 2)
		first := rankings[0].(map[string]interface{})
		assert.Equal(t, "Flip", first["scenario"].(map[string]interface{})["name"])
		assert.Equal(t, float64(1), first["rank"])

		w = s.do(http.MethodGet, fmt.Sprintf("/api/properties/%d/compare?metric=irr", propertyID), token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Schedule", func(t *testing.T) {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/scenarios/%d/schedule", rentalID), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		schedule := decode(t, w)
		assert.Equal(t, float64(360), schedule["term_months"])
		assert.Len(t, schedule["periods"], 360)
	})

	t.Run("Property change re-prices scenarios", func(t *testing.T) {
		update := rentalProperty()
		update["current_value"] = 350000
		w := s.do(http.MethodPut, fmt.Sprintf("/api/properties/%d", propertyID), token, update)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(http.MethodGet, fmt.Sprintf("/api/scenarios/%d", rentalID), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 38.1, decode(t, w)["roi"])
	})

	t.Run("Update and analyze", func(t *testing.T) {
		update := rentalScenario()
		update["rehab_cost"] = -5
		w := s.do(http.MethodPut, fmt.Sprintf("/api/scenarios/%d", rentalID), token, update)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do(http.MethodPost, fmt.Sprintf("/api/scenarios/%d/analyze", rentalID), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 38.1, decode(t, w)["roi"])
	})

	t.Run("Delete", func(t *testing.T) {
		w := s.do(http.MethodDelete, fmt.Sprintf("/api/scenarios/%d", rentalID), token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = s.do(http.MethodGet, fmt.Sprintf("/api/scenarios/%d", rentalID), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestScenarios_MissingNumericInputs(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ann@example.com")
	propertyID := s.createProperty(token, rentalProperty())
	scenarios := fmt.Sprintf("/api/properties/%d/scenarios", propertyID)

	tests := []struct {
		name    string
		omit    []string
		zero    []string
		fields  []interface{}
		created bool
	}{
		{name: "Rehab cost omitted", omit: []string{"rehab_cost"}, fields: []interface{}{"rehab_cost"}},
		{
			name:   "Several omitted",
			omit:   []string{"interest_rate", "rehab_cost", "closing_costs"},
			fields: []interface{}{"rehab_cost", "closing_costs", "interest_rate"},
		},
		{name: "Hold time omitted", omit: []string{"hold_time_months"}, fields: []interface{}{"hold_time_months"}},
		{name: "Explicit zeros accepted", zero: []string{"rehab_cost", "closing_costs"}, created: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := rentalScenario()
			body["name"] = tt.name
			for _, f := range tt.omit {
				delete(body, f)
			}
			for _, f := range tt.zero {
				body[f] = 0
			}

			w := s.do(http.MethodPost, scenarios, token, body)
			if tt.created {
				require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
				assert.Equal(t, 0.0, decode(t, w)["rehab_cost"])
				return
			}
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			got := decode(t, w)
			assert.Equal(t, "INVALID_INPUT", got["kind"])
			assert.Equal(t, tt.fields, got["fields"])
		})
	}

	w := s.do(http.MethodGet, scenarios, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestRenovations(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ann@example.com")
	propertyID := s.createProperty(token, rentalProperty())

	w := s.do(http.MethodPost, fmt.Sprintf("/api/properties/%d/scenarios", propertyID), token, flipScenario())
	require.Equal(t, http.StatusCreated, w.Code)
	flipID := uint(decode(t, w)["id"].(float64))

	renovations := fmt.Sprintf("/api/properties/%d/renovations", propertyID)
	w = s.do(http.MethodPost, renovations, token, gin.H{"category": "kitchen", "estimated_cost": 20000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "planned", decode(t, w)["status"])

	w = s.do(http.MethodPost, renovations, token, gin.H{"category": "roof", "estimated_cost": 7000, "status": "completed"})
	require.Equal(t, http.StatusCreated, w.Code)
	roofID := uint(decode(t, w)["id"].(float64))

	w = s.do(http.MethodPost, renovations, token, gin.H{"category": "roof", "status": "someday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/renovations/%d", roofID), token,
		gin.H{"category": "roof", "estimated_cost": 7000, "actual_cost": 6000, "status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, renovations+"/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.Equal(t, 27000.0, summary["estimated_total"])
	assert.Equal(t, 26000.0, summary["projected_total"])

	w = s.do(http.MethodPost, fmt.Sprintf("/api/scenarios/%d/apply-renovations", flipID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	applied := decode(t, w)
	assert.Equal(t, 26000.0, applied["rehab_cost"])
	assert.Equal(t, 34000.0, applied["total_profit"])

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/renovations/%d", roofID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, renovations, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 1)
}

func upload(t *testing.T, s *testServer, token string, propertyID uint, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("photo", "front.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("caption", "Front"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/properties/%d/photos", propertyID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestPhotos(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ann@example.com")
	propertyID := s.createProperty(token, rentalProperty())

	w := upload(t, s, token, propertyID, pngHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	photo := decode(t, w)
	assert.Equal(t, "image/png", photo["content_type"])
	assert.Equal(t, "Front", photo["caption"])
	photoID := uint(photo["id"].(float64))

	w = upload(t, s, token, propertyID, []byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = upload(t, s, token, propertyID, append(append([]byte{}, pngHeader...), make([]byte, 2048)...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/properties/%d/photos", propertyID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/photos/%d", photoID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, w.Body.Bytes())

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/photos/%d", photoID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/photos/%d", photoID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ann@example.com")

	located := rentalProperty()
	located["latitude"] = 39.78
	located["longitude"] = -89.65
	located["status"] = "owned"
	propertyID := s.createProperty(token, located)
	s.createProperty(token, rentalProperty())

	w := s.do(http.MethodPost, fmt.Sprintf("/api/properties/%d/scenarios", propertyID), token, rentalScenario())
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(2), stats["total_properties"])
	assert.Equal(t, 20.2, stats["average_roi"])

	w = s.do(http.MethodGet, "/api/dashboard/map", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fc := decode(t, w)
	assert.Equal(t, "FeatureCollection", fc["type"])
	features := fc["features"].([]interface{})
	require.Len(t, features, 1)
	props := features[0].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, 20.2, props["best_roi"])
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/properties", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func newTestLimiter(t *testing.T, perMinute int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	limiter := NewRateLimiter(client, perMinute, logger, nil)
	limiter.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC) }
	return limiter, mr
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, mr := newTestLimiter(t, 2)

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w
	}

	assert.Equal(t, http.StatusOK, hit().Code)
	assert.Equal(t, http.StatusOK, hit().Code)
	w := hit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "ratelimit:"))
	assert.True(t, mr.TTL(keys[0]) > 0)

	// Next window starts fresh
	limiter.now = func() time.Time { return time.Date(2026, 1, 1, 12, 1, 5, 0, time.UTC) }
	assert.Equal(t, http.StatusOK, hit().Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1)
	mr.Close()

	allowed, _, err := limiter.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, allowed)
}
