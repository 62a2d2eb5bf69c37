package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-lease-backend/config"
	"parking-lease-backend/internal/model"
	"parking-lease-backend/internal/store"
)

func newIngestTestConfig() *config.Config {
	return &config.Config{
		Lease:  config.LeaseConfig{SlotCount: 4},
		Ingest: config.IngestConfig{APIKey: "ingest-key"},
	}
}

func setupIngestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Device{}))

	s := store.NewGormStore(db)
	handler := NewHandler(s, nil, nil, cfg, nil)
	r := gin.Default()
	r.POST("/api/ingest", handler.Ingest)
	return r, s
}

func postIngest(router *gin.Engine, apiKey, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestIngest_Authorization(t *testing.T) {
	router, _ := setupIngestRouter(t, newIngestTestConfig())

	w := postIngest(router, "", `{"deviceId":"dev-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postIngest(router, "wrong-key", `{"deviceId":"dev-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngest_BadRequest(t *testing.T) {
	router, _ := setupIngestRouter(t, newIngestTestConfig())

	w := postIngest(router, "ingest-key", `{"entranceCm":50}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"deviceId missing"}`, w.Body.String())
}

func TestIngest_PinnedDevice(t *testing.T) {
	cfg := newIngestTestConfig()
	cfg.Ingest.DeviceID = "dev-pinned"
	router, _ := setupIngestRouter(t, cfg)

	w := postIngest(router, "ingest-key", `{"deviceId":"dev-other"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = postIngest(router, "ingest-key", `{"deviceId":"dev-pinned"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIngest_PerSlotTelemetry(t *testing.T) {
	router, s := setupIngestRouter(t, newIngestTestConfig())

	body := `{
		"deviceId": "dev-1",
		"entranceCm": 120,
		"exitApproved": true,
		"slots": [{"id":1,"occupied":true},{"id":3,"occupied":true},{"id":9,"occupied":true}],
		"msgCount": 17
	}`
	w := postIngest(router, "ingest-key", body)
	assert.Equal(t, http.StatusOK, w.Code)

	device, err := s.GetDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	// Slot 9 is out of range for a 4-slot device and must be dropped.
	assert.Equal(t, []bool{true, false, true, false}, device.Occupancy)
	assert.Equal(t, 120, device.EntranceCm)
	assert.True(t, device.ExitApproved)
	assert.Equal(t, 17, device.LastMsgCount)
}

func TestIngest_LegacyAggregate(t *testing.T) {
	router, s := setupIngestRouter(t, newIngestTestConfig())

	w := postIngest(router, "ingest-key", `{"deviceId":"dev-1","slots":{"available":2,"occupied":2}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	device, err := s.GetDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, device.Occupancy)
}

func TestIngest_MalformedSlots(t *testing.T) {
	router, s := setupIngestRouter(t, newIngestTestConfig())

	// A sensor fault degrades to all-free instead of rejecting the message.
	w := postIngest(router, "ingest-key", `{"deviceId":"dev-1","slots":"garbage"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	device, err := s.GetDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, false}, device.Occupancy)
}
