package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quexa/spotmatch/internal/ledger"
	"github.com/quexa/spotmatch/internal/matching"
	"github.com/quexa/spotmatch/internal/orders"
	"github.com/quexa/spotmatch/pkg/models"
)

func setupServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AssetHolding{}, &models.Order{}, &models.Trade{}))

	logger := zap.NewNop()
	accounts := ledger.NewAccountLedger(db, logger)
	assets := ledger.NewAssetLedger(db, logger)
	store := orders.NewGormStore(db, logger)
	service := orders.NewService(db, store, accounts, assets, []string{"BTC", "ETH"}, logger)
	engine := matching.NewEngine(db, store, accounts, assets, nil, decimal.RequireFromString("0.015"), logger)
	service.SetMatcher(engine)

	return NewServer(logger, service, accounts, assets, nil), db
}

func seedUser(t *testing.T, db *gorm.DB, balance string) uuid.UUID {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.com",
		Username: uuid.NewString(),
		Balance:  decimal.RequireFromString(balance),
	}
	require.NoError(t, db.Create(user).Error)
	return user.ID
}

func doJSON(t *testing.T, s *Server, method, path string, userID *uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s, _ := setupServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingUserHeader(t *testing.T) {
	s, _ := setupServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	s, db := setupServer(t)
	userID := seedUser(t, db, "1000")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/orders", &userID, gin.H{
		"symbol": "BTC",
		"side":   "buy",
		"price":  "500",
		"amount": "1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	assert.Equal(t, userID, order.UserID)
}

func TestCreateOrderValidationErrors(t *testing.T) {
	s, db := setupServer(t)
	userID := seedUser(t, db, "1000")

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing side", gin.H{"symbol": "BTC", "price": "1", "amount": "1"}},
		{"bad side", gin.H{"symbol": "BTC", "side": "hold", "price": "1", "amount": "1"}},
		{"bad price", gin.H{"symbol": "BTC", "side": "buy", "price": "abc", "amount": "1"}},
		{"unknown symbol", gin.H{"symbol": "DOGE", "side": "buy", "price": "1", "amount": "1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/v1/orders", &userID, tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			var problem map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Contains(t, problem["type"], "validation-error")
		})
	}
}

func TestCreateOrderInsufficientFunds(t *testing.T) {
	s, db := setupServer(t)
	userID := seedUser(t, db, "10")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/orders", &userID, gin.H{
		"symbol": "BTC",
		"side":   "buy",
		"price":  "500",
		"amount": "1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem["type"], "insufficient-funds")
}

func TestCancelOrder(t *testing.T) {
	s, db := setupServer(t)
	userID := seedUser(t, db, "1000")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/orders", &userID, gin.H{
		"symbol": "BTC",
		"side":   "buy",
		"price":  "500",
		"amount": "1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	rec = doJSON(t, s, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", &userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cancelled models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
}

func TestCancelUnknownOrder(t *testing.T) {
	s, db := setupServer(t)
	userID := seedUser(t, db, "1000")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/cancel", &userID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders(t *testing.T) {
	s, db := setupServer(t)
	userID := seedUser(t, db, "2000")

	for _, price := range []string{"500", "600"} {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/orders", &userID, gin.H{
			"symbol": "BTC",
			"side":   "buy",
			"price":  price,
			"amount": "1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/orders?symbol=BTC&status=open", &userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 2)
}

func TestGetProfile(t *testing.T) {
	s, db := setupServer(t)
	userID := seedUser(t, db, "123.45")
	require.NoError(t, db.Create(&models.AssetHolding{
		ID:     uuid.New(),
		UserID: userID,
		Symbol: "BTC",
		Amount: decimal.RequireFromString("2"),
	}).Error)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/profile", &userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User     models.User           `json:"user"`
		Holdings []models.AssetHolding `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, userID, resp.User.ID)
	require.Len(t, resp.Holdings, 1)
	assert.Equal(t, "BTC", resp.Holdings[0].Symbol)
}

func TestProfileUnknownUser(t *testing.T) {
	s, _ := setupServer(t)
	userID := uuid.New()
	rec := doJSON(t, s, http.MethodGet, "/api/v1/profile", &userID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
