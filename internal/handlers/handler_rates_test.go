package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portssvc "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/services"
	"github.com/EnesEfeTokta/fintrack-backend/internal/dto"
	"github.com/EnesEfeTokta/fintrack-backend/internal/handlers"
	"github.com/EnesEfeTokta/fintrack-backend/internal/metrics"
	"github.com/EnesEfeTokta/fintrack-backend/internal/middleware"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock RateQueryService ---
type MockRateQueryService struct {
	mock.Mock
}

func (m *MockRateQueryService) GetSpecificCurrency(ctx context.Context, code string) (*dto.SpecificCurrencyResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SpecificCurrencyResponse), args.Error(1)
}

func (m *MockRateQueryService) GetCurrencyHistory(ctx context.Context, baseCode, targetCode, period string) (*dto.CurrencyHistoryResponse, error) {
	args := m.Called(ctx, baseCode, targetCode, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CurrencyHistoryResponse), args.Error(1)
}

func (m *MockRateQueryService) ConvertCurrency(ctx context.Context, from, to string, amount decimal.Decimal) (*dto.ConversionResult, error) {
	args := m.Called(ctx, from, to, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ConversionResult), args.Error(1)
}

func (m *MockRateQueryService) GetLatestRates(ctx context.Context, baseCurrencyCode string) (*dto.LatestRatesResponse, error) {
	args := m.Called(ctx, baseCurrencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LatestRatesResponse), args.Error(1)
}

func (m *MockRateQueryService) GetCachedRates(ctx context.Context) (*models.RateSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RateSnapshot), args.Error(1)
}

func (m *MockRateQueryService) GetCachedRate(ctx context.Context, code string) (decimal.Decimal, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.RateQuerySvcFacade = (*MockRateQueryService)(nil)

// --- Test Suite ---
type RateHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockRateService *MockRateQueryService
	jwtSecret       string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *RateHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "fintrack-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedString, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signedString
}

func (suite *RateHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockRateService = new(MockRateQueryService)

	currencies := suite.router.Group("/api/v1/currencies")
	handlers.RegisterRateRoutes(currencies, suite.mockRateService, metrics.NewMetrics(prometheus.NewRegistry()))
}

func (suite *RateHandlerTestSuite) performRequest(method, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken("test-user"))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *RateHandlerTestSuite) TestGetSpecificCurrency_Success() {
	expected := &dto.SpecificCurrencyResponse{
		CurrencyResponse: dto.CurrencyResponse{ID: 1, Code: "EUR", Name: "Euro"},
	}
	suite.mockRateService.On("GetSpecificCurrency", mock.Anything, "EUR").Return(expected, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/EUR")

	suite.Equal(http.StatusOK, w.Code)
	var body dto.SpecificCurrencyResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("EUR", body.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetSpecificCurrency_NotFound() {
	suite.mockRateService.On("GetSpecificCurrency", mock.Anything, "XXX").Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/XXX")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetSpecificCurrency_Unauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/currencies/EUR", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockRateService.AssertNotCalled(suite.T(), "GetSpecificCurrency", mock.Anything, mock.Anything)
}

func (suite *RateHandlerTestSuite) TestGetCurrencyHistory_DefaultPeriod() {
	expected := &dto.CurrencyHistoryResponse{
		BaseCurrency:   "EUR",
		TargetCurrency: "TRY",
		Period:         "1M",
	}
	suite.mockRateService.On("GetCurrencyHistory", mock.Anything, "EUR", "TRY", "1M").Return(expected, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/EUR/history/TRY")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetCurrencyHistory_ExplicitPeriod() {
	expected := &dto.CurrencyHistoryResponse{Period: "1Y"}
	suite.mockRateService.On("GetCurrencyHistory", mock.Anything, "EUR", "TRY", "1Y").Return(expected, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/EUR/history/TRY?period=1Y")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetCurrencyHistory_ValidationError() {
	suite.mockRateService.On("GetCurrencyHistory", mock.Anything, "EUR", "EUR", "1M").
		Return(nil, fmt.Errorf("%w: base and target currencies must differ", apperrors.ErrValidation)).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/EUR/history/EUR")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetCurrencyHistory_NoData() {
	suite.mockRateService.On("GetCurrencyHistory", mock.Anything, "EUR", "TRY", "1M").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/EUR/history/TRY")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestConvertCurrency_Success() {
	expected := &dto.ConversionResult{
		FromCurrency:    "EUR",
		ToCurrency:      "TRY",
		Amount:          decimal.RequireFromString("100"),
		Rate:            decimal.RequireFromString("32.96"),
		ConvertedAmount: decimal.RequireFromString("3296"),
	}
	suite.mockRateService.On("ConvertCurrency", mock.Anything, "EUR", "TRY", mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.RequireFromString("100"))
	})).Return(expected, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/convert?from=EUR&to=TRY&amount=100")

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ConversionResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("TRY", body.ToCurrency)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestConvertCurrency_MissingParams() {
	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/convert?from=EUR&amount=100")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRateService.AssertNotCalled(suite.T(), "ConvertCurrency", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateHandlerTestSuite) TestConvertCurrency_MalformedAmount() {
	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/convert?from=EUR&to=TRY&amount=abc")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRateService.AssertNotCalled(suite.T(), "ConvertCurrency", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateHandlerTestSuite) TestConvertCurrency_NoSnapshotData() {
	suite.mockRateService.On("ConvertCurrency", mock.Anything, "EUR", "TRY", mock.Anything).
		Return(nil, fmt.Errorf("%w: no rate snapshot available", apperrors.ErrNoData)).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/convert?from=EUR&to=TRY&amount=1")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetLatestRates_WithoutBase() {
	expected := &dto.LatestRatesResponse{BaseCurrency: "USD"}
	suite.mockRateService.On("GetLatestRates", mock.Anything, "").Return(expected, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/latest")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetLatestRates_WithBase() {
	expected := &dto.LatestRatesResponse{BaseCurrency: "EUR"}
	suite.mockRateService.On("GetLatestRates", mock.Anything, "EUR").Return(expected, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/latest/EUR")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetCachedRates_Empty() {
	suite.mockRateService.On("GetCachedRates", mock.Anything).Return(nil, apperrors.ErrNoData).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/cache/latest")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetCachedRate_Success() {
	suite.mockRateService.On("GetCachedRate", mock.Anything, "EUR").
		Return(decimal.RequireFromString("0.91"), nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/currencies/cache/rate/EUR")

	suite.Equal(http.StatusOK, w.Code)
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("EUR", body["currency"])
	suite.Equal("0.91", body["rate"])
	suite.mockRateService.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestRateHandler(t *testing.T) {
	suite.Run(t, new(RateHandlerTestSuite))
}
