package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portssvc "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/services"
	"github.com/EnesEfeTokta/fintrack-backend/internal/core/services"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock SnapshotRepository ---
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) SaveSnapshot(ctx context.Context, snapshot models.CurrencySnapshot) (int64, error) {
	args := m.Called(ctx, snapshot)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSnapshotRepository) FindLatestSnapshot(ctx context.Context, baseCurrency string) (*models.CurrencySnapshot, error) {
	args := m.Called(ctx, baseCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CurrencySnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) FindChangeHistory(ctx context.Context, baseCurrency string, from *time.Time) ([]models.RateObservation, error) {
	args := m.Called(ctx, baseCurrency, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RateObservation), args.Error(1)
}

// --- Mock RateCache ---
type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) SetLatest(snapshot models.RateSnapshot) {
	m.Called(snapshot)
}

func (m *MockRateCache) GetLatest() (*models.RateSnapshot, bool) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.RateSnapshot), args.Bool(1)
}

func (m *MockRateCache) GetRate(code string) (decimal.Decimal, bool) {
	args := m.Called(code)
	return args.Get(0).(decimal.Decimal), args.Bool(1)
}

// --- Test Suite ---
type RateQueryServiceTestSuite struct {
	suite.Suite
	mockSnapshotRepo *MockSnapshotRepository
	mockCurrencyRepo *MockCurrencyRepository
	mockCache        *MockRateCache
	service          portssvc.RateQuerySvcFacade
}

func (suite *RateQueryServiceTestSuite) SetupTest() {
	suite.mockSnapshotRepo = new(MockSnapshotRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.mockCache = new(MockRateCache)
	suite.service = services.NewRateQueryService(suite.mockSnapshotRepo, suite.mockCurrencyRepo, suite.mockCache)
}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// usdSnapshot builds a snapshot with EUR at 0.91 and TRY at 30.
func usdSnapshot(ts time.Time) *models.CurrencySnapshot {
	return &models.CurrencySnapshot{
		SnapshotID:     1,
		FetchTimestamp: ts,
		BaseCurrency:   "USD",
		HasChanges:     true,
		Rates: []models.ExchangeRate{
			{CurrencyCode: "EUR", Rate: d("0.91")},
			{CurrencyCode: "TRY", Rate: d("30")},
		},
	}
}

// --- ConvertCurrency ---

func (suite *RateQueryServiceTestSuite) TestConvertCurrency_CrossRateViaPivot() {
	ctx := context.Background()
	now := time.Now().UTC()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(now), nil).Once()

	result, err := suite.service.ConvertCurrency(ctx, "eur", "try", d("100"))

	suite.Require().NoError(err)
	expectedRate := d("30").Div(d("0.91"))
	suite.Equal("EUR", result.FromCurrency)
	suite.Equal("TRY", result.ToCurrency)
	suite.True(result.Rate.Equal(expectedRate), "rate %s != %s", result.Rate, expectedRate)
	suite.True(result.ConvertedAmount.Equal(d("100").Mul(expectedRate)))
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestConvertCurrency_FromPivotUsesUnitRate() {
	ctx := context.Background()
	now := time.Now().UTC()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(now), nil).Once()

	result, err := suite.service.ConvertCurrency(ctx, "USD", "TRY", d("2"))

	suite.Require().NoError(err)
	suite.True(result.Rate.Equal(d("30")))
	suite.True(result.ConvertedAmount.Equal(d("60")))
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestConvertCurrency_SamePairSkipsSnapshot() {
	ctx := context.Background()

	result, err := suite.service.ConvertCurrency(ctx, "EUR", "eur", d("42"))

	suite.Require().NoError(err)
	suite.True(result.Rate.Equal(d("1")))
	suite.True(result.ConvertedAmount.Equal(d("42")))
	// No snapshot lookup must happen for an identity conversion.
	suite.mockSnapshotRepo.AssertNotCalled(suite.T(), "FindLatestSnapshot", mock.Anything, mock.Anything)
}

func (suite *RateQueryServiceTestSuite) TestConvertCurrency_NoSnapshot() {
	ctx := context.Background()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()

	result, err := suite.service.ConvertCurrency(ctx, "EUR", "TRY", d("1"))

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrNoData)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestConvertCurrency_ZeroSourceRate() {
	ctx := context.Background()
	snapshot := &models.CurrencySnapshot{
		FetchTimestamp: time.Now().UTC(),
		BaseCurrency:   "USD",
		Rates: []models.ExchangeRate{
			{CurrencyCode: "EUR", Rate: decimal.Zero},
			{CurrencyCode: "TRY", Rate: d("30")},
		},
	}

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(snapshot, nil).Once()

	result, err := suite.service.ConvertCurrency(ctx, "EUR", "TRY", d("1"))

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestConvertCurrency_UnknownTarget() {
	ctx := context.Background()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(time.Now().UTC()), nil).Once()

	result, err := suite.service.ConvertCurrency(ctx, "EUR", "XXX", d("1"))

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

// --- GetLatestRates ---

func (suite *RateQueryServiceTestSuite) TestGetLatestRates_DefaultBase() {
	ctx := context.Background()
	now := time.Now().UTC()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(now), nil).Once()

	resp, err := suite.service.GetLatestRates(ctx, "")

	suite.Require().NoError(err)
	suite.Equal("USD", resp.BaseCurrency)
	suite.Require().Len(resp.Rates, 2)
	suite.Equal("EUR", resp.Rates[0].Code)
	suite.Equal("TRY", resp.Rates[1].Code)
	suite.True(resp.Rates[0].Rate.Equal(d("0.91")))
	suite.True(resp.Rates[1].Rate.Equal(d("30")))
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetLatestRates_RebasedExcludesBase() {
	ctx := context.Background()
	now := time.Now().UTC()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(now), nil).Once()

	resp, err := suite.service.GetLatestRates(ctx, "eur")

	suite.Require().NoError(err)
	suite.Equal("EUR", resp.BaseCurrency)
	suite.Require().Len(resp.Rates, 1)
	suite.Equal("TRY", resp.Rates[0].Code)
	suite.True(resp.Rates[0].Rate.Equal(d("30").Div(d("0.91"))))
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetLatestRates_ReciprocalPairsRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(now), nil).Twice()

	eurBased, err := suite.service.GetLatestRates(ctx, "EUR")
	suite.Require().NoError(err)
	tryBased, err := suite.service.GetLatestRates(ctx, "TRY")
	suite.Require().NoError(err)

	product := eurBased.Rates[0].Rate.Mul(tryBased.Rates[0].Rate)
	suite.True(product.Sub(d("1")).Abs().LessThan(d("0.0000001")), "EUR/TRY * TRY/EUR = %s", product)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetLatestRates_UnknownBase() {
	ctx := context.Background()

	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(time.Now().UTC()), nil).Once()

	resp, err := suite.service.GetLatestRates(ctx, "XXX")

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

// --- GetSpecificCurrency ---

func (suite *RateQueryServiceTestSuite) TestGetSpecificCurrency_WithCrossRates() {
	ctx := context.Background()
	now := time.Now().UTC()
	currency := &models.Currency{CurrencyID: 5, Code: "EUR", Name: "Euro"}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "EUR").Return(currency, nil).Once()
	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(usdSnapshot(now), nil).Once()

	resp, err := suite.service.GetSpecificCurrency(ctx, "eur")

	suite.Require().NoError(err)
	suite.Equal("EUR", resp.Code)
	suite.Require().NotNil(resp.RatesInfo)
	suite.Equal("EUR", resp.RatesInfo.BaseCurrency)
	suite.True(resp.RatesInfo.CrossRates["EUR"].Equal(d("1")))
	suite.True(resp.RatesInfo.CrossRates["TRY"].Equal(d("30").Div(d("0.91"))))
	suite.mockCurrencyRepo.AssertExpectations(suite.T())
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetSpecificCurrency_DegradesWithoutSnapshot() {
	ctx := context.Background()
	currency := &models.Currency{CurrencyID: 5, Code: "EUR", Name: "Euro"}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "EUR").Return(currency, nil).Once()
	suite.mockSnapshotRepo.On("FindLatestSnapshot", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()

	resp, err := suite.service.GetSpecificCurrency(ctx, "EUR")

	suite.Require().NoError(err)
	suite.Equal("EUR", resp.Code)
	suite.Nil(resp.RatesInfo)
	suite.mockCurrencyRepo.AssertExpectations(suite.T())
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetSpecificCurrency_UnknownCurrency() {
	ctx := context.Background()

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "XXX").Return(nil, apperrors.ErrNotFound).Once()

	resp, err := suite.service.GetSpecificCurrency(ctx, "XXX")

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockCurrencyRepo.AssertExpectations(suite.T())
}

// --- GetCurrencyHistory ---

func (suite *RateQueryServiceTestSuite) TestGetCurrencyHistory_ForwardFillsGapDays() {
	ctx := context.Background()
	now := time.Now().UTC()
	tenDaysAgo := now.AddDate(0, 0, -10)
	fiveDaysAgo := now.AddDate(0, 0, -5)

	observations := []models.RateObservation{
		{Timestamp: tenDaysAgo, CurrencyCode: "EUR", Rate: d("0.90")},
		{Timestamp: tenDaysAgo, CurrencyCode: "TRY", Rate: d("30")},
		{Timestamp: fiveDaysAgo, CurrencyCode: "EUR", Rate: d("0.92")},
		{Timestamp: fiveDaysAgo, CurrencyCode: "TRY", Rate: d("33")},
	}

	suite.mockSnapshotRepo.On("FindChangeHistory", ctx, "USD", (*time.Time)(nil)).Return(observations, nil).Once()

	resp, err := suite.service.GetCurrencyHistory(ctx, "EUR", "TRY", "1M")

	suite.Require().NoError(err)
	suite.Equal("EUR", resp.BaseCurrency)
	suite.Equal("TRY", resp.TargetCurrency)
	suite.Equal("1M", resp.Period)

	// Days before the first observation carry no data, so the series starts
	// at the first observation's day and runs through today.
	suite.Require().Len(resp.HistoricalRates, 11)
	firstDay := resp.HistoricalRates[0].Date
	suite.Equal(tenDaysAgo.Truncate(24*time.Hour).Year(), firstDay.Year())

	oldRate := d("30").Div(d("0.90"))
	newRate := d("33").Div(d("0.92"))
	suite.True(resp.HistoricalRates[0].Rate.Equal(oldRate))
	// Day 3 of the series sits between the two observations and inherits the
	// first observation's rates.
	suite.True(resp.HistoricalRates[3].Rate.Equal(oldRate))
	suite.True(resp.HistoricalRates[10].Rate.Equal(newRate))

	// Dates are unique and strictly ascending, one per calendar day.
	for i := 1; i < len(resp.HistoricalRates); i++ {
		suite.True(resp.HistoricalRates[i].Date.After(resp.HistoricalRates[i-1].Date))
	}
	suite.Equal(resp.HistoricalRates[0].Date, resp.StartDate)
	suite.Equal(resp.HistoricalRates[10].Date, resp.EndDate)

	// Daily change compares the last two points, both already on the new rate.
	suite.Require().NotNil(resp.ChangeSummary.DailyChangeValue)
	suite.True(resp.ChangeSummary.DailyChangeValue.IsZero())
	// Weekly change reaches back across the rate change.
	suite.Require().NotNil(resp.ChangeSummary.WeeklyChangeValue)
	suite.True(resp.ChangeSummary.WeeklyChangeValue.Equal(newRate.Sub(oldRate)))
	suite.Require().NotNil(resp.ChangeSummary.WeeklyChangePercentage)
	suite.True(resp.ChangeSummary.WeeklyChangePercentage.Equal(newRate.Sub(oldRate).Div(oldRate).Mul(d("100"))))

	// No observations within the last 24 hours, so no high/low.
	suite.Nil(resp.ChangeSummary.DailyHigh)
	suite.Nil(resp.ChangeSummary.DailyLow)

	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetCurrencyHistory_DailyHighLowFromRawTimestamps() {
	ctx := context.Background()
	now := time.Now().UTC()

	observations := []models.RateObservation{
		{Timestamp: now.Add(-3 * time.Hour), CurrencyCode: "EUR", Rate: d("0.90")},
		{Timestamp: now.Add(-1 * time.Hour), CurrencyCode: "EUR", Rate: d("0.95")},
	}

	suite.mockSnapshotRepo.On("FindChangeHistory", ctx, "USD", (*time.Time)(nil)).Return(observations, nil).Once()

	resp, err := suite.service.GetCurrencyHistory(ctx, "USD", "EUR", "1D")

	suite.Require().NoError(err)
	suite.Require().NotNil(resp.ChangeSummary.DailyHigh)
	suite.Require().NotNil(resp.ChangeSummary.DailyLow)
	suite.True(resp.ChangeSummary.DailyHigh.Equal(d("0.95")))
	suite.True(resp.ChangeSummary.DailyLow.Equal(d("0.90")))
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetCurrencyHistory_SamePair() {
	ctx := context.Background()

	resp, err := suite.service.GetCurrencyHistory(ctx, "EUR", "eur", "1M")

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockSnapshotRepo.AssertNotCalled(suite.T(), "FindChangeHistory", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateQueryServiceTestSuite) TestGetCurrencyHistory_UnknownPeriod() {
	ctx := context.Background()

	resp, err := suite.service.GetCurrencyHistory(ctx, "EUR", "TRY", "5Y")

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RateQueryServiceTestSuite) TestGetCurrencyHistory_EmptyPeriodDefaultsToOneMonth() {
	ctx := context.Background()
	now := time.Now().UTC()
	observations := []models.RateObservation{
		{Timestamp: now.AddDate(0, 0, -2), CurrencyCode: "TRY", Rate: d("30")},
	}

	suite.mockSnapshotRepo.On("FindChangeHistory", ctx, "USD", (*time.Time)(nil)).Return(observations, nil).Once()

	resp, err := suite.service.GetCurrencyHistory(ctx, "USD", "TRY", "")

	suite.Require().NoError(err)
	suite.Equal("1M", resp.Period)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetCurrencyHistory_NoObservations() {
	ctx := context.Background()

	suite.mockSnapshotRepo.On("FindChangeHistory", ctx, "USD", (*time.Time)(nil)).Return([]models.RateObservation{}, nil).Once()

	resp, err := suite.service.GetCurrencyHistory(ctx, "EUR", "TRY", "1M")

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetCurrencyHistory_UnresolvablePair() {
	ctx := context.Background()
	now := time.Now().UTC()
	observations := []models.RateObservation{
		{Timestamp: now.AddDate(0, 0, -2), CurrencyCode: "TRY", Rate: d("30")},
	}

	suite.mockSnapshotRepo.On("FindChangeHistory", ctx, "USD", (*time.Time)(nil)).Return(observations, nil).Once()

	// EUR never appears in the history, so no point can be computed.
	resp, err := suite.service.GetCurrencyHistory(ctx, "EUR", "TRY", "1M")

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockSnapshotRepo.AssertExpectations(suite.T())
}

// --- Cached lookups ---

func (suite *RateQueryServiceTestSuite) TestGetCachedRates_Success() {
	ctx := context.Background()
	cached := &models.RateSnapshot{Base: "USD", Rates: map[string]decimal.Decimal{"EUR": d("0.91")}}

	suite.mockCache.On("GetLatest").Return(cached, true).Once()

	snapshot, err := suite.service.GetCachedRates(ctx)

	suite.Require().NoError(err)
	suite.Equal(cached, snapshot)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetCachedRates_Empty() {
	ctx := context.Background()

	suite.mockCache.On("GetLatest").Return(nil, false).Once()

	snapshot, err := suite.service.GetCachedRates(ctx)

	suite.Require().Error(err)
	suite.Nil(snapshot)
	suite.ErrorIs(err, apperrors.ErrNoData)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetCachedRate_UppercasesCode() {
	ctx := context.Background()

	suite.mockCache.On("GetRate", "EUR").Return(d("0.91"), true).Once()

	rate, err := suite.service.GetCachedRate(ctx, "eur")

	suite.Require().NoError(err)
	suite.True(rate.Equal(d("0.91")))
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *RateQueryServiceTestSuite) TestGetCachedRate_Miss() {
	ctx := context.Background()

	suite.mockCache.On("GetRate", "EUR").Return(decimal.Decimal{}, false).Once()

	_, err := suite.service.GetCachedRate(ctx, "EUR")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockCache.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestRateQueryService(t *testing.T) {
	suite.Run(t, new(RateQueryServiceTestSuite))
}

// Guard against accidental panics when amount is zero.
func TestConvertZeroAmount(t *testing.T) {
	snapshotRepo := new(MockSnapshotRepository)
	service := services.NewRateQueryService(snapshotRepo, new(MockCurrencyRepository), new(MockRateCache))

	snapshotRepo.On("FindLatestSnapshot", mock.Anything, "USD").Return(usdSnapshot(time.Now().UTC()), nil).Once()

	result, err := service.ConvertCurrency(context.Background(), "EUR", "TRY", decimal.Zero)
	assert.NoError(t, err)
	assert.True(t, result.ConvertedAmount.IsZero())
}
