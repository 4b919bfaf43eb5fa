package usecase

import (
	"context"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"
	"DeskPortal/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReference struct {
	currencyCalls int
	cpCalls       int
	created       []models.InterestRateRequest
	rate          *models.InterestRate
}

func (f *fakeReference) Currencies(context.Context, string) ([]models.Currency, error) {
	f.currencyCalls++
	return []models.Currency{{ID: 1, Ticker: "BTC", DisplayScale: 4}}, nil
}

func (f *fakeReference) Counterparties(context.Context, string) ([]models.CounterParty, error) {
	f.cpCalls++
	return []models.CounterParty{acme, bolt}, nil
}

func (f *fakeReference) LatestInterestRate(context.Context, string) (*models.InterestRate, error) {
	return f.rate, nil
}

func (f *fakeReference) CreateInterestRate(_ context.Context, _ string, req models.InterestRateRequest) error {
	f.created = append(f.created, req)
	return nil
}

func TestReferenceDataIsCached(t *testing.T) {
	repo := &fakeReference{}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	uc := NewReferenceUseCase(repo, &fakeSpot{price: 1}, mem, time.Minute, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ccys, err := uc.Currencies(ctx, "tok")
		require.NoError(t, err)
		require.Len(t, ccys, 1)
		assert.Equal(t, "BTC", ccys[0].Ticker)

		cps, err := uc.Counterparties(ctx, "tok")
		require.NoError(t, err)
		assert.Len(t, cps, 2)
	}
	assert.Equal(t, 1, repo.currencyCalls)
	assert.Equal(t, 1, repo.cpCalls)
}

func TestReferenceWithoutCacheLoadsEveryTime(t *testing.T) {
	repo := &fakeReference{}
	uc := NewReferenceUseCase(repo, &fakeSpot{price: 1}, nil, time.Minute, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := uc.Currencies(context.Background(), "tok")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.currencyCalls)
}

func TestCreateInterestRate(t *testing.T) {
	repo := &fakeReference{}
	sink := &recordingSink{}
	uc := NewReferenceUseCase(repo, &fakeSpot{}, nil, 0, sink, nil)
	uc.now = func() time.Time { return riskNow }
	ctx := context.Background()

	require.NoError(t, uc.CreateInterestRate(ctx, "tok", "a", models.InterestRateRequest{Rate: 0.05, CurrencyID: 3}))
	require.Len(t, repo.created, 1)
	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventInterestRateCreated, events[0].Type)
	assert.Equal(t, "3", events[0].Subject)

	assert.Error(t, uc.CreateInterestRate(ctx, "tok", "a", models.InterestRateRequest{Rate: 0.05}))
	assert.Error(t, uc.CreateInterestRate(ctx, "tok", "a", models.InterestRateRequest{Rate: -1, CurrencyID: 3}))
	assert.Len(t, repo.created, 1)
}

func TestSpotRequiresPair(t *testing.T) {
	spot := &fakeSpot{price: 65000}
	uc := NewReferenceUseCase(&fakeReference{}, spot, nil, 0, nil, nil)

	_, err := uc.Spot(context.Background(), "")
	assert.Error(t, err)

	got, err := uc.Spot(context.Background(), "BTC/USD")
	require.NoError(t, err)
	assert.Equal(t, 65000.0, got.Amount)
}
