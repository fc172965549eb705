package services

import (
	portsprov "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/providers"
	portsrepo "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/repositories"
	portssvc "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
func NewServiceContainer(repos portsrepo.RepositoryProvider, rateCache portsprov.RateCache) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.RateQuery = NewRateQueryService(repos.SnapshotRepo, repos.CurrencyRepo, rateCache)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.CurrencySvcFacade  = (*CurrencyService)(nil)
	_ portssvc.RateQuerySvcFacade = (*RateQueryService)(nil)
)
