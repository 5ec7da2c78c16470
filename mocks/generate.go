package mocks

//go:generate mockgen -destination=./mock_engine.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/backtest/engine Engine
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/strategy Strategy
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider Provider
