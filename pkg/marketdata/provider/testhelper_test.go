package provider

import (
	"context"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// mockWriter is a simple mock implementation of MarketDataWriter for testing.
type mockWriter struct {
	initializeErr     error
	writeErr          error
	finalizeErr       error
	outputPath        string
	initialized       bool
	writtenData       []types.Bar
	finalizeCallCount int
}

func (m *mockWriter) Initialize() error {
	if m.initializeErr != nil {
		return m.initializeErr
	}

	m.initialized = true

	return nil
}

func (m *mockWriter) Write(bar types.Bar) error {
	if m.writeErr != nil {
		return m.writeErr
	}

	m.writtenData = append(m.writtenData, bar)

	return nil
}

func (m *mockWriter) Count() int {
	return len(m.writtenData)
}

func (m *mockWriter) Finalize() (string, error) {
	m.finalizeCallCount++
	if m.finalizeErr != nil {
		return "", m.finalizeErr
	}

	return m.outputPath, nil
}

func (m *mockWriter) Close() error {
	return nil
}

func (m *mockWriter) GetOutputPath() string {
	return m.outputPath
}

// mockBinanceAPIClient returns one page of klines per request, in order.
type mockBinanceAPIClient struct {
	pages    [][]*binance.Kline
	err      error
	requests []*mockBinanceKlinesService
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	service := &mockBinanceKlinesService{client: m}
	m.requests = append(m.requests, service)

	return service
}

type mockBinanceKlinesService struct {
	client   *mockBinanceAPIClient
	symbol   string
	interval string
	start    int64
	end      int64
	limit    int
}

func (m *mockBinanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	m.symbol = symbol

	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.interval = interval

	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.start = startTime

	return m
}

func (m *mockBinanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	m.end = endTime

	return m
}

func (m *mockBinanceKlinesService) Limit(limit int) BinanceKlinesService {
	m.limit = limit

	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	if m.client.err != nil {
		return nil, m.client.err
	}

	idx := len(m.client.requests) - 1
	if idx >= len(m.client.pages) {
		return nil, nil
	}

	return m.client.pages[idx], nil
}

// mockPolygonAPIClient implements PolygonAPIClient for testing.
type mockPolygonAPIClient struct {
	iterator *mockPolygonIterator
	params   *models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	m.params = params

	return m.iterator
}

// mockPolygonIterator implements PolygonAggsIterator for testing.
type mockPolygonIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (m *mockPolygonIterator) Next() bool {
	if m.index < len(m.aggs) {
		m.index++

		return true
	}

	return false
}

func (m *mockPolygonIterator) Item() models.Agg {
	if m.index > 0 && m.index <= len(m.aggs) {
		return m.aggs[m.index-1]
	}

	return models.Agg{}
}

func (m *mockPolygonIterator) Err() error {
	return m.err
}
