package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

// CacheTestSuite is a test suite for CacheV1
type CacheTestSuite struct {
	suite.Suite
	cache *CacheV1
}

func (suite *CacheTestSuite) SetupTest() {
	suite.cache = NewCacheV1()
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (suite *CacheTestSuite) TestImplementsCache() {
	var c Cache = NewCacheV1()
	suite.NotNil(c)
}

func (suite *CacheTestSuite) TestGetMissing() {
	value := suite.cache.Get("ma:5")
	suite.True(value.IsNone())
	suite.Equal(Stats{Hits: 0, Misses: 1, Entries: 0}, suite.cache.Stats())
}

func (suite *CacheTestSuite) TestSetAndGet() {
	suite.cache.Set("ma:5", []float64{1, 2, 3})

	value := suite.cache.Get("ma:5")
	suite.Require().True(value.IsSome())
	suite.Equal([]float64{1, 2, 3}, value.Unwrap())
	suite.Equal(Stats{Hits: 1, Misses: 0, Entries: 1}, suite.cache.Stats())
}

func (suite *CacheTestSuite) TestFirstSetWins() {
	suite.cache.Set("rsi:14", []float64{1})
	suite.cache.Set("rsi:14", []float64{2})

	suite.Equal([]float64{1}, suite.cache.Get("rsi:14").Unwrap())
}

func (suite *CacheTestSuite) TestReset() {
	suite.cache.Set("ma:5", []float64{1})
	suite.cache.Get("ma:5")
	suite.cache.Get("ma:6")

	suite.cache.Reset()

	suite.Equal(Stats{}, suite.cache.Stats())
	suite.True(suite.cache.Get("ma:5").IsNone())
}

func (suite *CacheTestSuite) TestConcurrentAccess() {
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			suite.cache.Set("shared", []float64{42})
			suite.cache.Get("shared")
		}()
	}

	wg.Wait()

	stats := suite.cache.Stats()
	suite.Equal(1, stats.Entries)
	suite.Equal(int64(16), stats.Hits+stats.Misses)
}
