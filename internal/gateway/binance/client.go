package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"sibyl/internal/decision"
	"sibyl/internal/executor"
	"sibyl/internal/logger"
	"sibyl/internal/market"
	symbolpkg "sibyl/internal/pkg/symbol"
)

const (
	maxHistoryLimit = 1000
	exchangeInfoTTL = time.Hour
	defaultTimeout  = 15 * time.Second
)

type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Timeout   time.Duration
}

// Client 基于 go-binance 现货 SDK 实现行情与下单。
type Client struct {
	cfg    Config
	client *binance.Client

	mu           sync.Mutex
	filtersCache map[string]executor.SymbolFilters
	filtersAt    time.Time

	subMu        sync.Mutex
	candleCancel context.CancelFunc
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	binance.UseTestnet = cfg.Testnet
	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg:          cfg,
		client:       client,
		filtersCache: make(map[string]executor.SymbolFilters),
	}
}

// Balances returns free balances as decimals, zero rows skipped.
func (c *Client) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(account.Balances))
	for _, bal := range account.Balances {
		free, err := decimal.NewFromString(bal.Free)
		if err != nil || free.IsZero() {
			continue
		}
		out[strings.ToUpper(bal.Asset)] = free
	}
	return out, nil
}

func (c *Client) Price(ctx context.Context, pair string) (decimal.Decimal, error) {
	prices, err := c.client.NewListPricesService().Symbol(symbolpkg.ToExchange(pair)).Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no price for %s", executor.ErrUnsupportedAsset, pair)
	}
	return decimal.NewFromString(prices[0].Price)
}

// Filters returns the pair's sizing filters, cached for exchangeInfoTTL.
func (c *Client) Filters(ctx context.Context, pair string) (executor.SymbolFilters, error) {
	wire := symbolpkg.ToExchange(pair)

	c.mu.Lock()
	fresh := time.Since(c.filtersAt) < exchangeInfoTTL
	cached, hit := c.filtersCache[wire]
	c.mu.Unlock()
	if fresh && hit {
		return cached, nil
	}

	info, err := c.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		if hit {
			logger.Warnf("exchangeInfo 刷新失败，沿用缓存: %v", err)
			return cached, nil
		}
		return executor.SymbolFilters{}, err
	}

	cache := make(map[string]executor.SymbolFilters, len(info.Symbols))
	for _, sym := range info.Symbols {
		filters := executor.SymbolFilters{}
		if lot := sym.LotSizeFilter(); lot != nil {
			filters.StepSize = parseDecimal(lot.StepSize)
			filters.MinQty = parseDecimal(lot.MinQuantity)
		}
		if notional := sym.NotionalFilter(); notional != nil {
			filters.MinNotional = parseDecimal(notional.MinNotional)
		}
		cache[strings.ToUpper(sym.Symbol)] = filters
	}
	c.mu.Lock()
	c.filtersCache = cache
	c.filtersAt = time.Now()
	c.mu.Unlock()

	filters, ok := cache[wire]
	if !ok {
		return executor.SymbolFilters{}, fmt.Errorf("%w: %s not listed", executor.ErrUnsupportedAsset, pair)
	}
	return filters, nil
}

// PlaceMarketOrder submits a spot market order and returns the exchange
// order id.
func (c *Client) PlaceMarketOrder(ctx context.Context, order *executor.Order) (string, error) {
	side := binance.SideTypeBuy
	if order.Side == decision.SideSell {
		side = binance.SideTypeSell
	}
	resp, err := c.client.NewCreateOrderService().
		Symbol(symbolpkg.ToExchange(order.Symbol)).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(order.Size.String()).
		Do(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(resp.OrderID, 10), nil
}

// FetchHistory loads closed klines, oldest first. The trailing kline is
// dropped when it has not closed yet.
func (c *Client) FetchHistory(ctx context.Context, pair, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := c.client.NewKlinesService().
		Symbol(symbolpkg.ToExchange(pair)).
		Interval(interval).
		Limit(limit + 1).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil || kl.CloseTime > now {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}
