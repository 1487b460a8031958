package executor

import (
	"errors"
	"net"
	"strings"

	"github.com/adshao/go-binance/v2/common"

	"sibyl/internal/decision"
)

// Rejection and failure classes. Pre-flight rejections (funds, size, asset,
// params) never reach the exchange; exchange failures split into transient
// (retryable) and fatal (halts trading until an operator resets the breaker).
var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidSize           = errors.New("invalid size")
	ErrUnsupportedAsset      = errors.New("unsupported asset")
	ErrInvalidStrategyParams = errors.New("invalid strategy params")
	ErrExchangeTransient     = errors.New("exchange transient failure")
	ErrExchangeFatal         = errors.New("exchange fatal failure")
	ErrTradingHalted         = errors.New("trading halted")
)

// Binance error codes that mean credentials or permissions are broken.
// Retrying cannot help; the breaker trips until operator intervention.
var fatalExchangeCodes = map[int64]bool{
	-1022: true, // invalid signature
	-2014: true, // bad API key format
	-2015: true, // invalid key, IP or permission
}

// classifyExchangeError folds an exchange client error into the
// transient/fatal split.
func classifyExchangeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnsupportedAsset) ||
		errors.Is(err, ErrExchangeFatal) ||
		errors.Is(err, ErrExchangeTransient) {
		return err
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		if fatalExchangeCodes[apiErr.Code] {
			return errors.Join(ErrExchangeFatal, err)
		}
		return errors.Join(ErrExchangeTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(ErrExchangeTransient, err)
	}
	return errors.Join(ErrExchangeTransient, err)
}

// Reason maps an error onto the stable rejection label recorded in
// execution results and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, decision.ErrUnrecognizedAction):
		return "UNRECOGNIZED_ACTION"
	case errors.Is(err, decision.ErrMalformed):
		return "MALFORMED_DECISION"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrInvalidSize):
		return "INVALID_SIZE"
	case errors.Is(err, ErrUnsupportedAsset):
		return "UNSUPPORTED_ASSET"
	case errors.Is(err, ErrInvalidStrategyParams):
		return "INVALID_STRATEGY_PARAMS"
	case errors.Is(err, ErrExchangeFatal):
		return "EXCHANGE_FATAL"
	case errors.Is(err, ErrTradingHalted):
		return "TRADING_HALTED"
	case errors.Is(err, ErrExchangeTransient):
		return "EXCHANGE_TRANSIENT"
	default:
		return "INTERNAL_ERROR"
	}
}

// summarize trims an error chain down to something fit for a result row.
func summarize(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx != -1 {
		msg = msg[:idx]
	}
	return msg
}
