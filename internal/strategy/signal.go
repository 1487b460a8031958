package strategy

// Signal is a strategy verdict for one closed candle.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Evaluation carries the verdict plus a short reason for logs and alerts.
type Evaluation struct {
	Signal Signal
	Reason string
}

func hold(reason string) Evaluation {
	return Evaluation{Signal: SignalHold, Reason: reason}
}
