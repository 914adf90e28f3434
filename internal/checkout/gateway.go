package checkout

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"expensecart/internal/core"
)

// ErrPaymentDeclined is returned by the simulated gateway on a simulated failure.
var ErrPaymentDeclined = errors.New("payment declined")

// Charge is what is sent to the payment gateway.
type Charge struct {
	Reference string
	Amount    core.Money
	Method    Method
}

// Gateway authorizes a charge.
type Gateway interface {
	Authorize(ctx context.Context, c Charge) error
}

// SimulatedGateway waits a fixed latency and then succeeds, or fails with
// probability FailureRate.
type SimulatedGateway struct {
	Latency     time.Duration
	FailureRate float64

	// roll returns a value in [0,1); defaults to math/rand.
	roll func() float64
}

// NewSimulatedGateway returns a gateway with the given latency and failure rate.
func NewSimulatedGateway(latency time.Duration, failureRate float64) *SimulatedGateway {
	return &SimulatedGateway{Latency: latency, FailureRate: failureRate, roll: rand.Float64}
}

func (g *SimulatedGateway) Authorize(ctx context.Context, _ Charge) error {
	if g.Latency > 0 {
		timer := time.NewTimer(g.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	roll := g.roll
	if roll == nil {
		roll = rand.Float64
	}
	if g.FailureRate > 0 && roll() < g.FailureRate {
		return ErrPaymentDeclined
	}
	return nil
}
