package trading

import (
	"context"
	"testing"
	"time"

	"futures_bot/internal/gateway/sim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSizer(gw *sim.Gateway, attempts int) *Sizer {
	r := NewResolver(gw, testSpec)
	return NewSizer(gw, r, time.Millisecond, attempts)
}

func TestSizerFloorsByMargin(t *testing.T) {
	gw := connectedSim(t, sim.Config{MarginPerUnit: 2400, AvailableFunds: 25000})
	s := newSizer(gw, 50)

	qty, err := s.MaxQuantity(context.Background(), "BUY")
	require.NoError(t, err)
	assert.Equal(t, 10, qty) // floor(25000/2400)
}

func TestSizerWaitsForMargin(t *testing.T) {
	// первые опросы отдают пустую маржу — сайзер должен дождаться
	gw := connectedSim(t, sim.Config{MarginPerUnit: 5000, AvailableFunds: 25000, MarginDelayPolls: 3})
	s := newSizer(gw, 50)

	qty, err := s.MaxQuantity(context.Background(), "SELL")
	require.NoError(t, err)
	assert.Equal(t, 5, qty)
}

func TestSizerDegradedToOne(t *testing.T) {
	cases := []struct {
		name string
		cfg  sim.Config
	}{
		{"margin never arrives", sim.Config{MarginPerUnit: 2400, AvailableFunds: 25000, MarginDelayPolls: 1000}},
		{"margin is zero", sim.Config{MarginPerUnit: 0, AvailableFunds: 25000}},
		{"margin is negative", sim.Config{MarginPerUnit: -10, AvailableFunds: 25000}},
		{"margin exceeds funds", sim.Config{MarginPerUnit: 90000, AvailableFunds: 25000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := connectedSim(t, tc.cfg)
			s := newSizer(gw, 5)

			qty, err := s.MaxQuantity(context.Background(), "BUY")
			require.NoError(t, err)
			assert.Equal(t, 1, qty)
		})
	}
}
