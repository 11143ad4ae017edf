package stream

import (
	"testing"

	"futures_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(t int64, o, h, l, c, v float64) models.PriceBar {
	return models.PriceBar{Time: t, Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestAggregatorSingleInterval(t *testing.T) {
	agg := NewAggregator(60)

	require.Nil(t, agg.Push(bar(0, 10, 11, 9, 10, 5)))
	require.Nil(t, agg.Push(bar(5, 10, 14, 10, 13, 2)))
	require.Nil(t, agg.Push(bar(10, 13, 13, 8, 9, 3)))

	done := agg.Push(bar(60, 9, 9, 9, 9, 1))
	require.NotNil(t, done)

	assert.Equal(t, int64(0), done.Time)
	assert.Equal(t, 10.0, done.Open)  // open первого бара
	assert.Equal(t, 14.0, done.High)  // max по всем барам
	assert.Equal(t, 8.0, done.Low)    // min по всем барам
	assert.Equal(t, 9.0, done.Close)  // close последнего бара
	assert.Equal(t, 10.0, done.Volume)
}

func TestAggregatorEndToEnd(t *testing.T) {
	// три бара: два в первом интервале, третий открывает новый
	agg := NewAggregator(60)

	require.Nil(t, agg.Push(bar(0, 10, 11, 9, 10, 5)))
	require.Nil(t, agg.Push(bar(30, 10, 12, 9, 11, 3)))

	done := agg.Push(bar(61, 11, 11, 10, 10, 2))
	require.NotNil(t, done)
	assert.Equal(t, models.Candle{Time: 0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 8}, *done)

	// новая недостроенная свеча засеяна третьим баром
	tail := agg.Flush()
	require.NotNil(t, tail)
	assert.Equal(t, models.Candle{Time: 60, Open: 11, High: 11, Low: 10, Close: 10, Volume: 2}, *tail)
}

func TestAggregatorMonotonicEmission(t *testing.T) {
	agg := NewAggregator(60)

	var emitted []int64
	times := []int64{3, 30, 65, 121, 125, 240}
	for _, ts := range times {
		if done := agg.Push(bar(ts, 1, 2, 0.5, 1.5, 1)); done != nil {
			emitted = append(emitted, done.Time)
		}
	}

	require.Equal(t, []int64{0, 60, 120}, emitted)
	for i := 1; i < len(emitted); i++ {
		assert.Greater(t, emitted[i], emitted[i-1])
		assert.Zero(t, emitted[i]%60)
	}
}

func TestAggregatorDropsLateBars(t *testing.T) {
	agg := NewAggregator(60)

	require.Nil(t, agg.Push(bar(120, 10, 11, 9, 10, 5)))

	// опоздавший бар из прошлого интервала не должен ни эмитить,
	// ни трогать текущую свечу
	require.Nil(t, agg.Push(bar(59, 1, 100, 0.1, 2, 50)))
	assert.Equal(t, int64(1), agg.Dropped())

	done := agg.Push(bar(180, 10, 10, 10, 10, 1))
	require.NotNil(t, done)
	assert.Equal(t, int64(120), done.Time)
	assert.Equal(t, 11.0, done.High)
	assert.Equal(t, 5.0, done.Volume)
}

func TestAggregatorFlushEmpty(t *testing.T) {
	agg := NewAggregator(60)
	assert.Nil(t, agg.Flush())
}
