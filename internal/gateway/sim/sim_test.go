package sim

import (
	"context"
	"testing"
	"time"

	"futures_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsubscribeJoinsFeed(t *testing.T) {
	gw := New(Config{BarInterval: time.Millisecond})
	require.NoError(t, gw.Connect(context.Background()))

	contract, err := gw.QualifyContract(context.Background(), models.ContractSpec{
		Symbol: "MBT", SecType: "FUT", Exchange: "CME", Currency: "USD",
	})
	require.NoError(t, err)

	// счётчик нарочно без лока: если Unsubscribe не дожидается горутину
	// фида, хвостовой колбэк сдвинет его после отписки, а -race поймает
	// саму гонку
	var seen int
	sub, err := gw.SubscribeBars(context.Background(), contract, func(models.PriceBar) { seen++ })
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	sub.Unsubscribe()

	after := seen
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, seen) // после возврата Unsubscribe доставка стоит

	sub.Unsubscribe() // идемпотентен, второй вызов не блокируется
}

func TestUnsubscribeIdempotentAfterContextCancel(t *testing.T) {
	gw := New(Config{BarInterval: time.Millisecond})
	require.NoError(t, gw.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := gw.SubscribeBars(ctx, nil, func(models.PriceBar) {})
	require.NoError(t, err)

	// внешний контекст погас раньше отписки — Unsubscribe всё равно
	// возвращается, а не виснет
	cancel()
	sub.Unsubscribe()
}
