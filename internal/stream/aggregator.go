package stream

import (
	"futures_bot/internal/models"
	"futures_bot/pkg/logger"
)

// Aggregator сворачивает 5-секундные бары в свечи фиксированного интервала.
// Состояния два: текущая недостроенная свеча и её интервальный ключ.
// Агрегатор принадлежит ровно одной сессии, поэтому без локов.
type Aggregator struct {
	intervalSec int64

	key     int64 // floor(ts/interval) текущей свечи, -1 = ещё ничего не было
	current *models.Candle
	dropped int64
}

func NewAggregator(intervalSec int64) *Aggregator {
	if intervalSec <= 0 {
		intervalSec = 60
	}
	return &Aggregator{intervalSec: intervalSec, key: -1}
}

// Push принимает очередной бар и возвращает достроенную свечу, если этот бар
// открыл новый интервал. Серия строго монотонна: бар из интервала <= текущего
// ключа, но не равного ему, выбрасывается со счётчиком — опоздавшие и
// дублирующиеся апдейты фида не должны портить уже отданную историю.
func (a *Aggregator) Push(bar models.PriceBar) *models.Candle {
	slot := bar.Time / a.intervalSec

	if slot == a.key && a.current != nil {
		// тот же интервал — доливаем
		if bar.High > a.current.High {
			a.current.High = bar.High
		}
		if bar.Low < a.current.Low {
			a.current.Low = bar.Low
		}
		a.current.Close = bar.Close
		a.current.Volume += bar.Volume
		return nil
	}

	if a.key != -1 && slot < a.key {
		a.dropped++
		logger.Warn("late bar dropped: slot=%d current=%d (total dropped %d)", slot, a.key, a.dropped)
		return nil
	}

	// новый интервал: отдаём достроенную и сеем следующую из этого бара
	done := a.current
	a.key = slot
	a.current = &models.Candle{
		Time:   slot * a.intervalSec,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	}
	return done
}

// Flush отдаёт хвостовую недостроенную свечу. Зовётся на закрытии сессии,
// иначе последняя свеча потеряется: сама она завершается только баром из
// следующего интервала.
func (a *Aggregator) Flush() *models.Candle {
	done := a.current
	a.current = nil
	return done
}

// Dropped — сколько опоздавших баров выброшено.
func (a *Aggregator) Dropped() int64 { return a.dropped }
