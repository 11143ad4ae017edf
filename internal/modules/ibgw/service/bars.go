package service

import (
	"context"
	"log"
	"sync"
	"time"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"

	"github.com/bytedance/sonic"
)

type barSubscription struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe дожидается остановки горутины фида: после возврата onBar
// больше не зовётся.
func (s *barSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// SubscribeBars — live 5-секундные бары по WebSocket моста.
// Реконнект в цикле: упали — секунда паузы и заново, пока подписку не сняли.
func (c *Client) SubscribeBars(ctx context.Context, contract *models.Contract, onBar func(models.PriceBar)) (gateway.Subscription, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[BARS] connect conid=%d", contract.ConID)
			conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL+"/bars", nil)
			if err != nil {
				log.Printf("[BARS] dial error: %v", err)
				sleepCtx(ctx, time.Second)
				continue
			}

			sub := map[string]any{
				"op":       "subscribe",
				"conid":    contract.ConID,
				"bar_size": 5,
			}
			if err := conn.WriteJSON(sub); err != nil {
				log.Printf("[BARS] subscribe error: %v", err)
				_ = conn.Close()
				continue
			}

			// keepalive ping раз в 20s — иначе мост рвёт тихие соединения
			stopPing := make(chan struct{})
			go func() {
				t := time.NewTicker(20 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-stopPing:
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]string{"op": "ping"})
					}
				}
			}()

			// при отмене контекста рвём блокирующий ReadMessage
			go func() {
				select {
				case <-ctx.Done():
					_ = conn.Close()
				case <-stopPing:
				}
			}()

			for {
				_, msg, rerr := conn.ReadMessage()
				if rerr != nil {
					if ctx.Err() == nil {
						log.Printf("[BARS] read error: %v", rerr)
					}
					_ = conn.Close()
					close(stopPing)
					break
				}

				var frame struct {
					Type string     `json:"type"`
					Bar  barPayload `json:"bar"`
				}
				if err := sonic.Unmarshal(msg, &frame); err != nil {
					continue
				}
				if frame.Type != "bar" {
					continue // pong и служебные фреймы
				}
				onBar(models.PriceBar{
					Time:   frame.Bar.Time,
					Open:   frame.Bar.Open,
					High:   frame.Bar.High,
					Low:    frame.Bar.Low,
					Close:  frame.Bar.Close,
					Volume: frame.Bar.Volume,
				})
			}

			sleepCtx(ctx, time.Second)
		}
	}()

	return &barSubscription{cancel: cancel, done: done}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
