package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
	"futures_bot/internal/trading"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Коды закрытия сессии. 1000/1011 стандартные, 4xxx — наши.
const (
	CloseMissingToken = 4001
	CloseInvalidToken = 4002
)

// VerifyFunc проверяет bearer-токен и возвращает subject.
type VerifyFunc func(token string) (string, error)

// Session — одна клиентская стрим-сессия: подписка на live-бары, агрегация
// в минутные свечи, ping/pong и heartbeat. Состояния:
// Connecting -> Authenticated -> Streaming -> Closed.
type Session struct {
	conn     *websocket.Conn
	gw       gateway.Gateway
	resolver *trading.Resolver
	agg      *Aggregator

	idleTimeout time.Duration

	writeMu sync.Mutex // gorilla: один писатель на соединение
}

func NewSession(conn *websocket.Conn, gw gateway.Gateway, r *trading.Resolver, agg *Aggregator, idleTimeout time.Duration) *Session {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}
	return &Session{conn: conn, gw: gw, resolver: r, agg: agg, idleTimeout: idleTimeout}
}

// Run гоняет сессию до закрытия. Апгрейд уже сделан вызывающим; мы сами
// валидируем токен, чтобы до валидных данных неавторизованный клиент
// не добрался.
func (s *Session) Run(ctx context.Context, token string, verify VerifyFunc) {
	defer s.conn.Close()

	// --- Authenticated ---
	if token == "" {
		s.closeWith(CloseMissingToken, "missing token")
		return
	}
	if _, err := verify(token); err != nil {
		s.closeWith(CloseInvalidToken, "invalid token")
		return
	}

	contract, err := s.resolver.Resolve(ctx)
	if err != nil {
		log.Printf("[WS] resolve before stream: %v", err)
		s.closeWith(websocket.CloseInternalServerErr, "contract unavailable")
		return
	}

	// --- Streaming ---
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := s.gw.SubscribeBars(ctx, contract, func(bar models.PriceBar) {
		if done := s.agg.Push(bar); done != nil {
			if werr := s.sendCandle(done); werr != nil {
				cancel() // писать больше некуда — гасим сессию
			}
		}
	})
	if err != nil {
		log.Printf("[WS] subscribe error: %v", err)
		s.closeWith(websocket.CloseInternalServerErr, "subscribe failed")
		return
	}
	// подписка снимается ровно один раз, на любом пути выхода
	defer func() {
		sub.Unsubscribe()
		if tail := s.agg.Flush(); tail != nil {
			_ = s.sendCandle(tail) // best-effort: хвостовая свеча
		}
	}()

	log.Printf("[WS] client streaming %s candles", contract.Symbol)

	// читатель отдельно: gorilla после ошибки чтения соединение не отдаст
	inbound := make(chan string)
	go func() {
		defer close(inbound)
		for {
			_, msg, rerr := s.conn.ReadMessage()
			if rerr != nil {
				return
			}
			select {
			case inbound <- string(msg):
			case <-ctx.Done():
				return
			}
		}
	}()

	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				// клиент отвалился или прислал мусорный фрейм
				return
			}
			if msg == "ping" {
				if werr := s.sendText("pong"); werr != nil {
					return
				}
			}
			resetTimer(idle, s.idleTimeout)
		case <-idle.C:
			// тишина на входе — шлём heartbeat, чтобы прокси не считали
			// канал мёртвым, и ждём дальше
			if werr := s.sendText("heartbeat"); werr != nil {
				return
			}
			idle.Reset(s.idleTimeout)
		}
	}
}

func (s *Session) sendCandle(c *models.Candle) error {
	payload, err := sonic.Marshal(c)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *Session) sendText(msg string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (s *Session) closeWith(code int, reason string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
