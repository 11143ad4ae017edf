// Package service — клиент брокерского моста (IB Gateway bridge): REST для
// контрактов/счёта/ордеров + WebSocket для live-баров.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"futures_bot/internal/gateway"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

type Config struct {
	Host     string
	Port     int
	ClientID int
}

var _ gateway.Gateway = (*Client)(nil)

type Client struct {
	baseURL  string
	wsURL    string
	clientID int

	http      *http.Client
	wsDialer  *websocket.Dialer
	connected atomic.Bool
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:  fmt.Sprintf("http://%s:%d/v1", cfg.Host, cfg.Port),
		wsURL:    fmt.Sprintf("ws://%s:%d/v1/ws", cfg.Host, cfg.Port),
		clientID: cfg.ClientID,
		http:     &http.Client{Timeout: 15 * time.Second},
		wsDialer: websocket.DefaultDialer,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	var resp struct {
		Connected bool `json:"connected"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/session/connect",
		map[string]any{"client_id": c.clientID}, &resp)
	if err != nil {
		return errors.Wrap(gateway.ErrGatewayUnavailable, err.Error())
	}
	if !resp.Connected {
		return gateway.ErrGatewayUnavailable
	}
	c.connected.Store(true)
	return nil
}

func (c *Client) Disconnect() error {
	if !c.connected.Swap(false) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.doJSON(ctx, http.MethodPost, "/session/disconnect", nil, nil)
}

func (c *Client) IsConnected() bool { return c.connected.Load() }

// ensureConnected — ленивый реконнект: если шлюз поднялся позже нас,
// первый же вызов его подхватит.
func (c *Client) ensureConnected(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}
	return c.Connect(ctx)
}

// doJSON — один REST-вызов моста. Тело туда и обратно через sonic.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.connected.Store(false)
		return errors.Wrap(gateway.ErrGatewayUnavailable, err.Error())
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("bridge %s %s: http %d: %s", method, path, resp.StatusCode, string(rb))
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(rb, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
