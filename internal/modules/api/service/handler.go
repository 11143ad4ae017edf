package service

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
	"futures_bot/internal/notify"
	"futures_bot/internal/trading"
	"futures_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Handler — REST-поверхность бота.
type Handler struct {
	trade    *trading.Service
	tokens   *TokenManager
	notifier notify.Notifier

	username string
	password string
}

func NewHandler(trade *trading.Service, tokens *TokenManager, notifier notify.Notifier, username, password string) *Handler {
	return &Handler{trade: trade, tokens: tokens, notifier: notifier, username: username, password: password}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AuthRequest
	body, _ := io.ReadAll(r.Body)
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}
	// пустой сконфигурированный пароль = вход закрыт совсем
	if req.Username != h.username || h.password == "" || req.Password != h.password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := h.tokens.Issue(req.Username)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.trade.ListPositions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Side     string `json:"side"`
		Quantity int    `json:"quantity"`
	}
	body, _ := io.ReadAll(r.Body)
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}
	if req.Side != "BUY" && req.Side != "SELL" {
		writeDetail(w, http.StatusBadRequest, "Side must be BUY or SELL")
		return
	}
	result, err := h.trade.PlaceMax(r.Context(), req.Side)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.notifier.OrderResult(result)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	result, err := h.trade.ClosePosition(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if result.Status != models.StatusNoPosition {
		h.notifier.OrderResult(result)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	summary, err := h.trade.AccountSummary(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) CandleHistory(w http.ResponseWriter, r *http.Request) {
	duration := r.URL.Query().Get("duration")
	if duration == "" {
		duration = "1 D"
	}
	barSize := r.URL.Query().Get("bar_size")
	if barSize == "" {
		barSize = "1 min"
	}
	candles, err := h.trade.FetchHistory(r.Context(), duration, barSize)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candles": candles})
}

// writeError мапит типизированные ошибки ядра в статусы; наружу всегда
// структурированный {"detail": ...}, голых фолтов не отдаём.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	logger.Error("api error: %v", err)
	switch {
	case errors.Is(err, gateway.ErrResolution):
		writeDetail(w, http.StatusServiceUnavailable, "Contract could not be resolved")
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		writeDetail(w, http.StatusServiceUnavailable, "Broker gateway unavailable")
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

// SPA раздаёт собранный фронт; незнакомые пути уходят в index.html.
func SPA(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}
