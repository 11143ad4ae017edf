package service

import (
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

// writeJSON — единый ответ: либо нормальный результат, либо {"detail": ...}.
func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"detail":"encode error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// CORS — whitelisted origins, credentials, preflight.
func CORS(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Protected проверяет bearer-токен и прокидывает запрос дальше.
func (h *Handler) Protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if _, err := h.tokens.Verify(token); err != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r)
	}
}
