package ws

import (
	"net/http"

	"go.uber.org/zap"
)

// originChecker builds the upgrade-time Origin filter. An empty allow-list
// accepts everything, which is the development default.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if _, ok := allowedSet[origin]; ok {
			return true
		}
		zap.L().Warn("ws.origin_rejected", zap.String("origin", origin))
		return false
	}
}
