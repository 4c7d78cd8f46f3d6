package middlewarectx

import "net/http"

// Foregrounder сверяет состояние подписки с текущим временем.
type Foregrounder interface {
	Foreground()
}

// Foreground вызывает сверку подписки перед обработкой каждого запроса,
// так что истёкший пробный период снимается до проверки прав.
func Foreground(ent Foregrounder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ent.Foreground()
			next.ServeHTTP(w, r)
		})
	}
}
