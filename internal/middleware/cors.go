package middleware

import "net/http"

// NewCORSMiddleware は単一の許可オリジン（ローカルUIの開発サーバー）向けの
// CORSミドルウェアを返す。credentials付きリクエストと共存させるため
// ワイルドカードは使わず、Originヘッダーが許可オリジンと一致したリクエストにのみ
// ヘッダーを付与する。一致しないオリジンにはCORSヘッダーを一切返さない。
// 同一オリジンのリクエスト（Originなし）はそのまま通す。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Origin") == allowedOrigin {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowedOrigin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")

				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Content-Type")
					h.Set("Access-Control-Max-Age", "86400")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
