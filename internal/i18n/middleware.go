package i18n

import "net/http"

// Middleware resolves the request language and stores a localizer in the
// request context. Order: lang query parameter, Accept-Language header,
// then the fallback language.
func Middleware(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := r.URL.Query().Get("lang")
			if lang == "" {
				lang = r.Header.Get("Accept-Language")
			}
			if lang == "" {
				lang = fallback
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
