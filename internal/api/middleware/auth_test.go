package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// Проверки формата заголовка не требуют JWKS: до парсинга токена
// middleware не обращается к keyfunc.
func newHeaderOnlyAuth() *JWTAuth {
	return &JWTAuth{}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	auth := newHeaderOnlyAuth()
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос без токена не должен доходить до обработчика")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auctions", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", rec.Code)
	}
}

func TestMiddlewareRejectsBadScheme(t *testing.T) {
	auth := newHeaderOnlyAuth()
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос с неверной схемой не должен доходить до обработчика")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auctions", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", rec.Code)
	}
}

func TestMiddlewareRejectsEmptyToken(t *testing.T) {
	auth := newHeaderOnlyAuth()
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос с пустым токеном не должен доходить до обработчика")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auctions", nil)
	req.Header.Set("Authorization", "Bearer ")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", rec.Code)
	}
}

func TestExcludePaths(t *testing.T) {
	auth := newHeaderOnlyAuth()
	mw := ExcludePaths(auth.Middleware(), "/health/", "/metrics")

	reached := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	// Исключённый путь проходит без токена
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if !reached || rec.Code != http.StatusOK {
		t.Errorf("исключённый путь: reached=%v, статус=%d", reached, rec.Code)
	}

	// Остальные пути требуют токен
	reached = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auctions", nil))
	if reached || rec.Code != http.StatusUnauthorized {
		t.Errorf("защищённый путь: reached=%v, статус=%d, ожидается 401", reached, rec.Code)
	}
}
