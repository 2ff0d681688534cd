package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func echoContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := IssueToken(testKey, "d1", "DOCTOR", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c, _ := echoContext(req)

	var seen string
	handler := func(c echo.Context) error {
		seen = ActorAddressFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	if err := JWTMiddleware(testKey)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "d1" {
		t.Errorf("actor address = %q, want d1", seen)
	}
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	expired, _ := IssueToken(testKey, "d1", "DOCTOR", -time.Minute)
	wrongKey, _ := IssueToken([]byte("another-key-another-key-another!"), "d1", "DOCTOR", time.Minute)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + wrongKey},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c, _ := echoContext(req)

			handler := func(c echo.Context) error {
				t.Error("handler should not run")
				return nil
			}

			err := JWTMiddleware(testKey)(handler)(c)
			if err == nil {
				t.Fatal("expected error")
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusUnauthorized {
				t.Fatalf("err = %v, want 401 HTTPError", err)
			}
		})
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	handlerAddr := func(c echo.Context) error {
		return c.String(http.StatusOK, ActorAddressFromContext(c.Request().Context()))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Address", "p1")
	c, rec := echoContext(req)
	if err := DevAuthMiddleware("fallback")(handlerAddr)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "p1" {
		t.Errorf("actor = %q, want p1", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec = echoContext(req)
	if err := DevAuthMiddleware("fallback")(handlerAddr)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "fallback" {
		t.Errorf("actor = %q, want fallback", rec.Body.String())
	}
}

func TestActorAddressFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ActorAddressFromContext(req.Context()); got != "" {
		t.Errorf("bare context address = %q, want empty", got)
	}
}
