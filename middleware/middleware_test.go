package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mouuuuu1/valoria/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, key, sub string, role models.Role, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func protected() *gin.Engine {
	r := gin.New()
	r.GET("/me", ValidateToken(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sub": Subject(c), "role": Role(c)})
	})
	r.GET("/admin", ValidateToken(secret), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/member", ValidateToken(secret), RequireMember(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestValidateToken(t *testing.T) {
	r := protected()
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"valid bearer", "Bearer " + token(t, secret, "42", models.RoleCustomer, jwt.SigningMethodHS256, future), "", http.StatusOK},
		{"raw token", token(t, secret, "42", models.RoleCustomer, jwt.SigningMethodHS256, future), "", http.StatusOK},
		{"query token", "", token(t, secret, "42", models.RoleAdmin, jwt.SigningMethodHS256, future), http.StatusOK},
		{"wrong key", "Bearer " + token(t, "other", "42", models.RoleCustomer, jwt.SigningMethodHS256, future), "", http.StatusUnauthorized},
		{"expired", "Bearer " + token(t, secret, "42", models.RoleCustomer, jwt.SigningMethodHS256, time.Now().Add(-time.Hour)), "", http.StatusUnauthorized},
		{"wrong alg", "Bearer " + token(t, secret, "42", models.RoleCustomer, jwt.SigningMethodHS512, future), "", http.StatusUnauthorized},
		{"unknown role", "Bearer " + token(t, secret, "42", "root", jwt.SigningMethodHS256, future), "", http.StatusUnauthorized},
		{"no subject", "Bearer " + token(t, secret, "", models.RoleCustomer, jwt.SigningMethodHS256, future), "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRoleGates(t *testing.T) {
	r := protected()
	future := time.Now().Add(time.Hour)

	do := func(path, tok string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	customer := token(t, secret, "42", models.RoleCustomer, jwt.SigningMethodHS256, future)
	admin := token(t, secret, "1", models.RoleAdmin, jwt.SigningMethodHS256, future)
	guest := token(t, secret, "guest_abc", models.RoleGuest, jwt.SigningMethodHS256, future)

	assert.Equal(t, http.StatusForbidden, do("/admin", customer))
	assert.Equal(t, http.StatusNoContent, do("/admin", admin))
	assert.Equal(t, http.StatusNoContent, do("/member", customer))
	assert.Equal(t, http.StatusForbidden, do("/member", guest))
}

func TestPaymentWebhookAuth(t *testing.T) {
	r := gin.New()
	r.POST("/hook", PaymentWebhookAuth("whsec", zap.NewNop()), func(c *gin.Context) {
		event, ok := PaymentEvent(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(event.Type))
	})

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	send := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
		req.Header.Set(SignatureHeader, sig)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	sign := func(key string, at time.Time) string {
		return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: body, Secret: key, Timestamp: at,
		}).Header
	}

	w := send(sign("whsec", time.Now()))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payment_intent.succeeded", w.Body.String())

	assert.Equal(t, http.StatusForbidden, send(sign("other", time.Now())).Code)
	assert.Equal(t, http.StatusForbidden, send(sign("whsec", time.Now().Add(-time.Hour))).Code, "stale timestamp")
	assert.Equal(t, http.StatusForbidden, send("t=1,v1=deadbeef").Code)
	assert.Equal(t, http.StatusForbidden, send("").Code)

	unset := gin.New()
	unset.POST("/hook", PaymentWebhookAuth("", zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, sign("", time.Now()))
	w = httptest.NewRecorder()
	unset.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
