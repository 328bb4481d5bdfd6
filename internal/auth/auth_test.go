package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("hunter22", "test-secret")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoginAndValidate(t *testing.T) {
	s := newTestService(t)

	if _, err := s.Login("", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}

	res, err := s.Login("", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if res.Operator != "operator" {
		t.Errorf("operator = %q", res.Operator)
	}
	sub, err := s.ValidateToken(res.Token)
	if err != nil || sub != "operator" {
		t.Errorf("ValidateToken = %q, %v", sub, err)
	}

	res, _ = s.Login("ada", "hunter22")
	if sub, _ := s.ValidateToken(res.Token); sub != "ada" {
		t.Errorf("named subject = %q", sub)
	}
}

func TestValidateRejects(t *testing.T) {
	s := newTestService(t)
	res, _ := s.Login("", "hunter22")

	other, _ := NewService("hunter22", "other-secret")
	if _, err := other.ValidateToken(res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := s.ValidateToken(res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: %v", err)
	}
}

func TestNewServiceRequiresPassword(t *testing.T) {
	if _, err := NewService("", "secret"); err == nil {
		t.Error("empty password accepted")
	}
}

func TestMutationMiddleware(t *testing.T) {
	s := newTestService(t)
	res, _ := s.Login("ada", "hunter22")

	var seen string
	h := s.MutationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		method string
		header string
		want   int
	}{
		{"read is open", http.MethodGet, "", http.StatusNoContent},
		{"write needs token", http.MethodPost, "", http.StatusUnauthorized},
		{"bad scheme", http.MethodPost, "Basic abc", http.StatusUnauthorized},
		{"bad token", http.MethodDelete, "Bearer nope", http.StatusUnauthorized},
		{"valid token", http.MethodPost, "Bearer " + res.Token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/shapes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if seen != "ada" {
		t.Errorf("operator in context = %q", seen)
	}
}

func TestLoginHandler(t *testing.T) {
	h := NewHandler(newTestService(t))

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body)))
		return rec
	}

	if rec := post(`{`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", rec.Code)
	}
	if rec := post(`{"password":"nope"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: %d", rec.Code)
	}
	rec := post(`{"name":"ada","password":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
	var res AuthResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil || res.Token == "" {
		t.Errorf("result = %+v, %v", res, err)
	}
}
