package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mindprobe/mindprobe-api/internal/db"
)

func register(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	h(rec, req)
	return rec
}

func TestRegisterDuplicateUsernameConflict(t *testing.T) {
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:auth_register.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	h := RegisterHandler(dbh, NewAuthService("test-secret"))

	rec := register(t, h, `{"username":"sam","password":"longenough"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d body=%s", rec.Code, rec.Body)
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out["access_token"] == "" {
		t.Fatalf("register body = %s (err=%v)", rec.Body, err)
	}

	// the second insert loses to the unique index on username
	rec = register(t, h, `{"username":"sam","password":"longenough"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:auth_shortpw.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	h := RegisterHandler(dbh, NewAuthService("test-secret"))

	rec := register(t, h, `{"username":"sam","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
