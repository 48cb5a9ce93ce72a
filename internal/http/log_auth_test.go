package handlers_test

import (
	"strings"
	"testing"
	"time"
)

func TestLoginLogs(t *testing.T) {
	app, _, _ := newTestApp(t, func(s *setup) {
		s.limits.Login = handlersRate(2, time.Minute)
	})
	cl := newClient(t, app).prime()

	entries := captureLogs(t, func() {
		cl.do("POST", "/api/v1/login", map[string]string{"email": "alice@storefront.test", "password": "Wr0ng!pass"})
	})
	e, ok := findLog(entries, "auth.login.fail")
	if !ok {
		t.Fatal("expected auth.login.fail log")
	}
	if e.Level != "warn" || e.Fields["email"] != "alice@storefront.test" {
		t.Fatalf("unexpected failure entry %+v", e)
	}

	entries = captureLogs(t, func() {
		cl.login("alice@storefront.test")
	})
	if _, ok := findLog(entries, "auth.login.success"); !ok {
		t.Fatal("expected auth.login.success log")
	}

	entries = captureLogs(t, func() {
		cl.do("POST", "/api/v1/login", map[string]string{"email": "alice@storefront.test", "password": "Passw0rd!"})
	})
	if _, ok := findLog(entries, "rate.login.hit"); !ok {
		t.Fatal("expected rate.login.hit log")
	}
}

// Passwords and full session ids never reach the log.
func TestLogsOmitSecrets(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	cl := newClient(t, app).prime()

	entries := captureLogs(t, func() {
		cl.do("POST", "/api/v1/login", map[string]string{"email": "bob@storefront.test", "password": "Sup3r$ecret"})
		cl.login("bob@storefront.test")
	})
	if len(entries) == 0 {
		t.Fatal("no log entries captured")
	}
	for _, e := range entries {
		if len(e.SessionID) > 8 {
			t.Fatalf("full session id logged in %s", e.Action)
		}
		for _, v := range e.Fields {
			if s, ok := v.(string); ok && (strings.Contains(s, "Sup3r$ecret") || strings.Contains(s, "Passw0rd!")) {
				t.Fatalf("password logged in %s", e.Action)
			}
		}
	}
}
