package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/repos"
)

type setup struct {
	cfg    config.Config
	infra  handlers.Infra
	limits handlers.Limits
}

// newTestApp wires the full app over a fresh seeded database. tweak may
// adjust config, backends or limits before the routes are built.
func newTestApp(t *testing.T, tweak func(*setup)) (*fiber.App, *handlers.Deps, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "shop.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := setup{limits: handlers.DefaultLimits()}
	s.limits.Global.Max = 1000
	if tweak != nil {
		tweak(&s)
	}
	deps, err := handlers.NewDeps(db, s.cfg, s.infra)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	deps.Limits = s.limits
	return handlers.NewApp(deps), deps, db
}

// client keeps cookies between requests and echoes the csrf token the
// way a browser script would.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: map[string]string{}}
}

func (cl *client) do(method, path string, body any) (*http.Response, map[string]any) {
	cl.t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				cl.t.Fatal(err)
			}
			rdr = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	if tok := cl.cookies["csrf_"]; tok != "" {
		req.Header.Set("X-CSRF-Token", tok)
	}
	resp, err := cl.app.Test(req, -1)
	if err != nil {
		cl.t.Fatal(err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c.Value
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

// prime fetches the cart once so the client holds sid and csrf cookies.
func (cl *client) prime() *client {
	cl.t.Helper()
	resp, _ := cl.do("GET", "/api/v1/cart", nil)
	if resp.StatusCode != http.StatusOK {
		cl.t.Fatalf("prime: status %d", resp.StatusCode)
	}
	if cl.cookies["sid"] == "" || cl.cookies["csrf_"] == "" {
		cl.t.Fatalf("prime: missing cookies %v", cl.cookies)
	}
	return cl
}

func (cl *client) login(email string) *client {
	cl.t.Helper()
	resp, _ := cl.do("POST", "/api/v1/login", map[string]string{"email": email, "password": "Passw0rd!"})
	if resp.StatusCode != http.StatusOK {
		cl.t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	return cl
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d", want, resp.StatusCode)
	}
}

type logEntry struct {
	Level     string         `json:"level"`
	Action    string         `json:"action"`
	SessionID string         `json:"sid"`
	Status    int            `json:"status"`
	Fields    map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func handlersRate(max int, window time.Duration) handlers.Rate {
	return handlers.Rate{Max: max, Window: window}
}

var testAddress = map[string]string{
	"name":       "Alice",
	"email":      "alice@storefront.test",
	"phone":      "+6281234567",
	"street":     "1 Main Street",
	"city":       "Springfield",
	"postalCode": "20742",
}

// placeOrder adds qty of variantID to the client's cart and checks out.
func placeOrder(t *testing.T, cl *client, variantID string, qty int) string {
	t.Helper()
	resp, _ := cl.do("POST", "/api/v1/cart/items", map[string]any{"variantId": variantID, "qty": qty})
	expectStatus(t, resp, http.StatusOK)
	resp, body := cl.do("POST", "/api/v1/orders", testAddress)
	expectStatus(t, resp, http.StatusCreated)
	id, _ := body["orderId"].(string)
	if id == "" {
		t.Fatalf("missing order id: %v", body)
	}
	return id
}

// expectMoney compares body[group][key] as a decimal.
func expectMoney(t *testing.T, body map[string]any, group, key, want string) {
	t.Helper()
	g, ok := body[group].(map[string]any)
	if !ok {
		t.Fatalf("no %q in %v", group, body)
	}
	raw, _ := g[key].(string)
	got, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("%s.%s: %v (%v)", group, key, err, g[key])
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s.%s: expected %s, got %s", group, key, want, got)
	}
}
