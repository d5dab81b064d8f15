package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/aniketverma031/helpdesk-project/internal/api/http"
	"github.com/aniketverma031/helpdesk-project/internal/api/http/handlers"
	"github.com/aniketverma031/helpdesk-project/internal/auth"
	"github.com/aniketverma031/helpdesk-project/internal/config"
	"github.com/aniketverma031/helpdesk-project/internal/domain"
	"github.com/aniketverma031/helpdesk-project/internal/observability"
	"github.com/aniketverma031/helpdesk-project/internal/repository/repotest"
	"github.com/aniketverma031/helpdesk-project/internal/service"
)

type apiClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *apiClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *apiClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testAPI struct {
	app   *fiber.App
	store *repotest.Store
	auth  *service.AuthService
	clock *apiClock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	clock := &apiClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := repotest.NewStore(clock.Now)
	logger := zap.NewNop()
	metrics := observability.NewMetrics("apitest")

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            4,
	}, store)
	agentDirectory := service.NewAgentDirectory(store, nil, 0, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.TicketStore(),
		CommentRepo: store.CommentStore(),
		UserRepo:    store,
		Metrics:     metrics,
		Clock:       clock.Now,
	})
	roleService := service.NewRoleService(store, nil, agentDirectory)

	app := fiber.New()
	apihttp.RegisterMiddlewares(app, logger, metrics, 0)
	apihttp.RegisterRoutes(app, apihttp.RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, agentDirectory),
		Admin:          handlers.NewAdminHandler(roleService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store),
		Metrics:        metrics,
	})

	return &testAPI{app: app, store: store, auth: authService, clock: clock}
}

// addUser seeds an account and returns it with a valid bearer token.
func (a *testAPI) addUser(t *testing.T, username string, role domain.Role, superuser bool) (domain.User, string) {
	t.Helper()
	user := a.store.AddUser(domain.User{Username: username, Role: role, IsSuperuser: superuser})
	token, _, err := a.auth.TokenManager().GenerateToken(user.ID, user.Role)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return user, token
}

func (a *testAPI) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/tickets", "/agents", "/admin/users"} {
		resp := api.request(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status %d, want 401", path, resp.StatusCode)
		}
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error.Code != "UNAUTHORIZED" {
			t.Errorf("GET %s error code = %q, want UNAUTHORIZED", path, body.Error.Code)
		}
	}
}

func TestRegisterIgnoresSmuggledRole(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "mallory",
		"password": "pw",
		"role":     "admin",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d, want 201", resp.StatusCode)
	}
	var body struct {
		Data struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	if body.Data.Role != "user" {
		t.Errorf("registered role = %q, want user despite smuggled role field", body.Data.Role)
	}

	stored, ok := api.store.UserByID(body.Data.ID)
	if !ok {
		t.Fatal("registered account not persisted")
	}
	if stored.Role != domain.RoleUser {
		t.Errorf("stored role = %q, want user", stored.Role)
	}
}

func TestCreateAndReadTicket(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.addUser(t, "alice", domain.RoleUser, false)

	resp := api.request(t, http.MethodPost, "/tickets", token, map[string]string{
		"title":       "Printer on fire",
		"description": "It is literally on fire.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d, want 201", resp.StatusCode)
	}
	var created struct {
		Data struct {
			ID          string    `json:"id"`
			Status      string    `json:"status"`
			SLADeadline time.Time `json:"sla_deadline"`
			CreatedAt   time.Time `json:"created_at"`
		} `json:"data"`
	}
	decodeBody(t, resp, &created)
	if created.Data.Status != "open" {
		t.Errorf("status = %q, want open", created.Data.Status)
	}
	if want := created.Data.CreatedAt.Add(48 * time.Hour); !created.Data.SLADeadline.Equal(want) {
		t.Errorf("sla_deadline = %v, want %v", created.Data.SLADeadline, want)
	}

	resp = api.request(t, http.MethodGet, "/tickets/"+created.Data.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status %d, want 200", resp.StatusCode)
	}
	var detail struct {
		Data struct {
			ID       string `json:"id"`
			Comments []struct {
				Content string `json:"content"`
			} `json:"comments"`
		} `json:"data"`
	}
	decodeBody(t, resp, &detail)
	if detail.Data.ID != created.Data.ID {
		t.Errorf("detail id = %q, want %q", detail.Data.ID, created.Data.ID)
	}
	if detail.Data.Comments == nil {
		t.Error("comments missing from detail response")
	}
}

func TestPatchTicketConflictEnvelope(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.addUser(t, "alice", domain.RoleUser, false)

	resp := api.request(t, http.MethodPost, "/tickets", token, map[string]string{
		"title":       "Original",
		"description": "Original description.",
	})
	var created struct {
		Data struct {
			ID        string `json:"id"`
			UpdatedAt string `json:"updated_at"`
		} `json:"data"`
	}
	decodeBody(t, resp, &created)
	staleToken := created.Data.UpdatedAt

	// An unconditional update moves the row on.
	api.clock.Advance(time.Minute)
	resp = api.request(t, http.MethodPatch, "/tickets/"+created.Data.ID, token, map[string]string{
		"title": "Moved on",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first patch status %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// The stale token must now be refused with the fixed envelope.
	resp = api.request(t, http.MethodPatch, "/tickets/"+created.Data.ID, token, map[string]string{
		"title":      "Late writer",
		"updated_at": staleToken,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale patch status %d, want 409", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if got, want := string(bytes.TrimSpace(raw)), `{"detail":"Conflict: Ticket was updated by someone else."}`; got != want {
		t.Errorf("conflict body = %s, want %s", got, want)
	}

	// The late write left no trace.
	stored, _ := api.store.TicketByID(created.Data.ID)
	if stored.Title != "Moved on" {
		t.Errorf("title = %q, mutated by the refused patch", stored.Title)
	}
}

func TestPatchTicketClearsAssigneeWithNull(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.addUser(t, "alice", domain.RoleUser, false)
	agent, _ := api.addUser(t, "carol", domain.RoleAgent, false)

	resp := api.request(t, http.MethodPost, "/tickets", token, map[string]any{
		"title":       "Assigned",
		"description": "Assigned to carol.",
		"assigned_to": agent.ID,
	})
	var created struct {
		Data struct {
			ID         string  `json:"id"`
			AssignedTo *string `json:"assigned_to"`
		} `json:"data"`
	}
	decodeBody(t, resp, &created)
	if created.Data.AssignedTo == nil {
		t.Fatal("assignee not set on creation")
	}

	api.clock.Advance(time.Minute)
	resp = api.request(t, http.MethodPatch, "/tickets/"+created.Data.ID, token, json.RawMessage(`{"assigned_to":null}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status %d, want 200", resp.StatusCode)
	}
	var patched struct {
		Data struct {
			AssignedTo *string `json:"assigned_to"`
		} `json:"data"`
	}
	decodeBody(t, resp, &patched)
	if patched.Data.AssignedTo != nil {
		t.Errorf("assigned_to = %v, explicit null should clear it", *patched.Data.AssignedTo)
	}
}

func TestCommentOnUnknownTicket(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.addUser(t, "alice", domain.RoleUser, false)

	resp := api.request(t, http.MethodPost, "/tickets/no-such-ticket/comments", token, map[string]string{
		"content": "hello?",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Code != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", body.Error.Code)
	}
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.addUser(t, "carol", domain.RoleAgent, false)

	resp := api.request(t, http.MethodGet, "/admin/users", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAssignRoleSuperuserWarning(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.addUser(t, "root", domain.RoleAdmin, false)
	super, _ := api.addUser(t, "founder", domain.RoleAdmin, true)

	resp := api.request(t, http.MethodPost, fmt.Sprintf("/admin/users/%s/role", super.ID), adminToken, map[string]string{
		"role": "user",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200 with a warning", resp.StatusCode)
	}
	var body struct {
		Warning string `json:"warning"`
	}
	decodeBody(t, resp, &body)
	if want := "Cannot change the role of Superuser founder from the front-end."; body.Warning != want {
		t.Errorf("warning = %q, want %q", body.Warning, want)
	}

	stored, _ := api.store.UserByID(super.ID)
	if stored.Role != domain.RoleAdmin {
		t.Errorf("superuser role = %q, changed despite warning path", stored.Role)
	}
}

func TestAssignRolePromotion(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.addUser(t, "root", domain.RoleAdmin, false)
	target, _ := api.addUser(t, "bob", domain.RoleUser, false)

	resp := api.request(t, http.MethodPost, fmt.Sprintf("/admin/users/%s/role", target.ID), adminToken, map[string]string{
		"role": "agent",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var body struct {
		Data struct {
			Role string `json:"role"`
		} `json:"data"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Data.Role != "agent" {
		t.Errorf("role = %q, want agent", body.Data.Role)
	}
	if want := "Role for bob updated to agent."; body.Message != want {
		t.Errorf("message = %q, want %q", body.Message, want)
	}

	// The promoted account now shows up in the agent picker.
	resp = api.request(t, http.MethodGet, "/agents", adminToken, nil)
	var agents struct {
		Data []struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	decodeBody(t, resp, &agents)
	if len(agents.Data) != 1 || agents.Data[0].Username != "bob" {
		t.Errorf("agent picker = %+v, want just bob", agents.Data)
	}
}

func TestHealthLive(t *testing.T) {
	api := newTestAPI(t)
	resp := api.request(t, http.MethodGet, "/health/live", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}
