package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()

	sectorRepo := repository.NewMemorySectorRepository()
	ticketRepo := repository.NewMemoryTicketRepository()
	userRepo := repository.NewMemoryUserRepository()

	sectors := service.NewSectorService(service.SectorDependencies{SectorRepo: sectorRepo})
	if _, err := sectors.Seed(ctx, []domain.Sector{
		{ID: "reception", Name: "Recepção", Prefix: "REC", Color: "#6366f1", IsVisible: true, IsReception: true, Counters: 2},
		{ID: "lab", Name: "Laboratório", Prefix: "LAB", Color: "#10b981", IsVisible: true, AllowedForwardTo: []string{"reception"}},
		{ID: "billing", Name: "Faturamento", Prefix: "FAT", Color: "#f59e0b"},
	}); err != nil {
		t.Fatalf("seed sectors: %v", err)
	}

	authSvc := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
		DefaultPassword:       "NovoPass01",
	}, service.AuthDependencies{UserRepo: userRepo})
	if _, err := authSvc.SeedUsers(ctx, []service.UserInput{
		{Name: "Administrador", Email: "admin@example.com", Role: domain.RoleAdmin, Active: true},
		{Name: "Atendente", Email: "attendant@example.com", Role: domain.RoleAttendant, Active: true},
		{Name: "Recepcionista", Email: "receptionist@example.com", Role: domain.RoleReceptionist, Active: true},
	}); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	metrics := observability.NewMetrics()
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		SectorRepo:   sectorRepo,
		SequenceRepo: repository.NewMemorySequenceRepository(),
		Dispatcher:   events.NewInMemoryDispatcher(nil),
		Metrics:      metrics,
	})
	reports := service.NewReportService(service.ReportDependencies{
		TicketRepo: ticketRepo,
		SectorRepo: sectorRepo,
		UserRepo:   userRepo,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("queue-test", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authSvc),
		Users:          handlers.NewUsersHandler(authSvc),
		Sectors:        handlers.NewSectorsHandler(sectors),
		Kiosk:          handlers.NewKioskHandler(sectors, tickets),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Display:        handlers.NewDisplayHandler(tickets),
		Reports:        handlers.NewReportsHandler(reports),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), userRepo),
		Metrics:        metrics,
	})
	return app
}

type apiResponse struct {
	Status int             `json:"-"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	raw []byte
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	out := apiResponse{Status: resp.StatusCode, raw: raw}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return out
}

func (r apiResponse) expect(t *testing.T, status int, code string) apiResponse {
	t.Helper()
	if r.Status != status {
		t.Fatalf("status=%d want %d body=%s", r.Status, status, r.raw)
	}
	if code != "" && (r.Error == nil || r.Error.Code != code) {
		t.Fatalf("error code mismatch, want %s body=%s", code, r.raw)
	}
	return r
}

func (r apiResponse) decode(t *testing.T, out any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, r.raw)
	}
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	res := call(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "NovoPass01"})
	res.expect(t, fiber.StatusOK, "")
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	res.decode(t, &data)
	if data.Auth.Token == "" {
		t.Fatalf("login returned no token: %s", res.raw)
	}
	return data.Auth.Token
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	call(t, app, fiber.MethodGet, "/health/live", "", nil).expect(t, fiber.StatusOK, "")
	ready := call(t, app, fiber.MethodGet, "/health/ready", "", nil).expect(t, fiber.StatusOK, "")
	if !strings.Contains(string(ready.raw), `"postgres":"disabled"`) {
		t.Fatalf("ready body %s", ready.raw)
	}

	metrics := call(t, app, fiber.MethodGet, "/metrics", "", nil).expect(t, fiber.StatusOK, "")
	if !strings.Contains(string(metrics.raw), "queue_http_requests_total") {
		t.Fatalf("metrics output lacks request counter")
	}
}

func TestLoginSessionLifecycle(t *testing.T) {
	app := newTestApp(t)

	call(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "nope"}).
		expect(t, fiber.StatusUnauthorized, "AUTHENTICATION_FAILED")
	call(t, app, fiber.MethodGet, "/auth/me", "", nil).expect(t, fiber.StatusUnauthorized, "UNAUTHORIZED")

	token := login(t, app, "admin@example.com")
	var me struct {
		Email       string               `json:"email"`
		Permissions domain.PermissionSet `json:"permissions"`
	}
	call(t, app, fiber.MethodGet, "/auth/me", token, nil).expect(t, fiber.StatusOK, "").decode(t, &me)
	if me.Email != "admin@example.com" || !me.Permissions.CanManageUsers {
		t.Fatalf("me %+v", me)
	}

	call(t, app, fiber.MethodPost, "/auth/logout", token, nil).expect(t, fiber.StatusNoContent, "")
	call(t, app, fiber.MethodGet, "/auth/me", token, nil).expect(t, fiber.StatusUnauthorized, "UNAUTHORIZED")
}

func TestServiceDeskFlow(t *testing.T) {
	app := newTestApp(t)
	reception := login(t, app, "receptionist@example.com")
	attendant := login(t, app, "attendant@example.com")
	admin := login(t, app, "admin@example.com")

	var visible []domain.Sector
	call(t, app, fiber.MethodGet, "/kiosk/sectors", reception, nil).expect(t, fiber.StatusOK, "").decode(t, &visible)
	if len(visible) != 2 {
		t.Fatalf("kiosk sectors %+v", visible)
	}

	call(t, app, fiber.MethodPost, "/kiosk/tickets", attendant, map[string]string{"sectorId": "reception"}).
		expect(t, fiber.StatusForbidden, "FORBIDDEN")

	var ticket domain.Ticket
	call(t, app, fiber.MethodPost, "/kiosk/tickets", reception, map[string]string{"sectorId": "reception"}).
		expect(t, fiber.StatusCreated, "").decode(t, &ticket)
	if ticket.Number != "REC001" || ticket.Status != domain.TicketStatusWaiting {
		t.Fatalf("issued %+v", ticket)
	}
	path := "/tickets/" + ticket.ID

	call(t, app, fiber.MethodPost, path+"/complete", attendant, nil).expect(t, fiber.StatusConflict, "INVALID_TRANSITION")
	call(t, app, fiber.MethodPost, path+"/call", reception, nil).expect(t, fiber.StatusForbidden, "FORBIDDEN")
	call(t, app, fiber.MethodPost, path+"/call", attendant, nil).expect(t, fiber.StatusBadRequest, "VALIDATION_FAILED")

	call(t, app, fiber.MethodPost, path+"/call", attendant, map[string]int{"counter": 1}).
		expect(t, fiber.StatusOK, "").decode(t, &ticket)
	if ticket.Status != domain.TicketStatusServing || ticket.Counter == nil || *ticket.Counter != 1 {
		t.Fatalf("called %+v", ticket)
	}

	call(t, app, fiber.MethodPost, path+"/forward", attendant, map[string]string{"targetSectorId": "lab"}).
		expect(t, fiber.StatusOK, "").decode(t, &ticket)
	if ticket.SectorID != "lab" || ticket.Status != domain.TicketStatusWaiting || ticket.Number != "REC001" {
		t.Fatalf("forwarded %+v", ticket)
	}

	call(t, app, fiber.MethodPost, "/sectors/lab/call-next", attendant, nil).expect(t, fiber.StatusOK, "").decode(t, &ticket)
	if ticket.Status != domain.TicketStatusServing || ticket.SectorID != "lab" {
		t.Fatalf("call-next %+v", ticket)
	}
	call(t, app, fiber.MethodPost, "/sectors/lab/call-next", attendant, nil).expect(t, fiber.StatusNotFound, "NOT_FOUND")

	call(t, app, fiber.MethodPost, path+"/notes", attendant, map[string]string{"content": "trouxe exames"}).
		expect(t, fiber.StatusCreated, "")
	call(t, app, fiber.MethodPut, path+"/tags", attendant, map[string][]string{"tags": {"prioridade"}}).
		expect(t, fiber.StatusOK, "")
	call(t, app, fiber.MethodPost, path+"/complete", attendant, nil).expect(t, fiber.StatusOK, "").decode(t, &ticket)
	if ticket.Status != domain.TicketStatusCompleted || len(ticket.History) != 5 || len(ticket.Notes) != 1 {
		t.Fatalf("completed %+v", ticket)
	}

	var board service.DisplayBoard
	call(t, app, fiber.MethodGet, "/display", reception, nil).expect(t, fiber.StatusOK, "").decode(t, &board)
	if len(board.LastCalls) != 1 || board.LastCalls[0].Number != "REC001" {
		t.Fatalf("display %+v", board)
	}

	call(t, app, fiber.MethodGet, "/reports/overview", attendant, nil).expect(t, fiber.StatusForbidden, "FORBIDDEN")
	var overview struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
	}
	call(t, app, fiber.MethodGet, "/reports/overview", admin, nil).expect(t, fiber.StatusOK, "").decode(t, &overview)
	if overview.Total != 1 || overview.Completed != 1 {
		t.Fatalf("overview %+v", overview)
	}
	call(t, app, fiber.MethodGet, "/reports/timeline?ticketId="+ticket.ID, admin, nil).expect(t, fiber.StatusOK, "")
	call(t, app, fiber.MethodGet, "/reports/timeline", admin, nil).expect(t, fiber.StatusBadRequest, "VALIDATION_FAILED")
	call(t, app, fiber.MethodGet, "/reports/overview?from=yesterday", admin, nil).expect(t, fiber.StatusBadRequest, "VALIDATION_FAILED")
	call(t, app, fiber.MethodGet, "/reports/logs?kind=ticket", admin, nil).expect(t, fiber.StatusOK, "")
}

func TestStatusEndpointHonoursForwardRestrictions(t *testing.T) {
	app := newTestApp(t)
	reception := login(t, app, "receptionist@example.com")
	attendant := login(t, app, "attendant@example.com")

	var ticket domain.Ticket
	call(t, app, fiber.MethodPost, "/kiosk/tickets", reception, map[string]string{"sectorId": "lab"}).
		expect(t, fiber.StatusCreated, "").decode(t, &ticket)
	path := "/tickets/" + ticket.ID + "/status"

	res := call(t, app, fiber.MethodPost, path, attendant, map[string]string{"status": "waiting", "targetSectorId": "billing"}).
		expect(t, fiber.StatusBadRequest, "VALIDATION_FAILED")
	if res.Error.Details["to"] != "billing" {
		t.Fatalf("details %+v", res.Error.Details)
	}
	call(t, app, fiber.MethodGet, "/tickets/"+ticket.ID, attendant, nil).expect(t, fiber.StatusOK, "").decode(t, &ticket)
	if ticket.SectorID != "lab" {
		t.Fatalf("rejected move changed the sector: %+v", ticket)
	}

	call(t, app, fiber.MethodPost, path, attendant, map[string]string{"status": "waiting", "targetSectorId": "reception"}).
		expect(t, fiber.StatusOK, "").decode(t, &ticket)
	if ticket.SectorID != "reception" {
		t.Fatalf("moved %+v", ticket)
	}
}

func TestPublicDisplayPanel(t *testing.T) {
	app := newTestApp(t)
	reception := login(t, app, "receptionist@example.com")
	attendant := login(t, app, "attendant@example.com")

	var ticket domain.Ticket
	call(t, app, fiber.MethodPost, "/kiosk/tickets", reception, map[string]string{"sectorId": "lab"}).
		expect(t, fiber.StatusCreated, "").decode(t, &ticket)
	call(t, app, fiber.MethodPost, "/tickets/"+ticket.ID+"/call", attendant, nil).expect(t, fiber.StatusOK, "")
	call(t, app, fiber.MethodPost, "/tickets/"+ticket.ID+"/notes", attendant, map[string]string{"content": "confidencial"}).
		expect(t, fiber.StatusCreated, "")

	call(t, app, fiber.MethodGet, "/display", "", nil).expect(t, fiber.StatusUnauthorized, "UNAUTHORIZED")

	res := call(t, app, fiber.MethodGet, "/display/public", "", nil).expect(t, fiber.StatusOK, "")
	var board struct {
		Serving []map[string]any `json:"serving"`
	}
	res.decode(t, &board)
	if len(board.Serving) != 1 || board.Serving[0]["number"] != "LAB001" || board.Serving[0]["sectorId"] != "lab" {
		t.Fatalf("public board %s", res.raw)
	}
	for _, hidden := range []string{"notes", "history", "id"} {
		if _, ok := board.Serving[0][hidden]; ok {
			t.Fatalf("public board exposes %q: %s", hidden, res.raw)
		}
	}
	if strings.Contains(string(res.raw), "confidencial") {
		t.Fatalf("public board leaks notes: %s", res.raw)
	}
}

func TestErrorEnvelope(t *testing.T) {
	app := newTestApp(t)
	attendant := login(t, app, "attendant@example.com")

	res := call(t, app, fiber.MethodGet, "/tickets/missing", attendant, nil).expect(t, fiber.StatusNotFound, "NOT_FOUND")
	if res.Error.Details["kind"] != "ticket" {
		t.Fatalf("details %+v", res.Error.Details)
	}
	call(t, app, fiber.MethodGet, "/nowhere", "", nil).expect(t, fiber.StatusNotFound, "NOT_FOUND")
	call(t, app, fiber.MethodGet, "/tickets?status=lost", attendant, nil).expect(t, fiber.StatusBadRequest, "VALIDATION_FAILED")

	req := httptest.NewRequest(fiber.MethodPost, "/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("malformed login: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("malformed login status %d", resp.StatusCode)
	}
}

func TestSectorAndUserAdministration(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin@example.com")
	attendant := login(t, app, "attendant@example.com")

	call(t, app, fiber.MethodPost, "/sectors", attendant, map[string]string{"name": "Raio-X", "prefix": "RX"}).
		expect(t, fiber.StatusForbidden, "FORBIDDEN")
	var sector domain.Sector
	call(t, app, fiber.MethodPost, "/sectors", admin, map[string]string{"name": "Raio-X", "prefix": "RX"}).
		expect(t, fiber.StatusCreated, "").decode(t, &sector)
	if !sector.IsVisible || sector.Color == "" {
		t.Fatalf("created sector %+v", sector)
	}
	call(t, app, fiber.MethodPatch, "/sectors/"+sector.ID, admin, map[string]bool{"isVisible": false}).
		expect(t, fiber.StatusOK, "")
	call(t, app, fiber.MethodDelete, "/sectors/"+sector.ID, admin, nil).expect(t, fiber.StatusNoContent, "")
	call(t, app, fiber.MethodDelete, "/sectors/"+sector.ID, admin, nil).expect(t, fiber.StatusNotFound, "NOT_FOUND")

	var sectors []domain.Sector
	call(t, app, fiber.MethodGet, "/sectors", attendant, nil).expect(t, fiber.StatusOK, "").decode(t, &sectors)
	if len(sectors) != 3 {
		t.Fatalf("sectors %+v", sectors)
	}

	call(t, app, fiber.MethodGet, "/users", attendant, nil).expect(t, fiber.StatusForbidden, "FORBIDDEN")
	newUser := map[string]string{"name": "Carla", "email": "carla@example.com", "role": "attendant"}
	var created struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	call(t, app, fiber.MethodPost, "/users", admin, newUser).expect(t, fiber.StatusCreated, "").decode(t, &created)
	if !created.Active {
		t.Fatalf("new users default to active")
	}
	call(t, app, fiber.MethodPost, "/users", admin, newUser).expect(t, fiber.StatusConflict, "CONFLICT")
	login(t, app, "carla@example.com")

	call(t, app, fiber.MethodPatch, "/users/"+created.ID, admin, map[string]bool{"active": false}).expect(t, fiber.StatusOK, "")
	call(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "carla@example.com", "password": "NovoPass01"}).
		expect(t, fiber.StatusUnauthorized, "AUTHENTICATION_FAILED")
	call(t, app, fiber.MethodDelete, "/users/"+created.ID, admin, nil).expect(t, fiber.StatusNoContent, "")
}
