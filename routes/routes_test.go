package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cityfix-be/controllers"
	"cityfix-be/identity"
	"cityfix-be/middlewares"
	"cityfix-be/mocks"
	"cityfix-be/models"
	"cityfix-be/payments"
	"cityfix-be/services"
	"cityfix-be/store"
	"cityfix-be/store/memstore"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := controllers.RegisterValidators(); err != nil {
		panic(err)
	}
}

type testApp struct {
	t        *testing.T
	router   *gin.Engine
	st       *memstore.Store
	provider *mocks.MockPaymentProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := zap.NewNop()
	st := memstore.New()
	idp := identity.NewLocal(st, "test-secret", time.Hour)
	users := services.NewUsers(st, idp, log)
	issues := services.NewIssues(st, st, users, nil, log)
	provider := mocks.NewMockPaymentProvider(gomock.NewController(t))

	h := &controllers.Handler{
		Identity: idp,
		Users:    users,
		Issues:   issues,
		Payments: services.NewPayments(provider, st, st, issues, services.PaymentsConfig{SiteDomain: "http://localhost:5173"}, log),
		Stats:    services.NewStats(st, st, st),
		Log:      log,
	}
	g := Guards{
		Auth:         middlewares.IdentityGate(idp, log),
		Active:       middlewares.RequireActive(users, log),
		Admin:        middlewares.RequireAdmin(users, log),
		Staff:        middlewares.RequireStaff(users, log),
		StaffOrAdmin: middlewares.RequireRole(users, log, models.Staff, models.Admin),
	}

	r := gin.New()
	Register(r, h, g)
	return &testApp{t: t, router: r, st: st, provider: provider}
}

// do sends body as JSON and decodes the JSON reply into out when non-nil.
func (a *testApp) do(method, path, token string, body any, out any) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (a *testApp) register(name, email string) string {
	a.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	code := a.do(http.MethodPost, "/auth/register", "", gin.H{"name": name, "email": email, "password": "secret123"}, &resp)
	if code != http.StatusCreated || resp.Token == "" {
		a.t.Fatalf("register %s: status %d", email, code)
	}
	return resp.Token
}

func (a *testApp) login(email, password string) string {
	a.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	if code := a.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password}, &resp); code != http.StatusOK {
		a.t.Fatalf("login %s: status %d", email, code)
	}
	return resp.Token
}

func (a *testApp) promote(email string, role models.Role) {
	a.t.Helper()
	if _, err := a.st.UpdateUser(context.Background(), store.UserMatch{Email: email}, store.UserChange{Role: role}); err != nil {
		a.t.Fatal(err)
	}
}

type issueReply struct {
	Issue models.Issue `json:"issue"`
}

func (a *testApp) createIssue(token, title string) models.Issue {
	a.t.Helper()
	var resp issueReply
	if code := a.do(http.MethodPost, "/issues", token, gin.H{"title": title, "category": "Road"}, &resp); code != http.StatusCreated {
		a.t.Fatalf("create issue: status %d", code)
	}
	return resp.Issue
}

func TestPing(t *testing.T) {
	app := newTestApp(t)
	var resp map[string]string
	if code := app.do(http.MethodGet, "/ping", "", nil, &resp); code != http.StatusOK || resp["message"] != "pong" {
		t.Errorf("ping = %d %v", code, resp)
	}
}

func TestIssueLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("Alice", "alice@x.com")
	bob := app.register("Bob", "bob@x.com")
	admin := app.register("Ada", "admin@x.com")
	app.promote("admin@x.com", models.Admin)

	issue := app.createIssue(alice, "Broken streetlight")
	id := issue.ID.Hex()
	if issue.Status != models.Pending || issue.Priority != models.Normal || len(issue.Timeline) != 1 {
		t.Fatalf("created issue = %+v", issue)
	}

	var list []models.Issue
	if code := app.do(http.MethodGet, "/issues", "", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("public list = %d, %d issues", code, len(list))
	}
	if code := app.do(http.MethodGet, "/issues?priority=High&status=pending", "", nil, &list); code != http.StatusOK || len(list) != 0 {
		t.Errorf("high priority list = %d, %d issues", code, len(list))
	}

	if code := app.do(http.MethodPatch, "/issues/upvote/"+id, alice, nil, nil); code != http.StatusBadRequest {
		t.Errorf("self upvote status = %d, want 400", code)
	}
	if code := app.do(http.MethodPatch, "/issues/upvote/"+id, bob, nil, nil); code != http.StatusOK {
		t.Errorf("upvote status = %d", code)
	}
	if code := app.do(http.MethodPatch, "/issues/upvote/"+id, bob, nil, nil); code != http.StatusConflict {
		t.Errorf("repeat upvote status = %d, want 409", code)
	}

	if code := app.do(http.MethodPatch, "/issues/"+id, bob, gin.H{"title": "Mine now"}, nil); code != http.StatusForbidden {
		t.Errorf("edit by stranger status = %d, want 403", code)
	}
	var edited issueReply
	if code := app.do(http.MethodPatch, "/issues/"+id, alice, gin.H{"location": "Road 7"}, &edited); code != http.StatusOK {
		t.Fatalf("edit status = %d", code)
	}
	if edited.Issue.Location != "Road 7" || edited.Issue.Title != "Broken streetlight" {
		t.Errorf("edited issue = %+v", edited.Issue)
	}

	var staffResp struct {
		User models.User `json:"user"`
	}
	code := app.do(http.MethodPost, "/admin/add-staff", admin,
		gin.H{"displayName": "Sam", "email": "sam@x.com", "password": "secret123"}, &staffResp)
	if code != http.StatusCreated || staffResp.User.Role != models.Staff {
		t.Fatalf("add staff = %d %+v", code, staffResp.User)
	}
	sam := app.login("sam@x.com", "secret123")

	if code := app.do(http.MethodPatch, "/admin/assign-staff/"+id, admin, gin.H{"staffEmail": "sam@x.com"}, nil); code != http.StatusOK {
		t.Fatalf("assign status = %d", code)
	}
	if code := app.do(http.MethodPatch, "/admin/assign-staff/"+id, admin, gin.H{"staffEmail": "sam@x.com"}, nil); code != http.StatusConflict {
		t.Errorf("reassign status = %d, want 409", code)
	}

	var assigned []models.Issue
	if code := app.do(http.MethodGet, "/staff/assigned-issues", sam, nil, &assigned); code != http.StatusOK || len(assigned) != 1 {
		t.Fatalf("assigned issues = %d, %d", code, len(assigned))
	}

	if code := app.do(http.MethodPatch, "/staff/update-progress/"+id, sam, gin.H{"status": "in-progress", "progressNote": "Crew dispatched"}, nil); code != http.StatusOK {
		t.Fatalf("progress status = %d", code)
	}
	var resolved issueReply
	if code := app.do(http.MethodPatch, "/staff/update-progress/"+id, sam, gin.H{"status": "resolved"}, &resolved); code != http.StatusOK {
		t.Fatalf("resolve status = %d", code)
	}
	if resolved.Issue.Status != models.Resolved {
		t.Errorf("status = %s", resolved.Issue.Status)
	}
	last := resolved.Issue.Timeline[len(resolved.Issue.Timeline)-1]
	if last.Text != "Status changed to resolved" || last.UpdatedBy != "sam@x.com" {
		t.Errorf("last timeline entry = %+v", last)
	}

	if code := app.do(http.MethodPatch, "/issues/"+id, alice, gin.H{"title": "Too late"}, nil); code != http.StatusConflict {
		t.Errorf("edit of resolved issue status = %d, want 409", code)
	}
	if code := app.do(http.MethodPatch, "/admin/reject-issue/"+id, admin, nil, nil); code != http.StatusConflict {
		t.Errorf("reject of resolved issue status = %d, want 409", code)
	}

	var stats services.AdminStats
	if code := app.do(http.MethodGet, "/admin/stats", admin, nil, &stats); code != http.StatusOK {
		t.Fatalf("admin stats status = %d", code)
	}
	if stats.TotalIssues != 1 || stats.ResolvedCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRoleGuards(t *testing.T) {
	app := newTestApp(t)
	citizen := app.register("Cit", "cit@x.com")
	staff := app.register("Sam", "sam@x.com")
	app.promote("sam@x.com", models.Staff)
	id := app.createIssue(citizen, "Pothole").ID.Hex()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"anonymous create", http.MethodPost, "/issues", "", gin.H{"title": "x"}, http.StatusUnauthorized},
		{"citizen admin stats", http.MethodGet, "/admin/stats", citizen, nil, http.StatusForbidden},
		{"staff admin stats", http.MethodGet, "/admin/stats", staff, nil, http.StatusForbidden},
		{"citizen staff stats", http.MethodGet, "/staff/stats", citizen, nil, http.StatusForbidden},
		{"staff stats", http.MethodGet, "/staff/stats", staff, nil, http.StatusOK},
		{"citizen boost", http.MethodPatch, "/issues/boost/" + id, citizen, nil, http.StatusForbidden},
		{"staff boost", http.MethodPatch, "/issues/boost/" + id, staff, nil, http.StatusOK},
		{"citizen status change", http.MethodPatch, "/issues/status/" + id, citizen, gin.H{"status": "resolved"}, http.StatusForbidden},
		{"unknown status", http.MethodPatch, "/issues/status/" + id, staff, gin.H{"status": "done"}, http.StatusBadRequest},
		{"same status", http.MethodPatch, "/issues/status/" + id, staff, gin.H{"status": "pending"}, http.StatusConflict},
		{"unknown priority filter", http.MethodGet, "/issues?priority=urgent", "", nil, http.StatusBadRequest},
		{"citizen list users", http.MethodGet, "/users", citizen, nil, http.StatusForbidden},
		{"garbage token", http.MethodGet, "/auth/me", "not-a-token", nil, http.StatusUnauthorized},
		{"missing issue", http.MethodGet, "/issues/000000000000000000000000", "", nil, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/issues/nope", "", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := app.do(tt.method, tt.path, tt.token, tt.body, nil); code != tt.status {
				t.Errorf("status = %d, want %d", code, tt.status)
			}
		})
	}
}

func TestRoleChangeAppliesImmediately(t *testing.T) {
	app := newTestApp(t)
	token := app.register("Cit", "cit@x.com")

	if code := app.do(http.MethodGet, "/staff/stats", token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("before promotion status = %d", code)
	}
	app.promote("cit@x.com", models.Staff)
	if code := app.do(http.MethodGet, "/staff/stats", token, nil, nil); code != http.StatusOK {
		t.Errorf("after promotion status = %d, want 200 with the same token", code)
	}
}

func TestBlockedUserCannotReport(t *testing.T) {
	app := newTestApp(t)
	admin := app.register("Ada", "admin@x.com")
	app.promote("admin@x.com", models.Admin)
	token := app.register("Cit", "cit@x.com")

	var me models.User
	if code := app.do(http.MethodGet, "/auth/me", token, nil, &me); code != http.StatusOK {
		t.Fatalf("me status = %d", code)
	}
	if code := app.do(http.MethodPatch, "/admin/user-block/"+me.ID.Hex(), admin, gin.H{"blocked": true}, nil); code != http.StatusOK {
		t.Fatalf("block status = %d", code)
	}
	if code := app.do(http.MethodPost, "/issues", token, gin.H{"title": "spam"}, nil); code != http.StatusForbidden {
		t.Errorf("blocked create status = %d, want 403", code)
	}
}

func TestUserRoutes(t *testing.T) {
	app := newTestApp(t)
	token := app.register("Alice", "alice@x.com")

	var role struct {
		Role models.Role `json:"role"`
	}
	if code := app.do(http.MethodGet, "/users/nobody@x.com/role", token, nil, &role); code != http.StatusOK || role.Role != models.Citizen {
		t.Errorf("unknown user role = %d %q", code, role.Role)
	}

	var saved struct {
		Created bool `json:"created"`
	}
	if code := app.do(http.MethodPost, "/users", token, gin.H{"displayName": "Other"}, &saved); code != http.StatusOK || saved.Created {
		t.Errorf("repeat save = %d created=%v", code, saved.Created)
	}

	var updated struct {
		User models.User `json:"user"`
	}
	if code := app.do(http.MethodPatch, "/users/profile", token, gin.H{"phone": "01700"}, &updated); code != http.StatusOK {
		t.Fatalf("profile status = %d", code)
	}
	if updated.User.Phone != "01700" || updated.User.DisplayName != "Alice" {
		t.Errorf("profile = %+v", updated.User)
	}
}

func TestConfirmPaymentOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := app.register("Alice", "alice@x.com")

	app.provider.EXPECT().RetrieveSession(gomock.Any(), "cs_1").Return(&payments.Session{
		ID:              "cs_1",
		PaymentStatus:   payments.StatusPaid,
		CustomerEmail:   "alice@x.com",
		AmountTotal:     900,
		PaymentIntentID: "pi_1",
		Metadata:        map[string]string{"purpose": "subscribe", "amount_bdt": "1000"},
	}, nil).Times(2)

	var first, second struct {
		Payment services.Reconciliation `json:"payment"`
	}
	if code := app.do(http.MethodPost, "/payment-success", token, gin.H{"sessionId": "cs_1"}, &first); code != http.StatusOK {
		t.Fatalf("confirm status = %d", code)
	}
	if code := app.do(http.MethodPost, "/subscribe", token, gin.H{"sessionId": "cs_1"}, &second); code != http.StatusOK {
		t.Fatalf("repeat confirm status = %d", code)
	}
	if first.Payment.Duplicate || !second.Payment.Duplicate {
		t.Errorf("duplicate flags = %v, %v", first.Payment.Duplicate, second.Payment.Duplicate)
	}

	var me models.User
	app.do(http.MethodGet, "/auth/me", token, nil, &me)
	if !me.IsPremium {
		t.Error("caller not premium after payment")
	}
	if n := len(app.st.Payments()); n != 1 {
		t.Errorf("ledger has %d records", n)
	}

	if code := app.do(http.MethodPost, "/payment-success", token, gin.H{}, nil); code != http.StatusBadRequest {
		t.Errorf("missing session id status = %d", code)
	}
}

func TestWebhookWithoutSecret(t *testing.T) {
	app := newTestApp(t)
	if code := app.do(http.MethodPost, "/stripe/webhook", "", gin.H{"type": "checkout.session.completed"}, nil); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestUploadsNotMountedWithoutStorage(t *testing.T) {
	app := newTestApp(t)
	token := app.register("Alice", "alice@x.com")
	if code := app.do(http.MethodPost, "/uploads/image", token, gin.H{"contentType": "image/png"}, nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}
