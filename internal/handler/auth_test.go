package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/marigold-cafe/api/internal/auth"
	"github.com/marigold-cafe/api/internal/database"
	"github.com/marigold-cafe/api/internal/handler"
)

const testSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	users    map[uuid.UUID]database.StaffUser
	settings map[string]string
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		users:    make(map[uuid.UUID]database.StaffUser),
		settings: make(map[string]string),
	}
}

func (m *mockAuthStore) addUser(email, password, role string, active bool) database.StaffUser {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := database.StaffUser{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       "Test User",
		Role:           role,
		IsActive:       active,
		CreatedAt:      time.Now(),
	}
	m.users[u.ID] = u
	return u
}

func (m *mockAuthStore) setPinHash(key, pin string) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	m.settings[key] = string(hashed)
}

func (m *mockAuthStore) GetStaffByEmail(_ context.Context, email string) (database.StaffUser, error) {
	for _, u := range m.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return database.StaffUser{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetStaffByID(_ context.Context, id uuid.UUID) (database.StaffUser, error) {
	u, ok := m.users[id]
	if !ok {
		return database.StaffUser{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) CreateStaff(_ context.Context, arg database.CreateStaffParams) (database.StaffUser, error) {
	for _, u := range m.users {
		if u.Email == arg.Email {
			return database.StaffUser{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := database.StaffUser{
		ID:             uuid.New(),
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		FullName:       arg.FullName,
		Role:           arg.Role,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockAuthStore) ListSettings(_ context.Context) ([]database.SystemSetting, error) {
	var out []database.SystemSetting
	for k, v := range m.settings {
		out = append(out, database.SystemSetting{Key: k, Value: v})
	}
	return out, nil
}

// --- Helpers ---

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func doAuthRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Login tests ---

func TestLogin_Valid(t *testing.T) {
	store := newMockAuthStore()
	user := store.addUser("admin@cafe.test", "password123", "ADMIN", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "admin@cafe.test",
		"password": "password123",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("expected access_token in response")
	}
	if resp["refresh_token"] == "" || resp["refresh_token"] == nil {
		t.Error("expected refresh_token in response")
	}

	claims, err := auth.ValidateToken(testSecret, resp["access_token"].(string))
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token user_id: got %s, want %s", claims.UserID, user.ID)
	}
	if claims.Role != "ADMIN" {
		t.Errorf("token role: got %s, want ADMIN", claims.Role)
	}
}

func TestLogin_UppercaseEmail(t *testing.T) {
	store := newMockAuthStore()
	store.addUser("admin@cafe.test", "password123", "ADMIN", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "Admin@Cafe.Test",
		"password": "password123",
	})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMockAuthStore()
	store.addUser("admin@cafe.test", "password123", "ADMIN", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "admin@cafe.test",
		"password": "wrong",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "nobody@cafe.test",
		"password": "password123",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	store := newMockAuthStore()
	store.addUser("gone@cafe.test", "password123", "ADMIN", false)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "gone@cafe.test",
		"password": "password123",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email": "admin@cafe.test",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Refresh tests ---

func TestRefresh_Valid(t *testing.T) {
	store := newMockAuthStore()
	user := store.addUser("admin@cafe.test", "password123", "ADMIN", true)
	router := setupAuthRouter(store)

	refresh, err := auth.GenerateRefreshToken(testSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refresh,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == nil {
		t.Error("expected new access_token")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": "garbage",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	store := newMockAuthStore()
	user := store.addUser("gone@cafe.test", "password123", "KITCHEN", false)
	router := setupAuthRouter(store)

	refresh, err := auth.GenerateRefreshToken(testSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refresh,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Signup tests ---

func TestSignup_Valid(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("signup_code_hash", "join-the-cafe")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/signup", map[string]interface{}{
		"signup_code": "join-the-cafe",
		"email":       "new@cafe.test",
		"password":    "longenough",
		"full_name":   "New Staff",
		"role":        "KITCHEN",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	user := resp["user"].(map[string]interface{})
	if user["email"] != "new@cafe.test" {
		t.Errorf("email: got %v, want new@cafe.test", user["email"])
	}
	if user["role"] != "KITCHEN" {
		t.Errorf("role: got %v, want KITCHEN", user["role"])
	}
}

func TestSignup_Disabled(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/signup", map[string]interface{}{
		"signup_code": "anything",
		"email":       "new@cafe.test",
		"password":    "longenough",
		"full_name":   "New Staff",
		"role":        "KITCHEN",
	})

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestSignup_WrongCode(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("signup_code_hash", "join-the-cafe")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/signup", map[string]interface{}{
		"signup_code": "wrong-code",
		"email":       "new@cafe.test",
		"password":    "longenough",
		"full_name":   "New Staff",
		"role":        "KITCHEN",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("signup_code_hash", "join-the-cafe")
	store.addUser("taken@cafe.test", "password123", "ADMIN", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/signup", map[string]interface{}{
		"signup_code": "join-the-cafe",
		"email":       "taken@cafe.test",
		"password":    "longenough",
		"full_name":   "Dup",
		"role":        "BOARD",
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestSignup_ShortPassword(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("signup_code_hash", "join-the-cafe")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/signup", map[string]interface{}{
		"signup_code": "join-the-cafe",
		"email":       "new@cafe.test",
		"password":    "short",
		"full_name":   "New Staff",
		"role":        "KITCHEN",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSignup_InvalidRole(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("signup_code_hash", "join-the-cafe")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/signup", map[string]interface{}{
		"signup_code": "join-the-cafe",
		"email":       "new@cafe.test",
		"password":    "longenough",
		"full_name":   "New Staff",
		"role":        "CUSTOMER",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- PIN tests ---

func TestOrderPin_Valid(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("order_pin_hash", "1234")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/order-pin", map[string]interface{}{
		"pin": "1234",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["role"] != "CUSTOMER" {
		t.Errorf("role: got %v, want CUSTOMER", resp["role"])
	}

	claims, err := auth.ValidateToken(testSecret, resp["access_token"].(string))
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Role != "CUSTOMER" {
		t.Errorf("token role: got %s, want CUSTOMER", claims.Role)
	}
}

func TestOrderPin_Wrong(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("order_pin_hash", "1234")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/order-pin", map[string]interface{}{
		"pin": "0000",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOrderPin_NotConfigured(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/order-pin", map[string]interface{}{
		"pin": "1234",
	})

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestKitchenPin_Valid(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("kitchen_pin_hash", "5678")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/kitchen-pin", map[string]interface{}{
		"pin": "5678",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["role"] != "KITCHEN" {
		t.Errorf("role: got %v, want KITCHEN", resp["role"])
	}
}

func TestKitchenPin_DoesNotAcceptOrderPin(t *testing.T) {
	store := newMockAuthStore()
	store.setPinHash("order_pin_hash", "1234")
	store.setPinHash("kitchen_pin_hash", "5678")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/kitchen-pin", map[string]interface{}{
		"pin": "1234",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
