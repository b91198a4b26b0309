package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"coursehunter/internal/model"
	"coursehunter/internal/session"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Preflight request",
			method:         http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			expectHandler:  false,
		},
		{
			name:           "GET request",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "POST request",
			method:         http.MethodPost,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := CORS(testHandler)

			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, X-Admin-Key", w.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

// stubStore is a session.Store returning a fixed State.
type stubStore struct {
	state session.State
}

func (s stubStore) Get(r *http.Request) (session.State, error) { return s.state, nil }
func (s stubStore) Save(w http.ResponseWriter, r *http.Request, state session.State) error {
	return nil
}
func (s stubStore) Clear(w http.ResponseWriter, r *http.Request) error { return nil }

func TestAdminAuth(t *testing.T) {
	logger := zerolog.Nop()
	authenticate := func(code string) error {
		if code != "letmein" {
			return errors.New("invalid access code")
		}
		return nil
	}

	tests := []struct {
		name           string
		state          session.State
		adminKey       string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Admin session",
			state:          session.State{IsAdmin: true},
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Valid admin key without session",
			adminKey:       "letmein",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Invalid admin key overrides admin session",
			state:          session.State{IsAdmin: true},
			adminKey:       "wrong",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Admin tab unlocked but not logged in",
			state:          session.State{ShowAdminTab: true},
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Anonymous",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := AdminAuth(stubStore{state: tt.state}, authenticate, logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
			if tt.adminKey != "" {
				req.Header.Set(AdminKeyHeader, tt.adminKey)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			if !tt.expectHandler {
				var body model.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, model.ErrCodeUnauthorised, body.Error)
				assert.NotEmpty(t, body.Message)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		writeBody     bool
		expectStatus  string
		expectLevel   string
	}{
		{
			name:          "Status set explicitly",
			method:        http.MethodPost,
			path:          "/api/orders",
			handlerStatus: http.StatusTooManyRequests,
			expectStatus:  `"status":429`,
			expectLevel:   `"level":"warn"`,
		},
		{
			name:          "Server error",
			method:        http.MethodPost,
			path:          "/api/admin/orders/abc/fulfill",
			handlerStatus: http.StatusBadGateway,
			expectStatus:  `"status":502`,
			expectLevel:   `"level":"error"`,
		},
		{
			name:         "Implicit 200 on write",
			method:       http.MethodGet,
			path:         "/api/courses",
			writeBody:    true,
			expectStatus: `"status":200`,
			expectLevel:  `"level":"info"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := Logging(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.writeBody {
					w.Write([]byte("{}"))
					return
				}
				w.WriteHeader(tt.handlerStatus)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			assert.Contains(t, buf.String(), tt.expectStatus)
			assert.Contains(t, buf.String(), tt.expectLevel)
			assert.Contains(t, buf.String(), `"method":"`+tt.method+`"`)
			assert.Contains(t, buf.String(), `"path":"`+tt.path+`"`)
			assert.NotContains(t, buf.String(), "request_id")
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("catalog index out of range")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses/7", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"INTERNAL_ERROR","message":"internal server error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "catalog index out of range")
}

func TestRecovery_PassesThrough(t *testing.T) {
	handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestLogging_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := chimiddleware.RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/api/courses"`)
}
