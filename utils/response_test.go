package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cityfix-be/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	tests := map[errs.Kind]int{
		errs.Unauthenticated:   http.StatusUnauthorized,
		errs.InvalidState:      http.StatusConflict,
		errs.AlreadyAssigned:   http.StatusConflict,
		errs.PaymentIncomplete: http.StatusPaymentRequired,
		errs.UpstreamFailure:   http.StatusBadGateway,
		errs.Kind("Other"):     http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := StatusFor(kind); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestFail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"typed", errs.New(errs.NotFound, "Issue not found"), http.StatusNotFound, "NotFound", "Issue not found"},
		{"wrapped", errs.Upstream(errors.New("socket closed"), "Database error"), http.StatusBadGateway, "UpstreamFailure", "Database error"},
		{"untyped", errors.New("boom"), http.StatusBadGateway, "UpstreamFailure", "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Fail(c, zap.NewNop(), tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["success"] != false || body["kind"] != tt.kind || body["message"] != tt.message {
				t.Errorf("body = %v", body)
			}
			if !c.IsAborted() {
				t.Error("context not aborted")
			}
		})
	}
}

func TestOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, http.StatusCreated, gin.H{"id": "1"})

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusCreated || body["success"] != true || body["id"] != "1" {
		t.Errorf("response = %d %v", w.Code, body)
	}
}
