package insuranceservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func TestClient_VerifyEligibility(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eligibility", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req EligibilityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AET-1", req.MemberID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(EligibilityResponse{Eligible: true, PlanName: "Gold"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.NewNop())
	resp, err := c.VerifyEligibility(context.Background(), EligibilityRequest{
		MemberID: "AET-1", InsuranceCompany: "Aetna", ServiceDate: "2025-03-10",
	})
	require.NoError(t, err)
	assert.True(t, resp.Eligible)
	assert.Equal(t, "Gold", resp.PlanName)
}

func TestClient_VerifyEligibility_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.NewNop())
	_, err := c.VerifyEligibilityWithGracefulDegradation(context.Background(), EligibilityRequest{MemberID: "X"})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestClient_GracefulDegradation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "upstream clearinghouse down"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.NewNop())
	_, err := c.VerifyEligibilityWithGracefulDegradation(context.Background(), EligibilityRequest{MemberID: "X"})
	assert.ErrorIs(t, err, ErrServiceDegraded)
}
