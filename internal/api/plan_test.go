package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePlanRequiresOnboarding(t *testing.T) {
	env := setupTestEnv(t)
	token, _ := env.registerUser(t, "test@example.com")

	w := env.doRequest(t, "POST", "/api/v1/plans/generate", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "onboarding")
}

func TestGeneratePlanLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	token, userID := env.registerUser(t, "test@example.com")
	env.completeOnboarding(t, userID)

	// First call creates a plan.
	w := env.doRequest(t, "POST", "/api/v1/plans/generate", nil, token)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	plan, ok := body["plan"].(map[string]interface{})
	require.True(t, ok)
	firstPlanID := plan["id"]
	assert.NotEmpty(t, firstPlanID)
	assert.Equal(t, false, body["recomputed"])

	targets, ok := body["targets"].(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, targets["calorie_target"].(float64), 0.0)

	why, ok := body["why_it_works"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, why["calories"])

	// Second call sees the fresh plan and returns it unchanged.
	w = env.doRequest(t, "POST", "/api/v1/plans/generate", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, firstPlanID, body["plan"].(map[string]interface{})["id"])

	// Forcing replaces it and reports the previous targets.
	w = env.doRequest(t, "POST", "/api/v1/plans/generate", map[string]bool{
		"force_recompute": true,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	body = decodeBody(t, w)
	assert.NotEqual(t, firstPlanID, body["plan"].(map[string]interface{})["id"])
	assert.Equal(t, true, body["recomputed"])
	assert.NotNil(t, body["previous_targets"])
}

func TestGeneratePlanBlockedByUnacknowledgedMetrics(t *testing.T) {
	env := setupTestEnv(t)
	token, userID := env.registerUser(t, "test@example.com")
	env.completeOnboarding(t, userID)

	// Viewing today's metrics creates snapshot v1, unacknowledged.
	w := env.doRequest(t, "GET", "/api/v1/metrics/today", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	metrics := decodeBody(t, w)

	w = env.doRequest(t, "POST", "/api/v1/plans/generate", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "acknowledg")

	// Acknowledging clears the gate.
	w = env.doRequest(t, "POST", "/api/v1/metrics/acknowledge", map[string]interface{}{
		"version":             metrics["version"],
		"metrics_computed_at": metrics["computed_at"],
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doRequest(t, "POST", "/api/v1/plans/generate", nil, token)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGeneratePlanBadBody(t *testing.T) {
	env := setupTestEnv(t)
	token, userID := env.registerUser(t, "test@example.com")
	env.completeOnboarding(t, userID)

	w := env.doRequest(t, "POST", "/api/v1/plans/generate", map[string]string{
		"force_recompute": "yes please",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
