package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bingospaces/gatekeeper/internal/gatekeeper"
	"github.com/gofiber/fiber/v2"
)

type fakeEvaluator struct {
	result   gatekeeper.Result
	lastRule gatekeeper.Rule
	lastUser string
	calls    int
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, rule gatekeeper.Rule, userID string, email string) gatekeeper.Result {
	e.calls++
	e.lastRule = rule
	e.lastUser = userID
	return e.result
}

func newGateTestApp(evaluator *fakeEvaluator) *fiber.App {
	app := fiber.New()
	app.Post("/api/gate/evaluate", NewGateHandler(evaluator).PostEvaluate)
	return app
}

func gateRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/gate/evaluate", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPostEvaluateAllowed(t *testing.T) {
	evaluator := &fakeEvaluator{result: gatekeeper.Result{Allowed: true, ReasonCode: gatekeeper.ReasonOK}}
	app := newGateTestApp(evaluator)

	resp, err := app.Test(gateRequest(`{
		"userId": "user-1",
		"email": "alice@example.com",
		"spaceId": "space-9",
		"rule": {"ownerId": "owner-1", "youtube": {"channelId": "UC-x", "requirement": "subscriber"}}
	}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var apiResp struct {
		Data gatekeeper.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !apiResp.Data.Allowed || apiResp.Data.ReasonCode != gatekeeper.ReasonOK {
		t.Fatalf("unexpected result %+v", apiResp.Data)
	}
	if evaluator.lastUser != "user-1" {
		t.Fatalf("evaluator saw user %q", evaluator.lastUser)
	}
	if evaluator.lastRule.YouTube == nil || evaluator.lastRule.YouTube.ChannelID != "UC-x" {
		t.Fatalf("rule not passed through: %+v", evaluator.lastRule)
	}
}

// Denials are still HTTP 200; the decision lives in the body.
func TestPostEvaluateDenied(t *testing.T) {
	evaluator := &fakeEvaluator{result: gatekeeper.Result{
		Allowed:    false,
		ReasonCode: gatekeeper.ReasonYouTubeNotSubscribed,
	}}
	app := newGateTestApp(evaluator)

	resp, err := app.Test(gateRequest(`{"userId": "user-1", "rule": {}}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for a denial, got %d", resp.StatusCode)
	}
	var apiResp struct {
		Data gatekeeper.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if apiResp.Data.Allowed || apiResp.Data.ReasonCode != gatekeeper.ReasonYouTubeNotSubscribed {
		t.Fatalf("unexpected result %+v", apiResp.Data)
	}
}

func TestPostEvaluateMissingUserID(t *testing.T) {
	evaluator := &fakeEvaluator{}
	app := newGateTestApp(evaluator)

	resp, err := app.Test(gateRequest(`{"email": "alice@example.com", "rule": {}}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if evaluator.calls != 0 {
		t.Fatal("evaluator must not run without a user id")
	}
}

func TestPostEvaluateMalformedBody(t *testing.T) {
	app := newGateTestApp(&fakeEvaluator{})

	resp, err := app.Test(gateRequest(`{not json`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
