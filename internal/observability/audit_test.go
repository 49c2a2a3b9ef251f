package observability

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildAuditEventIncludesRequiredFields(t *testing.T) {
	req := httptest.NewRequest("DELETE", "/products/7", nil)
	req.Header.Set("X-Request-Id", "req-test-1")
	req.RemoteAddr = "127.0.0.1:12345"

	ev := BuildAuditEvent(req, AuditInput{
		EventName:  "product.delete",
		TargetType: "product",
		TargetID:   "7",
		Action:     "delete",
		Outcome:    "success",
		Reason:     "product_deleted",
	})

	if ev.EventVersion != 1 {
		t.Fatalf("expected event version 1, got %d", ev.EventVersion)
	}
	if ev.ActorUserID != AnonymousActor {
		t.Fatalf("expected anonymous actor, got %q", ev.ActorUserID)
	}
	if ev.ActorIP != "127.0.0.1" {
		t.Fatalf("unexpected actor ip: %q", ev.ActorIP)
	}
	if ev.RequestID != "req-test-1" {
		t.Fatalf("unexpected request id: %s", ev.RequestID)
	}
	if _, err := time.Parse(time.RFC3339, ev.TS); err != nil {
		t.Fatalf("expected RFC3339 ts, got %q err=%v", ev.TS, err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestAuditEventValidateRejectsMissingEventName(t *testing.T) {
	ev := AuditEvent{
		EventVersion: 1,
		ActorUserID:  AnonymousActor,
		ActorIP:      "127.0.0.1",
		TargetType:   "product",
		TargetID:     "42",
		Action:       "create",
		Outcome:      "success",
		Reason:       "ok",
		RequestID:    "req-1",
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for missing event_name")
	}
}

func TestEmitAuditDoesNotPanicWithoutRequestID(t *testing.T) {
	req := httptest.NewRequest("POST", "/upload", nil)
	EmitAudit(req, AuditInput{EventName: "media.upload", TargetType: "media", TargetID: "produtos/x", Action: "upload", Outcome: "success", Reason: "uploaded"})
}
