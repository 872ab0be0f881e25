package db

import (
	"testing"

	"github.com/shopspring/decimal"

	"market-alert-service/internal/models"
)

func TestDecodeAlertJSON(t *testing.T) {
	a := models.Alert{AlertID: "a1"}
	conditions := []byte(`[{"field":"price","operator":"gte","value":"200"},{"field":"price","operator":"lte","value":210.5}]`)
	sub := []byte(`{"endpoint":"https://push.example/abc","keys":{"p256dh":"pk","auth":"ak"}}`)

	if err := decodeAlertJSON(&a, conditions, sub); err != nil {
		t.Fatalf("decodeAlertJSON: %v", err)
	}
	if len(a.Conditions) != 2 || !a.Conditions[1].Value.Equal(decimal.RequireFromString("210.5")) {
		t.Fatalf("conditions = %+v", a.Conditions)
	}
	if a.Subscription.Keys.Auth != "ak" || a.Subscription.Endpoint != "https://push.example/abc" {
		t.Fatalf("subscription = %+v", a.Subscription)
	}
}

func TestDecodeAlertJSONRejectsBadConditions(t *testing.T) {
	a := models.Alert{AlertID: "a1"}
	if err := decodeAlertJSON(&a, []byte(`{"field":"price"}`), nil); err == nil {
		t.Fatal("expected error for a non-array condition list")
	}
}

func TestToAlertKeepsMalformedRowsWithDecodeErr(t *testing.T) {
	rows := []alertRow{
		{
			alert:        models.Alert{AlertID: "a7", UserID: "u7", Enabled: true},
			mode:         "SELL",
			frequency:    "HOURLY_LEVEL",
			conditions:   []byte(`[{"field":"price","operator":"gte","value":"n/a"}]`),
			subscription: []byte(`{"endpoint":"https://push.example/bad"}`),
		},
		{
			alert:        models.Alert{AlertID: "a8", UserID: "u8", Enabled: true},
			mode:         "BUY",
			frequency:    "HOURLY_LEVEL",
			logical:      "OR",
			conditions:   []byte(`[{"field":"price","operator":"lte","value":"150"}]`),
			subscription: []byte(`{"endpoint":"https://push.example/good"}`),
		},
	}

	bad, good := rows[0].toAlert(), rows[1].toAlert()

	if bad.DecodeErr == nil || bad.AlertID != "a7" || bad.Mode != models.ModeSell || len(bad.Conditions) != 0 {
		t.Fatalf("bad row = %+v", bad)
	}
	if good.DecodeErr != nil {
		t.Fatalf("good row DecodeErr = %v", good.DecodeErr)
	}
	if good.LogicalOperator != models.OperatorOr || len(good.Conditions) != 1 || good.Subscription.Endpoint != "https://push.example/good" {
		t.Fatalf("good row = %+v", good)
	}
}
