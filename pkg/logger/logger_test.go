package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestWriterEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("component", "risk"))

	l.Error("source failed",
		String("source", "deribit"),
		Duration("took_ms", 1500*time.Millisecond),
		Float64("delta", 0.25),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if got["level"] != "error" || got["message"] != "source failed" {
		t.Fatalf("unexpected envelope %v", got)
	}
	if got["component"] != "risk" || got["source"] != "deribit" {
		t.Fatalf("missing string fields %v", got)
	}
	if got["took_ms"] != float64(1500) || got["delta"] != 0.25 || got["error"] != "boom" {
		t.Fatalf("unexpected typed fields %v", got)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNilErrorIsOmitted(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(Error(nil), Bool("live", true))
	l.Info("ok", Error(nil), Strings("pairs", []string{"BTC/USD", "ETH/USD"}))

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := got["error"]; ok {
		t.Fatalf("nil error should not be written: %v", got)
	}
	if got["live"] != true || got["pairs"] != "BTC/USD, ETH/USD" {
		t.Fatalf("unexpected fields %v", got)
	}
}

func TestNopDiscards(t *testing.T) {
	Nop().Info("nothing", String("k", "v"))
}
