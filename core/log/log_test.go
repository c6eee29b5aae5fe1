package log

import (
	"testing"
	"time"
)

func TestPairs(t *testing.T) {
	tests := []struct {
		name  string
		pair  any
		key   string
		value any
	}{
		{name: "Str", pair: Str("key", "server.port"), key: "key", value: "server.port"},
		{name: "Int", pair: Int("keys", 12), key: "keys", value: 12},
		{name: "Dur", pair: Dur("took", 3*time.Millisecond), key: "took", value: 3 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, ok := tt.pair.([]any)
			if !ok || len(kv) != 2 {
				t.Fatalf("%s() = %#v, want a two-element []any", tt.name, tt.pair)
			}
			if kv[0] != tt.key || kv[1] != tt.value {
				t.Errorf("%s() = %v, want [%s %v]", tt.name, kv, tt.key, tt.value)
			}
		})
	}
}

func TestNop(t *testing.T) {
	var logger Logger = Nop()
	child := logger.With("stage", "scalar")
	if child == nil {
		t.Fatal("Nop().With() returned nil")
	}

	child.Debug("field bound", Str("field", "Port"))
	child.Info("info")
	child.Warn("warn")
	child.Error(nil, "error")
}
