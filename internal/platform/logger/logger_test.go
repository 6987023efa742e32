package logger

import "testing"

func TestSanitizeKVsRedactsCredentialKeys(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"user_id", "u-1",
		"jwt_secret_key", "hunter2",
		"Authorization", "Bearer abc",
		"api_key", "k",
	})
	if len(out) != 8 {
		t.Fatalf("length: got=%d", len(out))
	}
	if out[1] != "u-1" {
		t.Fatalf("plain value must pass through: %v", out[1])
	}
	for _, idx := range []int{3, 5, 7} {
		if out[idx] != "[REDACTED]" {
			t.Fatalf("value at %d not redacted: %v", idx, out[idx])
		}
	}
}

func TestSanitizeKVsKeepsDanglingValue(t *testing.T) {
	out := sanitizeKVs([]interface{}{"only"})
	if len(out) != 1 || out[0] != "only" {
		t.Fatalf("dangling element: got=%v", out)
	}
}

func TestNewBuildsBothModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "test"} {
		log, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		if log.SugaredLogger == nil {
			t.Fatalf("New(%q): nil sugared logger", mode)
		}
	}
}
