package timestamp

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUnmarshalJSON(t *testing.T) {
	want := time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2025-03-04T10:20:30Z"`, want},
		{"offset", `"2025-03-04T12:20:30+02:00"`, want},
		{"naive", `"2025-03-04T10:20:30"`, want},
		{"naive micros", `"2025-03-04T10:20:30.000000"`, want},
		{"null", `null`, time.Time{}},
		{"empty", `""`, time.Time{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got Time
			if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got.Time, tc.want)
			}
		})
	}
}

func TestUnmarshalJSON_Invalid(t *testing.T) {
	var got Time
	if err := json.Unmarshal([]byte(`"yesterday"`), &got); err == nil {
		t.Fatal("expected error for unparsable timestamp")
	}
	if err := json.Unmarshal([]byte(`42`), &got); err == nil {
		t.Fatal("expected error for non-string timestamp")
	}
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Time{time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"2025-03-04T10:20:30Z"` {
		t.Errorf("Marshal = %s", b)
	}
	b, _ = json.Marshal(Time{})
	if string(b) != "null" {
		t.Errorf("Marshal(zero) = %s, want null", b)
	}
}
