package presence

import (
	"encoding/json"
	"testing"
)

func TestLooseID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"string", `"42"`, "42"},
		{"padded string", `"  42 "`, "42"},
		{"integer", `42`, "42"},
		{"integral float", `42.0`, "42"},
		{"exponent", `4.2e1`, "42"},
		{"fraction", `4.5`, "4.5"},
		{"null", `null`, ""},
		{"slug", `"speedrun-night"`, "speedrun-night"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id LooseID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if got := id.String(); got != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLooseID_RejectsObjects(t *testing.T) {
	var id LooseID
	if err := json.Unmarshal([]byte(`{"id":1}`), &id); err == nil {
		t.Error("expected an error for an object id")
	}
}

func TestLooseID_StringAndNumberNameSameRoom(t *testing.T) {
	var payload struct {
		A LooseID `json:"a"`
		B LooseID `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"42","b":42}`), &payload); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	r.Join(payload.A.String(), "s1")
	if got := r.Join(payload.B.String(), "s2"); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}
