package logx

import "testing"

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.57:51234", "203.0.113.0"},
		{"198.51.100.7", "198.51.100.0"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"[2001:db8:abcd:12:1:2:3:4]:443", "2001:db8:abcd:12::"},
		{"not-an-ip", "unknown_ip"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := AnonymizeIP(tt.in); got != tt.want {
				t.Errorf("AnonymizeIP(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
