package youtrack

import "testing"

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"myinstance.example.com", "https://myinstance.example.com/api"},
		{"myinstance.example.com/", "https://myinstance.example.com/api"},
		{"https://myinstance.example.com", "https://myinstance.example.com/api"},
		{"https://myinstance.example.com/", "https://myinstance.example.com/api"},
		{"http://internal.local", "http://internal.local/api"},
		{"  spaced.example.com  ", "https://spaced.example.com/api"},
	}

	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeBaseURL_Idempotent(t *testing.T) {
	inputs := []string{
		"myinstance.example.com",
		"https://myinstance.example.com/",
		"http://internal.local",
	}

	for _, in := range inputs {
		once := NormalizeBaseURL(in)
		if twice := NormalizeBaseURL(once); twice != once {
			t.Errorf("NormalizeBaseURL not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
