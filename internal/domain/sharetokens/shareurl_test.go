package sharetokens

import "testing"

func TestURLBuilder_ShareURL(t *testing.T) {
	b := NewURLBuilder("", "", "")

	tests := []struct {
		host string
		want string
	}{
		{host: "localhost:8080", want: "http://localhost:8080/pet/shared/abc"},
		{host: "localhost", want: "http://localhost/pet/shared/abc"},
		{host: "127.0.0.1:3000", want: "http://127.0.0.1:3000/pet/shared/abc"},
		{host: "api.staging.pethealthtracker.com", want: DefaultStagingBaseURL + "/pet/shared/abc"},
		{host: "api.pethealthtracker.com", want: DefaultProductionBaseURL + "/pet/shared/abc"},
		{host: "", want: DefaultProductionBaseURL + "/pet/shared/abc"},
	}

	for _, tt := range tests {
		if got := b.ShareURL(tt.host, "abc"); got != tt.want {
			t.Fatalf("ShareURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestNewURLBuilder_Overrides(t *testing.T) {
	b := NewURLBuilder("https://share.example.com/", "https://qa.example.com", "qa")

	if got := b.ShareURL("qa-api.example.com", "t"); got != "https://qa.example.com/pet/shared/t" {
		t.Fatalf("unexpected staging url: %s", got)
	}
	if got := b.ShareURL("api.example.com:443", "t"); got != "https://share.example.com/pet/shared/t" {
		t.Fatalf("unexpected production url: %s", got)
	}
}
