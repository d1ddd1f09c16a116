package sharetokens

import (
	"net"
	"strings"
)

const (
	SharePathPrefix = "/pet/shared/"

	DefaultProductionBaseURL = "https://app.pethealthtracker.com"
	DefaultStagingBaseURL    = "https://staging.pethealthtracker.com"
	DefaultStagingMarker     = "staging"
)

// URLBuilder arma el link público de un token según el host del request.
type URLBuilder struct {
	ProductionBaseURL string
	StagingBaseURL    string
	StagingMarker     string
}

func NewURLBuilder(production, staging, marker string) URLBuilder {
	b := URLBuilder{
		ProductionBaseURL: strings.TrimRight(strings.TrimSpace(production), "/"),
		StagingBaseURL:    strings.TrimRight(strings.TrimSpace(staging), "/"),
		StagingMarker:     strings.ToLower(strings.TrimSpace(marker)),
	}
	if b.ProductionBaseURL == "" {
		b.ProductionBaseURL = DefaultProductionBaseURL
	}
	if b.StagingBaseURL == "" {
		b.StagingBaseURL = DefaultStagingBaseURL
	}
	if b.StagingMarker == "" {
		b.StagingMarker = DefaultStagingMarker
	}
	return b
}

// ShareURL es puro: localhost usa http con el puerto del host,
// un host con el marcador de staging usa la base de staging y el resto producción.
func (b URLBuilder) ShareURL(host, token string) string {
	return b.BaseURL(host) + SharePathPrefix + token
}

func (b URLBuilder) BaseURL(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	switch {
	case hostname == "localhost" || hostname == "127.0.0.1":
		return "http://" + host
	case b.StagingMarker != "" && strings.Contains(hostname, b.StagingMarker):
		return b.StagingBaseURL
	default:
		return b.ProductionBaseURL
	}
}
