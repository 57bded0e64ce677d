package api

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

// bearerTransport attaches the current session token, if any. A request
// made without a session is sent as is; the backend decides whether that is
// allowed.
type bearerTransport struct {
	base     http.RoundTripper
	sessions domain.SessionSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var sess *domain.Session
	if t.sessions != nil {
		sess = t.sessions.Current()
	}
	if sess == nil || sess.Token == "" {
		return t.base.RoundTrip(req)
	}
	tr := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}),
		Base:   t.base,
	}
	return tr.RoundTrip(req)
}
