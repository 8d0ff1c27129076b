// Package csrf reads the anti-forgery token the backend keeps in a cookie.
package csrf

import (
	"net/http"
	"net/url"
)

const (
	DefaultCookie = "csrftoken"
	Header        = "X-CSRFToken"
)

// Provider reads the token for one backend from a cookie jar. The token may
// rotate, so Token must be called right before each mutating request.
type Provider struct {
	jar    http.CookieJar
	url    *url.URL
	cookie string
}

func New(jar http.CookieJar, backend *url.URL, cookie string) *Provider {
	if cookie == "" {
		cookie = DefaultCookie
	}
	return &Provider{jar: jar, url: backend, cookie: cookie}
}

// Token returns the percent-decoded token, or "" when no cookie is set.
func (p *Provider) Token() string {
	if p == nil || p.jar == nil {
		return ""
	}
	for _, c := range p.jar.Cookies(p.url) {
		if c.Name != p.cookie {
			continue
		}
		v, err := url.PathUnescape(c.Value)
		if err != nil {
			return c.Value
		}
		return v
	}
	return ""
}
