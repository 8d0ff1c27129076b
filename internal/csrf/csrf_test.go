package csrf

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Token(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, _ := url.Parse("https://twomove.example/")
	p := New(jar, u, "")

	assert.Empty(t, p.Token())

	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "abc%2Bdef"}})
	assert.Equal(t, "abc+def", p.Token())

	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "abc+def"}})
	assert.Equal(t, "abc+def", p.Token())

	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "rotated"}})
	assert.Equal(t, "rotated", p.Token())
}

func TestProvider_CustomCookieName(t *testing.T) {
	jar, _ := cookiejar.New(nil)
	u, _ := url.Parse("https://twomove.example/")
	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "a"}, {Name: "xsrf", Value: "b"}})

	assert.Equal(t, "b", New(jar, u, "xsrf").Token())
}

func TestProvider_NilIsEmpty(t *testing.T) {
	var p *Provider
	assert.Empty(t, p.Token())
}
