package browser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies-linkedin.json")
	data := `[
		{"name":"li_at","value":"abc","domain":".linkedin.com","path":"/","expires":1893456000,"httpOnly":true,"secure":true,"sameSite":"None"},
		{"name":"JSESSIONID","value":"\"ajax:123\"","domain":".www.linkedin.com","path":"","sameSite":"Lax"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "li_at", cookies[0].Name)
	assert.Equal(t, ".linkedin.com", *cookies[0].Domain)
	assert.Equal(t, 1893456000.0, *cookies[0].Expires)
	assert.True(t, *cookies[0].HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeNone, cookies[0].SameSite)

	assert.Equal(t, "/", *cookies[1].Path)
	assert.Nil(t, cookies[1].Expires)
	assert.Nil(t, cookies[1].Secure)
	assert.Equal(t, playwright.SameSiteAttributeLax, cookies[1].SameSite)
}

func TestLoadCookies_BadFile(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadCookies(path)
	assert.Error(t, err)
}

func TestRandomDuration(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := RandomDuration(time.Second, 3*time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
	assert.Equal(t, 2*time.Second, RandomDuration(2*time.Second, time.Second))
}
