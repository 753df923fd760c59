package theme

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// MemoryStorage is a Storage backed by a map.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
}

// cookieMaxAge keeps the preference for a year.
const cookieMaxAge = 365 * 24 * time.Hour

// CookieStorage treats request cookies as device storage. Writes are sent
// back as Set-Cookie headers and are visible to later Gets on the same
// value.
type CookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	written map[string]string
}

func NewCookieStorage(w http.ResponseWriter, r *http.Request) *CookieStorage {
	return &CookieStorage{w: w, r: r, written: make(map[string]string)}
}

func (c *CookieStorage) Get(key string) (string, bool) {
	if v, ok := c.written[key]; ok {
		return v, true
	}
	ck, err := c.r.Cookie(key)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

func (c *CookieStorage) Set(key, value string) {
	c.written[key] = value
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// PrefersDark reads the Sec-CH-Prefers-Color-Scheme client hint.
func PrefersDark(r *http.Request) bool {
	v := strings.Trim(r.Header.Get("Sec-CH-Prefers-Color-Scheme"), `" `)
	return strings.EqualFold(v, "dark")
}
