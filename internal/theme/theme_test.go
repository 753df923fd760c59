package theme

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInit(t *testing.T) {
	cases := []struct {
		name   string
		stored string
		osDark bool
		want   Theme
	}{
		{"no storage, light os", "", false, Light},
		{"no storage, dark os", "", true, Dark},
		{"stored wins over os", "light", true, Light},
		{"stored dark", "dark", false, Dark},
		{"invalid stored value ignored", "purple", true, Dark},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := NewMemoryStorage()
			if tc.stored != "" {
				st.Set(StorageKey, tc.stored)
			}
			s := NewState(st, nil)
			if got := s.Init(tc.osDark); got != tc.want || s.Theme() != tc.want {
				t.Fatalf("Init = %s, Theme = %s, want %s", got, s.Theme(), tc.want)
			}
		})
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	st := NewMemoryStorage()
	s := NewState(st, nil)
	s.Init(true)

	if got := s.Toggle(); got != Light {
		t.Fatalf("Toggle = %s, want light", got)
	}
	if v, _ := st.Get(StorageKey); v != "light" {
		t.Fatalf("stored %q, want light", v)
	}
	if got := s.Toggle(); got != Dark {
		t.Fatalf("second Toggle = %s, want dark", got)
	}
	if v, _ := st.Get(StorageKey); v != "dark" {
		t.Fatalf("stored %q, want dark", v)
	}
}

func TestSet(t *testing.T) {
	st := NewMemoryStorage()
	s := NewState(st, nil)
	if err := s.Set(Dark); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Theme() != Dark {
		t.Fatalf("Theme = %s", s.Theme())
	}
	if err := s.Set("sepia"); !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
	if v, _ := st.Get(StorageKey); v != "dark" {
		t.Fatalf("invalid Set touched storage: %q", v)
	}
}

func TestCookieStorage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: StorageKey, Value: "dark"})
	r.Header.Set("Sec-CH-Prefers-Color-Scheme", `"light"`)
	w := httptest.NewRecorder()

	s := NewState(NewCookieStorage(w, r), nil)
	if got := s.Init(PrefersDark(r)); got != Dark {
		t.Fatalf("Init = %s, want dark from cookie", got)
	}
	s.Toggle()

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != StorageKey || cookies[0].Value != "light" {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
}

func TestPrefersDark(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if PrefersDark(r) {
		t.Fatal("no hint should mean light")
	}
	r.Header.Set("Sec-CH-Prefers-Color-Scheme", `"dark"`)
	if !PrefersDark(r) {
		t.Fatal("expected dark hint")
	}
}
