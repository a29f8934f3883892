package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPostResolvesMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "key" || q.Get("type") != "post" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("url") != "https://www.instagram.com/p/abc/" {
			t.Errorf("url param = %q", q.Get("url"))
		}
		w.Write([]byte(`{"ok":true,"result":{"result":[
			{"is_video":true,"video_url":"https://cdn/v.mp4","caption":"clip"},
			{"is_video":false,"image_url":"https://cdn/i.jpg"}
		]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", 5*time.Second, srv.Client())
	items, err := c.Post(context.Background(), "https://www.instagram.com/p/abc/")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if !items[0].IsVideo || items[0].VideoURL != "https://cdn/v.mp4" || items[0].Caption != "clip" {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].IsVideo || items[1].ImageURL != "https://cdn/i.jpg" {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestPostNotFound(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not ok", `{"ok":false}`},
		{"empty result", `{"ok":true,"result":{"result":[]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "key", 5*time.Second, srv.Client())
			_, err := c.Post(context.Background(), "https://instagram.com/p/x/")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestPostServiceFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"garbage body", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := New(srv.URL, "key", 5*time.Second, srv.Client())
			_, err := c.Post(context.Background(), "https://instagram.com/p/x/")
			var serr *ServiceError
			if !errors.As(err, &serr) {
				t.Errorf("err = %v (%T), want *ServiceError", err, err)
			}
			if errors.Is(err, ErrNotFound) {
				t.Error("service failure reported as not found")
			}
		})
	}
}

func TestPostUnreachableResolver(t *testing.T) {
	c := New("http://127.0.0.1:1", "key", time.Second, &http.Client{})
	_, err := c.Post(context.Background(), "https://instagram.com/p/x/")
	var serr *ServiceError
	if !errors.As(err, &serr) {
		t.Errorf("err = %v (%T), want *ServiceError", err, err)
	}
}

func TestIsPostLink(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://www.instagram.com/p/Cxxxxxxxxxx/", true},
		{"http://instagram.com/reel/abc", true},
		{"  https://instagram.com/p/x/  ", true},
		{"instagram.com/p/x", false},
		{"check out instagram.com", false},
		{"https://example.com/p/x", false},
		{"hello", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsPostLink(tc.in); got != tc.want {
			t.Errorf("IsPostLink(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
