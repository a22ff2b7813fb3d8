package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockSite is a login-protected booking site. The booking page redirects to
// the services list until openAt, then serves the booking form.
type mockSite struct {
	mu     sync.Mutex
	openAt time.Time
}

// StartMockBookingSite runs a mock booking site whose booking page opens
// 20-60 seconds after start. Call this in a goroutine before running the
// watcher.
func StartMockBookingSite(addr string) {
	site := &mockSite{
		openAt: time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second),
	}
	slog.Info("mock site scheduled", "opens_at", site.openAt.Format(time.TimeOnly))

	if err := http.ListenAndServe(addr, site.handler()); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func (s *mockSite) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().After(s.openAt)
}

func (s *mockSite) handler() http.Handler {
	authed := func(r *http.Request) bool {
		c, err := r.Cookie("session")
		return err == nil && c.Value == "demo"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/Home", func(w http.ResponseWriter, r *http.Request) {
		if authed(r) {
			http.Redirect(w, r, "/UserArea", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte(`<form method="post" action="/Home/Login">login</form>`))
	})
	mux.HandleFunc("/Home/Login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("Email") == "" || r.FormValue("Password") == "" {
			http.Redirect(w, r, "/Home", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "demo", Path: "/"})
		http.Redirect(w, r, "/UserArea", http.StatusFound)
	})
	mux.HandleFunc("/UserArea", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("welcome back"))
	})
	mux.HandleFunc("/Services", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("no appointments available"))
	})
	mux.HandleFunc("/Services/Booking/489", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		if !authed(r) {
			http.Redirect(w, r, "/Home", http.StatusFound)
			return
		}
		if !s.open() {
			http.Redirect(w, r, "/Services", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("choose a slot"))
	})
	return mux
}
