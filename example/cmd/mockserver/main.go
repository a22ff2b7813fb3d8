// Standalone mock booking site for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/slotwatch run -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

func main() {
	openAfter := flag.Int("open-after", 20+rand.Intn(41), "booking page opens after this many probes")
	flag.Parse()

	fmt.Println("Mock booking site starting on :9999")
	fmt.Printf("Booking page opens after %d probes\n", *openAfter)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var probes atomic.Int64
	authed := func(r *http.Request) bool {
		c, err := r.Cookie("session")
		return err == nil && c.Value == "demo"
	}

	http.HandleFunc("/Home", func(w http.ResponseWriter, r *http.Request) {
		if authed(r) {
			http.Redirect(w, r, "/UserArea", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("login"))
	})
	http.HandleFunc("/Home/Login", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("login", "user", r.FormValue("Email"))
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "demo", Path: "/"})
		http.Redirect(w, r, "/UserArea", http.StatusFound)
	})
	http.HandleFunc("/UserArea", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("welcome back"))
	})
	http.HandleFunc("/Services", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("no appointments available"))
	})
	http.HandleFunc("/Services/Booking/489", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		n := probes.Add(1)
		if !authed(r) || n < int64(*openAfter) {
			http.Redirect(w, r, "/Services", http.StatusFound)
			return
		}
		slog.Info("booking page served", "probe", n)
		_, _ = w.Write([]byte("choose a slot"))
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
