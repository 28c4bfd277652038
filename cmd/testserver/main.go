// Command testserver is a mock target for trying barrage locally. It serves
// any path with configurable latency and an injected error rate, and rejects
// unauthenticated requests under /api/orders so auth-requiring catalog
// entries can be exercised.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	latency := flag.Duration("latency", 10*time.Millisecond, "base response latency")
	jitter := flag.Duration("jitter", 10*time.Millisecond, "random extra latency, uniform in [0, jitter)")
	errorRate := flag.Float64("error-rate", 0.0, "fraction of requests answered with HTTP 500")
	token := flag.String("token", "", "bearer token required under /api/orders (empty disables the check)")
	flag.Parse()

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "healthy")
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		delay := *latency
		if *jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(*jitter)))
		}
		time.Sleep(delay)

		w.Header().Set("Content-Type", "application/json")

		if *token != "" && strings.HasPrefix(r.URL.Path, "/api/orders") {
			if r.Header.Get("Authorization") != "Bearer "+*token {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"missing or invalid token"}`)
				return
			}
		}

		if *errorRate > 0 && rand.Float64() < *errorRate {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"injected failure"}`)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","method":%q,"path":%q}`, r.Method, r.URL.Path)
	})

	server := &http.Server{
		Addr:              *addr,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	log.Printf("test server listening on %s (latency %v±%v, error rate %.0f%%)",
		*addr, *latency, *jitter, *errorRate*100)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
