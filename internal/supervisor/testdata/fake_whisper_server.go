package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

// Fake whisper-server for supervisor tests. Speaks just enough of the
// real server's surface: GET / answers anything, POST /inference takes
// the multipart form and echoes what it received. Behavior knobs come
// from FAKE_WHISPER_* environment variables so tests can provoke slow
// startups, crashes and stuck shutdowns.
func main() {
	var model string
	var host string
	var port string
	var threads int
	var language string
	var convert bool
	flag.StringVar(&model, "model", "", "model path")
	flag.StringVar(&host, "host", "127.0.0.1", "host")
	flag.StringVar(&port, "port", "0", "port")
	flag.IntVar(&threads, "threads", 0, "threads")
	flag.StringVar(&language, "language", "", "language")
	flag.BoolVar(&convert, "convert", false, "convert non-wav input")
	flag.Parse()

	if v := os.Getenv("FAKE_WHISPER_EXIT_CODE"); v != "" {
		code, _ := strconv.Atoi(v)
		fmt.Fprintln(os.Stderr, "whisper_init_from_file: failed to load model")
		os.Exit(code)
	}
	if v := os.Getenv("FAKE_WHISPER_STARTUP_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("bad FAKE_WHISPER_STARTUP_DELAY: %v", err)
		}
		time.Sleep(d)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("whisper.cpp server\n"))
	})
	mux.HandleFunc("/inference", func(w http.ResponseWriter, r *http.Request) {
		if v := os.Getenv("FAKE_WHISPER_SLEEP"); v != "" {
			d, _ := time.ParseDuration(v)
			time.Sleep(d)
		}
		if v := os.Getenv("FAKE_WHISPER_STATUS"); v != "" {
			code, _ := strconv.Atoi(v)
			w.WriteHeader(code)
			_, _ = w.Write([]byte("forced error"))
			return
		}
		if v := os.Getenv("FAKE_WHISPER_RESPONSE"); v != "" {
			_, _ = w.Write([]byte(v))
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		n, _ := io.Copy(io.Discard, file)
		_ = file.Close()
		resp := map[string]any{
			"text": fmt.Sprintf("ok bytes=%d type=%s prompt=%s",
				n, hdr.Header.Get("Content-Type"), r.FormValue("prompt")),
			"language": r.FormValue("language"),
			"segments": []map[string]any{
				{"text": "ok", "start": 0.0, "end": 1.5},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	addr := fmt.Sprintf("%s:%s", host, port)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	fmt.Fprintf(os.Stderr, "whisper server listening at http://%s\n", addr)

	if v := os.Getenv("FAKE_WHISPER_CRASH_AFTER"); v != "" {
		d, _ := time.ParseDuration(v)
		time.AfterFunc(d, func() {
			fmt.Fprintln(os.Stderr, "ggml_abort: unrecoverable compute error")
			os.Exit(7)
		})
	}
	// Blackout: stop answering for a while, then come back. Exercises
	// the degraded/recovered health transitions without exiting.
	if v := os.Getenv("FAKE_WHISPER_BLACKOUT_AFTER"); v != "" {
		after, _ := time.ParseDuration(v)
		during, _ := time.ParseDuration(os.Getenv("FAKE_WHISPER_BLACKOUT_FOR"))
		time.AfterFunc(after, func() {
			_ = srv.Close()
			time.Sleep(during)
			again := &http.Server{Addr: addr, Handler: mux}
			_ = again.ListenAndServe()
		})
	}
	if os.Getenv("FAKE_WHISPER_IGNORE_TERM") != "" {
		signal.Ignore(syscall.SIGTERM)
		select {}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
