package server

import (
	"context"
	"net/http"
	"time"

	"github.com/ChadIImus/Devoops/internal/logger"
	"github.com/ChadIImus/Devoops/internal/middleware"
	"github.com/ChadIImus/Devoops/internal/timeline"
)

type Server struct {
	svc *timeline.Service
}

var logg = logger.New()

// Run starts the HTTPS server with JWT-protected routes and graceful shutdown.
func Run(ctx context.Context, svc *timeline.Service, addr string) {
	s := &Server{svc: svc}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second, // prevent slowloris attacks
		WriteTimeout: 10 * time.Second,
	}

	// --- Start server in a goroutine ---
	go func() {
		logg.Info("server", "Starting HTTPS server on "+addr)
		// TLS: cert.pem and key.pem should be valid certificates in specified paths
		if err := srv.ListenAndServeTLS("/certs/cert.pem", "/certs/key.pem"); err != nil && err != http.ErrServerClosed {
			logg.Error("server", "Server stopped unexpectedly", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
	} else {
		logg.Info("server", "Server stopped gracefully")
	}
}

// routes builds the HTTP surface. Mutating endpoints require a bearer
// token; the user timeline only uses one to fill in the is-following flag.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /users", http.HandlerFunc(s.registerHandler))
	mux.Handle("GET /timeline/public", http.HandlerFunc(s.publicTimelineHandler))
	mux.Handle("GET /timeline", middleware.JWTAuth(http.HandlerFunc(s.personalTimelineHandler)))
	mux.Handle("GET /timeline/{username}", middleware.OptionalJWT(http.HandlerFunc(s.userTimelineHandler)))
	mux.Handle("POST /follow", middleware.JWTAuth(http.HandlerFunc(s.followHandler)))
	mux.Handle("POST /unfollow", middleware.JWTAuth(http.HandlerFunc(s.unfollowHandler)))
	mux.Handle("POST /posts", middleware.JWTAuth(http.HandlerFunc(s.createPostHandler)))
	mux.Handle("GET /latest", http.HandlerFunc(s.getLatestHandler))
	mux.Handle("POST /latest", http.HandlerFunc(s.recordLatestHandler))

	return mux
}
