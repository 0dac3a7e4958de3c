package server

import (
	"fmt"
	"log"
	"net/http"

	"helpme/internal/config"
	rtr "helpme/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func Routes(rt *rtr.Router) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Logger, // Log API Request Calls
		middleware.Recoverer,
	)

	router.Route("/", func(r chi.Router) {
		r.Mount("/", rtr.HealthRoutes())
	})

	router.Route("/v1", func(r chi.Router) {
		r.Mount("/users", rt.AuthRoutes())
		r.Mount("/courses", rt.CourseRoutes())
		r.Mount("/queues", rt.QueueRoutes())
		r.Mount("/questions", rt.QuestionRoutes())
	})

	return router
}

// New builds the HTTP server with CORS applied. The caller runs and shuts it down.
func New(rt *rtr.Router) *http.Server {
	if config.Config == nil {
		log.Panic("❌ Missing or invalid configuration!")
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   config.Config.AllowedOrigins,
		AllowedHeaders:   []string{"Cookie", "Content-Type"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PATCH"},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", config.Config.Port),
		Handler: c.Handler(Routes(rt)),
	}
	srv.RegisterOnShutdown(rt.CloseStreams)
	return srv
}
