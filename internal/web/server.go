// Package web serves the local assignment validator UI: browse the day
// assignments, fix misdated media, and watch render progress live.
package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/On-Jun9/YearReel/internal/config"
)

type Server struct {
	router  *mux.Router
	hub     *Hub
	cfg     *config.Config
	version string
}

func NewServer(cfg *config.Config) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		hub:     NewHub(),
		cfg:     cfg,
		version: "unknown",
	}

	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) SetVersion(v string) {
	s.version = v
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods("GET")
	api.HandleFunc("/assignments", s.handleGetAssignments).Methods("GET")
	api.HandleFunc("/assignments", s.handleSaveAssignments).Methods("POST")
	api.HandleFunc("/report", s.handleReport).Methods("GET")
	api.HandleFunc("/render", s.handleRender).Methods("POST")
	api.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/media", s.handleMedia).Methods("GET")
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("web/static")))
}

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting YearReel validator at http://%s\n", addr)
	return http.ListenAndServe(addr, s.router)
}
