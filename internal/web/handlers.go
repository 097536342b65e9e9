package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/On-Jun9/YearReel/internal/assign"
	"github.com/On-Jun9/YearReel/internal/pipeline"
	"github.com/On-Jun9/YearReel/pkg/types"
)

type APIErrorResponse struct {
	Message string `json:"message"`
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIErrorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": s.version})
}

// handleGetAssignments returns the persisted day assignment artifact. JSON
// object keys come out date-sorted, which is what the calendar UI expects.
func (s *Server) handleGetAssignments(w http.ResponseWriter, r *http.Request) {
	assignment, err := assign.Load(s.cfg.AssignmentFile())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, types.Assignment{})
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, assignment)
}

// handleSaveAssignments replaces the artifact with the edited mapping. The
// previous version is kept as a .bak file in case an edit goes wrong.
func (s *Server) handleSaveAssignments(w http.ResponseWriter, r *http.Request) {
	var assignment types.Assignment
	if err := json.NewDecoder(r.Body).Decode(&assignment); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid assignment payload: "+err.Error())
		return
	}

	path := s.cfg.AssignmentFile()
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			writeAPIError(w, http.StatusInternalServerError, "backup failed: "+err.Error())
			return
		}
	}

	if err := assign.Save(assignment, path); err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.cfg.VisualReportFile())
	if err != nil {
		writeAPIError(w, http.StatusNotFound, "no report yet; run the assign phase first")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

// handleMedia serves a source media file by absolute path. The assignment
// artifact stores absolute paths and this is a local single-user tool, so it
// only rejects paths outside the configured source tree.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeAPIError(w, http.StatusBadRequest, "path query parameter required")
		return
	}

	path = filepath.Clean(path)
	rel, err := filepath.Rel(filepath.Clean(s.cfg.Source), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		writeAPIError(w, http.StatusForbidden, "path outside source directory")
		return
	}

	http.ServeFile(w, r, path)
}

var renderMu sync.Mutex

// handleRender kicks off a render pass in the background, broadcasting
// progress over the websocket hub. Only one run at a time; cache and
// checkpoint files are not safe under concurrent writers.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if !renderMu.TryLock() {
		writeAPIError(w, http.StatusConflict, "a run is already in progress")
		return
	}

	p, err := pipeline.New(s.cfg)
	if err != nil {
		renderMu.Unlock()
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p.SetProgressCallback(func(update pipeline.ProgressUpdate) {
		s.broadcastJSON(update)
	})

	go func() {
		defer renderMu.Unlock()
		defer p.Close()

		if _, err := p.RenderOnly(context.Background()); err != nil {
			s.broadcastJSON(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "started"})
}

func (s *Server) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.hub.broadcast <- data
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
