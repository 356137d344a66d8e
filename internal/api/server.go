// Package api is the thin HTTP boundary over the rag service: routing,
// session cookies, upload handling, and JSON envelopes. No document or
// retrieval logic lives here.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/config"
	"docchat/internal/rag"
	"docchat/internal/util"

	"github.com/google/uuid"
)

const sessionCookie = "docchat_session"

type Server struct {
	cfg config.Config
	svc *rag.Service
}

func NewServer(cfg config.Config, svc *rag.Service) *Server {
	return &Server{cfg: cfg, svc: svc}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/clear", s.handleClear)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	sid := s.sessionID(w, r)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	fh, ok := uploadedFile(r.MultipartForm.File)
	if !ok {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no file provided"))
		return
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("please select a valid PDF file"))
		return
	}

	if err := util.EnsureDir(s.cfg.UploadsRoot); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	filename := filepath.Base(fh.Filename)
	savedPath := util.SafeJoin(s.cfg.UploadsRoot, sid+"_"+filename)
	if err := saveUploadedFile(savedPath, fh); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	res, err := s.svc.IngestDocument(r.Context(), sid, filename, savedPath)
	if err != nil {
		log.Printf("upload failed session=%s file=%s err=%v", sid, filename, err)
		writeErr(w, statusFor(err), uploadErrMessage(err))
		return
	}

	log.Printf("file added session=%s file=%s chunks=%d index_size=%d", sid, filename, res.ChunkCount, res.IndexSize)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        res.Message,
		"uploaded_files": res.Filenames,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	sid := s.sessionID(w, r)

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	result, err := s.svc.Ask(r.Context(), sid, req.Question)
	if err != nil {
		log.Printf("ask failed session=%s question=%q err=%v", sid, util.Snippet(req.Question, 80), err)
		writeErr(w, statusFor(err), askErrMessage(err))
		return
	}

	log.Printf("answered session=%s question=%q suggestions=%d", sid, util.Snippet(req.Question, 80), len(result.Suggestions))
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":      result.Answer,
		"suggestions": result.Suggestions,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	sid := s.sessionID(w, r)
	s.svc.ClearSession(sid)
	log.Printf("session cleared session=%s", sid)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session cleared."})
}

// sessionID returns the caller's stable opaque identifier, issuing one
// on first contact.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func uploadedFile(files map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	if fhs := files["file"]; len(fhs) > 0 {
		return fhs[0], true
	}
	for _, fhs := range files {
		if len(fhs) > 0 {
			return fhs[0], true
		}
	}
	return nil, false
}

func saveUploadedFile(dst string, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rag.ErrUploadLimit),
		errors.Is(err, rag.ErrUnsupportedFormat),
		errors.Is(err, rag.ErrNoDocuments),
		errors.Is(err, rag.ErrEmptyQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func uploadErrMessage(err error) error {
	switch {
	case errors.Is(err, rag.ErrUploadLimit):
		return fmt.Errorf("you have already uploaded the maximum number of PDFs")
	case errors.Is(err, rag.ErrUnsupportedFormat):
		return fmt.Errorf("please select a valid PDF file")
	default:
		return fmt.Errorf("failed to process the PDF file")
	}
}

func askErrMessage(err error) error {
	switch {
	case errors.Is(err, rag.ErrNoDocuments):
		return fmt.Errorf("please upload a document first")
	case errors.Is(err, rag.ErrEmptyQuestion):
		return fmt.Errorf("no question provided")
	default:
		return fmt.Errorf("an error occurred while generating the answer")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"success": false, "error": err.Error()})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
