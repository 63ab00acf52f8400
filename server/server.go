// Package server exposes the paper assistant over HTTP: account signup
// and token issuance, paper upload and listing, and the three
// summarization/query operations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/types"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/auth"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/database"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/extract"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/llm"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/segmenter"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/store"
	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/pkg/summarizer"
)

const maxUploadBytes = 32 << 20

type Config struct {
	Addr string
}

type Server struct {
	config       Config
	db           *database.DB
	tokens       *auth.TokenManager
	docs         types.DocumentStore
	segmenter    segmenter.Segmenter
	orchestrator *summarizer.Orchestrator
}

func New(config Config, db *database.DB, tokens *auth.TokenManager,
	docs types.DocumentStore, seg segmenter.Segmenter,
	orchestrator *summarizer.Orchestrator) *Server {
	return &Server{
		config:       config,
		db:           db,
		tokens:       tokens,
		docs:         docs,
		segmenter:    seg,
		orchestrator: orchestrator,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("POST /upload-paper", s.withUser(s.handleUploadPaper))
	mux.HandleFunc("GET /list-papers", s.withUser(s.handleListPapers))
	mux.HandleFunc("GET /recommend-papers", s.withUser(s.handleRecommendPapers))
	mux.HandleFunc("POST /summarize-full", s.withUser(s.handleSummarizeFull))
	mux.HandleFunc("POST /summarize-query", s.withUser(s.handleSummarizeQuery))
	mux.HandleFunc("POST /global-query", s.withUser(s.handleGlobalQuery))
	mux.HandleFunc("GET /models", s.withUser(s.handleModels))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *Server) ListenAndServe() error {
	log.Printf("Starting paper assistant server on %s", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, s.Handler())
}

// ---- Auth ----

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	user := models.User{
		ID:           uuid.NewString()[:8],
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrUserExists) {
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User created successfully"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := s.db.UserByUsername(r.Context(), username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

type contextKey string

const userKey contextKey = "user"

// withUser authenticates the bearer token and loads the account record
// into the request context.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		username, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		user, err := s.db.UserByUsername(r.Context(), username)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func currentUser(r *http.Request) models.User {
	user, _ := r.Context().Value(userKey).(models.User)
	return user
}

// ---- Papers ----

func (s *Server) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	text, err := extract.FromFile(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to extract text: %v", err))
		return
	}

	paperID := uuid.NewString()[:8]
	chunks := s.segmenter.Segment(text)

	if _, err := s.docs.Build(r.Context(), paperID, chunks); err != nil {
		s.writeFailure(w, err)
		return
	}
	paper := models.Paper{ID: paperID, Title: header.Filename, UserID: user.ID}
	if err := s.db.CreatePaper(r.Context(), paper); err != nil {
		s.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  fmt.Sprintf("Paper '%s' uploaded successfully!", header.Filename),
		"paper_id": paperID,
	})
}

type paperEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func paperEntries(papers []models.Paper) []paperEntry {
	entries := make([]paperEntry, 0, len(papers))
	for _, p := range papers {
		entries = append(entries, paperEntry{ID: p.ID, Title: p.Title})
	}
	return entries
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	papers, err := s.db.PapersByUser(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"papers": paperEntries(papers)})
}

func (s *Server) handleRecommendPapers(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	papers, err := s.db.PapersByTitleKeyword(r.Context(), currentUser(r).ID, keyword)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recommended_papers": paperEntries(papers)})
}

// ---- Summarization & query ----

type summarizeRequest struct {
	PaperID string `json:"paper_id"`
	Model   string `json:"model"`
}

func (s *Server) handleSummarizeFull(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaperID == "" {
		writeError(w, http.StatusBadRequest, "paper_id is required")
		return
	}
	summary, err := s.orchestrator.SummarizeFull(r.Context(), req.PaperID, models.Model(req.Model))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"paper_id": req.PaperID,
		"summary":  summary,
		"model":    req.Model,
	})
}

type queryRequest struct {
	PaperID string `json:"paper_id"`
	Query   string `json:"query"`
	TopK    int    `json:"top_k"`
	Model   string `json:"model"`
}

func (s *Server) handleSummarizeQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaperID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "paper_id and query are required")
		return
	}
	answer, err := s.orchestrator.QueryPaper(r.Context(), req.PaperID, req.Query, req.TopK, models.Model(req.Model))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"query":  req.Query,
		"answer": answer,
		"model":  req.Model,
	})
}

type globalQueryRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	Model     string `json:"model"`
	UsePapers *bool  `json:"use_papers"`
}

func (s *Server) handleGlobalQuery(w http.ResponseWriter, r *http.Request) {
	var req globalQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	usePapers := req.UsePapers == nil || *req.UsePapers

	// The query is always scoped to the authenticated user's papers; the
	// all-papers deployment mode is only reachable through the core API.
	var paperIDs []string
	if usePapers {
		papers, err := s.db.PapersByUser(r.Context(), currentUser(r).ID)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		paperIDs = make([]string, 0, len(papers))
		for _, p := range papers {
			paperIDs = append(paperIDs, p.ID)
		}
	}

	answer, err := s.orchestrator.GlobalQuery(r.Context(), paperIDs, req.Query, req.TopK,
		models.Model(req.Model), usePapers)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":       req.Query,
		"answer":      answer,
		"model":       req.Model,
		"used_papers": usePapers,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"supported_models": models.SupportedModels(),
	})
}

// ---- Helpers ----

// writeFailure maps the core error taxonomy onto HTTP statuses.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidModel):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, llm.ErrTransient):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, llm.ErrPermanent):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
