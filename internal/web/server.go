package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/colmryan/memora/internal/domain"
	"github.com/colmryan/memora/internal/srs"
	"github.com/colmryan/memora/internal/store"
	"github.com/colmryan/memora/internal/sync"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db     *store.DB
	sched  *srs.Scheduler
	syncer *sync.Syncer
	model  srs.RetentionModel
	router *http.ServeMux
	now    func() time.Time
}

// NewServer creates and configures a new API server.
func NewServer(db *store.DB, sched *srs.Scheduler, syncer *sync.Syncer, model srs.RetentionModel) *Server {
	s := &Server{
		db:     db,
		sched:  sched,
		syncer: syncer,
		model:  model,
		router: http.NewServeMux(),
		now:    time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/due", s.handleGetDue())
	s.router.HandleFunc("/api/review/", s.handlePostReview())
	s.router.HandleFunc("/api/cards/", s.handleCard())
	s.router.HandleFunc("/api/topics", s.handleGetTopics())
	s.router.HandleFunc("/api/sync", s.handlePostSync())
	s.router.HandleFunc("/api/sources", s.handleSources())
	s.router.HandleFunc("/api/sources/", s.handleDeleteSource())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type dueCard struct {
	Hash  string `json:"hash"`
	Front string `json:"front"`
	Topic string `json:"topic,omitempty"`
}

// handleGetDue returns every card due for review, most overdue first.
func (s *Server) handleGetDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cards, err := s.db.DueCards(s.now())
		if err != nil {
			slog.Error("error getting due cards", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		due := make([]dueCard, 0, len(cards))
		for _, c := range cards {
			due = append(due, dueCard{Hash: c.Hash, Front: c.Front, Topic: c.Topic})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count": len(due),
			"cards": due,
		})
	}
}

// Rating is a pointer so a missing field is distinguishable from a
// legitimate Blackout (0) rating.
type reviewRequest struct {
	Rating *srs.Rating `json:"rating"`
}

type reviewResponse struct {
	Hash  string        `json:"hash"`
	State srs.CardState `json:"state"`
}

// handlePostReview applies one review to a card: schedule, persist,
// append to the review log.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		hash := strings.TrimPrefix(r.URL.Path, "/api/review/")

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Rating == nil {
			writeError(w, http.StatusBadRequest, "rating is required")
			return
		}

		card, err := s.db.FindCardByHash(hash)
		if err != nil {
			slog.Error("error finding card", "hash", hash, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if card == nil {
			writeError(w, http.StatusNotFound, "unknown card")
			return
		}

		now := s.now()
		newState, err := s.sched.Review(card.State, *req.Rating, now)
		if err != nil {
			switch {
			case errors.Is(err, srs.ErrInvalidRating):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, srs.ErrInvalidState):
				// Stored state is corrupt; surface it rather than guess.
				slog.Error("stored card state is invalid", "hash", hash, "error", err)
				writeError(w, http.StatusInternalServerError, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		if err := s.db.UpdateCardState(hash, newState); err != nil {
			slog.Error("error updating card state", "hash", hash, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if err := s.db.AppendReview(domain.ReviewEvent{
			CardHash:   hash,
			Rating:     *req.Rating,
			OccurredAt: now,
		}); err != nil {
			// The schedule update already landed; log and carry on.
			slog.Warn("failed to append review log", "hash", hash, "error", err)
		}

		writeJSON(w, http.StatusOK, reviewResponse{Hash: hash, State: newState})
	}
}

type cardResponse struct {
	Hash    string        `json:"hash"`
	Front   string        `json:"front"`
	Back    string        `json:"back"`
	Context string        `json:"context,omitempty"`
	Topic   string        `json:"topic,omitempty"`
	State   srs.CardState `json:"state"`
	Mastery float64       `json:"mastery"`
}

// handleCard serves GET /api/cards/{hash} and
// GET /api/cards/{hash}/retention.
func (s *Server) handleCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/cards/")
		hash, sub, _ := strings.Cut(rest, "/")

		card, err := s.db.FindCardByHash(hash)
		if err != nil {
			slog.Error("error finding card", "hash", hash, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if card == nil {
			writeError(w, http.StatusNotFound, "unknown card")
			return
		}

		switch sub {
		case "":
			writeJSON(w, http.StatusOK, cardResponse{
				Hash:    card.Hash,
				Front:   card.Front,
				Back:    card.Back,
				Context: card.Context,
				Topic:   card.Topic,
				State:   card.State,
				Mastery: card.State.Mastery(),
			})
		case "retention":
			model := s.model
			if name := r.URL.Query().Get("model"); name != "" {
				m, err := srs.ParseRetentionModel(name)
				if err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				model = m
			}
			snap, err := srs.EstimateRetention(card.State, s.now(), model)
			if err != nil {
				slog.Error("error estimating retention", "hash", hash, "error", err)
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, snap)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	}
}

type topicMastery struct {
	Topic     string  `json:"topic"`
	CardCount int     `json:"card_count"`
	Mastery   float64 `json:"mastery"`
}

// handleGetTopics reports per-topic mastery for dashboards.
func (s *Server) handleGetTopics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		topics, err := s.db.Topics()
		if err != nil {
			slog.Error("error getting topics", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		result := make([]topicMastery, 0, len(topics))
		for _, topic := range topics {
			cards, err := s.db.CardsByTopic(topic)
			if err != nil {
				slog.Error("error getting topic cards", "topic", topic, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			states := make([]srs.CardState, 0, len(cards))
			for _, c := range cards {
				states = append(states, c.State)
			}
			result = append(result, topicMastery{
				Topic:     topic,
				CardCount: len(cards),
				Mastery:   srs.TopicMastery(states),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"topics": result})
	}
}

// handlePostSync runs source reconciliation in the foreground.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := s.syncer.Run(); err != nil {
			slog.Error("sync failed", "error", err)
			writeError(w, http.StatusInternalServerError, "sync failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type sourceResponse struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

// handleSources handles GET (list) and POST (add) on /api/sources.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listSources(w)
		case http.MethodPost:
			s.addSource(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) listSources(w http.ResponseWriter) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("error getting sources", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		resp := sourceResponse{ID: src.ID, Path: src.Path, Type: src.Type}
		if src.LastScanned.Valid {
			t := src.LastScanned.Time
			resp.LastScanned = &t
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) addSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	sourceType := "local"
	if sync.IsGitPath(req.Path) {
		sourceType = "git"
	}

	id, err := s.db.InsertSource(req.Path, sourceType)
	if err != nil {
		slog.Error("error inserting source", "path", req.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add source")
		return
	}
	writeJSON(w, http.StatusCreated, sourceResponse{ID: id, Path: req.Path, Type: sourceType})
}

// handleDeleteSource removes a source and all of its cards.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		idStr := strings.TrimPrefix(r.URL.Path, "/api/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid source ID")
			return
		}
		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("error deleting source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete source")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
