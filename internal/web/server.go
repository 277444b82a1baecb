package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/auth"
	"github.com/example/table-bot/internal/bot"
)

//go:embed templates/*.html static/*
var fs embed.FS

const maxBody = 64 << 10

// TurnHandler processes one activity. *bot.Bot implements it.
type TurnHandler interface {
	OnTurn(ctx context.Context, act bot.Activity) ([]bot.Reply, error)
}

// Resetter drops a conversation's stored state.
type Resetter interface {
	Delete(ctx context.Context, key string) error
}

type Server struct {
	Bot      TurnHandler
	Sessions *auth.Sessions
	Channel  auth.ChannelAuth
	State    Resetter
	Gatherer prometheus.Gatherer
	Log      *zap.Logger

	BotID   string
	BotName string

	locks convLocks
}

type tmplData struct {
	Title   string
	BotName string
}

type turnResponse struct {
	Activities []bot.Reply `json:"activities"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) Routes() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.BotID == "" {
		s.BotID = "tablebot"
	}
	if s.BotName == "" {
		s.BotName = "Fridai"
	}
	if s.Gatherer == nil {
		s.Gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	mux.Handle("/api/messages", s.Channel.Require(http.HandlerFunc(s.handleMessages)))

	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/chat/start", s.handleChatStart)
	mux.HandleFunc("/chat/reset", s.handleChatReset)
	mux.HandleFunc("/", s.handleHome)

	return mux
}

// handleMessages is the channel endpoint: one activity in, replies out.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var act bot.Activity
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&act); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid activity: " + err.Error()})
		return
	}
	if act.Conversation.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "conversation.id required"})
		return
	}
	s.turn(w, r, act)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, err := s.conversation(w, r); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/chat.html", tmplData{Title: s.BotName, BotName: s.BotName})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	text := strings.TrimSpace(body.Text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text required"})
		return
	}
	cid, err := s.conversation(w, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.turn(w, r, bot.Activity{
		Type:         bot.ActivityMessage,
		ID:           uuid.NewString(),
		Text:         text,
		From:         bot.ChannelAccount{ID: "webchat:" + cid},
		Recipient:    bot.ChannelAccount{ID: s.BotID, Name: s.BotName},
		Conversation: bot.ConversationAccount{ID: cid},
	})
}

func (s *Server) handleChatStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cid, err := s.conversation(w, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.turn(w, r, bot.Activity{
		Type:         bot.ActivityConversationUpdate,
		Recipient:    bot.ChannelAccount{ID: s.BotID, Name: s.BotName},
		Conversation: bot.ConversationAccount{ID: cid},
		MembersAdded: []bot.ChannelAccount{{ID: s.BotID, Name: s.BotName}},
	})
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if cid, ok := s.Sessions.ConversationID(r); ok && s.State != nil {
		unlock := s.locks.lock(cid)
		err := s.State.Delete(r.Context(), cid)
		unlock()
		if err != nil {
			s.Log.Error("reset conversation failed", zap.String("conversation_id", cid), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "reset failed"})
			return
		}
	}
	s.Sessions.Clear(w)
	writeJSON(w, http.StatusOK, turnResponse{Activities: []bot.Reply{}})
}

// conversation returns the web chat conversation id, starting a session on
// first visit.
func (s *Server) conversation(w http.ResponseWriter, r *http.Request) (string, error) {
	if cid, ok := s.Sessions.ConversationID(r); ok {
		return cid, nil
	}
	cid := uuid.NewString()
	if err := s.Sessions.Start(w, r, cid); err != nil {
		return "", err
	}
	return cid, nil
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request, act bot.Activity) {
	unlock := s.locks.lock(act.Conversation.ID)
	defer unlock()

	replies, err := s.Bot.OnTurn(r.Context(), act)
	if err != nil {
		s.Log.Error("turn failed",
			zap.String("conversation_id", act.Conversation.ID),
			zap.String("activity", act.Type),
			zap.Error(err),
		)
		status := http.StatusBadGateway
		if errors.Is(err, bot.ErrNoConversation) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: "turn failed"})
		return
	}
	if replies == nil {
		replies = []bot.Reply{}
	}
	writeJSON(w, http.StatusOK, turnResponse{Activities: replies})
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// convLocks serializes turns per conversation.
type convLocks struct {
	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func (c *convLocks) lock(key string) func() {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = map[string]*convLock{}
	}
	l, ok := c.locks[key]
	if !ok {
		l = &convLock{}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
