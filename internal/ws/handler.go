// Package ws exposes the game over HTTP and websockets: room creation
// and seat tokens over plain JSON endpoints, live play over a socket that
// streams redacted snapshots and accepts intents.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/b6428259/spotup-games/engine"
	"github.com/b6428259/spotup-games/internal/auth"
	"github.com/b6428259/spotup-games/internal/room"
)

const writeTimeout = 10 * time.Second

// RoomRecorder persists room records outside the game process. Optional.
type RoomRecorder interface {
	CreateRoom(ctx context.Context, roomID uuid.UUID, players []string, passcodeHash []byte) error
}

// Server wires the room manager and token issuer into HTTP handlers.
type Server struct {
	manager  *room.Manager
	tokens   *auth.TokenIssuer
	recorder RoomRecorder
	log      *logrus.Entry

	passcodes passcodeStore
}

// NewServer creates the HTTP-facing server. recorder may be nil.
func NewServer(manager *room.Manager, tokens *auth.TokenIssuer, recorder RoomRecorder, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		manager:   manager,
		tokens:    tokens,
		recorder:  recorder,
		log:       log,
		passcodes: newPasscodeStore(),
	}
}

// Routes builds the HTTP mux, CORS-wrapped.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("POST /rooms/{id}/token", s.handleToken)
	mux.HandleFunc("POST /rooms/{id}/start", s.handleStart)
	mux.HandleFunc("GET /rooms/{id}/ws", s.handleSocket)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createRoomRequest struct {
	Players  []string `json:"players"`
	Passcode string   `json:"passcode,omitempty"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "malformed JSON body")
		return
	}
	hash, err := auth.HashPasscode(req.Passcode)
	if err != nil {
		s.log.WithError(err).Error("failed hashing passcode")
		writeError(w, http.StatusInternalServerError, "Internal", "could not create room")
		return
	}

	rm, err := s.manager.Create(req.Players)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	s.passcodes.set(rm.ID, hash)
	rm.OnClose(func(closed *room.Room) { s.passcodes.forget(closed.ID) })

	if s.recorder != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.recorder.CreateRoom(ctx, rm.ID, req.Players, hash); err != nil {
				s.log.WithError(err).WithField("room", rm.ID.String()).Error("failed recording room")
			}
		}()
	}

	writeJSON(w, http.StatusCreated, createRoomResponse{RoomID: rm.ID.String()})
}

type tokenRequest struct {
	Player   string `json:"player"`
	Passcode string `json:"passcode,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "malformed JSON body")
		return
	}
	seated := false
	for _, name := range rm.Players {
		if name == req.Player {
			seated = true
			break
		}
	}
	if !seated {
		writeError(w, http.StatusForbidden, "InvalidTarget", "no such seat in this room")
		return
	}
	if err := auth.VerifyPasscode(s.passcodes.get(rm.ID), req.Passcode); err != nil {
		writeError(w, http.StatusForbidden, "Forbidden", "wrong passcode")
		return
	}
	token, err := s.tokens.Issue(rm.ID, req.Player)
	if err != nil {
		s.log.WithError(err).Error("failed issuing token")
		writeError(w, http.StatusInternalServerError, "Internal", "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}
	if _, err := s.authorize(r, rm.ID); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	if err := rm.Start(); err != nil {
		status, code := statusForError(err)
		writeError(w, status, code, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSocket upgrades the connection and runs the read/write pumps for
// one seat.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.roomFromPath(w, r)
	if !ok {
		return
	}
	claims, err := s.authorize(r, rm.ID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}

	subID, views, err := rm.Subscribe(claims.Player)
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "room closed")
		return
	}
	defer rm.Unsubscribe(subID)

	log := s.log.WithFields(logrus.Fields{"room": rm.ID.String(), "player": claims.Player})
	log.Info("socket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Writer: snapshots flow until the room dies or the client leaves.
	go func() {
		defer cancel()
		for {
			select {
			case v, ok := <-views:
				if !ok {
					conn.Close(websocket.StatusNormalClosure, "room closed")
					return
				}
				if err := writeEnvelope(ctx, conn, envelope{Type: "state", State: &v}); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	s.readLoop(ctx, conn, rm, claims.Player, log)
	conn.Close(websocket.StatusNormalClosure, "bye")
	log.Info("socket disconnected")
}

// envelope is the wire frame in both directions.
type envelope struct {
	Type      string     `json:"type"`
	Action    string     `json:"action,omitempty"`
	Target    string     `json:"target,omitempty"`
	CardIndex int        `json:"cardIndex,omitempty"`
	State     *room.View `json:"state,omitempty"`
	Code      string     `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, rm *room.Room, player string, log *logrus.Entry) {
	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return
		}
		intentType, ok := intentTypes[env.Type]
		if !ok {
			s.replyError(ctx, conn, "UnknownAction", "unknown message type "+env.Type)
			continue
		}
		in := engine.Intent{
			Type:      intentType,
			Actor:     player,
			Action:    env.Action,
			Target:    env.Target,
			CardIndex: env.CardIndex,
		}
		if _, err := rm.Submit(in); err != nil {
			if errors.Is(err, room.ErrRoomClosed) {
				s.replyError(ctx, conn, "RoomClosed", "room closed")
				return
			}
			_, code := statusForError(err)
			s.replyError(ctx, conn, code, err.Error())
			if errors.Is(err, engine.ErrInsufficientCards) {
				return
			}
		}
		// Accepted intents answer through the snapshot stream.
	}
}

var intentTypes = map[string]engine.IntentType{
	"choose_action":  engine.IntentChooseAction,
	"challenge":      engine.IntentChallenge,
	"skip_challenge": engine.IntentSkipChallenge,
	"select_target":  engine.IntentSelectTarget,
	"reveal_card":    engine.IntentRevealCard,
}

func (s *Server) replyError(ctx context.Context, conn *websocket.Conn, code, msg string) {
	if err := writeEnvelope(ctx, conn, envelope{Type: "error", Code: code, Message: msg}); err != nil {
		s.log.WithError(err).Debug("failed writing error frame")
	}
}

func writeEnvelope(ctx context.Context, conn *websocket.Conn, env envelope) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, env)
}

func (s *Server) roomFromPath(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "malformed room id")
		return nil, false
	}
	rm, ok := s.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "RoomClosed", "no such room")
		return nil, false
	}
	return rm, true
}

// authorize extracts the seat token from the Authorization header or the
// token query parameter (browsers cannot set headers on websocket
// dials).
func (s *Server) authorize(r *http.Request, roomID uuid.UUID) (auth.SessionClaims, error) {
	raw := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		raw = h[7:]
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return auth.SessionClaims{}, err
	}
	if claims.RoomID != roomID {
		return auth.SessionClaims{}, errors.New("token grants a different room")
	}
	return claims, nil
}

// statusForError maps engine rejections onto HTTP status plus the stable
// error code clients switch on.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrInvalidPhase):
		return http.StatusConflict, "InvalidPhase"
	case errors.Is(err, engine.ErrNotYourTurn):
		return http.StatusConflict, "NotYourTurn"
	case errors.Is(err, engine.ErrUnknownAction):
		return http.StatusBadRequest, "UnknownAction"
	case errors.Is(err, engine.ErrInsufficientFunds):
		return http.StatusConflict, "InsufficientFunds"
	case errors.Is(err, engine.ErrInvalidTarget):
		return http.StatusConflict, "InvalidTarget"
	case errors.Is(err, engine.ErrAlreadyChallenged):
		return http.StatusConflict, "AlreadyChallenged"
	case errors.Is(err, engine.ErrInvalidCardIndex):
		return http.StatusBadRequest, "InvalidCardIndex"
	case errors.Is(err, engine.ErrInsufficientCards):
		return http.StatusInternalServerError, "InsufficientCards"
	case errors.Is(err, room.ErrRoomClosed):
		return http.StatusGone, "RoomClosed"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("failed encoding response")
	}
}
