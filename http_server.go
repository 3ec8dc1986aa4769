package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gobwas/ws"
	"github.com/google/uuid"

	"signal-directory/directory"
)

const defaultVerifyTimeout = 10 * time.Second

type HTTPHandler struct {
	Directory     *directory.Directory
	Connections   *Connections
	Verifier      Verifier
	Admission     *Admission
	VerifyTimeout time.Duration
}

func NewHTTPServer(handler HTTPHandler, config *Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowCredentials: false,
	}))
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/"))

	r.With(httprate.Limit(config.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint))).
		Get("/ws", handler.websocket())
	return r
}

// verify admits a request carrying either an unused admission ticket whose
// connection is gone or a captcha token. ticketed reports the former.
func (h HTTPHandler) verify(r *http.Request) (ticketed bool, err error) {
	token := r.URL.Query().Get("captchaToken")
	holder, err := h.Admission.Redeem(token)
	switch {
	case err == nil:
		if h.Connections.IsAlive(holder) {
			return false, errors.New("ticket holder is still connected")
		}
		return true, nil
	case !errors.Is(err, ErrInvalidTicket):
		return false, err
	}

	timeout := h.VerifyTimeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	ok, err := h.Verifier.Verify(ctx, token)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errors.New("invalid captcha token")
	}
	return false, nil
}

func (h HTTPHandler) websocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketed, err := h.verify(r)
		if err != nil {
			LogRefusedConnection(r.RemoteAddr, err)
			http.Error(w, "Invalid captcha token.", http.StatusForbidden)
			return
		}
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			LogErrorWhileUpgradingHTTP(err)
			return
		}

		client := NewClient(directory.ConnectionID(uuid.NewString()), conn)
		logger := GetConnectionLogger(r.RemoteAddr, client.ID())
		h.Connections.Add(client)
		go client.WriteLoop()
		defer func() {
			h.Connections.Remove(client.ID())
			client.Close()
			h.Directory.Disconnect(client.ID())
			logger.Disconnected()
		}()

		// tickets are only handed to captcha-verified connections
		var ticket string
		if !ticketed {
			ticket, err = h.Admission.Issue(client.ID())
			if err != nil {
				logger.RequestFailed("admission", err)
			}
		}
		h.Connections.Send(client.ID(), SuccessMessage{Type: "success", ConnectionID: client.ID(), AdmissionToken: ticket})
		logger.Admitted()

		for {
			msg, err := client.ReadMessage()
			if err != nil {
				if errors.Is(err, ErrUndefinedType) || errors.Is(err, ErrMalformedMessage) {
					logger.RejectedMessage(err)
					continue
				}
				return
			}
			h.dispatch(client.ID(), msg, logger)
		}
	}
}

func (h HTTPHandler) dispatch(id directory.ConnectionID, msg any, logger ConnectionLogger) {
	var err error
	kind := ""
	switch m := msg.(type) {
	case CreateRoomMessage:
		kind = "createroom"
		_, err = h.Directory.CreateRoom(id)
	case JoinRoomMessage:
		kind = "joinroom"
		err = h.Directory.JoinRoom(id, directory.JoinRequest{Code: m.RoomCode(), Signal: m.SignalData, Name: m.Name})
	case AnswerJoinRequestMessage:
		h.Directory.AnswerJoinRequest(m.To, m.Signal)
	case MemberJoinMessage:
		kind = "memberJoin"
		err = h.Directory.MemberJoin(id, m.From)
	case JoinTrySuccessfulMessage:
		kind = "joinTrySuccessful"
		err = h.Directory.ConfirmJoin(id, m.Code)
	case MemberLeaveMessage:
		kind = "memberLeave"
		err = h.Directory.MemberLeave(id, m.From)
	case DisbandRoomMessage:
		kind = "disbandRoom"
		err = h.Directory.DisbandRoom(id)
	}
	if err != nil {
		logger.RequestFailed(kind, err)
	}
}
