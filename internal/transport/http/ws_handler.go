package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"libras-quiz-service/internal/app"
	"libras-quiz-service/internal/auth"
	"libras-quiz-service/internal/domain"
)

// WSHandler runs interactive challenge sessions over websockets.
type WSHandler struct {
	quiz     *app.QuizService
	catalog  *app.CatalogService
	profiles *app.ProfileService
	upgrader websocket.Upgrader
}

func NewWSHandler(quiz *app.QuizService, catalog *app.CatalogService, profiles *app.ProfileService) *WSHandler {
	return &WSHandler{
		quiz:     quiz,
		catalog:  catalog,
		profiles: profiles,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS gates entry to the challenge, upgrades the connection, and wires it
// into a quiz session: engine events flow out, answers and retakes flow in.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	challengeID := r.URL.Query().Get("challengeId")
	if challengeID == "" {
		http.Error(w, "missing challengeId", http.StatusBadRequest)
		return
	}

	identity, _ := auth.IdentityFrom(r.Context())
	profile, err := h.profiles.Get(r.Context(), identity)
	if err != nil {
		log.Printf("ws: load profile %s: %v", identity.ID, err)
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	if err := h.catalog.CanStart(r.Context(), challengeID, profile); err != nil {
		switch {
		case errors.Is(err, domain.ErrChallengeLocked):
			http.Error(w, "challenge locked", http.StatusForbidden)
		case errors.Is(err, domain.ErrNoQuestions):
			http.Error(w, "challenge has no questions", http.StatusForbidden)
		case errors.Is(err, domain.ErrChallengeNotFound):
			http.Error(w, "challenge not found", http.StatusNotFound)
		default:
			log.Printf("ws: gate challenge %s: %v", challengeID, err)
			http.Error(w, "challenge unavailable", http.StatusInternalServerError)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.quiz.StartSession(r.Context(), challengeID, profile)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-session.Events():
				if !ok {
					return
				}
				select {
				case send <- toOutbound(event):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			feedback, err := session.Answer(payload.Option)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "feedback", Payload: feedback}
		case "retake":
			if err := session.Retake(); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "leave":
			break readLoop
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func toOutbound(event app.Event) outboundMessage[any] {
	switch event.Type {
	case app.EventQuestion:
		return outboundMessage[any]{Type: "question", Payload: event.Question}
	case app.EventTitle:
		return outboundMessage[any]{Type: "title", Payload: map[string]string{"title": event.Title}}
	case app.EventFinished:
		return outboundMessage[any]{Type: "finished", Payload: event.Summary}
	default:
		return outboundMessage[any]{Type: string(event.Type), Payload: nil}
	}
}
