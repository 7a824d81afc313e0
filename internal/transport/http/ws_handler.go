package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"streak-quiz-service/internal/domain"
	"streak-quiz-service/internal/game"
)

// SessionConfig carries the game tuning a handler applies to every session it
// spawns.
type SessionConfig struct {
	Comparison      game.ComparisonMode
	MilestonePeriod int
	Brackets        []game.Bracket
	Delays          game.SettleDelays
}

// WSHandler hosts one game session per websocket connection. Presentation
// commands flow out as JSON messages; guesses and mode switches flow in.
type WSHandler struct {
	items    []domain.Item
	scores   game.ScoreStore
	cfg      SessionConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(items []domain.Item, scores game.ScoreStore, cfg SessionConfig) *WSHandler {
	return &WSHandler{
		items:  items,
		scores: scores,
		cfg:    cfg,
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

type guessPayload struct {
	Text string `json:"text"`
}

type switchModePayload struct {
	Mode string `json:"mode"`
}

type leaderboardPayload struct {
	Mode string `json:"mode"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type itemPayload struct {
	ID   string `json:"id"`
	Tier string `json:"tier"`
}

type answerPayload struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

type progressPayload struct {
	Streak int    `json:"streak"`
	Tier   string `json:"tier"`
	Mode   string `json:"mode"`
}

// ServeWS upgrades the request and runs a session for the connected player.
// Query parameters: name (required), mode (default endless), practice=1 for
// ungraded play.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	mode := domain.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.ModeEndless
	}
	if !mode.Valid() {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	practice := r.URL.Query().Get("practice") == "1"

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	session, err := game.NewSession(h.items, game.Options{
		Mode:            mode,
		PlayerName:      name,
		Comparison:      h.cfg.Comparison,
		MilestonePeriod: h.cfg.MilestonePeriod,
		Brackets:        h.cfg.Brackets,
		Delays:          h.cfg.Delays,
		PersistScores:   !practice,
		Presenter:       &wsPresenter{send: send},
		Scores:          h.scores,
	})
	if err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		close(send)
		<-writerDone
		return
	}
	defer session.Close()

	if err := session.Advance(r.Context()); err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "guess":
			var payload guessPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid guess payload"}}
				continue
			}
			if err := session.SubmitGuess(r.Context(), payload.Text); err != nil && !errors.Is(err, domain.ErrSessionBusy) {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "switch_mode":
			var payload switchModePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid mode payload"}}
				continue
			}
			if err := session.SwitchMode(r.Context(), domain.Mode(payload.Mode)); err != nil && !errors.Is(err, domain.ErrSessionBusy) {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "leaderboard":
			var payload leaderboardPayload
			_ = json.Unmarshal(inbound.Payload, &payload)
			records, err := h.scores.Leaderboard(r.Context(), domain.Mode(payload.Mode))
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "leaderboard", Payload: records}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	// Cancel any pending settle continuation before the send channel closes;
	// a late continuation must not write into a closed channel.
	session.Close()
	close(send)
	<-writerDone
}

// wsPresenter translates session commands into outbound JSON messages. The
// answer is only revealed through the reveal command, never with the item
// itself.
type wsPresenter struct {
	send chan outboundMessage[any]
}

func (p *wsPresenter) ShowItem(item domain.Item) {
	p.send <- outboundMessage[any]{Type: "show_item", Payload: itemPayload{ID: item.ID, Tier: string(item.Tier)}}
}

func (p *wsPresenter) PlayAnimation(kind game.AnimationKind) {
	p.send <- outboundMessage[any]{Type: "animation", Payload: string(kind)}
}

func (p *wsPresenter) UpdateProgress(streak int, tier domain.Tier, mode domain.Mode) {
	p.send <- outboundMessage[any]{Type: "progress", Payload: progressPayload{Streak: streak, Tier: string(tier), Mode: string(mode)}}
}

func (p *wsPresenter) SetInputLocked(locked bool) {
	p.send <- outboundMessage[any]{Type: "input_locked", Payload: locked}
}

func (p *wsPresenter) RevealAnswer(item domain.Item) {
	p.send <- outboundMessage[any]{Type: "reveal_answer", Payload: answerPayload{ID: item.ID, Name: item.Name, Aliases: item.Aliases}}
}

func (p *wsPresenter) ShowError(message string) {
	p.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
