package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/mcoot/sketchguess/internal/model"
)

const (
	writeTimeout   = 5 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 64
	readLimit      = 1 << 20 // canvas frames are data URLs
)

// Inbound message types
const (
	MessageFrame = "frame"
	MessageGuess = "guess"
	MessageChat  = "chat"
)

// Inbound is a message sent by the client
type Inbound struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Intake is the part of the game controller a socket feeds
type Intake interface {
	SubmitFrame(roomID model.RoomID, playerID model.PlayerID, data string) error
	SubmitGuess(roomID model.RoomID, playerID model.PlayerID, text string) error
	SubmitChat(roomID model.RoomID, playerID model.PlayerID, text string) error
	Disconnect(roomID model.RoomID, playerID model.PlayerID)
}

// Server accepts room sockets
type Server struct {
	hub    *Hub
	intake Intake
	logger *slog.Logger
}

// NewServer creates a new Server
func NewServer(hub *Hub, intake Intake, logger *slog.Logger) *Server {
	return &Server{
		hub:    hub,
		intake: intake,
		logger: logger.With(slog.String("component", "ws")),
	}
}

type conn struct {
	playerID model.PlayerID
	roomID   model.RoomID
	out      chan []byte
}

func (c *conn) enqueue(data []byte) bool {
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

// Serve upgrades the request and runs the socket until it closes.
// Closing the player's last socket on the room disconnects them from it.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, roomID model.RoomID, playerID model.PlayerID) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", slog.Any("error", err))
		return
	}
	defer func() { _ = ws.CloseNow() }()
	ws.SetReadLimit(readLimit)

	logger := s.logger.With(
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)))

	c := &conn{playerID: playerID, roomID: roomID, out: make(chan []byte, sendBufferSize)}
	s.hub.subscribe(c, []string{model.LobbyTopic, model.RoomTopic(roomID), model.PlayerTopic(playerID)})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger.Info("websocket connected")
	go s.writePump(ctx, ws, c, logger)
	s.readPump(ctx, ws, c, logger)

	if siblings := s.hub.unsubscribe(c); siblings == 0 {
		s.intake.Disconnect(roomID, playerID)
	}
	logger.Info("websocket disconnected")
	_ = ws.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) readPump(ctx context.Context, ws *websocket.Conn, c *conn, logger *slog.Logger) {
	for {
		typ, msg, err := ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				logger.Debug("websocket read ended", slog.Any("error", err))
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var in Inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			logger.Debug("invalid websocket message", slog.Any("error", err))
			continue
		}
		if err := s.dispatch(c, in); err != nil {
			logger.Debug("websocket message rejected",
				slog.String("type", in.Type),
				slog.Any("error", err))
		}
	}
}

func (s *Server) dispatch(c *conn, in Inbound) error {
	switch in.Type {
	case MessageFrame:
		return s.intake.SubmitFrame(c.roomID, c.playerID, in.Data)
	case MessageGuess:
		return s.intake.SubmitGuess(c.roomID, c.playerID, in.Data)
	case MessageChat:
		return s.intake.SubmitChat(c.roomID, c.playerID, in.Data)
	default:
		return errors.New("unknown message type")
	}
}

func (s *Server) writePump(ctx context.Context, ws *websocket.Conn, c *conn, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
