package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/vivavoce/vivavoce/internal/orchestrator"
)

// turnPayload is one inbound WebSocket message: a screen capture and an audio
// clip, both base64. The fields may carry a data-URI prefix
// ("data:image/png;base64,....") which is stripped before decoding.
type turnPayload struct {
	Image string `json:"image"`
	Audio string `json:"audio"`
}

// turnReply is the outbound WebSocket message for one turn attempt.
type turnReply struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Question   string `json:"question,omitempty"`
}

// handleWS upgrades the request and runs the turn loop until the client
// disconnects. Each message is handed to the orchestrator on its own
// goroutine so the read loop stays responsive: while a turn is in flight,
// further payloads get an immediate "processing" reply instead of queueing
// behind the pipeline.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer ws.Close(websocket.StatusInternalError, "connection closed")

	ctx := r.Context()
	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(ctx, -1)
	s.logger.Info("interview connection opened", "remote", r.RemoteAddr)

	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				s.logger.Info("interview connection closed", "remote", r.RemoteAddr)
			} else {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if typ != websocket.MessageText {
			s.logger.Debug("dropping non-text message")
			continue
		}

		var payload turnPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			s.logger.Warn("dropping malformed payload", "error", err)
			continue
		}
		if payload.Image == "" || payload.Audio == "" {
			s.logger.Warn("dropping incomplete payload",
				"has_image", payload.Image != "",
				"has_audio", payload.Audio != "")
			continue
		}

		image, err := decodeBase64(payload.Image)
		if err != nil {
			s.logger.Warn("dropping payload with undecodable image", "error", err)
			continue
		}
		audio, err := decodeBase64(payload.Audio)
		if err != nil {
			s.logger.Warn("dropping payload with undecodable audio", "error", err)
			continue
		}

		go s.orch.RunTurn(ctx, image, audio, func(out orchestrator.Outcome) {
			s.writeReply(ctx, ws, out)
		})
	}
}

// writeReply sends one turn outcome to the client. Write errors are logged,
// not fatal: the read loop notices a dead connection on its own.
func (s *Server) writeReply(ctx context.Context, ws *websocket.Conn, out orchestrator.Outcome) {
	reply := turnReply{
		Status:     string(out.Status),
		Message:    out.Message,
		Transcript: out.Transcript,
		Question:   out.Question,
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("marshal reply failed", "error", err)
		return
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
}

// decodeBase64 decodes a possibly data-URI-wrapped base64 field. Anything up
// to and including the first comma is treated as the URI header.
func decodeBase64(field string) ([]byte, error) {
	if i := strings.IndexByte(field, ','); i >= 0 {
		field = field[i+1:]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(field))
}
