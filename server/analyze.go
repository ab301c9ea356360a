package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xhad/sitegraph/internal/models"
)

var (
	errNoAnalyzer = errors.New("no analysis provider is configured")
	errNoData     = errors.New("no data found for this URL")
)

// Response texts the explorer page shows verbatim.
const (
	msgMissingURL     = "Missing 'url' in request body"
	msgNoData         = "No data found for this URL"
	msgAnalysisFailed = "An error occurred during analysis: "
)

// analysisError renders err as the text returned to the client.
func analysisError(err error) string {
	return msgAnalysisFailed + err.Error()
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// lookup finds the page record for u in the current snapshot.
func (s *Server) lookup(u string) (string, *models.PageData, error) {
	key, page, ok := s.config.Holder.Snapshot().Structure.Lookup(u)
	if !ok {
		return "", nil, errNoData
	}
	return key, page, nil
}

func (s *Server) cached(ctx context.Context, key string) (string, bool) {
	if s.config.Cache == nil || s.config.Analyzer == nil {
		return "", false
	}
	text, ok, err := s.config.Cache.Get(ctx, key, s.config.Analyzer.Model())
	if err != nil {
		s.logger.Warn("analysis cache read failed", "url", key, "error", err)
		return "", false
	}
	return text, ok
}

func (s *Server) remember(ctx context.Context, key, text string) {
	if s.config.Cache == nil || text == "" {
		return
	}
	if err := s.config.Cache.Put(ctx, key, s.config.Analyzer.Model(), text); err != nil {
		s.logger.Warn("analysis cache write failed", "url", key, "error", err)
	}
}

func (s *Server) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		errorJSON(c, http.StatusBadRequest, msgMissingURL)
		return
	}

	key, page, err := s.lookup(req.URL)
	if err != nil {
		errorJSON(c, http.StatusNotFound, msgNoData)
		return
	}

	ctx := c.Request.Context()
	if text, ok := s.cached(ctx, key); ok {
		c.JSON(http.StatusOK, gin.H{"analysis": text})
		return
	}

	if s.config.Analyzer == nil {
		s.logger.Error("analysis requested without a provider", "url", key)
		errorJSON(c, http.StatusInternalServerError, analysisError(errNoAnalyzer))
		return
	}

	s.logger.Info("analyzing page", "url", key, "model", s.config.Analyzer.Model())
	text, err := s.config.Analyzer.Analyze(ctx, key, page)
	if err != nil {
		s.logger.Error("analysis failed", "url", key, "error", err)
		errorJSON(c, http.StatusInternalServerError, analysisError(err))
		return
	}

	s.remember(ctx, key, text)
	c.JSON(http.StatusOK, gin.H{"analysis": text})
}

type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) send(msgType, url, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(Message{Type: msgType, URL: url, Content: content})
}

func (s *Server) WebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ws := &wsConn{conn: conn}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			cancel()
			return
		}

		switch msg.Type {
		case "analyze":
			wg.Add(1)
			go func(u string) {
				defer wg.Done()
				s.streamAnalysis(ctx, ws, u)
			}(msg.Content)
		default:
			s.sendOrLog(ws, "error", msg.Content, "unknown message type: "+msg.Type)
		}
	}
}

func (s *Server) sendOrLog(ws *wsConn, msgType, url, content string) {
	if err := ws.send(msgType, url, content); err != nil {
		s.logger.Debug("websocket write failed", "error", err)
	}
}

// streamAnalysis sends "stream" chunks for u followed by "done", or a single
// "error" message.
func (s *Server) streamAnalysis(ctx context.Context, ws *wsConn, u string) {
	if strings.TrimSpace(u) == "" {
		s.sendOrLog(ws, "error", u, msgMissingURL)
		return
	}
	key, page, err := s.lookup(u)
	if err != nil {
		s.sendOrLog(ws, "error", u, msgNoData)
		return
	}

	if text, ok := s.cached(ctx, key); ok {
		s.sendOrLog(ws, "stream", key, text)
		s.sendOrLog(ws, "done", key, "")
		return
	}

	if s.config.Analyzer == nil {
		s.sendOrLog(ws, "error", key, analysisError(errNoAnalyzer))
		return
	}

	var full strings.Builder
	err = s.config.Analyzer.AnalyzeStream(ctx, key, page, func(chunk string) error {
		full.WriteString(chunk)
		return ws.send("stream", key, chunk)
	})
	if err != nil {
		s.logger.Error("streaming analysis failed", "url", key, "error", err)
		s.sendOrLog(ws, "error", key, analysisError(err))
		return
	}

	s.remember(ctx, key, strings.TrimSpace(full.String()))
	s.sendOrLog(ws, "done", key, "")
}
