// Package deepgram implements live speech recognition over the Deepgram
// streaming WebSocket API.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meetscribe/meetscribe/internal/usecase/session"
	"github.com/meetscribe/meetscribe/pkg/config"
)

// closeGracePeriod bounds how long we wait for trailing results after
// requesting stream close.
const closeGracePeriod = 5 * time.Second

// Client opens live transcription streams. It implements
// session.SpeechRecognizer.
type Client struct {
	cfg    *config.DeepgramConfig
	logger *zap.Logger
}

// NewClient creates a Deepgram live transcription client
func NewClient(cfg *config.DeepgramConfig, logger *zap.Logger) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// Start dials the listen endpoint and begins delivering recognition
// results to onEvent from a dedicated read goroutine.
func (c *Client) Start(ctx context.Context, onEvent func(session.RawRecognitionEvent), onError func(error)) (session.SpeechStream, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	s := &Stream{conn: conn, logger: c.logger}
	go s.readLoop(onEvent, onError)

	return s, nil
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenURL, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid deepgram url: %w", err)
	}

	queryParams := listenURL.Query()
	queryParams.Set("model", c.cfg.Model)
	queryParams.Set("language", c.cfg.Language)
	queryParams.Set("punctuate", "true")
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("profanity_filter", "false")
	queryParams.Set("filler_words", "true")
	queryParams.Set("encoding", c.cfg.Encoding)
	queryParams.Set("sample_rate", strconv.Itoa(c.cfg.SampleRate))
	queryParams.Set("channels", "1")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.cfg.APIKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// Stream is one open live transcription stream
type Stream struct {
	conn   *websocket.Conn
	logger *zap.Logger

	connMu sync.Mutex
	closed bool
}

// SendAudio forwards a raw audio chunk to the recognition stream
func (s *Stream) SendAudio(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed {
		return fmt.Errorf("stream is closed")
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Close asks Deepgram to flush buffered audio and finish the stream.
// Trailing results may still arrive during the grace period.
func (s *Stream) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return s.conn.SetReadDeadline(time.Now().Add(closeGracePeriod))
}

func (s *Stream) readLoop(onEvent func(session.RawRecognitionEvent), onError func(error)) {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.connMu.Lock()
			closed := s.closed
			s.closed = true
			s.connMu.Unlock()

			if !closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				onError(err)
			}
			s.conn.Close()
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg, onEvent)
		}
	}
}

func (s *Stream) processMessage(msg []byte, onEvent func(session.RawRecognitionEvent)) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		s.logger.Warn("failed to unmarshal deepgram message", zap.Error(err))
		return
	}

	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		s.logger.Warn("failed to unmarshal deepgram transcript", zap.Error(err))
		return
	}
	if len(msgResp.Channel.Alternatives) == 0 {
		return
	}

	alt := msgResp.Channel.Alternatives[0]
	onEvent(session.RawRecognitionEvent{
		Transcript: alt.Transcript,
		IsFinal:    msgResp.IsFinal,
		Start:      msgResp.Start,
		Duration:   msgResp.Duration,
		Confidence: alt.Confidence,
	})
}
