// Package sourcews implements livequery.Source over a WebSocket push channel
// plus a small REST surface for mutations.
//
// Each Subscribe call dials its own connection and sends one subscribe frame;
// the server answers with full-snapshot frames on every relevant change.
// Mutations go over plain HTTP and indirectly trigger the next push.
package sourcews

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/pakcart/storesync/livequery"
)

// Frame types exchanged with the source.
const (
	frameDocument   = "document"
	frameCollection = "collection"
	frameError      = "error"
)

// subscribeRequest is the first frame sent on every subscription connection.
type subscribeRequest struct {
	Action     string             `json:"action"`
	Sub        string             `json:"sub"`
	Collection string             `json:"collection"`
	ID         string             `json:"id,omitempty"`
	Filters    []livequery.Filter `json:"filters,omitempty"`
}

// serverFrame is one push from the source. Snapshots are full, not deltas.
type serverFrame struct {
	Type      string               `json:"type"`
	Sub       string               `json:"sub,omitempty"`
	Document  *livequery.Document  `json:"document,omitempty"`
	Documents []livequery.Document `json:"documents,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// Config holds the connection settings for a source client.
type Config struct {
	// BaseURL is the HTTP endpoint for mutations, e.g. "https://source.example".
	BaseURL string

	// WebSocketURL is the subscription endpoint, e.g. "wss://source.example/watch".
	WebSocketURL string

	// HTTPClient is used for mutations and the WebSocket handshake.
	// Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Logger receives connection-level diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Client talks to the external document source. It implements
// livequery.Source.
type Client struct {
	baseURL string
	wsURL   string
	http    *http.Client
	logger  *slog.Logger
}

var _ livequery.Source = (*Client)(nil)

// New creates a source client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("sourcews: BaseURL is required")
	}
	if cfg.WebSocketURL == "" {
		return nil, fmt.Errorf("sourcews: WebSocketURL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		wsURL:   cfg.WebSocketURL,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// SubscribeDocument opens one push listener on a document address.
func (c *Client) SubscribeDocument(ctx context.Context, collection, id string) (livequery.DocumentSubscription, error) {
	sub, err := c.subscribe(ctx, subscribeRequest{
		Action:     "subscribe",
		Sub:        uuid.NewString(),
		Collection: collection,
		ID:         id,
	})
	if err != nil {
		return nil, err
	}
	return &documentSubscription{sub: sub}, nil
}

// SubscribeCollection opens one push listener on a filtered collection
// address. Filters are forwarded verbatim; the client does not interpret
// them.
func (c *Client) SubscribeCollection(ctx context.Context, collection string, filters []livequery.Filter) (livequery.CollectionSubscription, error) {
	sub, err := c.subscribe(ctx, subscribeRequest{
		Action:     "subscribe",
		Sub:        uuid.NewString(),
		Collection: collection,
		Filters:    filters,
	})
	if err != nil {
		return nil, err
	}
	return &collectionSubscription{sub: sub}, nil
}

func (c *Client) subscribe(ctx context.Context, req subscribeRequest) (*subscription, error) {
	conn, _, err := websocket.Dial(ctx, c.wsURL, &websocket.DialOptions{
		HTTPClient: c.http,
	})
	if err != nil {
		return nil, fmt.Errorf("sourcews: dial %s: %w", c.wsURL, err)
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, fmt.Errorf("sourcews: subscribe: %w", err)
	}

	s := &subscription{
		conn:   conn,
		logger: c.logger,
		frames: make(chan serverFrame, 16),
	}
	go s.readLoop(ctx)
	return s, nil
}

// subscription owns one WebSocket connection and its read loop. The frames
// channel is closed when the loop stops; err carries the cause for anything
// other than a deliberate Close.
type subscription struct {
	conn   *websocket.Conn
	logger *slog.Logger
	frames chan serverFrame

	closeOnce sync.Once

	mu     sync.Mutex
	closed bool
	err    error
}

func (s *subscription) readLoop(ctx context.Context) {
	defer close(s.frames)

	for {
		var frame serverFrame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = fmt.Errorf("sourcews: read: %w", err)
			}
			s.mu.Unlock()
			return
		}

		if frame.Type == frameError {
			s.mu.Lock()
			if !s.closed {
				s.err = fmt.Errorf("sourcews: source error: %s", frame.Message)
			}
			s.mu.Unlock()
			return
		}

		select {
		case s.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		_ = s.conn.Close(websocket.StatusNormalClosure, "unsubscribed")
	})
	return nil
}

// documentSubscription adapts raw frames to document events. Frames of the
// wrong shape are dropped with a log line rather than tearing the listener
// down.
type documentSubscription struct {
	sub    *subscription
	once   sync.Once
	events chan livequery.DocumentEvent
}

func (d *documentSubscription) Events() <-chan livequery.DocumentEvent {
	d.once.Do(func() {
		d.events = make(chan livequery.DocumentEvent, 16)
		go func() {
			defer close(d.events)
			for frame := range d.sub.frames {
				if frame.Type != frameDocument || frame.Document == nil {
					d.sub.logger.Warn("dropping unexpected frame", "type", frame.Type)
					continue
				}
				d.events <- livequery.DocumentEvent{Document: *frame.Document}
			}
		}()
	})
	return d.events
}

func (d *documentSubscription) Err() error   { return d.sub.Err() }
func (d *documentSubscription) Close() error { return d.sub.Close() }

type collectionSubscription struct {
	sub    *subscription
	once   sync.Once
	events chan livequery.CollectionEvent
}

func (c *collectionSubscription) Events() <-chan livequery.CollectionEvent {
	c.once.Do(func() {
		c.events = make(chan livequery.CollectionEvent, 16)
		go func() {
			defer close(c.events)
			for frame := range c.sub.frames {
				if frame.Type != frameCollection {
					c.sub.logger.Warn("dropping unexpected frame", "type", frame.Type)
					continue
				}
				c.events <- livequery.CollectionEvent{Documents: frame.Documents}
			}
		}()
	})
	return c.events
}

func (c *collectionSubscription) Err() error   { return c.sub.Err() }
func (c *collectionSubscription) Close() error { return c.sub.Close() }

// Create inserts a new document and returns its id. The write itself does not
// update any binding; the push it triggers does.
func (c *Client) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.documentsURL(collection, ""), fields, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Update replaces the fields of an existing document.
func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPut, c.documentsURL(collection, id), fields, nil)
}

// Delete removes a document. Bindings observe the deletion through the next
// push, which reports the document as missing.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, c.documentsURL(collection, id), nil, nil)
}

func (c *Client) documentsURL(collection, id string) string {
	u := c.baseURL + "/collections/" + url.PathEscape(collection) + "/documents"
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sourcews: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("sourcews: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sourcews: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sourcews: %s %s: unexpected status %d", method, rawURL, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sourcews: decode response: %w", err)
		}
	}
	return nil
}
