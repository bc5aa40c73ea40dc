// Package recommender talks to the course recommendation backend. The
// backend is opaque: it answers chat messages and transcript uploads with
// free text and lists of raw course records.
package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

var (
	// ErrUnavailable wraps transport failures and non-2xx replies.
	ErrUnavailable = errors.New("recommendation backend unavailable")
	// ErrRejected is returned when the backend reports success=false.
	ErrRejected = errors.New("recommendation backend rejected the request")
)

const maxResponseBytes = 8 << 20

// ChatReply is the backend answer to a chat message.
type ChatReply struct {
	Response string                    `json:"response"`
	Courses  []meeting.RawCourseRecord `json:"courses"`
}

// TranscriptAnalysis is the parsed transcript summary.
type TranscriptAnalysis struct {
	Major                    string                    `json:"major"`
	Type                     string                    `json:"type"`
	UpperDivElectivesTaken   json.RawMessage           `json:"upper_div_electives_taken,omitempty"`
	RemainingUpperDivCourses json.RawMessage           `json:"remaining_upper_div_courses,omitempty"`
	RemainingRequiredCourses json.RawMessage           `json:"remaining_required_courses,omitempty"`
	RecommendedCourses       []meeting.RawCourseRecord `json:"recommended_courses"`
}

type uploadReply struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Data    TranscriptAnalysis `json:"data"`
}

// Client calls the backend. Chat replies are memoized per message.
type Client struct {
	baseURL string
	http    *http.Client
	memo    *cache.Cache
	logger  *zap.Logger
}

// NewClient builds a client from the recommender settings.
func NewClient(cfg *config.RecommenderConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var memo *cache.Cache
	if cfg.CacheTTL > 0 {
		memo = cache.New(cfg.CacheTTL, 10*time.Minute)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		memo:    memo,
		logger:  logger,
	}
}

// Chat sends a message and returns the reply.
func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	key := strings.ToLower(strings.TrimSpace(message))
	if c.memo != nil {
		if v, found := c.memo.Get(key); found {
			return v.(*ChatReply), nil
		}
	}

	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var reply ChatReply
	if err := c.do(req, &reply); err != nil {
		return nil, err
	}

	if c.memo != nil {
		c.memo.Set(key, &reply, cache.DefaultExpiration)
	}
	return &reply, nil
}

// UploadTranscript posts a transcript file as multipart field "file".
func (c *Client) UploadTranscript(ctx context.Context, filename string, content io.Reader) (*TranscriptAnalysis, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var reply uploadReply
	if err := c.do(req, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		msg := reply.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return &reply.Data, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("recommender request failed",
			zap.String("path", req.URL.Path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("recommender request",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The upload endpoint reports its own failures in the body.
		var rej uploadReply
		if json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rej) == nil && rej.Error != "" {
			return fmt.Errorf("%w: %s", ErrRejected, rej.Error)
		}
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode reply: %v", ErrUnavailable, err)
	}
	return nil
}
