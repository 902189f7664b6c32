// Package upload implements the media upload pipeline: local validation,
// optional daily-quota enforcement, and a progress-reporting multipart
// transfer to the external storage endpoint.
//
// A job moves through validating -> uploading -> succeeded or failed. Every
// failure is terminal and typed (see Kind); the pipeline never retries, and
// concurrent jobs are fully independent.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pakcart/storesync/quota"
)

// DefaultDailyCeiling is the stock per-user upload allowance per calendar
// day.
const DefaultDailyCeiling = 50

// Config holds the uploader's endpoint and policy settings.
type Config struct {
	// Endpoint is the storage service's upload URL.
	Endpoint string

	// Preset is the namespace/preset token sent with every upload.
	Preset string

	// Limits overrides the per-category policy. Nil uses DefaultLimits.
	Limits map[Category]Limits

	// DailyCeiling caps uploads per user per calendar day. Zero uses
	// DefaultDailyCeiling. Only enforced when Quota is set.
	DailyCeiling int

	// Quota is the per-user daily counter store. Nil disables the check.
	Quota quota.Store

	// HTTPClient performs the transfer. Defaults to a client with a 5 minute
	// timeout.
	HTTPClient *http.Client

	// Logger receives job diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Options control one upload job.
type Options struct {
	// Category selects the validation policy. Defaults to CategoryImage.
	Category Category

	// Folder is the destination folder at the storage service, optional.
	Folder string

	// Tags are attached to the stored asset, optional.
	Tags []string

	// UserID attributes the upload for quota accounting. Empty skips the
	// quota check.
	UserID string

	// Dimensions enables the strict pixel-dimension check for images.
	Dimensions *DimensionBox

	// OnProgress receives monotonic 0-100 progress while the transfer runs.
	OnProgress ProgressFunc
}

// Result is the terminal success state of a job.
type Result struct {
	JobID    string
	URL      string
	PublicID string
	Format   string
	Width    int
	Height   int
}

// uploadResponse mirrors the storage service's JSON success body.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Uploader runs upload jobs against one storage endpoint.
type Uploader struct {
	endpoint string
	preset   string
	limits   map[Category]Limits
	ceiling  int
	quota    quota.Store
	client   *http.Client
	logger   *slog.Logger
}

// New creates an uploader from the given configuration.
func New(cfg Config) (*Uploader, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("upload: Endpoint is required")
	}
	if cfg.Preset == "" {
		return nil, fmt.Errorf("upload: Preset is required")
	}

	limits := cfg.Limits
	if limits == nil {
		limits = DefaultLimits()
	}
	ceiling := cfg.DailyCeiling
	if ceiling <= 0 {
		ceiling = DefaultDailyCeiling
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Uploader{
		endpoint: cfg.Endpoint,
		preset:   cfg.Preset,
		limits:   limits,
		ceiling:  ceiling,
		quota:    cfg.Quota,
		client:   client,
		logger:   logger,
	}, nil
}

// Upload runs one job to its terminal state and returns the stored asset's
// URL or a typed failure. Validation failures and quota exhaustion are
// decided before any network call. The job is never retried internally and
// has no cancellation primitive beyond ctx; a caller that stops caring should
// discard the result.
func (u *Uploader) Upload(ctx context.Context, file File, opts Options) (*Result, error) {
	jobID := uuid.NewString()

	category := opts.Category
	if category == "" {
		category = CategoryImage
	}
	limits, ok := u.limits[category]
	if !ok {
		return nil, failf(KindInvalidType, "unknown category %q", category)
	}

	// A fresh job resets progress before validating so stale state from a
	// previous attempt cannot leak into this one.
	if opts.OnProgress != nil {
		opts.OnProgress(0)
	}

	if err := validate(file, category, limits, opts.Dimensions); err != nil {
		return nil, err
	}

	if err := u.checkQuota(ctx, opts.UserID); err != nil {
		return nil, err
	}

	body, contentType, err := u.multipartBody(file, opts)
	if err != nil {
		return nil, wrap(KindTransport, err, "encode request body")
	}

	reader := newProgressReader(bytes.NewReader(body), int64(len(body)), opts.OnProgress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, reader)
	if err != nil {
		return nil, wrap(KindTransport, err, "build request")
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, wrap(KindTransport, err, "upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failf(KindRemoteRejected, "storage endpoint returned status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, wrap(KindRemoteRejected, err, "malformed storage response")
	}

	if opts.OnProgress != nil {
		opts.OnProgress(100)
	}

	u.recordUpload(ctx, opts.UserID)

	u.logger.Debug("upload complete",
		"job", jobID, "category", category, "bytes", len(file.Data), "url", parsed.SecureURL)

	return &Result{
		JobID:    jobID,
		URL:      parsed.SecureURL,
		PublicID: parsed.PublicID,
		Format:   parsed.Format,
		Width:    parsed.Width,
		Height:   parsed.Height,
	}, nil
}

// checkQuota enforces the daily ceiling. The policy is fail-open: if the
// lookup itself errors, the upload is allowed rather than blocked, favoring
// availability over strict enforcement.
func (u *Uploader) checkQuota(ctx context.Context, userID string) error {
	if u.quota == nil || userID == "" {
		return nil
	}

	usage, err := u.quota.Usage(ctx, userID)
	if err != nil {
		u.logger.Warn("quota lookup failed, allowing upload", "user", userID, "error", err)
		return nil
	}

	today := quota.Day(time.Now())
	if usage.CountOn(today) >= u.ceiling {
		return failf(KindQuotaExceeded, "daily limit of %d uploads reached", u.ceiling)
	}
	return nil
}

// recordUpload bumps the daily counter after a successful transfer. Counting
// is best-effort; a store failure never fails the job.
func (u *Uploader) recordUpload(ctx context.Context, userID string) {
	if u.quota == nil || userID == "" {
		return
	}
	if err := u.quota.Record(ctx, userID, time.Now()); err != nil {
		u.logger.Warn("quota record failed", "user", userID, "error", err)
	}
}

func (u *Uploader) multipartBody(file File, opts Options) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(file.Data)); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("upload_preset", u.preset); err != nil {
		return nil, "", err
	}
	if opts.Folder != "" {
		if err := w.WriteField("folder", opts.Folder); err != nil {
			return nil, "", err
		}
	}
	if len(opts.Tags) > 0 {
		if err := w.WriteField("tags", strings.Join(opts.Tags, ",")); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
