package tonie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tcx/internal/shared"
)

const uploadTimeout = 5 * time.Minute

const minShuffleChapters = 2

// Client is a typed façade over Session with one method per Tonie Cloud
// endpoint. It is the single point that inspects response statuses and
// converts non-2xx responses into the APIError taxonomy.
type Client struct {
	session *Session
	base    string
	logger  *log.Logger

	// Presigned object-storage uploads carry no bearer token and bypass the
	// session entirely.
	uploadClient *http.Client
}

// ClientOpts contains optional overrides for NewClient.
type ClientOpts struct {
	BaseURL      string
	Session      *Session // pre-built session; username/password ignored when set
	SessionOpts  SessionOpts
	Logger       *log.Logger
	UploadClient *http.Client
}

// NewClient authenticates and returns a ready client. A rejected password
// grant is reported as an authentication-kind APIError; transport failures
// propagate unmodified.
func NewClient(ctx context.Context, username, password string, opts ClientOpts) (*Client, error) {
	session := opts.Session
	if session == nil {
		var err error
		session, err = NewSession(ctx, username, password, opts.SessionOpts)
		if err != nil {
			var rejected *TokenError
			if errors.As(err, &rejected) {
				return nil, &APIError{
					Kind:       KindAuthentication,
					Message:    "authentication failed",
					StatusCode: rejected.StatusCode,
					Body:       rejected.Body,
				}
			}
			return nil, err
		}
	}

	base := opts.BaseURL
	if base == "" {
		base = BaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	uploadClient := opts.UploadClient
	if uploadClient == nil {
		uploadClient = &http.Client{Timeout: uploadTimeout}
	}

	return &Client{
		session:      session,
		base:         base,
		logger:       logger,
		uploadClient: uploadClient,
	}, nil
}

// do issues an authenticated request and decodes the JSON response into out.
// Non-2xx responses become typed APIErrors here and nowhere else.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.base + path
	c.logger.Debug("api request", "method", method, "url", url)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ClassifyResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Config returns the backend configuration (limits, accepted formats).
func (c *Client) Config(ctx context.Context) (*BackendConfig, error) {
	var config BackendConfig
	if err := c.do(ctx, http.MethodGet, "/config", nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Households lists the households of the current user.
func (c *Client) Households(ctx context.Context) ([]Household, error) {
	var households []Household
	if err := c.do(ctx, http.MethodGet, "/households", nil, &households); err != nil {
		return nil, err
	}
	return households, nil
}

// CreativeTonies lists the Creative Tonies in a household.
func (c *Client) CreativeTonies(ctx context.Context, householdID string) ([]CreativeTonie, error) {
	var tonies []CreativeTonie
	path := fmt.Sprintf("/households/%s/creativetonies", householdID)
	if err := c.do(ctx, http.MethodGet, path, nil, &tonies); err != nil {
		return nil, err
	}
	return tonies, nil
}

// CreativeTonie fetches a single Creative Tonie with its chapters.
func (c *Client) CreativeTonie(ctx context.Context, householdID, tonieID string) (*CreativeTonie, error) {
	var tonie CreativeTonie
	path := fmt.Sprintf("/households/%s/creativetonies/%s", householdID, tonieID)
	if err := c.do(ctx, http.MethodGet, path, nil, &tonie); err != nil {
		return nil, err
	}
	return &tonie, nil
}

// UpdateOpts are the mutable fields of a Creative Tonie. A nil Chapters slice
// leaves the playlist untouched; an empty one clears it.
type UpdateOpts struct {
	Chapters []ChapterPatch
	Name     string
}

// UpdateCreativeTonie patches a Creative Tonie's name and/or chapter playlist.
func (c *Client) UpdateCreativeTonie(ctx context.Context, householdID, tonieID string, opts UpdateOpts) (*CreativeTonie, error) {
	payload := map[string]any{}
	if opts.Chapters != nil {
		payload["chapters"] = opts.Chapters
	}
	if opts.Name != "" {
		payload["name"] = opts.Name
	}

	var tonie CreativeTonie
	path := fmt.Sprintf("/households/%s/creativetonies/%s", householdID, tonieID)
	if err := c.do(ctx, http.MethodPatch, path, payload, &tonie); err != nil {
		return nil, err
	}
	return &tonie, nil
}

// AddChapter appends a chapter referencing an uploaded file.
func (c *Client) AddChapter(ctx context.Context, householdID, tonieID, title, fileID string) (*CreativeTonie, error) {
	payload := map[string]string{"title": title, "file": fileID}

	var tonie CreativeTonie
	path := fmt.Sprintf("/households/%s/creativetonies/%s/chapters", householdID, tonieID)
	if err := c.do(ctx, http.MethodPost, path, payload, &tonie); err != nil {
		return nil, err
	}
	return &tonie, nil
}

// RequestFileUpload asks the API for a presigned object-storage upload slot.
func (c *Client) RequestFileUpload(ctx context.Context) (*FileUpload, error) {
	var upload FileUpload
	if err := c.do(ctx, http.MethodPost, "/file", nil, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// UploadToStorage streams a local file to the presigned URL as a multipart
// POST carrying the provided form fields, and returns the file id to attach.
// When upload is nil a fresh slot is requested first.
func (c *Client) UploadToStorage(ctx context.Context, filePath string, upload *FileUpload) (string, error) {
	if upload == nil {
		var err error
		upload, err = c.RequestFileUpload(ctx)
		if err != nil {
			return "", err
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range upload.Request.Fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("failed to write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", upload.Request.Fields["key"])
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	c.logger.Debug("uploading to object storage", "file", filepath.Base(filePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, upload.Request.URL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", ClassifyResponse(resp)
	}

	c.logger.Debug("upload complete", "file_id", upload.FileID)
	return upload.FileID, nil
}

// UploadAudioFile performs the complete upload flow: request a slot, push the
// bytes to object storage, then attach the file as a chapter. The title
// defaults to the file name without its extension.
func (c *Client) UploadAudioFile(ctx context.Context, filePath, householdID, tonieID, title string) (*CreativeTonie, error) {
	if title == "" {
		name := filepath.Base(filePath)
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	fileID, err := c.UploadToStorage(ctx, filePath, nil)
	if err != nil {
		return nil, err
	}
	return c.AddChapter(ctx, householdID, tonieID, title, fileID)
}

// ShuffleChapters reorders a Creative Tonie's playlist randomly. Tonies with
// fewer than two chapters are returned unchanged.
func (c *Client) ShuffleChapters(ctx context.Context, householdID, tonieID string) (*CreativeTonie, error) {
	tonie, err := c.CreativeTonie(ctx, householdID, tonieID)
	if err != nil {
		return nil, err
	}
	if len(tonie.Chapters) < minShuffleChapters {
		return tonie, nil
	}

	chapters := make([]ChapterPatch, len(tonie.Chapters))
	for i, ch := range tonie.Chapters {
		chapters[i] = ChapterPatch{ID: ch.ID, Title: ch.Title, File: ch.File}
	}
	rand.Shuffle(len(chapters), func(i, j int) {
		chapters[i], chapters[j] = chapters[j], chapters[i]
	})

	return c.UpdateCreativeTonie(ctx, householdID, tonieID, UpdateOpts{Chapters: chapters})
}

// ClearChapters removes every chapter from a Creative Tonie.
func (c *Client) ClearChapters(ctx context.Context, householdID, tonieID string) (*CreativeTonie, error) {
	return c.UpdateCreativeTonie(ctx, householdID, tonieID, UpdateOpts{Chapters: []ChapterPatch{}})
}

// SetChapters replaces a Creative Tonie's playlist.
func (c *Client) SetChapters(ctx context.Context, householdID, tonieID string, chapters []ChapterPatch) (*CreativeTonie, error) {
	return c.UpdateCreativeTonie(ctx, householdID, tonieID, UpdateOpts{Chapters: chapters})
}
