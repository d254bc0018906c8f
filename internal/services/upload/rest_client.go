package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	headerUploadProtocol      = "Upload-Protocol"
	headerUploadCommand       = "Upload-Command"
	headerUploadContentLength = "Upload-Header-Content-Length"
	headerUploadContentType   = "Upload-Header-Content-Type"
	headerUploadOffset        = "Upload-Offset"
	headerUploadURL           = "Upload-URL"
)

type Config struct {
	Host   string
	Bucket string
	UseSSL bool
}

// RESTClient speaks the blob store's resumable upload protocol and the
// sibling object endpoints (metadata, delete) on the same surface.
type RESTClient struct {
	cfg    Config
	httpc  *http.Client
	logger *zap.Logger
}

func NewRESTClient(cfg Config, httpc *http.Client, logger *zap.Logger) (*RESTClient, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("storage host is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTClient{cfg: cfg, httpc: httpc, logger: logger}, nil
}

func (c *RESTClient) StartSession(ctx context.Context, remotePath, contentType string, sizeBytes int64) (string, error) {
	startURL := fmt.Sprintf("%s/v0/b/%s/o?name=%s&uploadType=resumable",
		c.baseURL(), c.cfg.Bucket, url.QueryEscape(remotePath))

	body, err := json.Marshal(map[string]string{
		"name":        remotePath,
		"contentType": contentType,
	})
	if err != nil {
		return "", fmt.Errorf("marshal session start body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, startURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build session start request: %w", err)
	}
	req.Header.Set(headerUploadProtocol, "resumable")
	req.Header.Set(headerUploadCommand, "start")
	req.Header.Set(headerUploadContentLength, strconv.FormatInt(sizeBytes, 10))
	req.Header.Set(headerUploadContentType, contentType)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("session start request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProtocolError{Status: resp.StatusCode, Body: string(raw)}
	}

	sessionURL := resp.Header.Get(headerUploadURL)
	if sessionURL == "" {
		return "", &ProtocolError{Status: resp.StatusCode, Body: "no upload url in response"}
	}

	return sessionURL, nil
}

func (c *RESTClient) UploadAndFinalize(ctx context.Context, sessionURL, contentType string, payload []byte) (CanonicalLocator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(payload))
	if err != nil {
		return CanonicalLocator{}, fmt.Errorf("build finalize request: %w", err)
	}
	req.Header.Set(headerUploadCommand, "upload, finalize")
	req.Header.Set(headerUploadOffset, "0")
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return CanonicalLocator{}, fmt.Errorf("finalize request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return CanonicalLocator{}, &TransferError{Status: resp.StatusCode, Body: string(raw)}
	}

	var meta objectMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return CanonicalLocator{}, fmt.Errorf("parse finalize response: %w", err)
	}

	return CanonicalLocator{
		Bucket:        meta.Bucket,
		Name:          meta.Name,
		DownloadToken: firstToken(meta.DownloadTokens),
	}, nil
}

// RefreshDownloadURL fetches the object's metadata and rebuilds a public
// access URL from its current download token.
func (c *RESTClient) RefreshDownloadURL(ctx context.Context, storagePath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(storagePath), nil)
	if err != nil {
		return "", fmt.Errorf("build metadata request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata request for %s: http %d", storagePath, resp.StatusCode)
	}

	var meta objectMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return "", fmt.Errorf("parse metadata response: %w", err)
	}
	token := firstToken(meta.DownloadTokens)
	if token == "" {
		return "", fmt.Errorf("object %s has no download token", storagePath)
	}

	return c.DownloadURL(meta.Bucket, meta.Name, token), nil
}

// DeleteObject removes the blob. A missing object is treated as success.
func (c *RESTClient) DeleteObject(ctx context.Context, storagePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(storagePath), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("delete object %s: http %d", storagePath, resp.StatusCode)
}

// DownloadURL builds the public access URL for a finalized object.
func (c *RESTClient) DownloadURL(bucket, name, token string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media&token=%s",
		c.baseURL(), bucket, url.PathEscape(name), token)
}

func (c *RESTClient) Bucket() string {
	return c.cfg.Bucket
}

func (c *RESTClient) baseURL() string {
	scheme := "https"
	if !c.cfg.UseSSL {
		scheme = "http"
	}
	return scheme + "://" + c.cfg.Host
}

func (c *RESTClient) objectURL(storagePath string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s", c.baseURL(), c.cfg.Bucket, url.PathEscape(storagePath))
}

type objectMeta struct {
	Bucket         string `json:"bucket"`
	Name           string `json:"name"`
	DownloadTokens string `json:"downloadTokens"`
}

// downloadTokens may carry several comma-separated tokens; any one grants
// access.
func firstToken(tokens string) string {
	if idx := strings.IndexByte(tokens, ','); idx >= 0 {
		return tokens[:idx]
	}
	return tokens
}
