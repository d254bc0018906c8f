package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*RESTClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewRESTClient(Config{
		Host:   strings.TrimPrefix(srv.URL, "http://"),
		Bucket: "b",
		UseSSL: false,
	}, srv.Client(), nil)
	if err != nil {
		t.Fatalf("new rest client: %v", err)
	}
	return client, srv
}

func TestStartSessionSendsHandshakeHeaders(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Upload-URL", "http://session.local/u/1")
		w.WriteHeader(http.StatusOK)
	}))
	_ = srv

	sessionURL, err := client.StartSession(context.Background(), "reports/a b.jpg", "image/jpeg", 42)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sessionURL != "http://session.local/u/1" {
		t.Fatalf("unexpected session url: %s", sessionURL)
	}

	if gotReq.Method != http.MethodPost {
		t.Fatalf("unexpected method: %s", gotReq.Method)
	}
	if got := gotReq.URL.Query().Get("name"); got != "reports/a b.jpg" {
		t.Fatalf("unexpected name query: %q", got)
	}
	if got := gotReq.URL.Query().Get("uploadType"); got != "resumable" {
		t.Fatalf("unexpected uploadType query: %q", got)
	}
	if got := gotReq.Header.Get("Upload-Protocol"); got != "resumable" {
		t.Fatalf("unexpected Upload-Protocol: %q", got)
	}
	if got := gotReq.Header.Get("Upload-Command"); got != "start" {
		t.Fatalf("unexpected Upload-Command: %q", got)
	}
	if got := gotReq.Header.Get("Upload-Header-Content-Length"); got != "42" {
		t.Fatalf("unexpected declared length: %q", got)
	}
	if got := gotReq.Header.Get("Upload-Header-Content-Type"); got != "image/jpeg" {
		t.Fatalf("unexpected declared type: %q", got)
	}

	var body map[string]string
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("parse start body: %v", err)
	}
	if body["name"] != "reports/a b.jpg" || body["contentType"] != "image/jpeg" {
		t.Fatalf("unexpected start body: %v", body)
	}
}

func TestStartSessionNon2xxIsProtocolError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("denied"))
	}))

	_, err := client.StartSession(context.Background(), "reports/a.jpg", "image/jpeg", 3)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if protoErr.Status != http.StatusForbidden || protoErr.Body != "denied" {
		t.Fatalf("unexpected protocol error: %+v", protoErr)
	}
}

func TestUploadAndFinalize(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"bucket":         "b",
			"name":           "reports/a.jpg",
			"downloadTokens": "tok-1,tok-2",
		})
	}))

	locator, err := client.UploadAndFinalize(context.Background(), srv.URL+"/u/1", "image/jpeg", []byte("abc"))
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if gotReq.Method != http.MethodPut {
		t.Fatalf("unexpected method: %s", gotReq.Method)
	}
	if got := gotReq.Header.Get("Upload-Command"); got != "upload, finalize" {
		t.Fatalf("unexpected Upload-Command: %q", got)
	}
	if got := gotReq.Header.Get("Upload-Offset"); got != "0" {
		t.Fatalf("unexpected Upload-Offset: %q", got)
	}
	if string(gotBody) != "abc" {
		t.Fatalf("unexpected payload: %q", gotBody)
	}

	if locator.Bucket != "b" || locator.Name != "reports/a.jpg" {
		t.Fatalf("unexpected locator: %+v", locator)
	}
	if locator.DownloadToken != "tok-1" {
		t.Fatalf("expected first token, got %q", locator.DownloadToken)
	}
}

func TestUploadAndFinalizeNon200IsTransferError(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broke"))
	}))

	_, err := client.UploadAndFinalize(context.Background(), srv.URL+"/u/1", "image/jpeg", []byte("abc"))
	var transferErr *TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected TransferError, got %v", err)
	}
	if transferErr.Status != http.StatusBadGateway || transferErr.Body != "upstream broke" {
		t.Fatalf("unexpected transfer error: %+v", transferErr)
	}
}

func TestRefreshDownloadURL(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.EscapedPath() != "/v0/b/b/o/reports%2Fa.jpg" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"bucket":         "b",
			"name":           "reports/a.jpg",
			"downloadTokens": "fresh-tok",
		})
	}))

	got, err := client.RefreshDownloadURL(context.Background(), "reports/a.jpg")
	if err != nil {
		t.Fatalf("refresh url: %v", err)
	}
	if !strings.Contains(got, "/v0/b/b/o/reports%2Fa.jpg?alt=media&token=fresh-tok") {
		t.Fatalf("unexpected download url: %s", got)
	}
}

func TestDeleteObjectTreatsMissingAsSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if err := client.DeleteObject(context.Background(), "reports/gone.jpg"); err != nil {
		t.Fatalf("delete missing object: %v", err)
	}
}
