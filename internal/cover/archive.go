package cover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"bookshelf/internal/util"
	"bookshelf/pkg/domain"
	"bookshelf/pkg/storage"
)

const (
	maxCoverBytes = 20 << 20
	// S3 presigned URLs are capped at seven days.
	archiveURLExpiry = 7 * 24 * time.Hour
)

// Archiver copies a generated cover into the user's object storage so the
// saved record does not depend on the short-lived provider URL.
type Archiver struct {
	store      storage.ObjectStore
	httpClient *http.Client
	expiry     time.Duration
	maxBytes   int64
	logger     *slog.Logger
}

// NewArchiver builds an Archiver over store.
func NewArchiver(store storage.ObjectStore, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		store:      store,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		expiry:     archiveURLExpiry,
		maxBytes:   maxCoverBytes,
		logger:     logger,
	}
}

// Archive downloads imageURL, stores it under covers/<userID>/<id>.png and
// returns a presigned URL for it.
func (a *Archiver) Archive(ctx context.Context, userID, imageURL string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", domain.ErrLoginRequired
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("archive cover: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &domain.Error{Kind: domain.KindNetwork, Message: "cannot download the generated cover", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &domain.Error{Kind: domain.KindExternalService, Status: resp.StatusCode, Message: "cannot download the generated cover"}
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	if resp.ContentLength > a.maxBytes {
		return "", domain.Validation("generated cover is too large")
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes+1))
	if err != nil {
		return "", &domain.Error{Kind: domain.KindNetwork, Message: "cannot download the generated cover", Err: err}
	}
	if int64(len(data)) > a.maxBytes {
		return "", domain.Validation("generated cover is too large")
	}
	key := path.Join("covers", userID, util.NewID()+".png")
	if err := a.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", &domain.Error{Kind: domain.KindExternalService, Message: "cannot store the cover", Err: err}
	}
	url, err := a.store.PresignGet(ctx, key, a.expiry)
	if err != nil {
		if derr := a.store.Delete(ctx, key); derr != nil {
			a.logger.Warn("cover cleanup failed", "key", key, "err", derr)
		}
		return "", &domain.Error{Kind: domain.KindExternalService, Message: "cannot store the cover", Err: err}
	}
	a.logger.Info("cover archived", "key", key, "user_id", userID)
	return url, nil
}
