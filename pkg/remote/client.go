/*
 Copyright 2023 Parsec Cloud Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime/trace"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
	"github.com/chinmaym07/parsec-cloud/utils/logger"
)

const (
	statusBadTimestamp = "bad_timestamp"
	maxResponseSize    = 16 << 20
)

// vlobReadResponse is the body of a successful vlob read.
type vlobReadResponse struct {
	Author          string    `json:"author"`
	Timestamp       time.Time `json:"timestamp"`
	Version         uint32    `json:"version"`
	Blob            []byte    `json:"blob"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}

type errorResponse struct {
	Status                    string    `json:"status"`
	ServerTimestamp           time.Time `json:"server_timestamp"`
	ClientTimestamp           time.Time `json:"client_timestamp"`
	BallparkClientEarlyOffset float64   `json:"ballpark_client_early_offset"`
	BallparkClientLateOffset  float64   `json:"ballpark_client_late_offset"`
}

type httpManifestService struct {
	endpoint    string
	client      *http.Client
	envelope    *envelope
	earlyOffset float64
	lateOffset  float64
	now         func() time.Time
	logger      *zap.SugaredLogger
}

var _ ManifestService = &httpManifestService{}

func NewManifestService(cfg config.Remote) (ManifestService, error) {
	s, err := newHttpManifestService(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newHttpManifestService(cfg config.Remote) (*httpManifestService, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote endpoint is empty")
	}
	env, err := newEnvelope(cfg)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpManifestService{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		envelope:    env,
		earlyOffset: cfg.BallparkClientEarlyOffset,
		lateOffset:  cfg.BallparkClientLateOffset,
		now:         time.Now,
		logger:      logger.NewLogger("remoteManifest"),
	}, nil
}

func (s *httpManifestService) FetchChildManifest(ctx context.Context, id types.EntryID, version *types.VersionInt) (manifest types.RemoteChildManifest, err error) {
	defer trace.StartRegion(ctx, "remote.FetchChildManifest").End()
	defer logFetchLatency(time.Now())
	defer func() { logFetchError(err) }()

	vlob, err := s.readVlob(ctx, id, version)
	if err != nil {
		return nil, err
	}

	expectVersion := types.VersionInt(vlob.Version)
	if version != nil && *version != expectVersion {
		return nil, &types.InvalidManifestError{EntryID: id, Version: expectVersion,
			Reason: fmt.Sprintf("server returned version %d instead of %d", expectVersion, *version)}
	}

	payload, err := s.envelope.open(id, expectVersion, vlob.Author, vlob.Blob)
	if err != nil {
		s.logger.Warnw("open manifest blob failed", "entry", id.String(), "version", expectVersion, "err", err)
		return nil, err
	}

	manifest, err = payload.toRemoteManifest()
	if err != nil {
		return nil, &types.InvalidManifestError{EntryID: id, Version: expectVersion, Reason: err.Error()}
	}
	if err = checkExpected(manifest.GetBase(), id, expectVersion, vlob.Author, vlob.Timestamp); err != nil {
		s.logger.Warnw("manifest does not match its vlob", "entry", id.String(), "err", err)
		return nil, err
	}
	return manifest, nil
}

func (s *httpManifestService) readVlob(ctx context.Context, id types.EntryID, version *types.VersionInt) (*vlobReadResponse, error) {
	query := url.Values{}
	if version != nil {
		query.Set("version", strconv.FormatUint(uint64(*version), 10))
	}
	query.Set("timestamp", s.now().UTC().Format(time.RFC3339Nano))
	reqURL := fmt.Sprintf("%s/vlob/%s?%s", s.endpoint, id.String(), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warnw("server unreachable", "entry", id.String(), "err", err)
		return nil, types.ErrOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		s.logger.Warnw("read response failed", "entry", id.String(), "err", err)
		return nil, types.ErrOffline
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, types.ErrNotAllowed
	case http.StatusNotFound:
		return nil, types.ErrNotFound
	case http.StatusConflict:
		return nil, types.ErrBadVersion
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, types.ErrOffline
	case http.StatusBadRequest:
		return nil, s.parseErrorResponse(body)
	default:
		return nil, types.NewInternalError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	vlob := &vlobReadResponse{}
	if err = json.Unmarshal(body, vlob); err != nil {
		return nil, types.NewInternalError(fmt.Errorf("decode vlob read response failed: %w", err))
	}
	if !vlob.ServerTimestamp.IsZero() {
		if err = checkBallpark(vlob.ServerTimestamp, s.now(), s.earlyOffset, s.lateOffset); err != nil {
			return nil, err
		}
	}
	return vlob, nil
}

func (s *httpManifestService) parseErrorResponse(body []byte) error {
	errResp := &errorResponse{}
	if err := json.Unmarshal(body, errResp); err != nil {
		return types.NewInternalError(fmt.Errorf("bad request: %s", strings.TrimSpace(string(body))))
	}
	if errResp.Status != statusBadTimestamp {
		return types.NewInternalError(fmt.Errorf("bad request: %s", errResp.Status))
	}
	return &types.BadTimestampError{
		ServerTimestamp:           errResp.ServerTimestamp,
		ClientTimestamp:           errResp.ClientTimestamp,
		BallparkClientEarlyOffset: errResp.BallparkClientEarlyOffset,
		BallparkClientLateOffset:  errResp.BallparkClientLateOffset,
	}
}

func checkExpected(base types.BaseManifest, id types.EntryID, version types.VersionInt, author string, timestamp time.Time) error {
	var reason string
	switch {
	case base.ID != id:
		reason = fmt.Sprintf("unexpected id %s", base.ID)
	case base.Version != version:
		reason = fmt.Sprintf("unexpected version %d", base.Version)
	case base.Author != author:
		reason = fmt.Sprintf("unexpected author %s", base.Author)
	case !base.Timestamp.Equal(timestamp):
		reason = fmt.Sprintf("unexpected timestamp %s", base.Timestamp.Format(time.RFC3339Nano))
	default:
		return nil
	}
	return &types.InvalidManifestError{EntryID: id, Version: version, Reason: reason}
}

func errorKind(err error) string {
	var badTS *types.BadTimestampError
	switch {
	case errors.Is(err, types.ErrOffline):
		return "offline"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	case errors.Is(err, types.ErrNotAllowed):
		return "not_allowed"
	case errors.Is(err, types.ErrBadVersion):
		return "bad_version"
	case errors.As(err, &badTS):
		return statusBadTimestamp
	case errors.Is(err, types.ErrInvalidCertificate):
		return "invalid_certificate"
	case errors.Is(err, types.ErrInvalidManifest):
		return "invalid_manifest"
	default:
		return "internal"
	}
}
