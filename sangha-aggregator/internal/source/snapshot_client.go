package source

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sangha/sangha-common/domain"
)

const (
	snapshotPath  = "/api/v1/members/snapshot"
	resultSuccess = 2000
)

// SnapshotSource yields the current member snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// snapshotResponse mirrors the sangha-data result envelope.
type snapshotResponse struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  domain.Snapshot `json:"result"`
}

// DataClient fetches snapshots from the sangha-data HTTP API.
type DataClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewDataClient creates a client for the sangha-data service at baseURL.
func NewDataClient(baseURL string, timeout time.Duration, logger *zap.Logger) *DataClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &DataClient{httpClient: client, logger: logger}
}

// Snapshot implements SnapshotSource.
func (c *DataClient) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	var response snapshotResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		ForceContentType("application/json").
		Get(snapshotPath)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	if resp.IsError() {
		return domain.Snapshot{}, fmt.Errorf("fetch snapshot: unexpected status %d", resp.StatusCode())
	}
	if response.Code != resultSuccess {
		return domain.Snapshot{}, fmt.Errorf("fetch snapshot: %s (code: %d)", response.Message, response.Code)
	}

	c.logger.Debug("Fetched member snapshot",
		zap.String("epoch", response.Result.Epoch),
		zap.Uint64("revision", response.Result.Revision),
		zap.Int("member_count", len(response.Result.Members)),
	)
	return response.Result, nil
}
