package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type receiptFetcher func(ctx context.Context, hash common.Hash) (*types.Receipt, error)

// waitMined polls fetch until a receipt shows up. ethereum.NotFound means
// "not mined yet"; any other error ends the wait. When timeout is positive the
// wait is bounded and expiry yields an error wrapping context.DeadlineExceeded.
func waitMined(ctx context.Context, fetch receiptFetcher, hash common.Hash, timeout, interval time.Duration) (*types.Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := fetch(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("waiting for receipt of %s: %w", hash.Hex(), ctx.Err())
			}
			return nil, fmt.Errorf("failed to fetch receipt of %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt of %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
