package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/pkg/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultCacheTTL = 10 * time.Minute

type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader, opts campaign.Options) (campaign.Report, error)
}

// CachingAnalyzer memoizes reports by upload content and options. Identical
// uploads in flight at the same time are analyzed once.
type CachingAnalyzer struct {
	next    Analyzer
	cache   cache.Cacher
	logger  *zap.Logger
	sfGroup singleflight.Group
	ttl     time.Duration
}

func NewCachingAnalyzer(next Analyzer, c cache.Cacher, logger *zap.Logger, ttl time.Duration) *CachingAnalyzer {
	if next == nil {
		panic("nil Analyzer provided to NewCachingAnalyzer")
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachingAnalyzer{
		next:   next,
		cache:  c,
		logger: logger.Named("report-cache"),
		ttl:    ttl,
	}
}

// ReportKey identifies a report by the SHA-256 of the upload and the options
// that shape it.
func ReportKey(content []byte, opts campaign.Options) string {
	sum := sha256.Sum256(content)
	size := opts.LeaderboardSize
	if size == 0 {
		size = campaign.DefaultLeaderboardSize
	}
	return fmt.Sprintf("report:v1:%s:%d:%d", hex.EncodeToString(sum[:]), opts.MinSessions, size)
}

// AnalyzeBytes returns the report for content, from cache when possible.
func (c *CachingAnalyzer) AnalyzeBytes(ctx context.Context, content []byte, opts campaign.Options) (campaign.Report, error) {
	key := ReportKey(content, opts)
	return cache.FindAndCache(ctx, c.cache, &c.sfGroup, key, c.ttl, c.logger, func(fetchCtx context.Context) (campaign.Report, error) {
		return c.next.Analyze(fetchCtx, bytes.NewReader(content), opts)
	})
}
