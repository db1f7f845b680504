package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// CrawlerService 抓取网页并提取摘要
type CrawlerService struct {
	client *http.Client
}

func NewCrawlerService(timeout time.Duration) *CrawlerService {
	return &CrawlerService{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchExcerpt downloads pageURL and returns readability's plain-text excerpt.
func (s *CrawlerService) FetchExcerpt(ctx context.Context, pageURL string) (string, error) {
	parsed, err := nurl.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "EchoNewsBot/1.0 (+feed import)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, 5<<20)
	article, err := readability.FromReader(body, parsed)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = strings.TrimSpace(article.TextContent)
	}
	return excerpt, nil
}

// FetchWithFallback 抓取失败时返回空字符串
func (s *CrawlerService) FetchWithFallback(ctx context.Context, pageURL string) string {
	excerpt, err := s.FetchExcerpt(ctx, pageURL)
	if err != nil {
		return ""
	}
	return excerpt
}
