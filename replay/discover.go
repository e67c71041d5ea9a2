package replay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)

	httpClient = &http.Client{Timeout: 30 * time.Second}
)

// PlayerGames fetches game IDs from a player's stats page, most recent first
// as the page lists them.
func PlayerGames(ctx context.Context, statsURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "snekbasic-replay/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return parseGameIDs(resp.Body)
}

func parseGameIDs(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var gameIDs []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		matches := gameIDRe.FindStringSubmatch(href)
		if len(matches) >= 2 && !seen[matches[1]] {
			seen[matches[1]] = true
			gameIDs = append(gameIDs, matches[1])
		}
	})
	return gameIDs, nil
}
