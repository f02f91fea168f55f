package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"MealVote-Backend/internal/utils"
)

type (
	// Searcher resolves a recipe title to a watchable video link.
	// Lookups are best-effort; callers treat any failure as "no video".
	Searcher interface {
		Search(ctx context.Context, query string) (string, error)
	}

	youtubeClient struct {
		apiKey     string
		httpClient *http.Client
	}
)

func NewYouTubeClient() (Searcher, error) {
	apiKey := utils.GetConfig("YOUTUBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY configuration not set")
	}

	return &youtubeClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (y *youtubeClient) Search(ctx context.Context, query string) (string, error) {
	searchURL, err := url.Parse("https://www.googleapis.com/youtube/v3/search")
	if err != nil {
		return "", err
	}

	params := searchURL.Query()
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("order", "relevance")
	params.Set("key", y.apiKey)
	searchURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("youtube API error: %s", resp.Status)
	}

	var searchResp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return "", err
	}

	if len(searchResp.Items) == 0 {
		return "", nil
	}

	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", searchResp.Items[0].ID.VideoID), nil
}
