// ABOUTME: Typed client for the twitterapi.io search API with cursor pagination.
// ABOUTME: Covers advanced search, user last tweets, followings, and concurrent batch user search.

package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.twitterapi.io"

// maxPageSize is the largest page the followings endpoint accepts.
const maxPageSize = 200

// timeRangePattern is the exact timestamp format the search API accepts in
// since:/until: operators.
var timeRangePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}:\d{2}:\d{2}_UTC$`)

// User is the twitterapi.io user shape, reduced to the fields the tools
// surface.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	UserName       string `json:"userName"`
	Description    string `json:"description,omitempty"`
	Location       string `json:"location,omitempty"`
	Followers      int    `json:"followers,omitempty"`
	Following      int    `json:"following,omitempty"`
	IsBlueVerified bool   `json:"isBlueVerified,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Tweet is the twitterapi.io tweet shape, reduced to the fields the tools
// surface.
type Tweet struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Text         string `json:"text"`
	Lang         string `json:"lang,omitempty"`
	CreatedAt    string `json:"createdAt"`
	Author       *User  `json:"author,omitempty"`
	RetweetCount int    `json:"retweetCount"`
	ReplyCount   int    `json:"replyCount"`
	LikeCount    int    `json:"likeCount"`
	QuoteCount   int    `json:"quoteCount"`
	ViewCount    int    `json:"viewCount,omitempty"`
}

// APIError is a non-200 response or an error status from twitterapi.io.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitterapi.io request failed (status %d): %s", e.StatusCode, e.Message)
}

// Service calls twitterapi.io. The API key is sent as the X-API-Key header on
// every request.
type Service struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Service.
type Option func(*Service)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(base string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// NewService builds a twitterapi.io client.
func NewService(apiKey string, opts ...Option) *Service {
	s := &Service{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// get performs one API request and decodes the JSON body into out.
func (s *Service) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

// GetFollowings returns up to maxResults accounts that username follows,
// paging through the followings endpoint 200 at a time.
func (s *Service) GetFollowings(ctx context.Context, username string, maxResults int) ([]User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if maxResults <= 0 {
		maxResults = 1000
	}

	var users []User
	cursor := ""
	for len(users) < maxResults {
		pageSize := maxPageSize
		if remaining := maxResults - len(users); remaining < pageSize {
			pageSize = remaining
		}

		params := url.Values{}
		params.Set("userName", username)
		params.Set("cursor", cursor)
		params.Set("pageSize", strconv.Itoa(pageSize))

		var page struct {
			Status      string `json:"status"`
			Message     string `json:"message"`
			Followings  []User `json:"followings"`
			HasNextPage bool   `json:"has_next_page"`
			NextCursor  string `json:"next_cursor"`
		}
		if err := s.get(ctx, "/twitter/user/followings", params, &page); err != nil {
			return nil, err
		}
		if page.Status != "success" {
			return nil, &APIError{StatusCode: http.StatusOK, Message: page.Message}
		}

		users = append(users, page.Followings...)
		if !page.HasNextPage || len(page.Followings) == 0 || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return users, nil
}

// GetUserLastTweets returns up to maxResults of a user's most recent tweets,
// newest first. Either userID or username must be set; userID wins when both
// are given.
func (s *Service) GetUserLastTweets(ctx context.Context, userID, username string, includeReplies bool, maxResults int) ([]Tweet, error) {
	if userID == "" && username == "" {
		return nil, fmt.Errorf("either userID or username is required")
	}
	if maxResults <= 0 {
		maxResults = 1000
	}

	var tweets []Tweet
	cursor := ""
	for len(tweets) < maxResults {
		params := url.Values{}
		params.Set("cursor", cursor)
		params.Set("includeReplies", strconv.FormatBool(includeReplies))
		if userID != "" {
			params.Set("userId", userID)
		} else {
			params.Set("userName", username)
		}

		var page struct {
			Status  string `json:"status"`
			Message string `json:"message"`
			Data    struct {
				Tweets []Tweet `json:"tweets"`
			} `json:"data"`
			HasNextPage bool   `json:"has_next_page"`
			NextCursor  string `json:"next_cursor"`
		}
		if err := s.get(ctx, "/twitter/user/last_tweets", params, &page); err != nil {
			return nil, err
		}
		if page.Status != "success" {
			return nil, &APIError{StatusCode: http.StatusOK, Message: page.Message}
		}

		tweets = append(tweets, page.Data.Tweets...)
		if !page.HasNextPage || len(page.Data.Tweets) == 0 || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(tweets) > maxResults {
		tweets = tweets[:maxResults]
	}
	return tweets, nil
}

// AdvancedSearch runs a Twitter advanced-search query. queryType is "Latest"
// or "Top". Unlike last_tweets, this endpoint returns tweets at the top level
// of the response.
func (s *Service) AdvancedSearch(ctx context.Context, query, queryType string, maxResults int) ([]Tweet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if queryType == "" {
		queryType = "Latest"
	}
	if queryType != "Latest" && queryType != "Top" {
		return nil, fmt.Errorf("invalid query type %q: must be Latest or Top", queryType)
	}
	if maxResults <= 0 {
		maxResults = 1000
	}

	var tweets []Tweet
	cursor := ""
	for len(tweets) < maxResults {
		params := url.Values{}
		params.Set("query", query)
		params.Set("queryType", queryType)
		params.Set("cursor", cursor)

		var page struct {
			Tweets      []Tweet `json:"tweets"`
			HasNextPage bool    `json:"has_next_page"`
			NextCursor  string  `json:"next_cursor"`
		}
		if err := s.get(ctx, "/twitter/tweet/advanced_search", params, &page); err != nil {
			return nil, err
		}

		tweets = append(tweets, page.Tweets...)
		if !page.HasNextPage || len(page.Tweets) == 0 || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(tweets) > maxResults {
		tweets = tweets[:maxResults]
	}
	return tweets, nil
}

// BatchUserResult is the outcome of one batch search, tweets grouped per user.
type BatchUserResult struct {
	UserResults     map[string][]Tweet `json:"user_results"`
	SuccessfulUsers []string           `json:"successful_users"`
	FailedUsers     []string           `json:"failed_users"`
	TotalTweets     int                `json:"total_tweets"`
	StartTime       string             `json:"start_time"`
	EndTime         string             `json:"end_time"`
}

// BatchSearchUsers searches each user's tweets within [startTime, endTime]
// concurrently. Times must be in YYYY-MM-DD_HH:MM:SS_UTC form. Per-user
// failures are recorded, never fatal to the batch.
func (s *Service) BatchSearchUsers(ctx context.Context, usernames []string, startTime, endTime string, perUser int) (BatchUserResult, error) {
	result := BatchUserResult{
		UserResults: make(map[string][]Tweet),
		StartTime:   startTime,
		EndTime:     endTime,
	}
	if len(usernames) == 0 {
		return result, fmt.Errorf("at least one username is required")
	}
	if !timeRangePattern.MatchString(startTime) {
		return result, fmt.Errorf("start time %q must match YYYY-MM-DD_HH:MM:SS_UTC", startTime)
	}
	if !timeRangePattern.MatchString(endTime) {
		return result, fmt.Errorf("end time %q must match YYYY-MM-DD_HH:MM:SS_UTC", endTime)
	}
	if perUser <= 0 {
		perUser = 20
	}

	type userOutcome struct {
		username string
		tweets   []Tweet
		err      error
	}

	outcomes := make([]userOutcome, len(usernames))
	var wg sync.WaitGroup
	for i, username := range usernames {
		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			query := fmt.Sprintf("from:%s since:%s until:%s", username, startTime, endTime)
			tweets, err := s.AdvancedSearch(ctx, query, "Latest", perUser)
			outcomes[i] = userOutcome{username: username, tweets: tweets, err: err}
		}(i, username)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.err != nil {
			result.FailedUsers = append(result.FailedUsers, o.username)
			continue
		}
		result.UserResults[o.username] = o.tweets
		result.SuccessfulUsers = append(result.SuccessfulUsers, o.username)
		result.TotalTweets += len(o.tweets)
	}
	return result, nil
}
