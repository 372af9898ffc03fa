// ABOUTME: Tests for the twitterapi.io client: headers, pagination, page sizing, and error mapping.
// ABOUTME: Uses httptest servers scripted per endpoint.

package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestGetFollowingsPaginatesAndSendsAPIKey(t *testing.T) {
	var requests []struct {
		cursor   string
		pageSize int
		apiKey   string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/twitter/user/followings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		requests = append(requests, struct {
			cursor   string
			pageSize int
			apiKey   string
		}{r.URL.Query().Get("cursor"), pageSize, r.Header.Get("X-API-Key")})

		page := len(requests)
		users := make([]User, 0, pageSize)
		for i := 0; i < pageSize; i++ {
			users = append(users, User{UserName: fmt.Sprintf("user_%d_%d", page, i)})
		}
		resp := map[string]any{
			"status":        "success",
			"followings":    users,
			"has_next_page": page < 2,
			"next_cursor":   fmt.Sprintf("cursor-%d", page),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewService("secret-key", WithBaseURL(server.URL))
	users, err := svc.GetFollowings(context.Background(), "nasa", 250)
	if err != nil {
		t.Fatalf("GetFollowings returned error: %v", err)
	}

	if len(users) != 250 {
		t.Errorf("users = %d, want 250", len(users))
	}
	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(requests))
	}
	// First page capped at the API maximum, second asks only for the remainder.
	if requests[0].pageSize != 200 {
		t.Errorf("first pageSize = %d, want 200", requests[0].pageSize)
	}
	if requests[1].pageSize != 50 {
		t.Errorf("second pageSize = %d, want 50", requests[1].pageSize)
	}
	if requests[1].cursor != "cursor-1" {
		t.Errorf("second cursor = %q, want cursor-1", requests[1].cursor)
	}
	for i, req := range requests {
		if req.apiKey != "secret-key" {
			t.Errorf("request %d X-API-Key = %q", i, req.apiKey)
		}
	}
}

func TestGetUserLastTweetsUsesNestedData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("userId"); got != "123" {
			t.Errorf("userId = %q, want 123 (preferred over username)", got)
		}
		resp := map[string]any{
			"status": "success",
			"data": map[string]any{
				"tweets": []Tweet{{ID: "t1", Text: "hello"}, {ID: "t2", Text: "world"}},
			},
			"has_next_page": false,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewService("k", WithBaseURL(server.URL))
	tweets, err := svc.GetUserLastTweets(context.Background(), "123", "ignored", false, 100)
	if err != nil {
		t.Fatalf("GetUserLastTweets returned error: %v", err)
	}
	if len(tweets) != 2 || tweets[0].ID != "t1" {
		t.Errorf("tweets = %+v", tweets)
	}
}

func TestGetUserLastTweetsRequiresIdentity(t *testing.T) {
	svc := NewService("k")
	if _, err := svc.GetUserLastTweets(context.Background(), "", "", false, 10); err == nil {
		t.Error("accepted call without userID or username")
	}
}

func TestAdvancedSearchTopLevelTweets(t *testing.T) {
	var queryType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queryType = r.URL.Query().Get("queryType")
		resp := map[string]any{
			"tweets":        []Tweet{{ID: "t1", Text: "found"}},
			"has_next_page": false,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewService("k", WithBaseURL(server.URL))
	tweets, err := svc.AdvancedSearch(context.Background(), "from:nasa", "", 10)
	if err != nil {
		t.Fatalf("AdvancedSearch returned error: %v", err)
	}
	if len(tweets) != 1 {
		t.Errorf("tweets = %d, want 1", len(tweets))
	}
	if queryType != "Latest" {
		t.Errorf("queryType = %q, want default Latest", queryType)
	}
}

func TestAdvancedSearchValidatesQueryType(t *testing.T) {
	svc := NewService("k")
	if _, err := svc.AdvancedSearch(context.Background(), "q", "Newest", 10); err == nil {
		t.Error("accepted invalid query type")
	}
	if _, err := svc.AdvancedSearch(context.Background(), "  ", "Latest", 10); err == nil {
		t.Error("accepted empty query")
	}
}

func TestNon200ResponseIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewService("bad-key", WithBaseURL(server.URL))
	_, err := svc.AdvancedSearch(context.Background(), "q", "Latest", 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

func TestErrorStatusBodyIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "user not found"})
	}))
	defer server.Close()

	svc := NewService("k", WithBaseURL(server.URL))
	_, err := svc.GetFollowings(context.Background(), "ghost", 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
}

func TestBatchSearchUsersIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "from:broken since:2024-01-01_00:00:00_UTC until:2024-01-31_23:59:59_UTC" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		resp := map[string]any{
			"tweets":        []Tweet{{ID: "t1", Text: query}},
			"has_next_page": false,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewService("k", WithBaseURL(server.URL))
	result, err := svc.BatchSearchUsers(context.Background(),
		[]string{"alice", "broken", "bob"},
		"2024-01-01_00:00:00_UTC", "2024-01-31_23:59:59_UTC", 20)
	if err != nil {
		t.Fatalf("BatchSearchUsers returned error: %v", err)
	}

	if len(result.SuccessfulUsers) != 2 {
		t.Errorf("successful = %v, want 2 users", result.SuccessfulUsers)
	}
	if len(result.FailedUsers) != 1 || result.FailedUsers[0] != "broken" {
		t.Errorf("failed = %v, want [broken]", result.FailedUsers)
	}
	if result.TotalTweets != 2 {
		t.Errorf("TotalTweets = %d, want 2", result.TotalTweets)
	}
}

func TestBatchSearchUsersValidatesTimeFormat(t *testing.T) {
	svc := NewService("k")
	_, err := svc.BatchSearchUsers(context.Background(), []string{"a"}, "2024-01-01", "2024-01-31_23:59:59_UTC", 20)
	if err == nil {
		t.Error("accepted malformed start time")
	}
	_, err = svc.BatchSearchUsers(context.Background(), []string{"a"}, "2024-01-01_00:00:00_UTC", "Jan 31", 20)
	if err == nil {
		t.Error("accepted malformed end time")
	}
	_, err = svc.BatchSearchUsers(context.Background(), nil, "2024-01-01_00:00:00_UTC", "2024-01-31_23:59:59_UTC", 20)
	if err == nil {
		t.Error("accepted empty username list")
	}
}
