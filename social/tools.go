// ABOUTME: Exposes the twitterapi.io client as llm.Tool values with JSON-schema parameters.
// ABOUTME: Each execution gets a uuid correlation ID so tool calls can be traced in logs.

package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/tintlab/tint/llm"
)

// getStringArg extracts a string argument from a map, returning an error if missing or wrong type.
func getStringArg(args map[string]any, key string, required bool) (string, error) {
	val, ok := args[key]
	if !ok || val == nil {
		if required {
			return "", fmt.Errorf("missing required parameter: %s", key)
		}
		return "", nil
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string, got %T", key, val)
	}
	return s, nil
}

// getIntArg extracts an integer argument from a map, handling JSON float64 encoding.
func getIntArg(args map[string]any, key string, defaultVal int) (int, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal, nil
	}
	switch v := val.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("parameter %s must be an integer: %w", key, err)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number, got %T", key, val)
	}
}

// getBoolArg extracts a boolean argument from a map.
func getBoolArg(args map[string]any, key string, defaultVal bool) (bool, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal, nil
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %s must be a boolean, got %T", key, val)
	}
	return b, nil
}

// getStringListArg extracts a list-of-strings argument.
func getStringListArg(args map[string]any, key string) ([]string, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return nil, fmt.Errorf("missing required parameter: %s", key)
	}
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter %s must be an array of strings, got %T", key, val)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %s must contain only strings, got %T", key, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// toolJSON renders a tool result as indented JSON for the model.
func toolJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(data), nil
}

// Tools returns the Twitter search toolset backed by svc.
func Tools(svc *Service) []llm.Tool {
	return []llm.Tool{
		newAdvancedSearchTool(svc),
		newUserFollowingTool(svc),
		newUserLastTweetsTool(svc),
		newBatchUserSearchTool(svc),
	}
}

func newAdvancedSearchTool(svc *Service) llm.Tool {
	return llm.Tool{
		Name:        "twitter_tweet_advance_search",
		Description: "Search for tweets using Twitter advanced search syntax. Supports keywords, from:user, hashtags, and time ranges. Time ranges MUST use the exact format YYYY-MM-DD_HH:MM:SS_UTC (e.g. since:2024-01-01_00:00:00_UTC until:2024-01-31_23:59:59_UTC).",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Twitter advanced search query, e.g. 'from:nasa AI since:2024-01-01_00:00:00_UTC'"
				},
				"query_type": {
					"type": "string",
					"enum": ["Latest", "Top"],
					"description": "Whether to return the latest or the top tweets. Defaults to Latest."
				},
				"max_results": {
					"type": "integer",
					"description": "Maximum number of tweets to return. Defaults to 100."
				}
			},
			"required": ["query"]
		}`),
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			callID := uuid.NewString()

			query, err := getStringArg(args, "query", true)
			if err != nil {
				return "", err
			}
			queryType, err := getStringArg(args, "query_type", false)
			if err != nil {
				return "", err
			}
			maxResults, err := getIntArg(args, "max_results", 100)
			if err != nil {
				return "", err
			}

			log.Printf("[%s] advanced search: query=%q type=%s max=%d", callID, query, queryType, maxResults)
			tweets, err := svc.AdvancedSearch(ctx, query, queryType, maxResults)
			if err != nil {
				log.Printf("[%s] advanced search failed: %v", callID, err)
				return "", err
			}
			return toolJSON(map[string]any{"tweets": tweets, "count": len(tweets)})
		},
	}
}

func newUserFollowingTool(svc *Service) llm.Tool {
	return llm.Tool{
		Name:        "twitter_get_user_following",
		Description: "Get the list of usernames that a specified Twitter user is following. Returns usernames without the @ symbol.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {
					"type": "string",
					"description": "The Twitter username to query (without @ symbol), e.g. 'nasa'"
				},
				"max_results": {
					"type": "integer",
					"description": "Maximum number of followed accounts to return. Defaults to 1000."
				}
			},
			"required": ["username"]
		}`),
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			callID := uuid.NewString()

			username, err := getStringArg(args, "username", true)
			if err != nil {
				return "", err
			}
			maxResults, err := getIntArg(args, "max_results", 1000)
			if err != nil {
				return "", err
			}

			log.Printf("[%s] get followings: user=%s max=%d", callID, username, maxResults)
			users, err := svc.GetFollowings(ctx, username, maxResults)
			if err != nil {
				log.Printf("[%s] get followings failed: %v", callID, err)
				return "", err
			}

			usernames := make([]string, 0, len(users))
			for _, u := range users {
				if u.UserName != "" {
					usernames = append(usernames, u.UserName)
				}
			}
			return toolJSON(map[string]any{"usernames": usernames, "count": len(usernames)})
		},
	}
}

func newUserLastTweetsTool(svc *Service) llm.Tool {
	return llm.Tool{
		Name:        "twitter_get_user_last_tweets",
		Description: "Get the most recent tweets of a Twitter user, sorted newest first. Provide user_id when known (faster and more stable than username).",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"user_id": {
					"type": "string",
					"description": "The numeric Twitter user ID. Preferred over username when available."
				},
				"username": {
					"type": "string",
					"description": "The Twitter username (without @ symbol). Ignored when user_id is provided."
				},
				"include_replies": {
					"type": "boolean",
					"description": "Whether replies are included. Defaults to false."
				},
				"max_results": {
					"type": "integer",
					"description": "Maximum number of tweets to return. Defaults to 100."
				}
			},
			"required": []
		}`),
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			callID := uuid.NewString()

			userID, err := getStringArg(args, "user_id", false)
			if err != nil {
				return "", err
			}
			username, err := getStringArg(args, "username", false)
			if err != nil {
				return "", err
			}
			includeReplies, err := getBoolArg(args, "include_replies", false)
			if err != nil {
				return "", err
			}
			maxResults, err := getIntArg(args, "max_results", 100)
			if err != nil {
				return "", err
			}

			log.Printf("[%s] last tweets: user_id=%q username=%q replies=%t max=%d", callID, userID, username, includeReplies, maxResults)
			tweets, err := svc.GetUserLastTweets(ctx, userID, username, includeReplies, maxResults)
			if err != nil {
				log.Printf("[%s] last tweets failed: %v", callID, err)
				return "", err
			}
			return toolJSON(map[string]any{"tweets": tweets, "count": len(tweets)})
		},
	}
}

func newBatchUserSearchTool(svc *Service) llm.Tool {
	return llm.Tool{
		Name:        "twitter_batch_user_search",
		Description: "Batch search for tweets from multiple users within a time range, queried concurrently. start_time and end_time MUST be in the exact format YYYY-MM-DD_HH:MM:SS_UTC; use 00:00:00 when no specific time is meant.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"usernames": {
					"type": "array",
					"items": {"type": "string"},
					"description": "List of Twitter usernames to search (without @ symbol)"
				},
				"start_time": {
					"type": "string",
					"description": "Start time in YYYY-MM-DD_HH:MM:SS_UTC format, e.g. '2024-01-01_00:00:00_UTC'"
				},
				"end_time": {
					"type": "string",
					"description": "End time in YYYY-MM-DD_HH:MM:SS_UTC format, e.g. '2024-01-31_23:59:59_UTC'"
				},
				"per_user": {
					"type": "integer",
					"description": "Maximum tweets per user. Defaults to 20."
				}
			},
			"required": ["usernames", "start_time", "end_time"]
		}`),
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			callID := uuid.NewString()

			usernames, err := getStringListArg(args, "usernames")
			if err != nil {
				return "", err
			}
			startTime, err := getStringArg(args, "start_time", true)
			if err != nil {
				return "", err
			}
			endTime, err := getStringArg(args, "end_time", true)
			if err != nil {
				return "", err
			}
			perUser, err := getIntArg(args, "per_user", 20)
			if err != nil {
				return "", err
			}

			log.Printf("[%s] batch user search: users=%d window=%s..%s per_user=%d", callID, len(usernames), startTime, endTime, perUser)
			result, err := svc.BatchSearchUsers(ctx, usernames, startTime, endTime, perUser)
			if err != nil {
				log.Printf("[%s] batch user search failed: %v", callID, err)
				return "", err
			}
			return toolJSON(result)
		},
	}
}
