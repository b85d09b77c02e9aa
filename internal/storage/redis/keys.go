package redis

import (
	"fmt"

	"github.com/mcoot/triviaduel/internal/model"
)

// Key prefix for all trivia data
const keyPrefix = "trivia"

// matchKey returns the Redis key for a Match
func matchKey(id model.GameID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchScanPattern matches every match key
func matchScanPattern() string {
	return fmt.Sprintf("%s:match:*", keyPrefix)
}

// questionsKey returns the Redis key for a category's question list
func questionsKey(category model.Category) string {
	return fmt.Sprintf("%s:questions:%s", keyPrefix, category)
}

// resultsKey returns the Redis key for the recent results LIST
func resultsKey() string {
	return fmt.Sprintf("%s:results", keyPrefix)
}
