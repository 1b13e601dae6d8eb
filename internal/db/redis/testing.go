package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an existing (mock) client in a Store.
func NewStoreForTest(client rueidis.Client) *Store {
	return &Store{client: client}
}
