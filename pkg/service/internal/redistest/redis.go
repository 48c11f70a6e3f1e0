// Package redistest implements support code for testing with Redis.
package redistest

import (
	"context"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCredentials holds the credentials for connecting to Redis.
type RedisCredentials struct {
	Username string
	Password string
	IP       string
}

// GetCredentials gets the Redis credentials from environment variables.
func GetCredentials() (rc RedisCredentials, ok bool) {
	u := os.Getenv("REDIS_USER")
	p := os.Getenv("REDIS_PASS")
	i := os.Getenv("REDIS_IP")
	if len(i) > 0 {
		return RedisCredentials{
			Username: u,
			Password: p,
			IP:       i,
		}, true
	}
	return RedisCredentials{}, false
}

// Connect connects to Redis and returns the Client object.
//
// The test is skipped if no Redis address is configured. The client is
// closed when the test finishes.
func Connect(t *testing.T) *redis.Client {
	creds, ok := GetCredentials()
	if !ok {
		t.Skip("Missing Redis credentials")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         creds.IP,
		Username:     creds.Username,
		Password:     creds.Password,
		DB:           0,
		MaxRetries:   -1,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Key returns a key that is unique to the test and removes it from Redis
// when the test finishes.
func Key(t *testing.T, c *redis.Client) string {
	key := t.Name() + ":" + strconv.Itoa(rand.Int())
	t.Cleanup(func() { c.Del(context.Background(), key) })
	return key
}
