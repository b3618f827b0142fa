package testutil

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const redisPort nat.Port = "6379/tcp"

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// GetRedisAddress starts a shared redis:7-alpine container on first use and
// returns its host:port for the snapshot store tests.
func GetRedisAddress(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)
	startRedisOnce(t)
	requireContainer(t, "redis", redisErr)
	return redisAddr
}

func startRedisOnce(t *testing.T) {
	t.Helper()

	redisOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		redisC, err := testcontainers.Run(
			ctx, "redis:7-alpine",
			testcontainers.WithExposedPorts(string(redisPort)),
			testcontainers.WithWaitStrategy(
				wait.ForAll(
					wait.ForListeningPort(redisPort),
					wait.ForLog("Ready to accept connections"),
				).WithDeadline(time.Minute),
			),
		)
		if err != nil {
			redisErr = err
			return
		}
		t.Cleanup(func() {
			testcontainers.CleanupContainer(t, redisC)
		})

		host, err := redisC.Host(ctx)
		if err != nil {
			redisErr = err
			return
		}
		port, err := redisC.MappedPort(ctx, redisPort)
		if err != nil {
			redisErr = err
			return
		}
		redisAddr = net.JoinHostPort(host, port.Port())
	})
}
