package storage

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	testcontainers "github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:7.2-alpine"

// redisStore connects a RedisStore to a throwaway server. The test is
// skipped when no container runtime can be reached.
func redisStore(t *testing.T) *RedisStore {
	t.Helper()
	ctx := context.Background()

	var srv *rediscontainer.RedisContainer
	err := containerCall(func() error {
		p, err := testcontainers.ProviderDocker.GetProvider()
		if err != nil {
			return err
		}
		defer p.Close()
		if err := p.Health(ctx); err != nil {
			return err
		}
		srv, err = rediscontainer.Run(ctx, redisImage)
		return err
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = srv.Terminate(context.Background()) })

	endpoint, err := srv.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		t.Fatalf("redis endpoint %q: %v", endpoint, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("redis port %q: %v", portStr, err)
	}

	store, err := NewRedisStore(&RedisConfig{Host: host, Port: port, DialTimeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// containerCall runs fn and turns a panic into an error. Docker host
// discovery panics on machines without a Docker socket.
func containerCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime: %v", r)
		}
	}()
	return fn()
}

func TestContainerCall(t *testing.T) {
	err := containerCall(func() error { panic("rootless Docker not found") })
	if err == nil {
		t.Fatal("panic was not turned into an error")
	}

	want := fmt.Errorf("unhealthy")
	if err := containerCall(func() error { return want }); err != want {
		t.Errorf("containerCall() = %v, want %v", err, want)
	}
	if err := containerCall(func() error { return nil }); err != nil {
		t.Errorf("containerCall() = %v, want nil", err)
	}
}
