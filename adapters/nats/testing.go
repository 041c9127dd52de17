package nats

import (
	"context"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Testing interface {
	require.TestingT
	Context() context.Context
	Logf(format string, args ...any)
	Skipf(format string, args ...any)
	Cleanup(func())
}

// NewTestContainer starts a NATS server in a container and returns a
// Connector for it. The test is skipped when no container provider is
// available.
func NewTestContainer(t Testing) Connector {
	ctx := t.Context()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		t.Skipf("no container provider: %s", err)
	}
	if err := provider.Health(ctx); err != nil {
		_ = provider.Close()
		t.Skipf("container provider unhealthy: %s", err)
	}
	_ = provider.Close()

	natsC, err := testcontainers.Run(
		ctx, "nats:latest",
		testcontainers.WithExposedPorts("4222/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("4222/tcp"),
			wait.ForLog("Server is ready"),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(natsC); err != nil {
			t.Errorf("failed to terminate container: %s", err.Error())
		}
	})

	endpoint, err := natsC.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)
	t.Logf("nats endpoint: %s", endpoint)
	return ConnectURL(endpoint)
}
