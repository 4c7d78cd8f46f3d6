package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRabbitMQ(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("rabbitmq container skipped in short mode")
	}
	if url := os.Getenv("TEST_RABBITMQ_URL"); url != "" {
		return url
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "guest",
			"RABBITMQ_DEFAULT_PASS": "guest",
		},
		WaitingFor: wait.ForListeningPort("5672/tcp").
			WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestSetupChannel_PublishToReminderQueue(t *testing.T) {
	url := setupRabbitMQ(t)
	ctx := context.Background()

	conn, err := Connect(ctx, url, 5, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := SetupChannel(conn, GetNotificationQueues())
	require.NoError(t, err)
	defer ch.Close()

	msg := map[string]string{"medicationId": "m-1", "time": "08:00"}
	require.NoError(t, PublishMessage(ch, ExchangeName, ReminderRoutingKey, msg))

	deliveries, err := ch.Consume("notifications.reminder", "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got map[string]string
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, msg, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message via exchange")
	}
}
