package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyPublisher publishes events on a Valkey pub/sub channel so that
// notification workers in other processes can pick them up
type ValkeyPublisher struct {
	client  valkey.Client
	channel string
}

// NewValkeyPublisher connects to Valkey and verifies the connection
func NewValkeyPublisher(addr, channel string) (*ValkeyPublisher, error) {
	if channel == "" {
		return nil, fmt.Errorf("valkey channel is required")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	slog.Info("Initialized Valkey notifier", "address", addr, "channel", channel)
	return &ValkeyPublisher{client: client, channel: channel}, nil
}

// Publish serializes the event and sends it to the configured channel
func (p *ValkeyPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	cmd := p.client.B().Publish().Channel(p.channel).Message(string(payload)).Build()
	if err := p.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish event to Valkey: %w", err)
	}

	slog.Debug("Event published", "type", event.Type, "channel", p.channel)
	return nil
}

// Close closes the Valkey client
func (p *ValkeyPublisher) Close() error {
	p.client.Close()
	slog.Info("Valkey notifier closed")
	return nil
}
