package lifecycle

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// SessionAuthenticatedMessage is published to a device group when a
// session authenticates elsewhere on that device.
const SessionAuthenticatedMessage = `{"type":"event.session.authenticated"}`

// DefaultPublishTimeout bounds how long a publish may hold the login path.
const DefaultPublishTimeout = 2 * time.Second

// Notifier publishes fire-and-forget realtime events over pub/sub. Each
// publish is a single bounded call; delivery guarantees belong to the
// transport.
type Notifier struct {
	client  redis.UniversalClient
	timeout time.Duration
}

func NewNotifier(client redis.UniversalClient) *Notifier {
	return &Notifier{
		client:  client,
		timeout: DefaultPublishTimeout,
	}
}

func (n *Notifier) WithPublishTimeout(timeout time.Duration) *Notifier {
	if timeout > 0 {
		n.timeout = timeout
	}
	return n
}

// DeviceAuthenticated tells live connections on the device that a session
// was authenticated elsewhere.
func (n *Notifier) DeviceAuthenticated(ctx context.Context, deviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err := n.client.Publish(ctx, BuildDeviceGroup(deviceID), SessionAuthenticatedMessage).Err()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "device notification publish failed")
	}
	return nil
}
