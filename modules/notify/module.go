package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the notify action, which pushes a
// Socket.IO event to a listening service when a workflow milestone is
// reached.
type Input struct {
	URL       string    `flow:"url"`
	Namespace string    `flow:"namespace,optional"`
	Event     string    `flow:"event"`
	Payload   cty.Value `flow:"payload,optional"`

	// AckEvent, when set, makes the action wait for this event back from the
	// server before reporting success.
	AckEvent           string `flow:"ack_event,optional"`
	Timeout            string `flow:"timeout,optional"`
	InsecureSkipVerify bool   `flow:"insecure_skip_verify,optional"`
}

// opResult passes the listener outcome through the done channel.
type opResult struct {
	response any
	err      error
}

// OnRunNotify connects, emits the event and, if an ack event is configured,
// waits for the server's reply.
func OnRunNotify(ctx context.Context, svc *registry.Services, input *Input) (any, error) {
	logger := ctxlog.FromContext(ctx).With("action", "notify", "url", input.URL, "event", input.Event)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	timeout := 10 * time.Second
	if input.Timeout != "" {
		parsed, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", input.Timeout, err)
		}
		timeout = parsed
	}

	payload, err := payloadToGo(input.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(input.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Connected, emitting event.", "namespace", input.Namespace, "sid", io.Id())
		io.Emit(input.Event, payload)
		if input.AckEvent == "" {
			done <- opResult{response: nil}
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		done <- opResult{err: errs[0].(error)}
	})

	if input.AckEvent != "" {
		io.On(types.EventName(input.AckEvent), func(data ...any) {
			var response any
			if len(data) > 0 {
				response = data[0]
			}
			done <- opResult{response: response}
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event '%s'", input.AckEvent)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return map[string]any{"delivered": true, "response": res.response}, nil
	}
}

// payloadToGo turns the evaluated payload expression into plain Go data for
// the Socket.IO encoder.
func payloadToGo(v cty.Value) (any, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, nil
	}
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("notify", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunNotify,
	})
}
