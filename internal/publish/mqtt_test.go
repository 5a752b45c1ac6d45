package publish

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/i474232898/ha-weather-tool/internal/weather"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMQTTPublisher_PublishRequiresConnection(t *testing.T) {
	p := NewMQTTPublisher("tcp://127.0.0.1:1", "test", "reports", discardLogger())

	err := p.Publish(weather.Report{ID: "r1", Document: []byte(`{}`)})
	if err == nil {
		t.Fatal("Publish() error = nil, want not connected error")
	}
}

func TestMQTTPublisher_ConnectAfterDisconnect(t *testing.T) {
	p := NewMQTTPublisher("tcp://127.0.0.1:1", "test", "reports", discardLogger())
	p.Disconnect()
	p.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := p.Connect(ctx); err == nil {
		t.Fatal("Connect() after Disconnect() error = nil, want error")
	}
	if p.IsConnected() {
		t.Error("IsConnected() = true after Disconnect()")
	}
}
