package realtime

import (
	"context"
	"testing"
)

func TestConnectRedis_Disabled(t *testing.T) {
	client, err := ConnectRedis(context.Background(), "")
	if client != nil || err != nil {
		t.Errorf("ConnectRedis(\"\") = %v, %v; want nil, nil", client, err)
	}
}

func TestConnectRedis_Unreachable(t *testing.T) {
	client, err := ConnectRedis(context.Background(), "redis://127.0.0.1:1/0")
	if err == nil {
		client.Close()
		t.Fatal("expected ping error for a closed port")
	}
}
