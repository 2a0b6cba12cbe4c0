package storage

import (
	"context"
	"strings"
	"testing"
)

func TestMockFileHost(t *testing.T) {
	host := NewMockFileHost("")
	ctx := context.Background()

	uploaded, err := host.Upload(ctx, []byte("image"), nil)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(uploaded.FileIDs) != 1 {
		t.Fatalf("FileIDs = %v, want one rendition", uploaded.FileIDs)
	}

	link, err := host.ResolveURL(ctx, uploaded.PrimaryID())
	if err != nil {
		t.Fatalf("ResolveURL() error = %v", err)
	}
	if !strings.HasPrefix(link, "mock://files/") {
		t.Errorf("link = %q", link)
	}

	data, ok := host.Data(uploaded.PrimaryID())
	if !ok || string(data) != "image" {
		t.Errorf("Data() = %q, %v", data, ok)
	}

	if _, err := host.ResolveURL(ctx, "missing"); !IsNotFound(err) {
		t.Errorf("ResolveURL(missing) error = %v, want not found", err)
	}
	if _, err := host.ResolveURL(ctx, ""); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := host.Upload(ctx, nil, nil); err == nil {
		t.Error("expected error for empty upload")
	}

	host.Close()
	if _, err := host.Upload(ctx, []byte("x"), nil); err == nil {
		t.Error("expected error after Close")
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory(nil, nil)

	tests := []struct {
		name    string
		config  *HostConfig
		want    string
		wantErr bool
	}{
		{name: "mock", config: &HostConfig{Type: "mock"}, want: "*storage.MockFileHost"},
		{name: "telegram", config: &HostConfig{Type: "Telegram", BotToken: "t"}, want: "*storage.TelegramFileHost"},
		{name: "telegram without token", config: &HostConfig{Type: "telegram"}, wantErr: true},
		{name: "unknown", config: &HostConfig{Type: "s3"}, wantErr: true},
		{name: "nil config", config: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, err := factory.Create(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer host.Close()
			if got := typeName(host); got != tt.want {
				t.Errorf("Create() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHostTypeFor(t *testing.T) {
	if HostTypeFor("") != "mock" || HostTypeFor("tok") != "telegram" {
		t.Error("HostTypeFor() picked the wrong host")
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *MockFileHost:
		return "*storage.MockFileHost"
	case *TelegramFileHost:
		return "*storage.TelegramFileHost"
	}
	return "unknown"
}
