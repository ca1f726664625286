package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"myfinance/internal/config"
	"myfinance/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "memory", cfg: &config.Config{DataBackend: "memory", DataDirectory: "data"}, want: MemoryBackend},
		{name: "sqlite", cfg: &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"}, want: SQLiteBackend},
		{name: "sheets is gone", cfg: &config.Config{DataBackend: "sheets"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Type != tt.want {
				t.Errorf("FromAppConfig() type = %v, want %v", got.Type, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{Type: "postgres"}).Validate(); err == nil {
		t.Error("expected error for unknown backend type")
	}
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("expected error for sqlite without path")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Errorf("memory backend without directory should be valid: %v", err)
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 2 || got[0] != "memory" || got[1] != "sqlite" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestFactory_MemoryBackendSeedsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	seed := []byte(`{"version":1}`)
	if err := os.WriteFile(filepath.Join(dir, "myfinance_alice.json"), seed, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	got, err := res.Store.Load(ctx, storage.UserKey("alice"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != string(seed) {
		t.Errorf("Load() = %s, want %s", got, seed)
	}
	if err := res.Ready(ctx); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}

func TestFactory_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "myfinance.db")

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if err := res.Ready(ctx); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	if err := res.Store.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := res.Store.Load(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Load() = %q, %v", got, err)
	}
}

func TestFactory_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Error("expected error for sqlite without path")
	}
}
