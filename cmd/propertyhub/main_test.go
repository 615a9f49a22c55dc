package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maruel/propertyhub/internal/jsonldb"
	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/records"
)

func TestOpenStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tests := []struct {
		name    string
		opts    storeOptions
		wantErr bool
	}{
		{"memory", storeOptions{kind: "memory"}, false},
		{"jsonl", storeOptions{kind: "jsonl", dataDir: t.TempDir()}, false},
		{"remote", storeOptions{kind: "remote", remoteURL: "http://localhost:1"}, false},
		{"postgres without url", storeOptions{kind: "postgres"}, true},
		{"remote without url", storeOptions{kind: "remote"}, true},
		{"unknown", storeOptions{kind: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, closeStore, err := openStore(ctx, &tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("openStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if s == nil {
					t.Fatal("nil store")
				}
				closeStore()
			}
		})
	}
}

func TestPopulate(t *testing.T) {
	ctx := context.Background()
	count := func(s records.Store) int {
		recs, err := s.Fetch(ctx, listing.TableProperty, records.Query{})
		if err != nil {
			t.Fatal(err)
		}
		return len(recs)
	}

	s := records.NewMemory(listing.Tables(), 0)
	if err := populate(ctx, s, "none"); err != nil {
		t.Fatal(err)
	}
	if n := count(s); n != 0 {
		t.Fatalf("none: %d records", n)
	}
	if err := populate(ctx, s, "builtin"); err != nil {
		t.Fatal(err)
	}
	if n := count(s); n != 12 {
		t.Fatalf("builtin: %d records", n)
	}

	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := "properties:\n  - title: Only One\n    price: 1000\n    listingDate: \"2024-05-01\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	js, err := jsonldb.Open(t.TempDir(), listing.Tables(), jsonldb.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := populate(ctx, js, path); err != nil {
		t.Fatal(err)
	}
	if n := count(js); n != 1 {
		t.Fatalf("file: %d records", n)
	}
	if err := populate(ctx, s, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing dataset")
	}
}
