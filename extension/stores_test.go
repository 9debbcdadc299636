package extension

import (
	"context"
	"strings"
	"testing"

	"github.com/xraph/promo/store/memory"
)

func TestResolveStoreFallbacks(t *testing.T) {
	ctx := context.Background()

	explicit := memory.New()
	e := New(WithStore(explicit))
	s, err := e.resolveStore(ctx, nil)
	if err != nil || s != explicit {
		t.Fatalf("explicit store: got %v, %v", s, err)
	}

	e = New()
	s, err = e.resolveStore(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", s)
	}
}

func TestOpenGroveErrors(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
		want   string
	}{
		{"Missing dsn", "postgres", "", "requires a dsn"},
		{"Unknown driver", "oracle", "x", "unsupported driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openGrove(context.Background(), tt.driver, tt.dsn)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
