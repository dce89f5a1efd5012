package mongodb

import (
	"context"
	"testing"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStoreStopTwice(t *testing.T) {
	ctx := context.Background()
	// Connect does not dial; no server is needed.
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(DefaultURL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	s := NewStore(nil, "catering_test", apt.NewNoopLogger())
	s.client = client
	s.db = client.Database("catering_test")

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("first Stop() error = %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
	if s.Database() != nil {
		t.Error("Database() is set after Stop")
	}
}

func TestStoreStopNeverStarted(t *testing.T) {
	s := NewStore(nil, "catering_test", nil)
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
