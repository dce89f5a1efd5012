package mongodb

import (
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

func TestVersionFilter(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		version int64
		check   func(t *testing.T, v interface{})
	}{
		{
			name:    "firstWriteMatchesUnversioned",
			version: 0,
			check: func(t *testing.T, v interface{}) {
				in, ok := v.(bson.M)["$in"].(bson.A)
				if !ok || len(in) != 2 || in[0] != int64(0) || in[1] != nil {
					t.Errorf("version = %v", v)
				}
			},
		},
		{
			name:    "exactVersion",
			version: 4,
			check: func(t *testing.T, v interface{}) {
				if v != int64(4) {
					t.Errorf("version = %v", v)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := VersionFilter(id, tt.version)
			if f["_id"] != id {
				t.Errorf("_id = %v", f["_id"])
			}
			tt.check(t, f["version"])
		})
	}
}

func TestPagingAndContains(t *testing.T) {
	opts := Paging(0, 20)
	if opts.Skip == nil || *opts.Skip != 0 || opts.Limit == nil || *opts.Limit != 20 {
		t.Errorf("Paging(0, 20) = skip %v limit %v", opts.Skip, opts.Limit)
	}
	if got := Contains("a.b")["$regex"]; got != `a\.b` {
		t.Errorf("Contains() regex = %v", got)
	}
}
