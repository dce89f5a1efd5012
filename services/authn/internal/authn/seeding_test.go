package authn

import (
	"testing"
	"testing/fstest"
)

func TestLoadUserSeeds(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{
			name:    "validUsers",
			content: "users:\n  - email: d@example.com\n    password: longenough\n    first_name: D\n    role: driver\n",
			want:    1,
		},
		{
			name:    "unknownRole",
			content: "users:\n  - email: d@example.com\n    password: longenough\n    first_name: D\n    role: pilot\n",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "users: []\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"seed.yaml": &fstest.MapFile{Data: []byte(tt.content)}}
			users, err := loadUserSeeds(fsys)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadUserSeeds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(users) != tt.want {
				t.Errorf("got %d users, want %d", len(users), tt.want)
			}
		})
	}
}

func TestSeedIdentifier(t *testing.T) {
	if got := seedIdentifier("Head.Chef+1@Catering.local"); got != "head_chef_1_catering_local" {
		t.Errorf("seedIdentifier() = %q", got)
	}
}
