package leaderboard

import "testing"

func strPtr(s string) *string { return &s }

func TestMask(t *testing.T) {
	club := &ClubRef{ID: "ajax", Name: "Ajax"}

	tests := []struct {
		name            string
		collector       Collector
		wantDisplayName string
		wantName        string
		wantAnonymous   bool
		wantAvatarRef   bool
		wantClub        bool
	}{
		{
			name: "anonymous collector is fully masked",
			collector: Collector{
				ID:                   "abc123XYZ9",
				Username:             strPtr("kitking"),
				Name:                 "Jan de Vries",
				AvatarRef:            strPtr("avatars/abc.jpg"),
				FavoriteClub:         club,
				LeaderboardAnonymous: true,
			},
			wantDisplayName: "Collector #XYZ9",
			wantName:        AnonymousName,
			wantAnonymous:   true,
		},
		{
			name: "missing username falls back to user suffix",
			collector: Collector{
				ID:           "ckz9qq01",
				Name:         "Sam",
				AvatarRef:    strPtr("avatars/qq01.jpg"),
				FavoriteClub: club,
			},
			wantDisplayName: "User #QQ01",
			wantName:        "Sam",
			wantAvatarRef:   true,
			wantClub:        true,
		},
		{
			name: "empty username is treated as missing",
			collector: Collector{
				ID:       "user-abcd",
				Username: strPtr(""),
			},
			wantDisplayName: "User #ABCD",
		},
		{
			name: "username passes through",
			collector: Collector{
				ID:           "u-1",
				Username:     strPtr("shirtfan"),
				Name:         "Alex",
				FavoriteClub: club,
			},
			wantDisplayName: "shirtfan",
			wantName:        "Alex",
			wantClub:        true,
		},
		{
			name:            "short id is used whole",
			collector:       Collector{ID: "ab", LeaderboardAnonymous: true},
			wantDisplayName: "Collector #AB",
			wantName:        AnonymousName,
			wantAnonymous:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Entry{Rank: 1, UserID: tt.collector.ID, Score: 3}
			got := Mask(in, tt.collector)

			if got.DisplayName != tt.wantDisplayName {
				t.Errorf("DisplayName = %q, want %q", got.DisplayName, tt.wantDisplayName)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.IsAnonymous != tt.wantAnonymous {
				t.Errorf("IsAnonymous = %v, want %v", got.IsAnonymous, tt.wantAnonymous)
			}
			if (got.avatarRef != nil) != tt.wantAvatarRef {
				t.Errorf("avatarRef present = %v, want %v", got.avatarRef != nil, tt.wantAvatarRef)
			}
			if (got.FavoriteClub != nil) != tt.wantClub {
				t.Errorf("FavoriteClub present = %v, want %v", got.FavoriteClub != nil, tt.wantClub)
			}
			if got.AvatarURL != nil && tt.wantAnonymous {
				t.Error("anonymous entry must not carry an avatar URL")
			}
			if got.Rank != in.Rank || got.Score != in.Score || got.UserID != in.UserID {
				t.Errorf("Mask changed ranking fields: %+v", got)
			}
		})
	}
}

func TestMask_Deterministic(t *testing.T) {
	c := Collector{ID: "abc123XYZ9", LeaderboardAnonymous: true}
	a := Mask(Entry{UserID: c.ID}, c)
	b := Mask(Entry{UserID: c.ID}, c)
	if a.DisplayName != b.DisplayName {
		t.Errorf("Mask not deterministic: %q vs %q", a.DisplayName, b.DisplayName)
	}
}
