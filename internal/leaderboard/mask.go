package leaderboard

import "strings"

// AnonymousName replaces the real name of an anonymized collector.
const AnonymousName = "Anonymous"

// Mask applies c's privacy preference to e. It has no side effects.
//
// Anonymous collectors become "Collector #XXXX" with name, avatar and
// favorite club removed. Collectors without a username fall back to
// "User #XXXX" but keep their other fields.
func Mask(e Entry, c Collector) Entry {
	if c.LeaderboardAnonymous {
		e.DisplayName = "Collector #" + idSuffix(c.ID)
		e.Name = AnonymousName
		e.avatarRef = nil
		e.AvatarURL = nil
		e.FavoriteClub = nil
		e.IsAnonymous = true
		return e
	}

	e.IsAnonymous = false
	e.Name = c.Name
	e.avatarRef = c.AvatarRef
	e.FavoriteClub = c.FavoriteClub
	if c.Username != nil && *c.Username != "" {
		e.DisplayName = *c.Username
	} else {
		e.DisplayName = "User #" + idSuffix(c.ID)
	}
	return e
}

// idSuffix returns the last four characters of id, upper-cased. Shorter ids
// are used whole.
func idSuffix(id string) string {
	r := []rune(id)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return strings.ToUpper(string(r))
}
