package leaderboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// AvatarURLExpiry is the lifetime of a signed avatar URL.
const AvatarURLExpiry = time.Hour

// ResolveAvatars signs the avatar of every non-anonymous entry that has one,
// all entries in parallel. Order is preserved. A failed or missing signature
// leaves AvatarURL nil; the second return value counts failures.
//
// ResolveAvatars returns no later than ctx's deadline. Tasks still pending
// then are counted as failures, and a URL arriving after it is dropped even
// when the signer ignores ctx.
func ResolveAvatars(ctx context.Context, signer Signer, entries []Entry) ([]Entry, int) {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].AvatarURL = nil
	}
	if signer == nil {
		return out, 0
	}

	type signed struct {
		index int
		url   string
	}
	// Buffered so tasks finishing after the deadline never block.
	results := make(chan signed, len(out))
	failed := 0
	pending := 0

	var g errgroup.Group
	for i := range out {
		e := out[i]
		if e.IsAnonymous || e.avatarRef == nil || *e.avatarRef == "" {
			continue
		}
		pending++
		key := *e.avatarRef
		g.Go(func() error {
			url := ""
			if ctx.Err() == nil {
				var err error
				url, err = signer.SignAvatar(ctx, key, AvatarURLExpiry)
				if err != nil {
					slog.WarnContext(ctx, "avatar signing failed", "user_id", e.UserID, "error", err)
					url = ""
				}
			}
			results <- signed{index: i, url: url}
			// Tasks report failure through an empty url, never an error.
			return nil
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	for pending > 0 {
		select {
		case r := <-results:
			pending--
			if r.url == "" || ctx.Err() != nil {
				failed++
				continue
			}
			url := r.url
			out[r.index].AvatarURL = &url
		case <-ctx.Done():
			failed += pending
			return out, failed
		}
	}
	return out, failed
}
