// Package leaderboard ranks collectors across a fixed set of scoring
// categories and time periods.
//
// Every call to Engine.Build recomputes the ranking from the ownership
// records held by a Source:
//
//	engine := leaderboard.NewEngine(leaderboard.EngineConfig{
//		Source:   store,
//		Profiles: store,
//		Signer:   signer,
//	})
//	result, err := engine.Build(ctx, leaderboard.CategoryCollectionSize, leaderboard.PeriodMonth, requesterID)
//
// The pipeline is aggregate, sort, truncate to MaxEntries, mask each entry
// according to the collector's privacy preference, resolve avatar URLs
// concurrently, then locate the requester's own rank inside the window.
//
// Nothing is cached or persisted. A requester ranked below MaxEntries gets
// no rank at all.
package leaderboard
