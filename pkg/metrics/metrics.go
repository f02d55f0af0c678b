package metrics

import "github.com/ServiceWeaver/weaver/metrics"

type OutcomeLabel struct {
	Outcome string
}

type BackendLabel struct {
	Backend string
}

var (
	// session service
	Signups = metrics.NewCounter(
		"gathering_signups",
		"The number of accounts created",
	)
	Logins = metrics.NewCounterMap[OutcomeLabel](
		"gathering_logins",
		"The number of login attempts by outcome",
	)
	// feed service
	PostsCreated = metrics.NewCounter(
		"gathering_posts_created",
		"The number of posts created",
	)
	PostsDeleted = metrics.NewCounter(
		"gathering_posts_deleted",
		"The number of posts deleted",
	)
	LikesToggled = metrics.NewCounterMap[OutcomeLabel](
		"gathering_likes_toggled",
		"The number of like toggles, labelled liked or unliked",
	)
	CommentsAdded = metrics.NewCounter(
		"gathering_comments_added",
		"The number of comments added",
	)
	// persistence adapter
	SaveDurationMs = metrics.NewHistogramMap[BackendLabel](
		"gathering_save_duration_ms",
		"Duration of a full snapshot save in milliseconds",
		metrics.NonNegativeBuckets,
	)
	SaveFailures = metrics.NewCounterMap[BackendLabel](
		"gathering_save_failures",
		"The number of snapshot saves rejected by the storage backend",
	)
	SnapshotBytes = metrics.NewGauge(
		"gathering_snapshot_bytes",
		"Size of the last saved snapshot document in bytes",
	)
)
