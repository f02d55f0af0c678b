package gathering

import (
	"context"
	"strings"

	"gathering/pkg/activity"
	sn_metrics "gathering/pkg/metrics"
	"gathering/pkg/model"
)

// FeedService manages posts, likes and comments. Lookups of unknown post ids
// are not errors: they report found == false and change nothing.
type FeedService struct {
	app *App
}

// CreatePost publishes a post by the active user at the head of the feed.
// The text is required even when an image or link is attached.
func (f *FeedService) CreatePost(ctx context.Context, content string, image, link *string) (model.Post, error) {
	a := f.app
	logger := a.logger
	logger.Debug("entering CreatePost", "has_image", image != nil, "has_link", link != nil)

	a.mu.Lock()
	defer a.mu.Unlock()
	author := a.store.Session()
	if author == nil {
		return model.Post{}, ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Post{}, validationError("post cannot be empty")
	}

	post := a.store.PrependPost(model.Post{
		ID:           a.ids.Next(),
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorAvatar: author.Avatar,
		Content:      content,
		Image:        optional(image),
		Link:         optional(link),
		Likes:        0,
		LikedBy:      []int64{},
		Comments:     []model.Comment{},
		Timestamp:    a.timestamp(),
	})
	if err := a.save(ctx, "create_post"); err != nil {
		return model.Post{}, err
	}

	sn_metrics.PostsCreated.Inc()
	event := activity.NewEvent(ctx, activity.KindPostCreated)
	event.UserID = author.ID
	event.PostID = post.ID
	a.publish(ctx, event)
	logger.Debug("created post", "post_id", post.ID, "author_id", author.ID)
	return post.Clone(), nil
}

// DeletePost removes a post from the feed. It needs an active session, but the
// requester is not checked against the author; callers that need that rule
// enforce it.
func (f *FeedService) DeletePost(ctx context.Context, postID, requesterID int64) (bool, error) {
	a := f.app
	a.logger.Debug("entering DeletePost", "post_id", postID, "requester_id", requesterID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store.Session() == nil {
		return false, ErrUnauthenticated
	}
	if !a.store.RemovePost(postID) {
		return false, nil
	}
	if err := a.save(ctx, "delete_post"); err != nil {
		return true, err
	}

	sn_metrics.PostsDeleted.Inc()
	event := activity.NewEvent(ctx, activity.KindPostDeleted)
	event.UserID = requesterID
	event.PostID = postID
	a.publish(ctx, event)
	return true, nil
}

// ToggleLike flips userID's like on the post and returns the updated post.
// It fails with ErrUnauthenticated while logged out.
func (f *FeedService) ToggleLike(ctx context.Context, postID, userID int64) (model.Post, bool, error) {
	a := f.app
	a.logger.Debug("entering ToggleLike", "post_id", postID, "user_id", userID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store.Session() == nil {
		return model.Post{}, false, ErrUnauthenticated
	}
	post := a.store.PostByID(postID)
	if post == nil {
		return model.Post{}, false, nil
	}
	liked := post.ToggleLike(userID)
	if err := a.save(ctx, "toggle_like"); err != nil {
		return model.Post{}, true, err
	}

	outcome := "unliked"
	if liked {
		outcome = "liked"
	}
	sn_metrics.LikesToggled.Get(sn_metrics.OutcomeLabel{Outcome: outcome}).Inc()
	event := activity.NewEvent(ctx, activity.KindLikeToggled)
	event.UserID = userID
	event.PostID = postID
	event.Liked = liked
	a.publish(ctx, event)
	return post.Clone(), true, nil
}

// AddComment appends a comment to the post. The author fields are stored as
// given; an active session is still required.
func (f *FeedService) AddComment(ctx context.Context, postID, authorID int64, authorName, authorAvatar, text string) (model.Comment, bool, error) {
	a := f.app
	a.logger.Debug("entering AddComment", "post_id", postID, "author_id", authorID)

	text, err := trimmed("comment", text)
	if err != nil {
		return model.Comment{}, false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store.Session() == nil {
		return model.Comment{}, false, ErrUnauthenticated
	}
	post := a.store.PostByID(postID)
	if post == nil {
		return model.Comment{}, false, nil
	}
	comment := model.Comment{
		ID:           a.ids.Next(),
		AuthorID:     authorID,
		AuthorName:   authorName,
		AuthorAvatar: authorAvatar,
		Text:         text,
		Timestamp:    a.timestamp(),
	}
	post.Comments = append(post.Comments, comment)
	if err := a.save(ctx, "add_comment"); err != nil {
		return model.Comment{}, true, err
	}

	sn_metrics.CommentsAdded.Inc()
	event := activity.NewEvent(ctx, activity.KindCommentAdded)
	event.UserID = authorID
	event.PostID = postID
	event.CommentID = comment.ID
	a.publish(ctx, event)
	return comment, true, nil
}

// Feed returns every post, newest first.
func (f *FeedService) Feed(ctx context.Context) []model.Post {
	a := f.app
	a.mu.Lock()
	defer a.mu.Unlock()
	posts := make([]model.Post, 0, len(a.store.Posts()))
	for _, p := range a.store.Posts() {
		posts = append(posts, p.Clone())
	}
	return posts
}

func (f *FeedService) Post(ctx context.Context, postID int64) (model.Post, bool) {
	a := f.app
	a.mu.Lock()
	defer a.mu.Unlock()
	post := a.store.PostByID(postID)
	if post == nil {
		return model.Post{}, false
	}
	return post.Clone(), true
}

// Profile returns the user with their own posts, newest first.
func (f *FeedService) Profile(ctx context.Context, userID int64) (model.Profile, bool) {
	a := f.app
	a.mu.Lock()
	defer a.mu.Unlock()
	user := a.store.UserByID(userID)
	if user == nil {
		return model.Profile{}, false
	}
	profile := model.Profile{User: *user, Posts: []model.Post{}}
	for _, p := range a.store.PostsByAuthor(userID) {
		profile.Posts = append(profile.Posts, p.Clone())
	}
	profile.PostCount = len(profile.Posts)
	return profile, true
}

func (f *FeedService) Stats(ctx context.Context) model.Stats {
	a := f.app
	a.mu.Lock()
	defer a.mu.Unlock()
	stats := model.Stats{
		TotalUsers: len(a.store.Users()),
		TotalPosts: len(a.store.Posts()),
	}
	for _, p := range a.store.Posts() {
		stats.TotalComments += len(p.Comments)
		stats.TotalLikes += p.Likes
	}
	return stats
}

// optional drops blank attachments, mirroring the client treating an empty
// value as absent.
func optional(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
