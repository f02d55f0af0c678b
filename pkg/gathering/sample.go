package gathering

import (
	"context"

	"gathering/pkg/activity"
	"gathering/pkg/model"
)

// SeedSampleData installs two demo accounts and one post by each when the
// Store has no users. It reports whether anything was added.
func (a *App) SeedSampleData(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.store.Users()) > 0 {
		a.logger.Debug("store already has users, not seeding")
		return false, nil
	}

	john := a.store.AddUser(model.User{
		ID:        a.ids.Next(),
		Name:      "John Doe",
		Email:     "john@example.com",
		Password:  "password123",
		Bio:       "Tech enthusiast and developer",
		Avatar:    "https://i.pravatar.cc/150?img=1",
		Followers: 150,
		Following: 75,
	})
	jane := a.store.AddUser(model.User{
		ID:        a.ids.Next(),
		Name:      "Jane Smith",
		Email:     "jane@example.com",
		Password:  "password123",
		Bio:       "Designer and creative thinker",
		Avatar:    "https://i.pravatar.cc/150?img=2",
		Followers: 200,
		Following: 100,
	})
	for _, seed := range []struct {
		author  *model.User
		content string
	}{
		{john, "Just launched my new project! Super excited to share it with everyone. Check it out!"},
		{jane, "Beautiful sunset at the beach today! Nature is amazing 🌅"},
	} {
		a.store.PrependPost(model.Post{
			ID:           a.ids.Next(),
			AuthorID:     seed.author.ID,
			AuthorName:   seed.author.Name,
			AuthorAvatar: seed.author.Avatar,
			Content:      seed.content,
			Timestamp:    a.timestamp(),
		})
	}
	if err := a.save(ctx, "seed"); err != nil {
		return true, err
	}

	a.publish(ctx, activity.NewEvent(ctx, activity.KindSeeded))
	a.logger.Info("seeded sample data", "users", 2, "posts", 2)
	return true, nil
}
