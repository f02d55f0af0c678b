// Package store holds the canonical in-memory collections of users and posts
// together with the active session pointer. It performs no I/O; callers
// decide when to persist.
package store

import "gathering/pkg/model"

type Store struct {
	users   []*model.User
	posts   []*model.Post // newest first
	session *model.User
}

func New() *Store {
	return &Store{}
}

// FromSnapshot rebuilds a Store from a persisted document. The session is
// resolved by id against users so that it aliases the stored record; a
// currentUser that is not among users leaves the store logged out and
// ok is false.
func FromSnapshot(doc model.Snapshot) (s *Store, ok bool) {
	s = New()
	for _, u := range doc.Users {
		u := u
		s.users = append(s.users, &u)
	}
	for _, p := range doc.Posts {
		p := p.Clone()
		p.Normalize()
		s.posts = append(s.posts, &p)
	}
	if doc.CurrentUser == nil {
		return s, true
	}
	s.session = s.UserByID(doc.CurrentUser.ID)
	return s, s.session != nil
}

// Snapshot deep-copies the store into its persisted shape. Collections are
// never nil so they encode as [].
func (s *Store) Snapshot() model.Snapshot {
	doc := model.Snapshot{
		Users: make([]model.User, 0, len(s.users)),
		Posts: make([]model.Post, 0, len(s.posts)),
	}
	for _, u := range s.users {
		doc.Users = append(doc.Users, *u)
	}
	for _, p := range s.posts {
		doc.Posts = append(doc.Posts, p.Clone())
	}
	if s.session != nil {
		current := *s.session
		doc.CurrentUser = &current
	}
	return doc
}

func (s *Store) Users() []*model.User { return s.users }

// Posts returns the feed, newest first.
func (s *Store) Posts() []*model.Post { return s.posts }

// Session returns the logged in user or nil.
func (s *Store) Session() *model.User { return s.session }

func (s *Store) UserByID(id int64) *model.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Store) UserByEmail(email string) *model.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// FindCredentials returns the user whose email and password both match
// exactly. Passwords are stored and compared as plain text.
func (s *Store) FindCredentials(email, password string) *model.User {
	for _, u := range s.users {
		if u.Email == email && u.Password == password {
			return u
		}
	}
	return nil
}

func (s *Store) PostByID(id int64) *model.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PostsByAuthor returns the posts whose authorId is userID, newest first.
func (s *Store) PostsByAuthor(userID int64) []*model.Post {
	var posts []*model.Post
	for _, p := range s.posts {
		if p.AuthorID == userID {
			posts = append(posts, p)
		}
	}
	return posts
}

// AddUser appends u and returns the stored record.
func (s *Store) AddUser(u model.User) *model.User {
	s.users = append(s.users, &u)
	return &u
}

// PrependPost puts p at the head of the feed and returns the stored record.
func (s *Store) PrependPost(p model.Post) *model.Post {
	p.Normalize()
	s.posts = append([]*model.Post{&p}, s.posts...)
	return &p
}

// RemovePost deletes the post with the given id, preserving the order of the
// rest. It reports whether a post was removed.
func (s *Store) RemovePost(id int64) bool {
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i:i], s.posts[i+1:]...)
			return true
		}
	}
	return false
}

// SetSession makes u the active user. u must be a record owned by the store.
func (s *Store) SetSession(u *model.User) { s.session = u }

func (s *Store) ClearSession() { s.session = nil }

// MaxID returns the largest id held by any user, post or comment.
func (s *Store) MaxID() int64 {
	var highest int64
	for _, u := range s.users {
		if u.ID > highest {
			highest = u.ID
		}
	}
	for _, p := range s.posts {
		if p.ID > highest {
			highest = p.ID
		}
		for _, c := range p.Comments {
			if c.ID > highest {
				highest = c.ID
			}
		}
	}
	return highest
}
