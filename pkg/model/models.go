package model

import "github.com/ServiceWeaver/weaver"

// DefaultBio and DefaultAvatar are assigned to every user created by signup.
const (
	DefaultBio    = "New user"
	DefaultAvatar = "https://via.placeholder.com/150"
)

// TimestampLayout renders creation times the way the browser client did
// (en-US toLocaleString). The rendered text is stored, never re-parsed.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

type User struct {
	weaver.AutoMarshal
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Bio       string `json:"bio"`
	Avatar    string `json:"avatar"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
}

// Comment carries a snapshot of its author taken when it was written.
type Comment struct {
	weaver.AutoMarshal
	ID           int64  `json:"id"`
	AuthorID     int64  `json:"authorId"`
	AuthorName   string `json:"authorName"`
	AuthorAvatar string `json:"authorAvatar"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp"`
}

// Post carries a snapshot of its author taken at creation time; later
// profile edits do not reach it.
type Post struct {
	weaver.AutoMarshal
	ID           int64     `json:"id"`
	AuthorID     int64     `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorAvatar string    `json:"authorAvatar"`
	Content      string    `json:"content"`
	Image        *string   `json:"image"`
	Link         *string   `json:"link"`
	Likes        int       `json:"likes"`
	LikedBy      []int64   `json:"likedBy"`
	Comments     []Comment `json:"comments"`
	Timestamp    string    `json:"timestamp"`
}

// Snapshot is the persisted document. Field names are shared with saved
// sessions of the browser client and must not change.
type Snapshot struct {
	CurrentUser *User  `json:"currentUser"`
	Users       []User `json:"users"`
	Posts       []Post `json:"posts"`
}

// Profile is the read model behind a profile page.
type Profile struct {
	weaver.AutoMarshal
	User      User
	PostCount int
	Posts     []Post
}

type Stats struct {
	weaver.AutoMarshal
	TotalUsers    int `json:"totalUsers"`
	TotalPosts    int `json:"totalPosts"`
	TotalComments int `json:"totalComments"`
	TotalLikes    int `json:"totalLikes"`
}
