package api

import "gathering/pkg/model"

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type postRequest struct {
	Content string  `json:"content"`
	Image   *string `json:"image"`
	Link    *string `json:"link"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// userView is a User without its password.
type userView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	Avatar    string `json:"avatar"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
}

func newUserView(u model.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		Followers: u.Followers,
		Following: u.Following,
	}
}

type profileView struct {
	User      userView     `json:"user"`
	PostCount int          `json:"postCount"`
	Posts     []model.Post `json:"posts"`
}

func newProfileView(p model.Profile) profileView {
	return profileView{User: newUserView(p.User), PostCount: p.PostCount, Posts: p.Posts}
}
