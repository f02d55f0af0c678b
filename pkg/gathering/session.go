package gathering

import (
	"context"
	"strings"

	"gathering/pkg/activity"
	sn_metrics "gathering/pkg/metrics"
	"gathering/pkg/model"
)

// SessionService manages accounts and the single active session.
type SessionService struct {
	app *App
}

// Signup creates an account, makes it the active session and returns it.
func (s *SessionService) Signup(ctx context.Context, name, email, password, confirm string) (model.User, error) {
	a := s.app
	logger := a.logger
	logger.Debug("entering Signup", "name", name, "email", email)

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	confirm = strings.TrimSpace(confirm)
	if name == "" || email == "" || password == "" || confirm == "" {
		return model.User{}, validationError("please fill in all fields")
	}
	if password != confirm {
		return model.User{}, validationError("passwords do not match")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store.UserByEmail(email) != nil {
		logger.Debug("email already registered", "email", email)
		return model.User{}, ErrDuplicateEmail
	}

	user := a.store.AddUser(model.User{
		ID:       a.ids.Next(),
		Name:     name,
		Email:    email,
		Password: password,
		Bio:      model.DefaultBio,
		Avatar:   model.DefaultAvatar,
	})
	a.store.SetSession(user)
	if err := a.save(ctx, "signup"); err != nil {
		return model.User{}, err
	}

	sn_metrics.Signups.Inc()
	event := activity.NewEvent(ctx, activity.KindSignup)
	event.UserID = user.ID
	a.publish(ctx, event)
	logger.Info("user signed up", "user_id", user.ID, "email", user.Email)
	return *user, nil
}

// Login makes the user matching email and password the active session.
// Passwords are compared as plain text.
func (s *SessionService) Login(ctx context.Context, email, password string) (model.User, error) {
	a := s.app
	logger := a.logger
	logger.Debug("entering Login", "email", email)

	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return model.User{}, validationError("please fill in all fields")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	user := a.store.FindCredentials(email, password)
	if user == nil {
		sn_metrics.Logins.Get(sn_metrics.OutcomeLabel{Outcome: "rejected"}).Inc()
		logger.Debug("invalid credentials", "email", email)
		return model.User{}, ErrInvalidCredentials
	}
	a.store.SetSession(user)
	if err := a.save(ctx, "login"); err != nil {
		return model.User{}, err
	}

	sn_metrics.Logins.Get(sn_metrics.OutcomeLabel{Outcome: "accepted"}).Inc()
	event := activity.NewEvent(ctx, activity.KindLogin)
	event.UserID = user.ID
	a.publish(ctx, event)
	return *user, nil
}

// Logout clears the active session. Logging out while logged out is not an
// error; the Store is persisted either way.
func (s *SessionService) Logout(ctx context.Context) error {
	a := s.app
	a.logger.Debug("entering Logout")

	a.mu.Lock()
	defer a.mu.Unlock()
	previous := a.store.Session()
	a.store.ClearSession()
	if err := a.save(ctx, "logout"); err != nil {
		return err
	}
	if previous != nil {
		event := activity.NewEvent(ctx, activity.KindLogout)
		event.UserID = previous.ID
		a.publish(ctx, event)
	}
	return nil
}

// EditProfile updates the name and bio of the active user. Posts and
// comments keep the author name they were created with.
func (s *SessionService) EditProfile(ctx context.Context, name, bio string) (model.User, error) {
	a := s.app
	a.logger.Debug("entering EditProfile", "name", name)

	a.mu.Lock()
	defer a.mu.Unlock()
	user := a.store.Session()
	if user == nil {
		return model.User{}, ErrUnauthenticated
	}
	name, err := trimmed("name", name)
	if err != nil {
		return model.User{}, err
	}

	user.Name = name
	user.Bio = strings.TrimSpace(bio)
	if err := a.save(ctx, "edit_profile"); err != nil {
		return model.User{}, err
	}

	event := activity.NewEvent(ctx, activity.KindProfileEdited)
	event.UserID = user.ID
	a.publish(ctx, event)
	return *user, nil
}

// CurrentUser returns the active user, if any.
func (s *SessionService) CurrentUser(ctx context.Context) (model.User, bool) {
	a := s.app
	a.mu.Lock()
	defer a.mu.Unlock()
	user := a.store.Session()
	if user == nil {
		return model.User{}, false
	}
	return *user, true
}
