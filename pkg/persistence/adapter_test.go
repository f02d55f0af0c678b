package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gathering/pkg/model"
	"gathering/pkg/storage"
	"gathering/pkg/store"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenKV struct {
	err error
}

func (b brokenKV) Get(context.Context, string) ([]byte, error) { return nil, b.err }
func (b brokenKV) Set(context.Context, string, []byte) error   { return b.err }
func (b brokenKV) Close() error                                { return nil }

func sampleStore() *store.Store {
	s := store.New()
	ann := s.AddUser(model.User{ID: 1, Name: "Ann", Email: "ann@x.com", Password: "pw", Bio: model.DefaultBio, Avatar: model.DefaultAvatar})
	s.AddUser(model.User{ID: 2, Name: "Bob", Email: "bob@x.com", Password: "pw2", Bio: "", Avatar: model.DefaultAvatar, Followers: 3})
	link := "https://example.com"
	s.PrependPost(model.Post{ID: 3, AuthorID: 1, AuthorName: "Ann", Content: "hello", Link: &link, Timestamp: "1/2/2026, 3:04:05 PM"})
	p := s.PrependPost(model.Post{ID: 4, AuthorID: 2, AuthorName: "Bob", Content: "yo"})
	p.ToggleLike(1)
	p.Comments = append(p.Comments, model.Comment{ID: 5, AuthorID: 1, AuthorName: "Ann", Text: "nice"})
	s.SetSession(ann)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range map[string]*store.Store{"empty": store.New(), "populated": sampleStore()} {
		t.Run(name, func(t *testing.T) {
			a := NewAdapter(storage.NewMemoryKV())
			require.NoError(t, a.Save(ctx, s))

			loaded, err := a.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(s.Snapshot(), loaded.Snapshot()); diff != "" {
				t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
			}
		})
	}
}

func TestLoadMissingKeyIsEmptyStore(t *testing.T) {
	s, err := NewAdapter(storage.NewMemoryKV()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Users())
	assert.Empty(t, s.Posts())
	assert.Nil(t, s.Session())
}

func TestLoadDefaultsMissingFields(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, DefaultKey, []byte(`{"currentUser":null,"posts":[{"id":7,"content":"x","likedBy":null}]}`)))

	doc, err := NewAdapter(kv).LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.NotNil(t, doc.Users)
	require.Len(t, doc.Posts, 1)
	assert.Equal(t, []int64{}, doc.Posts[0].LikedBy)
	assert.Equal(t, []model.Comment{}, doc.Posts[0].Comments)
	assert.Nil(t, doc.Posts[0].Image)
}

func TestSavedDocumentShape(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, NewAdapter(kv).Save(ctx, sampleStore()))

	raw, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.ElementsMatch(t, []string{"currentUser", "users", "posts"}, keys(doc))

	user := doc["currentUser"].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "name", "email", "password", "bio", "avatar", "followers", "following"}, keys(user))

	post := doc["posts"].([]any)[1].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "authorId", "authorName", "authorAvatar", "content", "image", "link", "likes", "likedBy", "comments", "timestamp"}, keys(post))
	assert.Nil(t, post["image"])
	assert.Equal(t, "https://example.com", post["link"])
	assert.Equal(t, float64(3), post["id"])

	comment := doc["posts"].([]any)[0].(map[string]any)["comments"].([]any)[0].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "authorId", "authorName", "authorAvatar", "text", "timestamp"}, keys(comment))
}

func TestEmptyStoreEncodesEmptyArrays(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, NewAdapter(kv).Save(ctx, store.New()))
	raw, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentUser":null,"users":[],"posts":[]}`, string(raw))
}

func TestReadsBrowserDocument(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	browser := `{"currentUser":{"id":1700000000000,"name":"Ann","email":"ann@x.com","password":"pw","bio":"New user","avatar":"https://via.placeholder.com/150","followers":0,"following":0},
		"users":[{"id":1700000000000,"name":"Ann","email":"ann@x.com","password":"pw","bio":"New user","avatar":"https://via.placeholder.com/150","followers":0,"following":0}],
		"posts":[{"id":1700000000500,"authorId":1700000000000,"authorName":"Ann","authorAvatar":"https://via.placeholder.com/150","content":"hello","image":null,"link":null,"likes":1,"likedBy":[1700000000000],"comments":[],"timestamp":"11/14/2023, 10:13:20 PM"}]}`
	require.NoError(t, kv.Set(ctx, DefaultKey, []byte(browser)))

	s, err := NewAdapter(kv).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.Session())
	assert.Equal(t, "Ann", s.Session().Name)
	post := s.PostByID(1700000000500)
	require.NotNil(t, post)
	assert.Equal(t, []int64{1700000000000}, post.LikedBy)
	assert.Equal(t, 1, post.Likes)
}

func TestLoadReconcilesLikeCount(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	drifted := `{"currentUser":null,"users":[],
		"posts":[{"id":2,"authorId":1,"authorName":"John Doe","authorAvatar":"https://i.pravatar.cc/150?img=1","content":"Just launched my new project!","image":null,"link":null,"likes":24,"likedBy":[],"comments":[],"timestamp":"11/14/2023, 10:13:20 PM"}]}`
	require.NoError(t, kv.Set(ctx, DefaultKey, []byte(drifted)))

	s, err := NewAdapter(kv).Load(ctx)
	require.NoError(t, err)
	post := s.PostByID(2)
	require.NotNil(t, post)
	assert.Equal(t, 0, post.Likes)

	post.ToggleLike(7)
	assert.Equal(t, len(post.LikedBy), post.Likes)
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("quota exceeded")
	a := NewAdapter(brokenKV{err: cause})

	err := a.Save(ctx, sampleStore())
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)

	_, err = a.Load(ctx)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
}

func TestCorruptDocumentIsStorageError(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "custom", []byte(`{"users": [`)))

	_, err := NewAdapter(kv, WithKey("custom")).Load(ctx)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	a := NewAdapter(kv, WithKey("other"))
	require.NoError(t, a.Save(ctx, store.New()))

	_, err := kv.Get(ctx, "other")
	assert.NoError(t, err)
	_, err = kv.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
