package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeKeepsCountInSync(t *testing.T) {
	post := Post{LikedBy: []int64{}}
	sequence := []int64{1, 2, 1, 3, 3, 2, 2, 4, 1}
	for _, userID := range sequence {
		post.ToggleLike(userID)
		assert.Equal(t, len(post.LikedBy), post.Likes, "after toggling %d", userID)
	}
	assert.ElementsMatch(t, []int64{1, 2, 4}, post.LikedBy)
}

func TestToggleLikeIsItsOwnInverse(t *testing.T) {
	post := Post{Likes: 2, LikedBy: []int64{7, 9}}

	assert.True(t, post.ToggleLike(3))
	assert.Contains(t, post.LikedBy, int64(3))
	assert.False(t, post.ToggleLike(3))
	assert.NotContains(t, post.LikedBy, int64(3))

	assert.Equal(t, 2, post.Likes)
	assert.ElementsMatch(t, []int64{7, 9}, post.LikedBy)

	assert.False(t, post.ToggleLike(7))
	assert.True(t, post.ToggleLike(7))
	assert.Equal(t, 2, post.Likes)
	assert.ElementsMatch(t, []int64{7, 9}, post.LikedBy)
}

func TestCloneDoesNotShareState(t *testing.T) {
	image := "data:image/png;base64,AAAA"
	post := Post{
		ID:       1,
		Image:    &image,
		LikedBy:  []int64{1},
		Comments: []Comment{{ID: 2, Text: "first"}},
	}
	clone := post.Clone()
	require.Equal(t, post, clone)

	clone.ToggleLike(5)
	clone.Comments[0].Text = "changed"
	*clone.Image = "other"

	assert.Equal(t, []int64{1}, post.LikedBy)
	assert.Equal(t, "first", post.Comments[0].Text)
	assert.Equal(t, "data:image/png;base64,AAAA", *post.Image)
}

func TestNormalizeFillsEmptyCollections(t *testing.T) {
	var post Post
	post.Normalize()
	assert.NotNil(t, post.LikedBy)
	assert.NotNil(t, post.Comments)
	assert.Empty(t, post.LikedBy)
	assert.Empty(t, post.Comments)
}

func TestNormalizeReconcilesLikes(t *testing.T) {
	post := Post{Likes: 24, LikedBy: []int64{}}
	post.Normalize()
	assert.Equal(t, 0, post.Likes)

	post.ToggleLike(1)
	assert.Equal(t, 1, post.Likes)

	post = Post{Likes: 1, LikedBy: []int64{5, 6, 5}}
	post.Normalize()
	assert.Equal(t, []int64{5, 6}, post.LikedBy)
	assert.Equal(t, 2, post.Likes)
}
