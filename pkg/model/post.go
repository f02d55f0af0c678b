package model

// ToggleLike adds userID to likedBy when absent and removes it when present,
// moving Likes by one in the same direction. Applying it twice with the same
// user restores the post. It returns true when the user now likes the post.
func (p *Post) ToggleLike(userID int64) bool {
	if idx := p.likeIndex(userID); idx >= 0 {
		p.LikedBy = append(p.LikedBy[:idx], p.LikedBy[idx+1:]...)
		p.Likes--
		return false
	}
	p.LikedBy = append(p.LikedBy, userID)
	p.Likes++
	return true
}

func (p *Post) likeIndex(userID int64) int {
	for i, id := range p.LikedBy {
		if id == userID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	c := p
	if p.Image != nil {
		image := *p.Image
		c.Image = &image
	}
	if p.Link != nil {
		link := *p.Link
		c.Link = &link
	}
	c.LikedBy = append(make([]int64, 0, len(p.LikedBy)), p.LikedBy...)
	c.Comments = append(make([]Comment, 0, len(p.Comments)), p.Comments...)
	return c
}

// Normalize replaces absent collections with empty ones so the document
// always carries [] rather than null, drops repeated likers and sets Likes to
// the number of likers.
func (p *Post) Normalize() {
	likers := make([]int64, 0, len(p.LikedBy))
	seen := make(map[int64]struct{}, len(p.LikedBy))
	for _, id := range p.LikedBy {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		likers = append(likers, id)
	}
	p.LikedBy = likers
	p.Likes = len(likers)
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}
