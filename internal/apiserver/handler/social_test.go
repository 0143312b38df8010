package handler

import (
	"net/http"
	"testing"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func friendStatus(t *testing.T, env *testEnv, from account, to account) string {
	t.Helper()
	var st dto.FriendStatus
	env.ok(http.StatusOK, http.MethodGet, "/api/friends/status/"+to.ID, from.Token, nil, &st)
	return st.Status
}

func TestFriends_RequestAndAccept(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")

	code, resp := env.do(http.MethodPost, "/api/friends/request/"+alice.ID, alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ErrorSelfFriendRequest", resp.Error)

	code, _ = env.do(http.MethodPost, "/api/friends/request/missing", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	var req database.Friendship
	env.ok(http.StatusCreated, http.MethodPost, "/api/friends/request/"+bob.ID, alice.Token, nil, &req)
	assert.Equal(t, database.FriendshipPending, req.Status)

	code, resp = env.do(http.MethodPost, "/api/friends/request/"+alice.ID, bob.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code, "a pending request in either direction blocks another")
	assert.Equal(t, "ErrorRequestAlreadySent", resp.Error)

	assert.Equal(t, dto.FriendStatusPendingSent, friendStatus(t, env, alice, bob))
	assert.Equal(t, dto.FriendStatusPendingReceived, friendStatus(t, env, bob, alice))

	var incoming []dto.FriendRequestInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/friends/requests", bob.Token, nil, &incoming)
	require.Len(t, incoming, 1)
	assert.Equal(t, req.ID, incoming[0].ID)
	assert.Equal(t, alice.ID, incoming[0].From.ID)

	notes, unread := env.notifications(bob)
	require.Len(t, notes, 1)
	assert.EqualValues(t, 1, unread)
	assert.Equal(t, string(database.NotificationFriendRequest), notes[0].Type)
	assert.Equal(t, req.ID, notes[0].RelatedID)
	require.NotNil(t, notes[0].Sender)
	assert.Equal(t, alice.ID, notes[0].Sender.ID)

	code, _ = env.do(http.MethodPut, "/api/friends/accept/"+req.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, code, "only the addressee may answer")

	env.ok(http.StatusOK, http.MethodPut, "/api/friends/accept/"+req.ID, bob.Token, nil, nil)
	assert.Equal(t, dto.FriendStatusFriends, friendStatus(t, env, alice, bob))

	code, resp = env.do(http.MethodPut, "/api/friends/accept/"+req.ID, bob.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ErrorRequestNotPending", resp.Error)

	var friends []dto.UserInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/friends", alice.Token, nil, &friends)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].ID)

	notes, _ = env.notifications(alice)
	require.Len(t, notes, 1)
	assert.Equal(t, string(database.NotificationFriendAccept), notes[0].Type)

	code, resp = env.do(http.MethodPost, "/api/friends/request/"+bob.ID, alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ErrorAlreadyFriends", resp.Error)
}

func TestFriends_RejectRemoveAndSuggestions(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	carol := env.signup("carol")

	var suggested []dto.UserInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/friends/suggestions", alice.Token, nil, &suggested)
	assert.Len(t, suggested, 2)

	var req database.Friendship
	env.ok(http.StatusCreated, http.MethodPost, "/api/friends/request/"+carol.ID, alice.Token, nil, &req)
	env.ok(http.StatusOK, http.MethodGet, "/api/friends/suggestions", alice.Token, nil, &suggested)
	require.Len(t, suggested, 1)
	assert.Equal(t, bob.ID, suggested[0].ID)

	env.ok(http.StatusOK, http.MethodPut, "/api/friends/reject/"+req.ID, carol.Token, nil, nil)
	assert.Equal(t, dto.FriendStatusNone, friendStatus(t, env, alice, carol))
	notes, _ := env.notifications(alice)
	require.Len(t, notes, 1)
	assert.Equal(t, string(database.NotificationFriendReject), notes[0].Type)

	env.befriend(alice, bob)
	env.ok(http.StatusOK, http.MethodDelete, "/api/friends/"+alice.ID, bob.Token, nil, nil)
	assert.Equal(t, dto.FriendStatusNone, friendStatus(t, env, alice, bob))

	code, resp := env.do(http.MethodDelete, "/api/friends/"+bob.ID, alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "ErrorNotFriends", resp.Error)
}

func TestPosts_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")

	code, resp := env.do(http.MethodPost, "/api/posts", alice.Token, dto.CreatePostRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ErrorRequiredField", resp.Error)

	var post dto.PostInfo
	env.ok(http.StatusCreated, http.MethodPost, "/api/posts", alice.Token, dto.CreatePostRequest{Content: " first post "}, &post)
	assert.Equal(t, "first post", post.Content)
	assert.Equal(t, alice.ID, post.Author.ID)

	edited := "edited"
	code, resp = env.do(http.MethodPut, "/api/posts/"+post.ID, bob.Token, dto.UpdatePostRequest{Content: &edited})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "ErrorNotPostAuthor", resp.Error)

	var updated dto.PostInfo
	env.ok(http.StatusOK, http.MethodPut, "/api/posts/"+post.ID, alice.Token, dto.UpdatePostRequest{Content: &edited}, &updated)
	assert.Equal(t, edited, updated.Content)

	var got dto.PostInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/posts/"+post.ID, bob.Token, nil, &got)
	assert.Equal(t, edited, got.Content)

	code, resp = env.do(http.MethodDelete, "/api/posts/"+post.ID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	env.ok(http.StatusOK, http.MethodDelete, "/api/posts/"+post.ID, alice.Token, nil, nil)

	code, resp = env.do(http.MethodGet, "/api/posts/"+post.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ErrorPostNotFound", resp.Error)
}

func TestPosts_LikesAndCommentsNotifyAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")

	var post dto.PostInfo
	env.ok(http.StatusCreated, http.MethodPost, "/api/posts", alice.Token, dto.CreatePostRequest{Content: "hello"}, &post)

	var like dto.LikeResult
	env.ok(http.StatusOK, http.MethodPost, "/api/posts/"+post.ID+"/like", alice.Token, nil, &like)
	assert.Equal(t, dto.LikeResult{Liked: true, LikeCount: 1}, like)
	notes, _ := env.notifications(alice)
	assert.Empty(t, notes, "liking your own post notifies nobody")

	env.ok(http.StatusOK, http.MethodPost, "/api/posts/"+post.ID+"/like", bob.Token, nil, &like)
	assert.Equal(t, dto.LikeResult{Liked: true, LikeCount: 2}, like)
	env.ok(http.StatusOK, http.MethodPost, "/api/posts/"+post.ID+"/like", bob.Token, nil, &like)
	assert.Equal(t, dto.LikeResult{Liked: false, LikeCount: 1}, like)

	var comment dto.CommentInfo
	env.ok(http.StatusCreated, http.MethodPost, "/api/posts/"+post.ID+"/comments", bob.Token,
		dto.CreateCommentRequest{Content: "nice"}, &comment)
	assert.Equal(t, bob.ID, comment.Author.ID)

	code, resp := env.do(http.MethodPost, "/api/posts/missing/comments", bob.Token, dto.CreateCommentRequest{Content: "nice"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ErrorPostNotFound", resp.Error)

	var comments []dto.CommentInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/posts/"+post.ID+"/comments", alice.Token, nil, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Content)

	notes, unread := env.notifications(alice)
	require.Len(t, notes, 2)
	assert.EqualValues(t, 2, unread)
	types := []string{notes[0].Type, notes[1].Type}
	assert.ElementsMatch(t, []string{string(database.NotificationLike), string(database.NotificationComment)}, types)
	for _, n := range notes {
		assert.Equal(t, post.ID, n.RelatedID)
	}

	var got dto.PostInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/posts/"+post.ID, alice.Token, nil, &got)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, 1, got.CommentCount)
}

func TestPosts_FeedAndAuthorFilter(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	carol := env.signup("carol")
	env.befriend(alice, bob)

	for _, a := range []account{alice, bob, carol} {
		env.ok(http.StatusCreated, http.MethodPost, "/api/posts", a.Token, dto.CreatePostRequest{Content: "post"}, nil)
	}

	var all []dto.PostInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/posts", alice.Token, nil, &all)
	assert.Len(t, all, 3)

	var feed []dto.PostInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/posts?feed=true", alice.Token, nil, &feed)
	require.Len(t, feed, 2)
	authors := []string{feed[0].Author.ID, feed[1].Author.ID}
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, authors)

	var byCarol []dto.PostInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/posts?authorId="+carol.ID, alice.Token, nil, &byCarol)
	require.Len(t, byCarol, 1)
	assert.Equal(t, carol.ID, byCarol[0].Author.ID)

	var page []dto.PostInfo
	env.ok(http.StatusOK, http.MethodGet, "/api/posts?limit=2&offset=2", alice.Token, nil, &page)
	assert.Len(t, page, 1)
}
