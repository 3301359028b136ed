package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertrooper/backend/internal/model"
	jwtpkg "github.com/supertrooper/backend/pkg/jwt"
)

func newPortfolioService(t *testing.T) *PortfolioService {
	return NewPortfolioService(newTestDB(t), testSecret, testAESKey, "https://example.com/")
}

func tokenFor(t *testing.T, u model.User) string {
	t.Helper()
	tok, _, err := jwtpkg.GenerateToken(testSecret, u.ID, string(u.Role), 1)
	require.NoError(t, err)
	return tok
}

func TestPortfolioCreateAndShare(t *testing.T) {
	svc := newPortfolioService(t)
	ctx := context.Background()
	owner := seedUser(t, svc.db, "o@example.com", model.RoleUser)
	other := seedUser(t, svc.db, "x@example.com", model.RoleUser)

	for _, tok := range []string{"garbage", tokenFor(t, other)} {
		res, err := svc.Create(ctx, CreatePortfolioInput{UserID: owner.ID, Title: "T", AuthToken: tok})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Invalid authentication token.", res.Message)
	}

	res, err := svc.Create(ctx, CreatePortfolioInput{UserID: owner.ID, Title: "Works", Description: "d", AuthToken: tokenFor(t, owner)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Portfolio created successfully.", res.Message)
	require.True(t, strings.HasPrefix(res.Link, "https://example.com/public/portfolios/"))

	token := strings.TrimPrefix(res.Link, "https://example.com/public/portfolios/")
	shared, err := svc.Shared(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, res.PortfolioID, shared.PortfolioID)
	assert.Equal(t, owner.ID, shared.UserID)
	assert.Equal(t, "Works", shared.Title)

	_, err = svc.Shared(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPortfolioCreateByAdminForMissingUser(t *testing.T) {
	svc := newPortfolioService(t)
	ctx := context.Background()
	admin := seedUser(t, svc.db, "admin@example.com", model.RoleAdmin)

	res, err := svc.Create(ctx, CreatePortfolioInput{UserID: 999, Title: "T", AuthToken: tokenFor(t, admin)})
	require.NoError(t, err)
	assert.Equal(t, "User not found.", res.Message)

	bare := model.User{Name: "bare", Email: "bare@example.com", Password: "x", Role: model.RoleUser}
	require.NoError(t, svc.db.Create(&bare).Error)
	res, err = svc.Create(ctx, CreatePortfolioInput{UserID: bare.ID, Title: "T", AuthToken: tokenFor(t, admin)})
	require.NoError(t, err)
	assert.Equal(t, "User profile not found.", res.Message)
}

func TestPortfolioGet(t *testing.T) {
	svc := newPortfolioService(t)
	ctx := context.Background()
	owner := seedUser(t, svc.db, "o@example.com", model.RoleUser)
	var profile model.Profile
	require.NoError(t, svc.db.Where("user_id = ?", owner.ID).First(&profile).Error)
	pf := model.Portfolio{ProfileID: profile.ID, Title: "P"}
	require.NoError(t, svc.db.Create(&pf).Error)
	post := model.Post{Title: "shot", Content: "{}", Type: model.PostImage, UserID: owner.ID, PortfolioID: &pf.ID}
	require.NoError(t, svc.db.Create(&post).Error)

	res, err := svc.Get(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, res.Portfolios, 1)
	assert.Equal(t, map[uint]string{post.ID: "shot"}, res.Portfolios[0].ContentDetails)

	none, err := svc.Get(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, none.Portfolios)
	assert.Empty(t, none.Portfolios)
}

func TestPortfolioUpdate(t *testing.T) {
	svc := newPortfolioService(t)
	ctx := context.Background()
	owner := seedUser(t, svc.db, "o@example.com", model.RoleUser)
	other := seedUser(t, svc.db, "x@example.com", model.RoleUser)

	missing, err := svc.Update(ctx, owner.ID, UpdatePortfolioInput{Title: "T"})
	require.NoError(t, err)
	assert.False(t, missing.Updated)

	var profile model.Profile
	require.NoError(t, svc.db.Where("user_id = ?", owner.ID).First(&profile).Error)
	pf := model.Portfolio{ProfileID: profile.ID, Title: "old"}
	require.NoError(t, svc.db.Create(&pf).Error)
	mine := model.Post{Title: "mine", Content: "{}", Type: model.PostText, UserID: owner.ID}
	require.NoError(t, svc.db.Create(&mine).Error)
	theirs := model.Post{Title: "theirs", Content: "{}", Type: model.PostText, UserID: other.ID}
	require.NoError(t, svc.db.Create(&theirs).Error)

	_, err = svc.Update(ctx, owner.ID, UpdatePortfolioInput{Title: "T", ContentItems: []ContentItem{{ContentID: mine.ID, ContentType: "GIF"}}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	res, err := svc.Update(ctx, owner.ID, UpdatePortfolioInput{
		Title: "new",
		ContentItems: []ContentItem{
			{ContentID: mine.ID, ContentData: "updated", ContentType: "IMAGE"},
			{ContentID: theirs.ID, ContentData: "copied", ContentType: "TEXT"},
		},
	})
	require.NoError(t, err)
	require.True(t, res.Updated)
	require.Len(t, res.UpdatedItems, 2)
	assert.Equal(t, mine.ID, res.UpdatedItems[0].ContentID)
	assert.NotEqual(t, theirs.ID, res.UpdatedItems[1].ContentID)

	var stored model.Post
	require.NoError(t, svc.db.First(&stored, mine.ID).Error)
	assert.Equal(t, model.PostImage, stored.Type)
	assert.Equal(t, `"updated"`, stored.Content)
	assert.Equal(t, "new", stored.Title)
	require.NotNil(t, stored.PortfolioID)
	assert.Equal(t, pf.ID, *stored.PortfolioID)

	var created model.Post
	require.NoError(t, svc.db.First(&created, res.UpdatedItems[1].ContentID).Error)
	assert.Equal(t, owner.ID, created.UserID)
	assert.Equal(t, "new", created.Title)

	var untouched model.Post
	require.NoError(t, svc.db.First(&untouched, theirs.ID).Error)
	assert.Nil(t, untouched.PortfolioID)

	var renamed model.Portfolio
	require.NoError(t, svc.db.First(&renamed, pf.ID).Error)
	assert.Equal(t, "new", renamed.Title)
}

func TestPortfolioDeleteDetachesPosts(t *testing.T) {
	svc := newPortfolioService(t)
	ctx := context.Background()
	owner := seedUser(t, svc.db, "o@example.com", model.RoleUser)
	var profile model.Profile
	require.NoError(t, svc.db.Where("user_id = ?", owner.ID).First(&profile).Error)
	pf := model.Portfolio{ProfileID: profile.ID, Title: "P"}
	require.NoError(t, svc.db.Create(&pf).Error)
	post := model.Post{Title: "p", Content: "{}", Type: model.PostText, UserID: owner.ID, PortfolioID: &pf.ID}
	require.NoError(t, svc.db.Create(&post).Error)

	res, err := svc.Delete(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "User's portfolio successfully deleted.", res.Message)
	assert.True(t, res.Done)
	assert.Zero(t, count(t, svc.db, &model.Portfolio{}, "profile_id = ?", profile.ID))
	assert.Equal(t, int64(1), count(t, svc.db, &model.Post{}, "id = ? AND portfolio_id IS NULL", post.ID))

	gone, err := svc.Delete(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, "User profile or portfolio does not exist.", gone.Message)
	assert.False(t, gone.Done)
}
