//go:build integration
// +build integration

package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/internal/testutil"
	"github.com/anonto42/postboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupPostgres starts a PostgreSQL container and returns a migrated gorm handle.
func setupPostgres(t *testing.T) *gorm.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("postboard"),
		postgres.WithUsername("postboard"),
		postgres.WithPassword("postboard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := config.OpenSQL("postgres", connStr, zap.NewNop(), false)
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

func TestPostgres_CascadesAndFeeds(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	users := repositories.NewSQLUserRepository(db)
	groups := repositories.NewSQLGroupRepository(db)
	posts := repositories.NewSQLPostRepository(db)
	comments := repositories.NewSQLCommentRepository(db)
	follows := repositories.NewSQLFollowRepository(db)

	reader := testutil.CreateUser(t, db, "reader")
	leo := testutil.CreateUser(t, db, "leo")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")
	post := testutil.CreatePost(t, db, leo, cats, "meow")
	require.NoError(t, comments.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "nice"}))

	require.NoError(t, follows.CreateFollow(ctx, reader.ID, leo.ID))
	require.NoError(t, follows.CreateFollow(ctx, reader.ID, leo.ID))
	assert.EqualValues(t, 1, testutil.CountFollows(t, db))

	readerID := reader.ID
	feed, err := posts.ListPosts(ctx, repositories.PostFilter{FollowerID: &readerID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	require.NoError(t, groups.DeleteGroup(ctx, "cats"))
	got, err := posts.GetPostByAuthor(ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)

	require.NoError(t, users.DeleteUser(ctx, leo.ID))
	assert.Zero(t, testutil.CountPosts(t, db))
	assert.Zero(t, testutil.CountComments(t, db))
	assert.Zero(t, testutil.CountFollows(t, db))
}

func TestMongoFlatPageRepository(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start MongoDB container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "mongodb")
	require.NoError(t, err)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(ctx) })

	db := client.Database("postboard")
	_, err = db.Collection("flatpages").InsertOne(ctx, models.FlatPage{URL: "/about/tech/", Title: "Tech", Content: "Go"})
	require.NoError(t, err)

	repo := repositories.NewMongoFlatPageRepository(db)
	page, err := repo.GetFlatPageByURL(ctx, "/about/tech/")
	require.NoError(t, err)
	assert.Equal(t, "Tech", page.Title)

	_, err = repo.GetFlatPageByURL(ctx, "/about/author/")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
