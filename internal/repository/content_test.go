package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/rabbit-store-api/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var commentCols = []string{"id", "product_id", "user_id", "content", "rating", "created_at", "updated_at",
	"name", "avatar_url", "product_name"}

func TestCommentRepo_ListByProduct(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepository(db)

	productID, userID := uuid.New(), uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(commentCols).
		AddRow(uuid.New().String(), productID.String(), userID.String(), "Great fit", 5, now, now, "Jane", "https://a/1.png", "Shirt").
		AddRow(uuid.New().String(), productID.String(), userID.String(), "Too small", 2, now, now, "Jane", "", "Shirt")
	mock.ExpectQuery("FROM comments c").WithArgs(productID).WillReturnRows(rows)

	comments, err := repo.ListByProduct(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Jane", comments[0].AuthorName)
	assert.Equal(t, 5, comments[0].Rating)
	assert.Equal(t, userID, comments[1].UserID)
}

func TestCommentRepo_GetByIDMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepository(db)

	id := uuid.New()
	mock.ExpectQuery("WHERE c.id = ").WithArgs(id).WillReturnRows(sqlmock.NewRows(commentCols))

	c, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCommentRepo_DeleteNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepository(db)

	id := uuid.New()
	mock.ExpectExec("DELETE FROM comments").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
}

func TestCommentRepo_ListPaginated(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("LIMIT").WithArgs(10, 10).WillReturnRows(sqlmock.NewRows(commentCols).
		AddRow(uuid.New().String(), uuid.New().String(), uuid.New().String(), "ok", 4, now, now, "Bob", "", "Jeans"))

	comments, total, err := repo.List(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, comments, 1)
	assert.Equal(t, "Jeans", comments[0].ProductName)
}

var postCols = []string{"id", "title", "content", "excerpt", "featured_image", "images", "author_id", "status",
	"views", "likes", "seo_title", "seo_description", "created_at", "updated_at", "name", "avatar_url"}

func TestPostRepo_ViewPublished(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("UPDATE posts SET views = views \\+ 1").WithArgs(id).WillReturnRows(sqlmock.NewRows(postCols).
		AddRow(id.String(), "Summer", "body", "", "https://img/f.jpg", "{https://img/a.jpg,https://img/b.jpg}",
			uuid.New().String(), model.PostStatusPublished, 8, 1, "", "", now, now, "Admin", ""))

	post, err := repo.ViewPublished(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, 8, post.Views)
	assert.Equal(t, []string{"https://img/a.jpg", "https://img/b.jpg"}, post.Images)
	assert.Equal(t, "Admin", post.AuthorName)
}

func TestPostRepo_ViewPublishedDraftIsMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	id := uuid.New()
	mock.ExpectQuery("UPDATE posts SET views").WithArgs(id).WillReturnRows(sqlmock.NewRows(postCols))

	post, err := repo.ViewPublished(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestPostRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	now := time.Now()
	p := &model.Post{Title: "Hello", Content: "c", FeaturedImage: "f", AuthorID: uuid.New(), Status: model.PostStatusDraft}
	mock.ExpectQuery("INSERT INTO posts").
		WithArgs(sqlmock.AnyArg(), "Hello", "c", "", "f", "{}", p.AuthorID, model.PostStatusDraft, "", "").
		WillReturnRows(sqlmock.NewRows([]string{"views", "likes", "created_at", "updated_at"}).AddRow(0, 0, now, now))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, []string{}, p.Images)
}

func TestCategoryRepo_CreateDuplicateSlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	mock.ExpectQuery("INSERT INTO categories").
		WithArgs(sqlmock.AnyArg(), "Top Wear", "top-wear", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &model.Category{Name: "Top Wear", Slug: "top-wear"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCategoryRepo_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	c := &model.Category{ID: uuid.New(), Name: "X", Slug: "x"}
	mock.ExpectQuery("UPDATE categories").WithArgs(c.ID, "X", "x", "").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	assert.ErrorIs(t, repo.Update(context.Background(), c), ErrNotFound)
}

func TestContactRepo_Complete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContactRepository(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("UPDATE contacts SET status").WithArgs(id, model.ContactStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "message", "status", "created_at", "updated_at"}).
			AddRow(id.String(), "Ann", "ann@example.com", "hi", model.ContactStatusCompleted, now, now))

	c, err := repo.SetStatus(context.Background(), id, model.ContactStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, model.ContactStatusCompleted, c.Status)
}

func TestContactRepo_CreateDefaultsToPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContactRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO contacts").
		WithArgs(sqlmock.AnyArg(), "Ann", "ann@example.com", "hi", model.ContactStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c := &model.Contact{Name: "Ann", Email: "ann@example.com", Message: "hi"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, model.ContactStatusPending, c.Status)
}

func TestSubscriberRepo_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepository(db)

	mock.ExpectQuery("INSERT INTO subscribers").WithArgs(sqlmock.AnyArg(), "a@example.com").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &model.Subscriber{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
