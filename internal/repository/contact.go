package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	List(ctx context.Context) ([]model.Contact, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *model.Subscriber) error
	List(ctx context.Context) ([]model.Subscriber, error)
}

const contactColumns = `id, name, email, message, status, created_at, updated_at`

type sqlContactRepo struct{ db *sql.DB }

func NewContactRepository(db *sql.DB) ContactRepository {
	return &sqlContactRepo{db: db}
}

func scanContact(row rowScanner) (*model.Contact, error) {
	c := &model.Contact{}
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *sqlContactRepo) Create(ctx context.Context, c *model.Contact) error {
	c.ID = uuid.New()
	if c.Status == "" {
		c.Status = model.ContactStatusPending
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contacts (id, name, email, message, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.Message, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *sqlContactRepo) List(ctx context.Context) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// SetStatus returns nil, nil when the contact does not exist.
func (r *sqlContactRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx,
		`UPDATE contacts SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+contactColumns,
		id, status,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("set contact status: %w", err)
	}
	return c, nil
}

func (r *sqlContactRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return expectAffected(res)
}

type sqlSubscriberRepo struct{ db *sql.DB }

func NewSubscriberRepository(db *sql.DB) SubscriberRepository {
	return &sqlSubscriberRepo{db: db}
}

func (r *sqlSubscriberRepo) Create(ctx context.Context, s *model.Subscriber) error {
	s.ID = uuid.New()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO subscribers (id, email, created_at) VALUES ($1, $2, NOW()) RETURNING created_at`,
		s.ID, s.Email,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}

func (r *sqlSubscriberRepo) List(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, email, created_at FROM subscribers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscriber
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
