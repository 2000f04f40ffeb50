package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

// SavePerson inserts or updates a directory entry.
func (s *SQLiteStore) SavePerson(ctx context.Context, person *models.Person) error {
	var email interface{} = nil
	if person.Email != "" {
		email = person.Email
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO people (guid, name, email, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET name = excluded.name, email = excluded.email`,
		person.GUID, person.Name, email, person.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save person: %w", err)
	}
	return nil
}

// GetPerson retrieves a directory entry by GUID.
func (s *SQLiteStore) GetPerson(ctx context.Context, guid string) (*models.Person, error) {
	person := &models.Person{}
	var email sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT guid, name, email, created_at FROM people WHERE guid = ?",
		guid,
	).Scan(&person.GUID, &person.Name, &email, &person.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("person %s: %w", guid, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	if email.Valid {
		person.Email = email.String
	}
	return person, nil
}

// ListPeople lists the directory ordered by name.
func (s *SQLiteStore) ListPeople(ctx context.Context) ([]*models.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT guid, name, email, created_at FROM people ORDER BY name, guid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []*models.Person
	for rows.Next() {
		person := &models.Person{}
		var email sql.NullString
		if err := rows.Scan(&person.GUID, &person.Name, &email, &person.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		if email.Valid {
			person.Email = email.String
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}
	return people, nil
}
