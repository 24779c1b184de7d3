package store

import (
	"context"
	"database/sql"
)

// Contact is a notification destination registered for an owner.
type Contact struct {
	ID    int64
	Owner string
	Name  string
	Phone string
}

// ContactRepository provides access to emergency contacts.
type ContactRepository struct {
	db *sql.DB
}

// Contacts returns the contact repository for this store.
func (s *Store) Contacts() *ContactRepository {
	return &ContactRepository{db: s.db}
}

// Add registers a contact for an owner.
func (r *ContactRepository) Add(ctx context.Context, contact *Contact) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO emergency_contacts (owner, name, phone) VALUES (?, ?, ?)`,
		contact.Owner, contact.Name, contact.Phone,
	)
	if err != nil {
		return err
	}

	contact.ID, err = result.LastInsertId()
	return err
}

// ListByOwner returns every contact registered for the owner.
func (r *ContactRepository) ListByOwner(ctx context.Context, owner string) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, phone FROM emergency_contacts WHERE owner = ? ORDER BY id`,
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Phone); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return contacts, nil
}

// Delete removes a contact by id.
func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
