package storage

import "context"

// GetOrCreateUser finds or creates a user by identity login name and
// returns the user ID. Updates last_seen on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login)
		VALUES ($1)
		ON CONFLICT (login) DO UPDATE SET last_seen = NOW()
		RETURNING id
	`, login).Scan(&id)
	return id, err
}
