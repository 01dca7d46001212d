package sqlstore

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/isdelr/bookfeed-be/internal/models"
)

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Country      string `db:"country"`
	Role         string `db:"role"`
}

type userLibraryRow struct {
	UserID    string `db:"user_id"`
	LibraryID string `db:"library_id"`
	Position  int    `db:"position"`
}

// CreateUser inserts a user together with its library memberships.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := dialect.Insert(tableUsers).Rows(userRow{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Country:      user.Country,
		Role:         user.Role,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapWriteErr(err)
	}

	if len(user.Libraries) > 0 {
		rows := make([]interface{}, 0, len(user.Libraries))
		for i, libraryID := range user.Libraries {
			rows = append(rows, userLibraryRow{UserID: user.ID, LibraryID: libraryID, Position: i})
		}
		query, args, err = dialect.Insert(tableUserLibraries).Rows(rows...).Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapWriteErr(err)
		}
	}

	return tx.Commit()
}

// GetUserByUsername retrieves a user, including the password hash and memberships.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var row userRow
	ds := dialect.From(tableUsers).
		Select("id", "username", "password_hash", "country", "role").
		Where(goqu.C("username").Eq(username))
	if err := s.get(ctx, &row, ds); err != nil {
		return models.User{}, err
	}

	libraries := []string{}
	libs := dialect.From(tableUserLibraries).
		Select("library_id").
		Where(goqu.C("user_id").Eq(row.ID)).
		Order(goqu.C("position").Asc())
	if err := s.selectAll(ctx, &libraries, libs); err != nil {
		return models.User{}, err
	}

	return models.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Country:      row.Country,
		Libraries:    libraries,
		Role:         row.Role,
	}, nil
}
