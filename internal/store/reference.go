package store

import (
	"context"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
)

// Greylist marks a string as not worth translating on a branch. The
// language of key is ignored.
func (s *Store) Greylist(ctx context.Context, key models.Key) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO greylist (branch, component, string_id) VALUES (?, ?, ?)
	`, key.Branch, key.Component, key.StringID)
	if err != nil {
		return lerrors.Storage(err, "greylist %s", key)
	}
	return nil
}

// Ungreylist removes a string from the greylist
func (s *Store) Ungreylist(ctx context.Context, key models.Key) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM greylist WHERE branch = ? AND component = ? AND string_id = ?
	`, key.Branch, key.Component, key.StringID)
	if err != nil {
		return lerrors.Storage(err, "ungreylist %s", key)
	}
	return nil
}

// IsGreylisted reports whether the string is greylisted on its branch
func (s *Store) IsGreylisted(ctx context.Context, key models.Key) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM greylist WHERE branch = ? AND component = ? AND string_id = ?
	`, key.Branch, key.Component, key.StringID).Scan(&n)
	if err != nil {
		return false, lerrors.Storage(err, "check greylist %s", key)
	}
	return n > 0, nil
}

// GreylistedKeys returns every greylisted string. Lang is left empty.
func (s *Store) GreylistedKeys(ctx context.Context) ([]models.Key, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch, component, string_id FROM greylist
		ORDER BY branch DESC, component, string_id`)
	if err != nil {
		return nil, lerrors.Storage(err, "list greylist")
	}
	defer rows.Close()

	var keys []models.Key
	for rows.Next() {
		var k models.Key
		if err := rows.Scan(&k.Branch, &k.Component, &k.StringID); err != nil {
			return nil, lerrors.Storage(err, "scan greylist")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "list greylist")
	}
	return keys, nil
}

// SetAppString records that component/stringID is used by the given app
func (s *Store) SetAppString(ctx context.Context, appID, component, stringID string) error {
	return s.setUsage(ctx, "app_strings", "appid", appID, component, stringID)
}

// AppStrings maps "component/stringid" to the id of the app using it
func (s *Store) AppStrings(ctx context.Context) (map[string]string, error) {
	return s.usage(ctx, "app_strings", "appid")
}

// SetWorkplaceString records that component/stringID is used by the given
// workplace app
func (s *Store) SetWorkplaceString(ctx context.Context, workplaceID, component, stringID string) error {
	return s.setUsage(ctx, "workplace_strings", "workplaceid", workplaceID, component, stringID)
}

// WorkplaceStrings maps "component/stringid" to the id of the workplace app
// using it
func (s *Store) WorkplaceStrings(ctx context.Context) (map[string]string, error) {
	return s.usage(ctx, "workplace_strings", "workplaceid")
}

// table and column are fixed by the callers above
func (s *Store) setUsage(ctx context.Context, table, column, id, component, stringID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (`+column+`, component, string_id) VALUES (?, ?, ?)
		ON CONFLICT (component, string_id) DO UPDATE SET `+column+` = excluded.`+column,
		id, component, stringID)
	if err != nil {
		return lerrors.Storage(err, "record %s %s/%s", table, component, stringID)
	}
	return nil
}

func (s *Store) usage(ctx context.Context, table, column string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+column+", component, string_id FROM "+table)
	if err != nil {
		return nil, lerrors.Storage(err, "load %s", table)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, component, stringID string
		if err := rows.Scan(&id, &component, &stringID); err != nil {
			return nil, lerrors.Storage(err, "scan %s", table)
		}
		out[component+"/"+stringID] = id
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "load %s", table)
	}
	return out, nil
}
