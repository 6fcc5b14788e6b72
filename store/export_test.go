// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
)

// SetBeforeWrite installs a hook that runs inside Apply's transaction just
// before the version-checked UPDATE.
func (r *Repository) SetBeforeWrite(f func(ctx context.Context, tx *sql.Tx, id string) error) {
	r.beforeWrite = f
}
