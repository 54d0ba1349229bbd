/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate applies schema migrations for the given models using GORM auto-migrate.
func Migrate(database *gorm.DB, models ...any) error {
	if err := database.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
