package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'duty_status') THEN
			CREATE TYPE duty_status AS ENUM ('OFF_DUTY', 'SLEEPER_BERTH', 'DRIVING', 'ON_DUTY_NOT_DRIVING');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'log_source') THEN
			CREATE TYPE log_source AS ENUM ('MANUAL', 'AUTOMATIC');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'violation_severity') THEN
			CREATE TYPE violation_severity AS ENUM ('MINOR', 'MODERATE', 'SERIOUS', 'CRITICAL');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS duty_status_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL,
		status duty_status NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		location TEXT,
		latitude NUMERIC(9,6),
		longitude NUMERIC(9,6),
		vehicle_id UUID,
		odometer NUMERIC(10,1),
		source log_source NOT NULL DEFAULT 'MANUAL',
		notes TEXT,
		is_edited BOOLEAN NOT NULL DEFAULT FALSE,
		edited_at TIMESTAMPTZ,
		edit_reason TEXT,
		is_certified BOOLEAN NOT NULL DEFAULT FALSE,
		certified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_duty_status_logs_driver_start ON duty_status_logs (driver_id, start_time);`,
	// Storage-level enforcement of "at most one open log per driver";
	// the service layer takes no locks.
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_driver_open_log
		ON duty_status_logs (driver_id)
		WHERE end_time IS NULL;`,
	`CREATE TABLE IF NOT EXISTS hos_violations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL,
		log_id UUID REFERENCES duty_status_logs(id) ON DELETE SET NULL,
		type VARCHAR(64) NOT NULL,
		severity violation_severity NOT NULL,
		actual_value NUMERIC(6,2) NOT NULL,
		limit_value NUMERIC(6,2) NOT NULL,
		description TEXT NOT NULL,
		violation_date_time TIMESTAMPTZ NOT NULL,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at TIMESTAMPTZ,
		resolution_notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_hos_violations_driver_id ON hos_violations (driver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_hos_violations_unresolved ON hos_violations (driver_id, type) WHERE is_resolved = FALSE;`,
	`CREATE INDEX IF NOT EXISTS idx_hos_violations_date ON hos_violations (violation_date_time);`,
}

func runMigrations(database *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
