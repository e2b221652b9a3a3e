package database

import (
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"acroyoga_club_backend/pkg/utils"
)

// SeedDevData inserts a handful of accounts, activities and a trimester
// for local development. Idempotent via ON CONFLICT / IF NOT EXISTS
// guards; never enable against production data.
func SeedDevData(db *sql.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seeding: hashing password: %w", err)
	}

	users := []struct {
		fullName string
		email    string
		isMember bool
		isAdmin  bool
	}{
		{"Alicia Navarro", "admin@acroyogavalencia.com", true, true},
		{"Marta Soler", "marta@example.com", true, false},
		{"Jordi Ferrer", "jordi@example.com", false, false},
	}
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (full_name, email, password, is_member, is_admin, status, mailing_enabled)
			VALUES ($1, $2, $3, $4, $5, 'active', TRUE)
			ON CONFLICT (email) DO NOTHING`,
			u.fullName, u.email, string(hash), u.isMember, u.isAdmin)
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", u.email, err)
		}
	}

	nextSaturday := time.Now().AddDate(0, 0, int((time.Saturday-time.Now().Weekday()+7)%7))
	activities := []struct {
		title    string
		price    *string
		capacity int
	}{
		{"Beginners acroyoga jam", strPtr("8.00"), 16},
		{"Intermediate flows workshop", strPtr("12.50"), 10},
		{"Community picnic", nil, 40},
	}
	for _, a := range activities {
		_, err := db.Exec(`
			INSERT INTO activities (title, description, date_time, location_name, location_address, capacity, price_for_non_members)
			SELECT $1, 'Seeded for development.', $2, 'Parque de Cabecera', 'Av. Pío Baroja, Valencia', $3, $4
			WHERE NOT EXISTS (SELECT 1 FROM activities WHERE title = $1)`,
			a.title, nextSaturday, a.capacity, a.price)
		if err != nil {
			return fmt.Errorf("seeding activity %q: %w", a.title, err)
		}
	}

	_, err = db.Exec(`
		INSERT INTO trimesters (name, membership_fee)
		SELECT 'Autumn 2026', '45.00'
		WHERE NOT EXISTS (SELECT 1 FROM trimesters WHERE name = 'Autumn 2026')`)
	if err != nil {
		return fmt.Errorf("seeding trimester: %w", err)
	}

	utils.LogInfo("Development seed data applied")
	return nil
}

func strPtr(s string) *string {
	return &s
}
