package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// showPool is the demo show catalog. Slugs, not titles: the client
// resolves display data from its own catalog.
var showPool = []string{
	"breaking-bad", "the-wire", "dark", "severance", "succession",
	"the-office", "fleabag", "chernobyl", "true-detective", "the-bear",
	"better-call-saul", "atlanta", "barry", "fargo", "mindhunter",
	"peaky-blinders", "the-expanse", "andor", "station-eleven", "ozark",
}

var cities = []string{"London", "Berlin", "Madrid", "Lisbon"}

// SeedTestData resets the database and populates it with demo users,
// favorite sets with controlled overlaps, and the preference index.
//
// Behavior:
//  1. Clears all engine tables.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords and
//     complete compatibility profiles; every 7th user is left with an
//     incomplete profile to exercise the skip path.
//  3. Gives each user 5-10 favorites drawn from a shared pool so that
//     searches actually find overlaps.
//  4. Indexes every favorite in the preference index.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{
		"match_records", "preference_entries", "favorites",
		"blocks", "conversations", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Println("Cleared existing data")

	// --- Seed Users (10 male, 10 female) ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender := "male"
		matchWith := MatchWithFemale
		if i > 10 {
			gender = "female"
			matchWith = MatchWithMale
		}
		if i%5 == 0 {
			matchWith = MatchWithEveryone
		}

		matchLocation := MatchLocationWorldwide
		if i%4 == 0 {
			matchLocation = MatchLocationLocal
		}

		user := User{
			Username:      fmt.Sprintf("user%d", i),
			Email:         fmt.Sprintf("user%d@example.com", i),
			PasswordHash:  string(hash),
			Active:        true,
			DisplayName:   fmt.Sprintf("User %d", i),
			Age:           uint32(21 + r.Intn(20)),
			ProfilePic:    fmt.Sprintf("https://pics.example.com/%d.jpg", i),
			Gender:        gender,
			MatchWith:     matchWith,
			Location:      cities[i%len(cities)],
			MatchLocation: matchLocation,
		}

		// Leave some profiles incomplete to exercise the skip path.
		if i%7 == 0 {
			user.DisplayName = ""
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		// --- Favorites + preference index ---
		count := 5 + r.Intn(6)
		offset := r.Intn(len(showPool))
		for j := 0; j < count; j++ {
			showID := showPool[(offset+j)%len(showPool)]

			fav := Favorite{UserID: user.ID, ShowID: showID}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&fav).Error; err != nil {
				return fmt.Errorf("failed to seed favorite: %w", err)
			}

			entry := PreferenceEntry{
				ShowID:      showID,
				UserID:      user.ID,
				ConfirmedAt: time.Now().UTC(),
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "show_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"confirmed_at"}),
			}).Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to seed preference entry: %w", err)
			}
		}
	}

	log.Println("Seeded 20 users with favorites.")
	return nil
}
