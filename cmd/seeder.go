package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo client, users and categories for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm connection: %v", err)
		}

		clientID := seedClient(db, "Condor Labs SAC", "20503000001")
		seedUser(db, clientID, "maria@condorlabs.pe", "María Torres")
		seedUser(db, clientID, "jorge@condorlabs.pe", "Jorge Quispe")
		seedCategory(db, clientID, "viaticos", "Viáticos y movilidad")
		seedCategory(db, clientID, "servicios", "Servicios de terceros")
	},
}

func seedClient(db *gorm.DB, name, ruc string) string {
	var id string
	row := db.Raw("SELECT id FROM clients WHERE ruc = ?", ruc).Row()
	if err := row.Scan(&id); err == nil {
		fmt.Println("client already exists:", ruc)
		return id
	}

	id = uuid.New().String()
	if err := db.Exec(
		"INSERT INTO clients (id, name, ruc, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())",
		id, name, ruc,
	).Error; err != nil {
		log.Fatalf("failed to insert client: %v", err)
	}
	fmt.Println("Seeded client:", name)
	return id
}

func seedUser(db *gorm.DB, clientID, email, name string) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE client_id = ? AND email = ?", clientID, email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("user already exists:", email)
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err := db.Exec(
		"INSERT INTO users (id, client_id, email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
		uuid.New().String(), clientID, email, name, string(hash),
	).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
}

func seedCategory(db *gorm.DB, clientID, name, description string) {
	var exists int
	row := db.Raw("SELECT 1 FROM expense_categories WHERE client_id = ? AND name = ?", clientID, name).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("category already exists:", name)
		return
	}

	if err := db.Exec(
		"INSERT INTO expense_categories (id, client_id, name, description, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
		uuid.New().String(), clientID, name, description,
	).Error; err != nil {
		log.Fatalf("failed to insert category %s: %v", name, err)
	}
	fmt.Println("Seeded category:", name)
}
