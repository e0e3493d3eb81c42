// seed-admin creates or updates the admin user (username: admin).
// The admin sees every center; the password is stored hashed when
// PASSWORD_HASHING=true.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//   DATABASE_URL=sqlite:adjustments.db go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/models"
)

const (
	adminUsername = "admin"
	adminPassword = "admin123"
)

func main() {
	ctx := context.Background()
	if err := config.ConnectDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer config.CloseDatabase()

	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}

	user, created, err := models.SaveUser(ctx, &models.NewUser{
		Username: adminUsername,
		Password: adminPassword,
		Role:     string(models.UserRoleAdmin),
		Center:   models.AllCenters,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to save admin user: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("Created admin user: username=%q (role=%s, center=%s)\n", user.Username, user.Role, user.Center)
		return
	}
	fmt.Printf("Updated admin user: username=%q (role=%s, center=%s)\n", user.Username, user.Role, user.Center)
}
