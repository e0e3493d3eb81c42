// inspect-db prints table counts, the first 50 adjustments with their
// enrollment link status and the first 20 enrollments as JSON.
//
// Usage (from backend directory):
//   DATABASE_URL=sqlite:adjustments.db go run ./cmd/inspect-db
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/brightpath/adjustments_backend/utils"
)

func main() {
	if err := config.ConnectDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer config.CloseDatabase()

	snap, err := models.InspectDatabase(context.Background(), 50, 20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect failed: %v\n", err)
		os.Exit(1)
	}
	out, err := utils.MarshalToJSON(snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
