// Command admin promotes, demotes and lists admin accounts.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"socialapp/internal/config"
	"socialapp/internal/database"
	"socialapp/internal/models"
	"socialapp/internal/repository"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <user_id>   - Grant access to the admin order dashboard")
	fmt.Println("  admin demote <user_id>    - Revoke admin access")
	fmt.Println("  admin list                - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch os.Args[1] {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil || id == 0 {
			log.Fatalf("Invalid user id %q", os.Args[2])
		}
		if err := setAdmin(ctx, users, uint(id), os.Args[1] == "promote"); err != nil {
			log.Fatal(err)
		}
	case "list", "list-admins":
		if err := listAdmins(ctx, users); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users repository.UserRepository, id uint, admin bool) error {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return fmt.Errorf("user with ID %d not found", id)
		}
		return err
	}

	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has is_admin=%t\n", user.Username, user.ID, admin)
		return nil
	}
	if err := users.SetAdmin(ctx, id, admin); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}

	verb := "promoted"
	if !admin {
		verb = "demoted"
	}
	fmt.Printf("Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
	return nil
}

func listAdmins(ctx context.Context, users repository.UserRepository) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("fetch admins: %w", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return nil
	}
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
	return nil
}
