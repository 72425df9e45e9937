// Command seed populates the database with demo users, posts, reactions and orders.
package main

import (
	"flag"
	"log"
	"strings"

	"socialapp/internal/config"
	"socialapp/internal/database"
	"socialapp/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	numOrders := flag.Int("orders", 100, "Number of orders to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build data without writing it")
	preset := flag.String("preset", "", "Built-in preset ("+strings.Join(seed.PresetNames(), ", ")+") or a YAML preset file")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	plan := seed.Preset{Name: "flags", Users: *numUsers, Posts: *numPosts, Orders: *numOrders}
	if *preset != "" {
		p, err := seed.ResolvePreset(*preset)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		plan = p
		log.Printf("Applying preset: %s (ignoring size flags)\n", plan.Name)
	}
	log.Printf("Target: %d users, %d posts, %d orders, clean=%v\n", plan.Users, plan.Posts, plan.Orders, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{DryRun: *dryRun})

	if *shouldClean && !*dryRun {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run(plan)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d users, %d posts and %d orders.", summary.Users, summary.Posts, summary.Orders)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
	log.Println("🔑 Admin login: admin@example.com")
}
