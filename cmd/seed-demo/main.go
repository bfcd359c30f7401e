package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/database"
	"github.com/learnflow/learnflow-backend/internal/logger"
	"github.com/learnflow/learnflow-backend/internal/repository"
	"github.com/learnflow/learnflow-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)

	ok := color.New(color.FgGreen).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Println(bold("=== Seeding demo accounts ==="))

	hash, err := service.HashPassword(demoPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	for _, u := range demoUsers {
		u.PasswordHash = hash
		if err := userRepo.Upsert(ctx, &u); err != nil {
			log.Fatal().Err(err).Str("email", u.Email).Msg("Failed to upsert user")
		}
		fmt.Printf("  %s %-18s %-8s id=%d\n", ok("✓"), u.Email, u.Role, u.ID)
	}

	fmt.Println(bold("=== Seeding demo assessments ==="))

	for _, a := range demoAssessments() {
		if err := service.ValidateAssessment(a); err != nil {
			log.Fatal().Err(err).Str("assessment_id", a.ID).Msg("Demo assessment is invalid")
		}
		if err := assessmentRepo.Upsert(ctx, a); err != nil {
			log.Fatal().Err(err).Str("assessment_id", a.ID).Msg("Failed to upsert assessment")
		}
		fmt.Printf("  %s [%s] %s (%d questions, %d min)\n",
			ok("✓"), a.ID, a.Title, len(a.Questions), a.DurationMinutes)
	}

	fmt.Printf("\n%s Sign in with any account above, password %s\n", ok("Done."), bold(demoPassword))
}
