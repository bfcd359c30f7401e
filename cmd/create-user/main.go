package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/database"
	"github.com/learnflow/learnflow-backend/internal/logger"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/learnflow/learnflow-backend/internal/repository"
	"github.com/learnflow/learnflow-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	roleFlag := flag.String("role", string(model.RoleStudent), "Account role: student, teacher or admin")
	flag.Parse()

	errText := color.New(color.FgRed).SprintFunc()
	fail := func(format string, a ...any) {
		fmt.Println(errText("Error: " + fmt.Sprintf(format, a...)))
		os.Exit(1)
	}

	role := model.Role(strings.ToLower(*roleFlag))
	if !role.Valid() {
		fail("unknown role %q", *roleFlag)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	color.New(color.Bold).Printf("=== Create New %s Account ===\n", strings.ToUpper(string(role[:1]))+string(role[1:]))

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fail("name is required")
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		fail("%q is not a valid email", email)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fail("could not read password")
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fail("password must be at least 6 characters")
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hash, err := service.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	if err := userRepo.Upsert(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to save user")
	}

	color.Green("\nSuccess! %s '%s' (%s) saved with ID: %d", role, user.Name, user.Email, user.ID)
}
