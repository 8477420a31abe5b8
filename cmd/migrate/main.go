package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"truefeedback/internal/domain"
	"truefeedback/internal/poll"
	"truefeedback/internal/repository"
	"truefeedback/pkg/database"
	"truefeedback/pkg/mongodb"
	"truefeedback/pkg/slug"
)

var (
	ok   = color.New(color.FgGreen).SprintFunc()
	warn = color.New(color.FgYellow).SprintFunc()
	bad  = color.New(color.FgRed).SprintFunc()
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(warn("Warning: .env file not found"))
	}

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the TrueFeedback database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(dropCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(mongoIndexesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad("Error: ")+err.Error())
		os.Exit(1)
	}
}

func databaseURL() (string, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return "", fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	return dbURL, nil
}

// withConn runs fn on a single connection, which is all schema changes need
func withConn(ctx context.Context, fn func(conn *pgx.Conn) error) error {
	dbURL, err := databaseURL()
	if err != nil {
		return err
	}
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)
	return fn(conn)
}

func printStep(verb string) func(database.Statement) {
	return func(st database.Statement) {
		fmt.Printf("  %s %s\n", ok(verb), st.Name)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create all tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := withConn(ctx, func(conn *pgx.Conn) error {
				return database.Apply(ctx, conn, database.SchemaUp, printStep("created"))
			})
			if err != nil {
				return err
			}
			fmt.Println(ok("All tables created successfully"))
			return nil
		},
	}
}

func dropCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop all tables, including every poll response",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to drop tables without --yes")
			}
			ctx := cmd.Context()
			err := withConn(ctx, func(conn *pgx.Conn) error {
				return database.Apply(ctx, conn, database.SchemaDown, printStep("dropped"))
			})
			if err != nil {
				return err
			}
			fmt.Println(ok("All tables dropped successfully"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm that all data may be deleted")
	return cmd
}

func seedCmd() *cobra.Command {
	var (
		ownerID string
		salt    string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo profile and poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			dbURL, err := databaseURL()
			if err != nil {
				return err
			}
			db, err := database.NewPostgresDB(ctx, dbURL)
			if err != nil {
				return err
			}
			defer db.Close()

			profile := &domain.Profile{
				UserID:            ownerID,
				Slug:              "demo-team",
				DisplayName:       "Demo Team",
				Bio:               "Tell us anything, anonymously.",
				IsOrganization:    true,
				AcceptingMessages: true,
			}
			if err := repository.NewPostgresProfileRepository(db).Upsert(ctx, profile); err != nil {
				return fmt.Errorf("failed to seed profile: %w", err)
			}
			fmt.Printf("  %s profile /u/%s\n", ok("seeded"), profile.Slug)

			p, err := demoPoll(ownerID, salt)
			if err != nil {
				return err
			}
			err = repository.NewPostgresPollRepository(db).Create(ctx, p)
			if stderrors.Is(err, repository.ErrSlugTaken) {
				fmt.Printf("  %s poll /polls/%s already exists\n", warn("skipped"), p.Slug)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to seed poll: %w", err)
			}
			fmt.Printf("  %s poll /polls/%s\n", ok("seeded"), p.Slug)

			fmt.Println(ok("Data seeded successfully"))
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "demo-owner", "user id that owns the seeded data")
	cmd.Flags().StringVar(&salt, "salt", envOr("SLUG_SALT", "truefeedback-dev-salt"), "salt used to derive the poll slug")
	return cmd
}

// demoPoll goes through the same question normalization as the API, so legacy
// type spellings are fine here
func demoPoll(ownerID, salt string) (*domain.Poll, error) {
	questions, err := poll.ValidateQuestions([]domain.Question{
		{ID: "mood", Text: "How was your week?", Type: "RATING"},
		{ID: "meetings", Text: "We have too many meetings", Type: "AGREE_DISAGREE"},
		{ID: "lunch", Text: "Where should we go for lunch?", Type: "SINGLE_CHOICE", Options: []string{"Pizza", "Sushi", "Tacos"}},
		{ID: "perks", Text: "Which perks matter to you?", Type: "MULTIPLE_CHOICE", Options: []string{"Gym", "Remote days", "Training budget"}},
	})
	if err != nil {
		return nil, err
	}

	id := "00000000-0000-4000-8000-000000000001"
	return &domain.Poll{
		ID:           id,
		Title:        "Weekly pulse",
		Description:  "A short anonymous check-in.",
		Questions:    questions,
		Slug:         slug.ForPoll(id, salt),
		CreatedBy:    ownerID,
		Organization: "Demo Team",
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func mongoIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mongo-indexes",
		Short: "Create the MongoDB indexes for the polls collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := os.Getenv("MONGO_URL")
			if uri == "" {
				return fmt.Errorf("MONGO_URL environment variable is not set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			mongo, err := mongodb.NewMongoDB(ctx, uri, envOr("MONGO_DATABASE", "truefeedback"))
			if err != nil {
				return err
			}
			defer func() { _ = mongo.Close(context.Background()) }()

			if err := repository.NewMongoPollRepository(mongo).EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Println(ok("MongoDB indexes created successfully"))
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
