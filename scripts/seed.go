package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/adapters/database"
	"github.com/civicpulse/reporter/backend/internal/adapters/memory"
	"github.com/civicpulse/reporter/backend/internal/adapters/providers/geolocation"
	"github.com/civicpulse/reporter/backend/internal/adapters/providers/security"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/postgres"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/observability"
	"github.com/civicpulse/reporter/backend/pkg/config"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

type demoUser struct {
	name  string
	email string
	role  entities.Role
}

type demoIssue struct {
	reporter    string
	category    entities.Category
	description string
	lat, lng    float64
	status      entities.Status
	comments    []string
}

var demoUsers = []demoUser{
	{"Arta Krasniqi", "arta@example.com", entities.RoleCitizen},
	{"Blerim Gashi", "blerim@example.com", entities.RoleCitizen},
	{"Komuna e Prishtinës", "komuna@example.com", entities.RoleInstitution},
}

var demoIssues = []demoIssue{
	{"arta@example.com", entities.CategoryTraffic, "Semafori te rrethrrotullimi nuk punon", 42.6635, 21.1640, entities.StatusOpen, []string{"Edhe sot në mëngjes."}},
	{"blerim@example.com", entities.CategoryEnvironment, "Kontejnerët e mbeturinave janë plot prej një jave", 42.6601, 21.1702, entities.StatusInProgress, nil},
	{"arta@example.com", entities.CategoryDamage, "Gropë e madhe në trotuar", 42.2141, 20.7410, entities.StatusOpen, []string{"Rrezik për këmbësorët."}},
	{"blerim@example.com", entities.CategoryHeritage, "Grafite në murin e kalasë", 42.2110, 20.7450, entities.StatusResolved, nil},
	{"komuna@example.com", entities.CategoryLiving, "Ndriçimi publik mungon në lagje", 42.6598, 20.2880, entities.StatusOpen, nil},
}

const demoPassword = "demo1234"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Environment())

	if cfg.Storage.Backend != "postgres" {
		log.Fatal().Msg("seeding needs STORAGE_BACKEND=postgres; the memory backend starts empty on every run")
	}

	ctx := context.Background()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE issue_comments, issues, users`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	users := database.NewUserAdapter(pgClient)
	issueRepo := database.NewIssueAdapter(pgClient)
	locker := services.NewIssueLocker()

	tokens, err := security.NewJWTTokenIssuer(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token issuer")
	}
	sessions := services.NewSessionService(users, memory.NewSessionStore(), tokens, security.NewBcryptHasher(0), services.SessionConfig{
		InstitutionSecret: cfg.Auth.InstitutionSecret,
	})
	issues := services.NewIssueService(issueRepo, users, locker)
	engagement := services.NewEngagementService(database.NewCommentAdapter(pgClient), issueRepo, locker)
	intake := services.NewIntakeService(issues, geolocation.NewMockGeocoder())

	if cfg.Auth.AdminEmail != "" {
		if err := sessions.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
			log.Error().Err(err).Msg("failed to ensure admin")
		}
	}

	sessionByEmail := map[string]*entities.Session{}
	for _, u := range demoUsers {
		session, err := signIn(ctx, sessions, u, cfg.Auth.InstitutionSecret)
		if err != nil {
			log.Error().Err(err).Str("email", u.email).Msg("failed to create demo user")
			continue
		}
		sessionByEmail[u.email] = session
	}

	created := 0
	for _, d := range demoIssues {
		session := sessionByEmail[d.reporter]
		if session == nil {
			continue
		}

		draft, err := intake.Begin(session)
		if err != nil {
			log.Error().Err(err).Msg("failed to open draft")
			continue
		}
		if err := draft.PinFromMap(d.lat, d.lng); err != nil {
			log.Error().Err(err).Msg("invalid demo coordinate")
			continue
		}
		draft.Describe(d.category, d.description, "")

		issue, err := intake.Submit(ctx, draft)
		if err != nil {
			log.Error().Err(err).Str("description", d.description).Msg("failed to create issue")
			continue
		}
		created++

		if d.status != entities.StatusOpen {
			if _, err := issues.SetStatus(ctx, issue.ID, d.status); err != nil {
				log.Error().Err(err).Str("issue_id", issue.ID).Msg("failed to set status")
			}
		}
		for _, content := range d.comments {
			if _, err := engagement.AddComment(ctx, session, issue.ID, content); err != nil {
				log.Error().Err(err).Str("issue_id", issue.ID).Msg("failed to add comment")
			}
		}
		// every other demo user likes the issue
		for email, other := range sessionByEmail {
			if email == d.reporter {
				continue
			}
			if _, err := engagement.ToggleLike(ctx, other, issue.ID); err != nil {
				log.Error().Err(err).Str("issue_id", issue.ID).Msg("failed to like issue")
			}
		}
	}

	log.Info().Int("users", len(sessionByEmail)).Int("issues", created).Msg("seeding completed")
}

// signIn registers a demo user, or logs in when the account already exists
func signIn(ctx context.Context, sessions *services.SessionService, u demoUser, institutionSecret string) (*entities.Session, error) {
	input := services.RegisterInput{
		Email:                u.email,
		Password:             demoPassword,
		PasswordConfirmation: demoPassword,
		Name:                 u.name,
		Role:                 u.role,
	}
	if u.role == entities.RoleInstitution {
		input.Secret = institutionSecret
	}

	_, session, err := sessions.Register(ctx, input)
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		return sessions.Login(ctx, u.email, demoPassword)
	}
	return session, err
}
