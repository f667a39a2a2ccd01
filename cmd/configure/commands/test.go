package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/yeojun7429/portfolio-api/internal/database"
	"github.com/yeojun7429/portfolio-api/internal/listsync"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/session"
	"github.com/yeojun7429/portfolio-api/internal/store"
	"github.com/yeojun7429/portfolio-api/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memoryUserRepo backs the self-check with a single in-process account.
type memoryUserRepo struct {
	user *models.User
}

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	r.user = user
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, database.ErrNotFound
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, database.ErrNotFound
}

var _ database.UserRepositoryInterface = (*memoryUserRepo)(nil)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run a session pipeline self-check",
		Long:  "Run the sign-in gate and list synchronizer end-to-end against in-memory stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger := zap.NewNop()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			userRepo := &memoryUserRepo{user: &models.User{
				ID:           uuid.New(),
				Email:        email,
				Name:         "Self Check",
				PasswordHash: string(hash),
			}}

			signer := token.NewSigner([]byte("self-check-secret"), "portfolio-api", token.DefaultTTL)
			provider := session.NewLocalProvider(userRepo, signer, logger)
			gate := session.NewGate(provider, logger)

			itemStore := store.NewMemoryItemStore()
			syncer := listsync.New(itemStore, logger)
			cancel := gate.Watch(func(identity *models.User) {
				syncer.OnSessionChanged(identity)
			})
			defer cancel()

			fmt.Println("Running session pipeline self-check")

			// Rejected credentials must land in the failed state and leave
			// the list gated.
			err = gate.BeginSignIn(ctx, session.Credentials{Email: email, Password: "not-" + password})
			if !errors.Is(err, session.ErrInvalidCredentials) {
				return fmt.Errorf("wrong password: expected credential rejection, got %v", err)
			}
			if got := gate.Status().State; got != session.StateFailed {
				return fmt.Errorf("wrong password: expected failed state, got %s", got)
			}
			if err := syncer.Create(ctx, "early", "", ""); !errors.Is(err, listsync.ErrAuthRequired) {
				return fmt.Errorf("signed-out create: expected auth requirement, got %v", err)
			}
			fmt.Println("✓ Rejected credentials leave the gate failed and the list gated")

			// A retry with the right credentials must succeed.
			if err := gate.BeginSignIn(ctx, session.Credentials{Email: email, Password: password}); err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			status := gate.Status()
			if status.State != session.StateSignedIn {
				return fmt.Errorf("sign in: expected signed-in state, got %s", status.State)
			}
			claims, err := signer.Verify(status.Token)
			if err != nil {
				return fmt.Errorf("token verification: %w", err)
			}
			if claims.Email != email {
				return fmt.Errorf("token verification: expected email %q, got %q", email, claims.Email)
			}
			fmt.Println("✓ Sign-in established an identity with a verifiable token")

			// The synchronizer must validate schedule input and surface items
			// newest first.
			if err := syncer.Create(ctx, "with schedule", "2026-01-02", "03:04"); err != nil {
				return fmt.Errorf("create with schedule: %w", err)
			}
			if err := syncer.Create(ctx, "bad date", "2026-02-30", "10:00"); !errors.Is(err, listsync.ErrInvalidCalendarDate) {
				return fmt.Errorf("impossible date: expected calendar rejection, got %v", err)
			}
			items := syncer.Items()
			if len(items) != 1 {
				return fmt.Errorf("expected 1 item after create, got %d", len(items))
			}
			fmt.Println("✓ Item creation validates schedule input")

			// Toggle and remove round-trip through the store.
			if err := syncer.Toggle(ctx, items[0]); err != nil {
				return fmt.Errorf("toggle: %w", err)
			}
			items = syncer.Items()
			if len(items) != 1 || !items[0].Done || items[0].CompletedAt == nil {
				return fmt.Errorf("toggle: expected completed item, got %+v", items)
			}
			if err := syncer.Remove(ctx, items[0].ID); err != nil {
				return fmt.Errorf("remove: %w", err)
			}
			if items := syncer.Items(); len(items) != 0 {
				return fmt.Errorf("expected empty list after remove, got %d items", len(items))
			}
			fmt.Println("✓ Toggle and remove round-trip through the store")

			// Sign-out must return the gate to idle and clear the list.
			if err := gate.EndSignIn(ctx); err != nil {
				return fmt.Errorf("sign out: %w", err)
			}
			if got := gate.Status().State; got != session.StateIdle {
				return fmt.Errorf("sign out: expected idle state, got %s", got)
			}
			if items := syncer.Items(); len(items) != 0 {
				return fmt.Errorf("sign out: expected empty list, got %d items", len(items))
			}
			fmt.Println("✓ Sign-out returned the gate to idle and cleared the list")

			fmt.Println("\n✓ Session pipeline self-check passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "demo@example.com", "Account email for the self-check")
	cmd.Flags().StringVar(&password, "password", "pass123", "Account password for the self-check")

	return cmd
}
