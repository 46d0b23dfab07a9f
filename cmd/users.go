package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func createSuperAdminCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a platform super admin, or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, closeStore, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := migrate(s); err != nil {
				return err
			}

			u, err := ensureSuperAdmin(cmd.Context(), s, email, name, password)
			if err != nil {
				return err
			}
			log.Info("Super admin ready", zap.String("user_id", u.ID), zap.String("email", u.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the super admin")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Overwrite a user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := invite.NormalizeEmail(email)
			if err != nil {
				return err
			}
			password, err := readPassword()
			if err != nil {
				return err
			}
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, closeStore, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			u, err := s.GetUserByEmail(ctx, normalized)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no user with email %s", normalized)
			}
			if err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			if err := s.SetPassword(ctx, u.ID, string(hash)); err != nil {
				return err
			}
			log.Info("Password reset", zap.String("user_id", u.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// ensureSuperAdmin creates the user or promotes an existing one, then sets
// the password
func ensureSuperAdmin(ctx context.Context, s store.Store, email, name, password string) (*model.User, error) {
	email, err := invite.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < invite.MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", invite.MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var u *model.User
	err = s.Tx(ctx, func(tx store.Store) error {
		existing, err := tx.GetUserByEmail(ctx, email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			u = &model.User{Email: email, Name: name, PasswordHash: string(hash), IsSuperAdmin: true}
			return tx.CreateUser(ctx, u)
		case err != nil:
			return err
		}
		u = existing
		u.IsSuperAdmin = true
		if name != "" {
			u.Name = name
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		return tx.SetPassword(ctx, u.ID, string(hash))
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) < invite.MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", invite.MinPasswordLength)
	}
	return string(first), nil
}
