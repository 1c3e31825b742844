package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/database"
	"github.com/lshigami/examhall/internal/auth"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			db, err := database.NewDatabase(cfg)
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		id       string
		role     string
		subjects []string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Long: "Mint a bearer token signed with JWT_SECRET. Subjects are given as subject:class pairs,\n" +
			"for example --subject Mathematics:JSS2A.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenManager(cfg)
			if err != nil {
				return err
			}
			caller := model.Caller{ID: id, Role: model.Role(role)}
			switch caller.Role {
			case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			for _, s := range subjects {
				subject, class, ok := strings.Cut(s, ":")
				if !ok || subject == "" || class == "" {
					return fmt.Errorf("subject %q is not in subject:class form", s)
				}
				caller.Subjects = append(caller.Subjects, model.SubjectAssignment{Subject: subject, ClassID: class})
			}
			token, err := tokens.Issue(caller, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", string(model.RoleStudent), "student, teacher or admin")
	cmd.Flags().StringSliceVar(&subjects, "subject", nil, "teacher assignment as subject:class (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func enrollCmd() *cobra.Command {
	var subject, class string
	cmd := &cobra.Command{
		Use:   "enroll STUDENT_ID...",
		Short: "Add students to the local roster mirror",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			db, err := database.NewDatabase(cfg)
			if err != nil {
				return err
			}
			roster := repository.NewRosterRepository(db)
			ctx := context.Background()
			for _, studentID := range args {
				enrolled, err := roster.IsEnrolled(ctx, studentID, subject, class)
				if err != nil {
					return err
				}
				if enrolled {
					continue
				}
				if err := roster.Enroll(ctx, &model.Enrollment{StudentID: studentID, Subject: subject, ClassID: class}); err != nil {
					return fmt.Errorf("enroll %s: %w", studentID, err)
				}
				log.Info().Str("studentID", studentID).Str("subject", subject).Str("classID", class).Msg("Student enrolled")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject name")
	cmd.Flags().StringVar(&class, "class", "", "class id")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}
