package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/workflow"
	"github.com/noah-isme/citedocs-api/pkg/client"
	"github.com/noah-isme/citedocs-api/pkg/config"
	"github.com/noah-isme/citedocs-api/pkg/logger"
)

type globalFlags struct {
	baseURL string
	token   string
	timeout time.Duration
	verbose bool
}

func rootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "registrarctl",
		Short:         "Work the registrar document request queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "API base url (defaults to CLIENT_BASE_URL)")
	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "Bearer token (defaults to CLIENT_TOKEN)")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "Request timeout (defaults to CLIENT_TIMEOUT)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log API calls")

	cmd.AddCommand(
		loginCmd(flags),
		listCmd(flags),
		statusCmd(flags),
		logsCmd(flags),
		activityCmd(flags),
		documentsCmd(flags),
		slipCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "registrarctl version %s\n", version)
			},
		},
	)
	return cmd
}

func newClient(flags *globalFlags) (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := zap.NewNop()
	if flags.verbose {
		if log, err = logger.New(cfg); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}
	baseURL := firstNonEmpty(flags.baseURL, cfg.Client.BaseURL)
	token := firstNonEmpty(flags.token, cfg.Client.Token)
	timeout := cfg.Client.Timeout
	if flags.timeout > 0 {
		timeout = flags.timeout
	}
	return client.New(client.Options{
		BaseURL: baseURL,
		Timeout: timeout,
		Tokens:  client.StaticToken(token),
		Logger:  log,
	})
}

func loginCmd(flags *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(flags)
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func listCmd(flags *globalFlags) *cobra.Command {
	var query dto.RequestListQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List document requests with their proof of payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(flags)
			if err != nil {
				return err
			}
			session := client.NewSession(c, nil)
			defer session.Close()
			rows, err := session.Refresh(cmd.Context(), query)
			if err != nil {
				return err
			}
			return renderRows(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&query.Status, "status", "", "Status filter (pending, processing, approved, completed, rejected)")
	cmd.Flags().StringVar(&query.DocumentType, "document", "", "Document type name filter")
	cmd.Flags().StringVar(&query.Search, "search", "", "Search by student, id, document or claim number")
	cmd.Flags().StringVar(&query.View, "view", "all", "all or recent")
	cmd.Flags().StringVar(&query.UserID, "user", "", "Only requests of this user")
	return cmd
}

func statusCmd(flags *globalFlags) *cobra.Command {
	var payload dto.UpdateStatusPayload
	var dateReady string
	cmd := &cobra.Command{
		Use:   "status <request-id> <status>",
		Short: "Change the status of a request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			payload.Status = args[1]
			if dateReady != "" {
				date, err := models.ParseDate(dateReady)
				if err != nil {
					return err
				}
				payload.DateReady = &date
			}

			c, err := newClient(flags)
			if err != nil {
				return err
			}
			session := client.NewSession(c, nil)
			defer session.Close()
			if _, err := session.Refresh(cmd.Context(), dto.RequestListQuery{}); err != nil {
				return err
			}
			updated, err := session.UpdateStatus(cmd.Context(), id, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", workflow.FormatRequestID(updated.RequestID), updated.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.Remarks, "remarks", "", "Remarks shown to the student")
	cmd.Flags().StringVar(&dateReady, "date-ready", "", "Pickup date (YYYY-MM-DD) when approving")
	cmd.Flags().StringVar(&payload.ExpectedStatus, "expect", "", "Fail unless the request currently has this status")
	return cmd
}

func logsCmd(flags *globalFlags) *cobra.Command {
	var query dto.StatusLogQuery
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show status history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(flags)
			if err != nil {
				return err
			}
			entries, err := c.ListStatusLogs(cmd.Context(), query)
			if err != nil {
				return err
			}
			return renderLogs(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().Int64Var(&query.RequestID, "request", 0, "Only entries of this request")
	cmd.Flags().StringVar(&query.UserID, "user", "", "Only entries of this user's requests")
	return cmd
}

func activityCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show the recent activity feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(flags)
			if err != nil {
				return err
			}
			items, err := c.Activity(cmd.Context())
			if err != nil {
				return err
			}
			return renderActivity(cmd.OutOrStdout(), items)
		},
	}
}

func documentsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List requestable documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(flags)
			if err != nil {
				return err
			}
			docs, err := c.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			return renderDocuments(cmd.OutOrStdout(), docs)
		},
	}
}

func slipCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "slip <request-id>",
		Short: "Print the claim slip of a ready request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(flags)
			if err != nil {
				return err
			}
			slip, err := c.ClaimSlip(cmd.Context(), id)
			if err != nil {
				return err
			}
			return renderSlip(cmd.OutOrStdout(), slip)
		},
	}
}

// parseRequestID accepts both 42 and REQ-42.
func parseRequestID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 4 && strings.EqualFold(raw[:4], "REQ-") {
		raw = raw[4:]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid request id %q", raw)
	}
	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
