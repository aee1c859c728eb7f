/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/tabzpay/progress-sub002/config"
	"github.com/tabzpay/progress-sub002/internal/hooks"
	"github.com/tabzpay/progress-sub002/internal/mq"
	"github.com/tabzpay/progress-sub002/internal/navbar"
	"github.com/tabzpay/progress-sub002/internal/notify"
	"github.com/tabzpay/progress-sub002/internal/routeguard"
	"github.com/tabzpay/progress-sub002/internal/session"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/internal/uistate"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

const tokenEnv = "LOANTRACKER_TOKEN"

var (
	clientToken    string
	clientSelectID int64
	clientNavPath  string

	templateName         string
	templateLoanType     string
	templateCurrency     string
	templateAmount       string
	templateTaxRate      string
	templateNote         string
	templatePaymentTerms string
)

// clientCmd groups commands that act as a signed-in user against the
// managed backend, with UI preferences kept in the local state directory.
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Act as a signed-in user against the managed backend",
}

var clientGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List your loan groups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *clientEnv) error {
			hook := hooks.NewGroupsHook(supabase.NewGroupRepository(c.supabase, c.logger), c.notifier, c.logger)
			defer hook.Close()

			hook.SetParams(ctx, hooks.GroupsParams{UserID: c.session.UserID, Enabled: true, SelectedID: clientSelectID})
			snap := hook.Snapshot()
			if snap.Err != nil {
				return snap.Err
			}
			if clientSelectID != 0 {
				if snap.Selected == nil {
					return fmt.Errorf("group %d not found", clientSelectID)
				}
				return printJSON(cmd, snap.Selected)
			}
			return printJSON(cmd, snap.Groups)
		})
	},
}

var clientTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List, save or delete your loan templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTemplates(cmd, func(ctx context.Context, hook *hooks.TemplatesHook) error {
			snap := hook.Snapshot()
			if snap.Err != nil {
				return snap.Err
			}
			return printJSON(cmd, snap.Templates)
		})
	},
}

var clientTemplatesSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a loan template",
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := templateParamsFromFlags()
		if err != nil {
			return err
		}
		return withTemplates(cmd, func(ctx context.Context, hook *hooks.TemplatesHook) error {
			if !hook.Save(ctx, templateName, params) {
				return errors.New("template was not saved")
			}
			return printJSON(cmd, hook.Snapshot().Templates[0])
		})
	},
}

var clientTemplatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your loan templates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id < 1 {
			return fmt.Errorf("invalid template id %q", args[0])
		}
		return withTemplates(cmd, func(ctx context.Context, hook *hooks.TemplatesHook) error {
			if !hook.Delete(ctx, id) {
				return errors.New("template was not deleted")
			}
			return nil
		})
	},
}

var clientThemeCmd = &cobra.Command{
	Use:       "theme [light|dark|system|toggle]",
	Short:     "Show or change the saved theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "system", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store := uistate.Open(ctx, uistate.NewFileBackend(cfg.Storage.LocalDir), uistate.DefaultKey, logger)

		if len(args) == 1 {
			switch arg := strings.ToLower(args[0]); arg {
			case "toggle":
				err = store.ToggleTheme(ctx)
			default:
				err = store.SetTheme(ctx, uistate.Theme(arg))
			}
			if err != nil {
				return err
			}
		}
		return printJSON(cmd, store.Preferences())
	},
}

var clientSidebarCmd = &cobra.Command{
	Use:   "sidebar",
	Short: "Toggle the saved sidebar state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store := uistate.Open(ctx, uistate.NewFileBackend(cfg.Storage.LocalDir), uistate.DefaultKey, logger)
		if err := store.ToggleSidebar(ctx); err != nil {
			return err
		}
		return printJSON(cmd, store.Preferences())
	},
}

var clientNavCmd = &cobra.Command{
	Use:   "nav",
	Short: "Show what the app renders for --path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		provider := session.NewProvider()
		provider.Restore(resolveToken())

		decision := routeguard.Decide(provider, clientNavPath)
		out := navView{Outcome: decision.Outcome.String(), RedirectTo: decision.RedirectTo}
		if decision.Outcome == routeguard.RenderProtected {
			s, _ := provider.Current()
			prefs := uistate.Open(cmd.Context(), uistate.NewFileBackend(cfg.Storage.LocalDir), uistate.DefaultKey, logger).Preferences()
			model := navbar.Build(navbar.Input{
				Path:        clientNavPath,
				Preferences: prefs,
				User:        &types.PublicUser{ID: s.UserID},
			})
			out.Navigation = &model
		}
		return printJSON(cmd, out)
	},
}

type navView struct {
	Outcome    string        `json:"outcome"`
	RedirectTo string        `json:"redirectTo,omitempty"`
	Navigation *navbar.Model `json:"navigation,omitempty"`
}

// clientEnv is what every client command runs with.
type clientEnv struct {
	session  session.Session
	supabase *supabase.Client
	notifier notify.Notifier
	logger   *zap.Logger
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *clientEnv) error) error {
	cfg := config.LoadConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()

	provider := session.NewProvider()
	provider.Restore(resolveToken())
	current, ok := provider.Current()
	if !ok {
		return fmt.Errorf("not signed in: pass --token or set %s", tokenEnv)
	}

	sb, err := supabase.New(supabase.Config{URL: cfg.Supabase.URL, APIKey: cfg.Supabase.Key})
	if err != nil {
		return err
	}

	ui := uistate.Open(ctx, uistate.NewFileBackend(cfg.Storage.LocalDir), uistate.DefaultKey, logger)
	notifiers := notify.Fanout{notify.NewLogNotifier(logger), ui}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		logger.Warn("notifications will not be published", zap.Error(err))
	} else if queue != nil {
		defer func() { _ = queue.Close() }()
		broker := notify.NewBrokerNotifier(queue, cfg.MQ.NotificationsChannel, logger)
		notifiers = append(notifiers, broker.ForUser(current.UserID))
	}

	return fn(ctx, &clientEnv{
		session:  current,
		supabase: sb,
		notifier: notifiers,
		logger:   logger,
	})
}

func withTemplates(cmd *cobra.Command, fn func(ctx context.Context, hook *hooks.TemplatesHook) error) error {
	return withClient(cmd, func(ctx context.Context, c *clientEnv) error {
		hook := hooks.NewTemplatesHook(supabase.NewTemplateRepository(c.supabase, c.logger), c.notifier, c.logger)
		defer hook.Close()
		hook.SetParams(ctx, hooks.TemplatesParams{UserID: c.session.UserID, Enabled: true})
		return fn(ctx, hook)
	})
}

func templateParamsFromFlags() (types.TemplateParams, error) {
	params := types.TemplateParams{
		LoanType:     types.LoanType(strings.ToLower(strings.TrimSpace(templateLoanType))),
		Currency:     strings.ToUpper(strings.TrimSpace(templateCurrency)),
		Note:         templateNote,
		PaymentTerms: templatePaymentTerms,
	}
	var err error
	if templateAmount != "" {
		if params.Amount, err = decimal.NewFromString(templateAmount); err != nil {
			return params, fmt.Errorf("invalid --amount: %w", err)
		}
	}
	if templateTaxRate != "" {
		if params.TaxRate, err = decimal.NewFromString(templateTaxRate); err != nil {
			return params, fmt.Errorf("invalid --tax-rate: %w", err)
		}
	}
	return params, nil
}

func resolveToken() string {
	if clientToken != "" {
		return clientToken
	}
	return strings.TrimSpace(os.Getenv(tokenEnv))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.PersistentFlags().StringVar(&clientToken, "token", "", "session token (defaults to $"+tokenEnv+")")

	clientCmd.AddCommand(clientGroupsCmd)
	clientGroupsCmd.Flags().Int64Var(&clientSelectID, "select", 0, "print only the group with this id")

	clientCmd.AddCommand(clientTemplatesCmd)
	clientTemplatesCmd.AddCommand(clientTemplatesSaveCmd, clientTemplatesDeleteCmd)
	flags := clientTemplatesSaveCmd.Flags()
	flags.StringVar(&templateName, "name", "", "template name")
	flags.StringVar(&templateLoanType, "loan-type", "", "personal, business or group")
	flags.StringVar(&templateCurrency, "currency", "", "ISO currency code")
	flags.StringVar(&templateAmount, "amount", "", "default principal")
	flags.StringVar(&templateTaxRate, "tax-rate", "", "default tax rate")
	flags.StringVar(&templateNote, "note", "", "note copied onto new loans")
	flags.StringVar(&templatePaymentTerms, "payment-terms", "", "payment terms")

	clientCmd.AddCommand(clientThemeCmd, clientSidebarCmd, clientNavCmd)
	clientNavCmd.Flags().StringVar(&clientNavPath, "path", "/dashboard", "app path to render")
}
