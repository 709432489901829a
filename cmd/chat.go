package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/workflow"
)

const (
	PromptAsk      = "Ask a question"
	PromptExamples = "Show example questions"
	PromptLogout   = "Log in as another user"
	PromptExit     = "Exit"
)

var errExit = errors.New("exit requested")

var chatActions = promptui.Select{
	Label: "What next?",
	Items: []string{PromptAsk, PromptExamples, PromptLogout, PromptExit},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Log in and talk to the assistant in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("user", "u", "", "username to log in with")
	chatCmd.Flags().StringP("query", "q", "", "answer one query and exit")
}

func chat(cmd *cobra.Command) {
	withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
		username, _ := cmd.Flags().GetString("user")
		caller, err := login(ctx, svc, username)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		logger.Info("logged in", zap.String("user", caller.Username), zap.String("role", string(caller.Role)))

		if query, _ := cmd.Flags().GetString("query"); query != "" {
			fmt.Println(svc.engine.Process(ctx, query, caller))
			return nil
		}

		for {
			_, action, err := chatActions.Run()
			if err != nil {
				logger.Info("exiting", zap.Error(err))
				return nil
			}

			if err := handleChatAction(ctx, action, svc, &caller, logger); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				return err
			}
		}
	})
}

func handleChatAction(ctx context.Context, action string, svc *services, caller *hr.Caller, logger *zap.Logger) error {
	switch action {
	case PromptAsk:
		return askLoop(ctx, svc, *caller)
	case PromptExamples:
		fmt.Println(workflow.GeneralResponse(*caller))
		return nil
	case PromptLogout:
		next, err := login(ctx, svc, "")
		if err != nil {
			logger.Warn("login failed, keeping the current user", zap.Error(err))
			return nil
		}
		*caller = next
		logger.Info("logged in", zap.String("user", caller.Username), zap.String("role", string(caller.Role)))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// askLoop reads queries until an empty line.
func askLoop(ctx context.Context, svc *services, caller hr.Caller) error {
	for {
		q := promptui.Prompt{
			Label: fmt.Sprintf("%s (empty line to go back)", caller.DisplayName()),
		}

		query, err := q.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		query = strings.TrimSpace(query)
		if query == "" {
			return nil
		}

		fmt.Println(svc.engine.Process(ctx, query, caller))
		fmt.Println()
	}
}

func login(ctx context.Context, svc *services, username string) (hr.Caller, error) {
	if username == "" {
		userPrompt := promptui.Prompt{
			Label: "Username",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("username is required")
				}
				return nil
			},
		}

		var err error
		username, err = userPrompt.Run()
		if err != nil {
			return hr.Caller{}, err
		}
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return hr.Caller{}, err
	}

	_, user, err := svc.auth.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return hr.Caller{}, err
	}
	return user.Caller(), nil
}
