package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		// Drop events on the floor for one-shot use.
		go func() {
			for range rt.Orchestrator.Events() {
			}
		}()

		message := strings.Join(args, " ")
		result, err := rt.RunTurn(context.Background(), chatSessionID, message)
		if err != nil {
			return err
		}

		fmt.Println(result.Reply)
		fmt.Fprintf(os.Stderr, "session: %s\n", result.SessionID)
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Continue an existing session")
}
