package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "genie",
	Short: "AI learning assistant for your courses",
	Long: `Genie answers questions about your courses by coordinating a pool of
specialized agents over your learning platform.

A planner breaks each request into steps, routes every step to the agent
best suited for it (course search, course browsing, personal memory, or
direct answers), and a synthesis pass combines the results into one reply.

With no arguments, launches an interactive chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// Execute runs the root command
func Execute() {
	// Load .env if present; real env always wins.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// runInteractive runs the line-based chat REPL.
func runInteractive() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	cyan.Println("genie - ask about your courses. Type 'exit' to quit.")

	// Drain events in the background so the channel never fills.
	go func() {
		for ev := range rt.Orchestrator.Events() {
			gray.Printf("  [%s] %s %s\n", ev.Type, ev.Agent, ev.Message)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""

	for {
		green.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result, err := rt.RunTurn(context.Background(), sessionID, line)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}
		sessionID = result.SessionID

		cyan.Print("genie> ")
		fmt.Println(result.Reply)
	}

	return scanner.Err()
}
