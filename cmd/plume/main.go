package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plumechat/plume/internal/profile"
	"github.com/plumechat/plume/plugin/ai"
	"github.com/plumechat/plume/plugin/ai/persona"
	"github.com/plumechat/plume/plugin/ai/sanitize"
	"github.com/plumechat/plume/server/chat"
	"github.com/plumechat/plume/store"
	"github.com/plumechat/plume/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "plume",
	Short: "Plume is a persona chat client engine with a terminal front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &profile.Profile{
			Mode:      viper.GetString("mode"),
			Data:      viper.GetString("data"),
			LocalDSN:  viper.GetString("local-dsn"),
			RemoteDSN: viper.GetString("remote-dsn"),
		}
		p.FromEnv()
		if err := p.Validate(); err != nil {
			return err
		}
		return run(p)
	},
}

func init() {
	rootCmd.Flags().String("mode", "dev", `mode of the client, can be "prod", "dev" or "demo"`)
	rootCmd.Flags().String("data", "", "data directory for local storage")
	rootCmd.Flags().String("local-dsn", "", "local sqlite database path")
	rootCmd.Flags().String("remote-dsn", "", "remote postgres database dsn")

	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("plume")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func run(p *profile.Profile) error {
	ctx := context.Background()

	local, err := db.NewLocalDriver(p)
	if err != nil {
		return err
	}
	remote, err := db.NewRemoteDriver(p)
	if err != nil {
		return err
	}
	sessionStore := store.New(local, remote, p)
	defer sessionStore.Close()

	if !p.IsAIEnabled() {
		return fmt.Errorf("AI is not configured; set PLUME_AI_PROVIDER and PLUME_AI_API_KEY")
	}
	llm, err := ai.NewLLMService(ai.NewConfigFromProfile(p))
	if err != nil {
		return err
	}

	done := make(chan struct{}, 1)
	engine, err := chat.NewEngine(chat.Config{
		LLM:   llm,
		Store: sessionStore,
		Events: chat.Events{
			OnChunk: func(_, delta string) {
				fmt.Print(delta)
			},
			OnEmotion: func(e sanitize.Emotion) {
				fmt.Printf("\n[feeling: %s]", e)
			},
			OnComplete: func(_ *store.Message) {
				fmt.Println()
				done <- struct{}{}
			},
			OnRateLimited: func() {
				fmt.Println("\nYou have hit the send limit. Try again in a moment.")
				done <- struct{}{}
			},
			OnFailure: func(err error) {
				fmt.Printf("\nSomething went wrong, please try again: %v\n", err)
				done <- struct{}{}
			},
			OnSessionReplaced: func(s *store.Session) {
				if len(s.Messages) > 0 {
					fmt.Printf("\n-- %s --\n%s\n", s.Persona, s.Messages[0].Content)
				}
			},
		},
	})
	if err != nil {
		return err
	}

	fmt.Println("plume: type a message, @pro/@flash/@muse to retarget one turn,")
	fmt.Println("/persona <key>, /new, /login <owner>, /sessions, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return nil
		case strings.HasPrefix(line, "/persona "):
			key := persona.Key(strings.TrimPrefix(line, "/persona "))
			if err := engine.SwitchPersona(ctx, key); err != nil {
				fmt.Println(err)
			}
		case line == "/new":
			engine.StartNewChat(ctx)
		case strings.HasPrefix(line, "/login "):
			owner := strings.TrimPrefix(line, "/login ")
			engine.SetOwner(owner)
			count, err := sessionStore.Migrate(ctx)
			if err != nil {
				slog.Warn("migration failed", "error", err)
			} else {
				fmt.Printf("migrated %d session(s)\n", count)
			}
		case line == "/sessions":
			sessions, err := sessionStore.List(ctx)
			if err != nil {
				fmt.Println(err)
				continue
			}
			for _, s := range sessions {
				fmt.Printf("%s  [%s] %s (%d messages)\n", s.ID[:8], s.Persona, s.Name, len(s.Messages))
			}
		default:
			if err := engine.Submit(ctx, line, nil); err != nil {
				fmt.Println(err)
				continue
			}
			<-done
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
