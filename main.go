package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
	customerx "github.com/ziamuneeb097/Financial-Agent/agent/customer"
	llmx "github.com/ziamuneeb097/Financial-Agent/agent/llm"
	orchestratorx "github.com/ziamuneeb097/Financial-Agent/agent/orchestrator"
	toolx "github.com/ziamuneeb097/Financial-Agent/agent/tool"
	transcriptx "github.com/ziamuneeb097/Financial-Agent/agent/transcript"
	configx "github.com/ziamuneeb097/Financial-Agent/pkg/config"
	_ "github.com/ziamuneeb097/Financial-Agent/pkg/logger/autoload"
	openrouterx "github.com/ziamuneeb097/Financial-Agent/pkg/openrouter"
)

type AppConfig struct {
	CustomersFile    string `envconfig:"CUSTOMERS_FILE" split_words:"true" default:"customers.json"`
	DatabaseDSN      string `envconfig:"DATABASE_DSN" split_words:"true"`
	TranscriptDir    string `envconfig:"TRANSCRIPT_DIR" split_words:"true" default:"transcripts"`
	MaxToolRounds    int    `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"2"`
	MaxCustomerTurns int    `envconfig:"MAX_CUSTOMER_TURNS" split_words:"true" default:"10"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("AGENT")

	customers, closeCustomers, err := newCustomerStore(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize customer store")
	}
	defer closeCustomers()

	store, err := newTranscriptStore(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize transcript store")
	}
	logger, err := transcriptx.NewLogger(store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize transcript logger")
	}

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	openRouterClient, err := openrouterx.NewClient(*openRouterCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize openrouter client")
	}

	model, err := llmx.NewOpenRouterCaller(openRouterClient, llmx.Config{
		Model:       openRouterCfg.Model,
		Temperature: openRouterCfg.Temperature,
		MaxTokens:   openRouterCfg.MaxCompletionToken,
		Timeout:     openRouterCfg.Timeout,
	}, toolx.Catalog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model caller")
	}

	agent, err := orchestratorx.New(customers, model, logger, orchestratorx.Config{
		MaxToolRounds:    appCfg.MaxToolRounds,
		MaxCustomerTurns: appCfg.MaxCustomerTurns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize orchestrator")
	}

	if err := run(ctx, agent, customers); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("conversation aborted")
	}
}

// newCustomerStore prefers Postgres when a DSN is configured and falls back
// to the bundled persona file.
func newCustomerStore(cfg AppConfig) (contractx.CustomerStore, func(), error) {
	if strings.TrimSpace(cfg.DatabaseDSN) != "" {
		store, err := customerx.NewPostgresStore(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("closing customer store")
			}
		}, nil
	}

	store, err := customerx.NewFileStore(cfg.CustomersFile)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// newTranscriptStore prefers Upstash Redis when UPSTASH_REDIS_* is
// configured, otherwise writes JSON files under the transcript directory.
func newTranscriptStore(cfg AppConfig) (contractx.TranscriptStore, error) {
	redisCfg, err := configx.New[transcriptx.UpstashRedisConfig]("UPSTASH_REDIS")
	if err == nil && strings.TrimSpace(redisCfg.URL) != "" {
		return transcriptx.NewUpstashRedisStore(*redisCfg)
	}
	return transcriptx.NewFileStore(cfg.TranscriptDir)
}

func run(ctx context.Context, agent *orchestratorx.Orchestrator, customers contractx.CustomerStore) error {
	records, err := customers.List(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Available customers:")
	for _, rec := range records {
		fmt.Printf("  %s  %s (balance %s, %d days overdue)\n", rec.ID, rec.Name, rec.AmountDue, rec.DaysOverdue)
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nCustomer id: ")
	choice, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	greeting, err := agent.StartSession(ctx, strings.TrimSpace(choice))
	if err != nil {
		return err
	}
	fmt.Printf("\nAgent: %s\n", greeting)

	for !agent.IsEnded() {
		fmt.Print("You: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		reply, err := agent.SubmitUtterance(ctx, line)
		if err != nil {
			if errors.Is(err, orchestratorx.ErrSessionEnded) {
				break
			}
			return err
		}
		fmt.Printf("Agent: %s\n", reply)
	}
	return nil
}
