package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"eduquiz/config"
	"eduquiz/export"
	"eduquiz/generator"
	"eduquiz/server"
	"eduquiz/session"
	"eduquiz/store"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config.json")
	addr := flag.String("addr", "", "http listen address (overrides config.server_addr)")
	topic := flag.String("topic", "", "one-shot mode: generate MCQs for this topic and exit")
	count := flag.Int("count", 5, "one-shot mode: number of questions")
	level := flag.String("level", "Medium", "one-shot mode: difficulty (Easy, Medium, Hard)")
	debug := flag.Bool("debug", false, "enable debug logs")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	// One-shot CLI mode: no accounts, no history, just generate and export.
	if *topic != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				fatal(err)
			}
			cfg = config.Default()
		}
		if err := runOnce(cfg, *topic, *count, generator.Level(*level)); err != nil {
			fatal(err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		fatal(err)
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		fatal(err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	exporter := export.NewPDFExporter(cfg.OutputDir)
	ctrl := session.NewController(st, agent, exporter, cfg.Timeout(), log)

	srv, err := server.New(ctrl, cfg.AuthSecret, cfg.OutputDir, log)
	if err != nil {
		fatal(err)
	}

	listen := cfg.ServerAddr
	if *addr != "" {
		listen = *addr
	}
	log.Info("starting web server", "addr", listen, "model", cfg.LLM.Model, "db", cfg.DatabasePath)
	if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
		fatal(err)
	}
}

func runOnce(cfg config.Config, topic string, count int, level generator.Level) error {
	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	text, err := agent.Generate(ctx, topic, count, level)
	if err != nil {
		return err
	}

	exporter := export.NewPDFExporter(cfg.OutputDir)
	path, err := exporter.Export(text, export.Metadata{Topic: topic})
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func buildLLM(cfg *config.LLMConfig) (generator.LLMClient, error) {
	if cfg == nil || cfg.Provider == "" {
		return nil, fmt.Errorf("llm config missing; set llm.provider/model in config")
	}
	switch cfg.Provider {
	case "ollama", "openai":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
		})
	case "mock":
		return &generator.MockLLM{Response: mockMCQs}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

const mockMCQs = `1. Which organelle produces most of a cell's ATP?
A) Ribosome
B) Mitochondrion
C) Nucleus
D) Golgi apparatus

Answer: B
Explanation: Mitochondria carry out cellular respiration, producing ATP.`

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
