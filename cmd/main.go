package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/docchat/internal/models"
	cfgPkg "github.com/xhad/docchat/pkg/config"
	"github.com/xhad/docchat/pkg/engine"
	"github.com/xhad/docchat/pkg/extractor"
	"github.com/xhad/docchat/pkg/indexer"
	"github.com/xhad/docchat/pkg/llm"
	"github.com/xhad/docchat/pkg/session"
)

type flags struct {
	configPath string
	sessionID  string
	ingest     string
	ask        string
}

func main() {
	godotenv.Load()

	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.StringVar(&f.sessionID, "session", "", "Existing session id (empty creates a new one on ingest)")
	flag.StringVar(&f.ingest, "ingest", "", "Comma-separated files to ingest")
	flag.StringVar(&f.ask, "ask", "", "Ask a single question and exit")
	flag.Parse()

	if err := run(f); err != nil {
		log.Fatal(err)
	}
}

func run(f flags) error {
	cfg, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	store, err := session.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.LLM.BaseURL,
		Timeout:   secondsDuration(cfg.Embedding.TimeoutSecs),
		RateLimit: cfg.Embedding.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	generator, err := llm.NewChatWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     secondsDuration(cfg.LLM.TimeoutSecs),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	ing := indexer.New(store, embedder, extractor.Extract)
	eng, err := engine.NewWithConfig(store, embedder, generator, engine.Config{TopK: cfg.Retrieval.TopK})
	if err != nil {
		return err
	}

	ctx := context.Background()
	sessionID := f.sessionID

	if f.ingest != "" {
		report, err := ingestFiles(ctx, ing, sessionID, strings.Split(f.ingest, ","), cfg)
		if err != nil {
			return err
		}
		sessionID = report.SessionID
		color.Green("✓ Ingested %d documents (%d chunks) into %s\n",
			report.DocumentsIngested, report.ChunksCreated, report.SessionID)
	}

	if sessionID == "" {
		return fmt.Errorf("no session: pass -session or ingest files first")
	}

	if f.ask != "" {
		return askOnce(ctx, eng, sessionID, f.ask)
	}
	return chatLoop(ctx, eng, sessionID)
}

func ingestFiles(ctx context.Context, ing *indexer.Indexer, sessionID string, paths []string, cfg *cfgPkg.Config) (models.IngestionReport, error) {
	var files []indexer.File

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription(color.BlueString("Reading files...")),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
	)

	for _, p := range paths {
		p = strings.TrimSpace(p)
		data, err := os.ReadFile(p)
		if err != nil {
			return models.IngestionReport{}, fmt.Errorf("reading %s: %v", p, err)
		}
		files = append(files, indexer.File{Name: filepath.Base(p), Data: data})
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	spinner := getSpinner(" Embedding and indexing...")
	report, err := ing.Ingest(ctx, sessionID, files, cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	spinner.Finish()
	fmt.Println()
	return report, err
}

func askOnce(ctx context.Context, eng *engine.Engine, sessionID, question string) error {
	answer, err := eng.Answer(ctx, sessionID, question, nil)
	if err != nil {
		return err
	}
	fmt.Println(answer.Text)
	printSources(answer.Sources)
	return nil
}

func chatLoop(ctx context.Context, eng *engine.Engine, sessionID string) error {
	color.Cyan("\nChat with session %s (type 'exit' to quit)", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	var history []models.ChatTurn

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.ToLower(question) == "exit" {
			break
		}

		spinner := getSpinner(" Thinking...")
		answer, err := eng.Answer(ctx, sessionID, question, history)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			if errors.Is(err, models.ErrSessionNotFound) {
				return err
			}
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("\nAssistant: %s\n", answer.Text)
		printSources(answer.Sources)

		history = append(history,
			models.ChatTurn{Role: models.RoleUser, Content: question},
			models.ChatTurn{Role: models.RoleAssistant, Content: answer.Text},
		)
	}

	return nil
}

func printSources(sources []models.RetrievalResult) {
	if len(sources) == 0 {
		return
	}
	seen := make(map[string]bool)
	var names []string
	for _, s := range sources {
		label := s.Chunk.SourceDocument
		if s.Chunk.Page > 0 {
			label = fmt.Sprintf("%s (p.%d)", label, s.Chunk.Page)
		}
		if !seen[label] {
			names = append(names, label)
			seen[label] = true
		}
	}
	color.Blue("Sources: %s", strings.Join(names, ", "))
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func secondsDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
