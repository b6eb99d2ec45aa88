package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"bookchunk/internal/config"
	"bookchunk/internal/extract"
	"bookchunk/internal/fetch"
	"bookchunk/internal/models"
	"bookchunk/internal/pipeline"
	"bookchunk/internal/splitter"
	"bookchunk/internal/store"
	"bookchunk/internal/toc"
)

func main() {
	root := &cobra.Command{
		Use:           "bookchunk",
		Short:         "Chunk a book-style site into indexable text records",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().StringP("config", "c", "", "path to a yaml config file")
	root.Flags().StringP("output", "o", "", "output file (overrides config)")
	root.PersistentFlags().String("log-level", "info", "debug, info, warn or error")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	setupLogger(cmd)

	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			log.Error("cannot load config", "path", path, "err", err)
			return err
		}
		cfg = loaded
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Store.OutputFile = out
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	walker, err := toc.NewWalker(
		cfg.TOC.RootSelector,
		cfg.TOC.PartClass,
		cfg.TOC.PartTitleSelector,
		cfg.Source.ChapterPattern,
		cfg.Source.FrontMatterPattern,
	)
	if err != nil {
		log.Error("invalid walker configuration", "err", err)
		return err
	}

	client := fetch.NewClient(cfg.Fetch.UserAgent, time.Duration(cfg.Fetch.TimeoutSec)*time.Second)
	client.InitRobots(ctx, cfg.Source.BaseURL)

	normalizer := &extract.Normalizer{
		ContentSelector:     cfg.Extract.ContentSelector,
		TitleSelector:       cfg.Extract.TitleSelector,
		ObjectivesSelector:  cfg.Extract.ObjectivesSelector,
		ReadabilityFallback: cfg.Extract.ReadabilityFallback,
	}
	split := splitter.New(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap, cfg.Splitter.Separators)

	p := pipeline.New(client, walker, normalizer, split,
		time.Duration(cfg.Fetch.DelayMS)*time.Millisecond)
	chunks := p.Run(ctx, cfg.Source.BaseURL)

	if len(chunks) == 0 {
		log.Warn("no chunks produced, nothing to write")
		return nil
	}

	if cfg.Store.Mongo.Enabled {
		saveToMongo(cfg.Store.Mongo, chunks)
	}

	if err := store.WriteJSON(cfg.Store.OutputFile, chunks); err != nil {
		log.Error("writing output failed", "file", cfg.Store.OutputFile, "err", err)
		return err
	}
	log.Info("output written", "file", cfg.Store.OutputFile, "chunks", len(chunks))
	return nil
}

// saveToMongo is additive: a broken Mongo setup must not cost us the
// file output.
func saveToMongo(cfg config.MongoConfig, chunks []models.Chunk) {
	mongoStore, err := store.NewMongoStore(cfg)
	if err != nil {
		log.Error("mongo store unavailable", "err", err)
		return
	}
	defer func() {
		if err := mongoStore.Close(); err != nil {
			log.Warn("closing mongo store", "err", err)
		}
	}()

	if err := mongoStore.SaveChunks(chunks); err != nil {
		log.Error("saving chunks to mongo failed", "err", err)
		return
	}
	log.Info("chunks saved to mongo", "count", len(chunks))
}

func setupLogger(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetTimeFormat("15:04:05")
}
