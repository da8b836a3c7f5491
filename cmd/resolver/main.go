package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	sonic "github.com/bytedance/sonic"

	"github.com/goldenstat/identity/internal/app"
	"github.com/goldenstat/identity/internal/config"
	"github.com/goldenstat/identity/internal/platform/logging"
	"github.com/goldenstat/identity/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	db, err := app.OpenDB(cfg)
	if err != nil {
		fatal(logger, "open database", err)
	}
	defer func() { _ = db.Close() }()

	services, err := app.NewServices(db, cfg, logger)
	if err != nil {
		fatal(logger, "build services", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	args := os.Args[2:]

	if err := run(ctx, cfg, services, cmd, args); err != nil {
		fatal(logger, cmd, err)
	}
}

func run(ctx context.Context, cfg config.Config, services app.Services, cmd string, args []string) error {
	switch cmd {
	case "analyze":
		name, err := nameArg(cmd, args)
		if err != nil {
			return err
		}
		report, err := services.Resolution.Analyze(ctx, name)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "propose":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dryRun := fs.Bool("dry-run", false, "report without writing proposals")
		name, err := nameArgWithFlags(cmd, fs, args)
		if err != nil {
			return err
		}
		report, err := services.Resolution.Propose(ctx, name, *dryRun)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "propose-all":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		minMatches := fs.Int("min-matches", cfg.ScanMinMatches, "only scan names with at least this many sub-matches")
		workers := fs.Int("workers", cfg.ScanWorkers, "number of concurrent scan workers")
		dryRun := fs.Bool("dry-run", false, "report without writing proposals")
		if err := fs.Parse(args); err != nil {
			return err
		}
		report, err := services.Resolution.ProposeAll(ctx, usecase.ScanInput{
			MinMatches: *minMatches,
			MaxWorkers: *workers,
			DryRun:     *dryRun,
		})
		if err != nil {
			return err
		}
		return printJSON(report)

	case "create":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		subMatchID := fs.Int64("sub-match", 0, "sub-match id the correction applies to")
		originalID := fs.Int64("original", 0, "player id recorded in the sub-match")
		correctID := fs.Int64("correct", 0, "player id the participation belongs to")
		correctName := fs.String("correct-name", "", "name of the correct player")
		matchContext := fs.String("context", "", "club / division / season context")
		confidence := fs.Int("confidence", 100, "confidence 1-100")
		reason := fs.String("reason", "manual_correction", "why the mapping exists")
		notes := fs.String("notes", "", "free-form operator notes")
		if err := fs.Parse(args); err != nil {
			return err
		}
		created, err := services.Mapping.Create(ctx, usecase.CreateMappingInput{
			SubMatchID:        *subMatchID,
			OriginalPlayerID:  *originalID,
			CorrectPlayerID:   *correctID,
			CorrectPlayerName: *correctName,
			MatchContext:      *matchContext,
			Confidence:        *confidence,
			MappingReason:     *reason,
			Notes:             *notes,
		})
		if err != nil {
			return err
		}
		return printJSON(usecase.NewMappingRecord(created))

	case "confirm":
		id, err := idArg(cmd, args)
		if err != nil {
			return err
		}
		if err := services.Mapping.Confirm(ctx, id); err != nil {
			return err
		}
		fmt.Printf("mapping %d confirmed\n", id)
		return nil

	case "confirm-all":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		minConfidence := fs.Int("min-confidence", cfg.AutoConfirmConfidence, "confirm proposals at or above this confidence")
		dryRun := fs.Bool("dry-run", false, "report without confirming")
		if err := fs.Parse(args); err != nil {
			return err
		}
		report, err := services.Mapping.ConfirmAll(ctx, *minConfidence, *dryRun)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "reject":
		id, err := idArg(cmd, args)
		if err != nil {
			return err
		}
		if err := services.Mapping.Reject(ctx, id); err != nil {
			return err
		}
		fmt.Printf("mapping %d rejected\n", id)
		return nil

	case "list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		status := fs.String("status", "", "filter by status (proposed, confirmed, applied)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		items, err := services.Mapping.List(ctx, *status)
		if err != nil {
			return err
		}
		records := make([]usecase.MappingRecord, 0, len(items))
		for _, m := range items {
			records = append(records, usecase.NewMappingRecord(m))
		}
		return printJSON(records)

	case "resolve":
		name, err := nameArg(cmd, args)
		if err != nil {
			return err
		}
		ids, err := services.Applier.Resolve(ctx, name)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"name": name, "player_ids": ids})

	case "materialize":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dryRun := fs.Bool("dry-run", false, "report without rewriting facts")
		if err := fs.Parse(args); err != nil {
			return err
		}
		report, err := services.Applier.Materialize(ctx, *dryRun)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "reverse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dryRun := fs.Bool("dry-run", false, "report without rewriting facts")
		id, err := idArgWithFlags(cmd, fs, args)
		if err != nil {
			return err
		}
		row, err := services.Applier.Reverse(ctx, id, *dryRun)
		if err != nil {
			return err
		}
		return printJSON(row)

	case "dedupe":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dryRun := fs.Bool("dry-run", false, "report without deleting rows")
		if err := fs.Parse(args); err != nil {
			return err
		}
		report, err := services.Applier.Dedupe(ctx, *dryRun)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "verify":
		report, err := services.Applier.Verify(ctx)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "mappings.json", "output file path")
		status := fs.String("status", "", "filter by status (proposed, confirmed, applied)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		doc, err := services.Mapping.Export(ctx, *out, *status)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d mapping(s) to %s\n", doc.Total, *out)
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func nameArg(cmd string, args []string) (string, error) {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%s requires a player name argument", cmd)
	}
	return strings.TrimSpace(args[0]), nil
}

// nameArgWithFlags accepts `<name> [flags]` and parses the remainder.
func nameArgWithFlags(cmd string, fs *flag.FlagSet, args []string) (string, error) {
	name, err := nameArg(cmd, args)
	if err != nil {
		return "", err
	}
	if err := fs.Parse(args[1:]); err != nil {
		return "", err
	}
	return name, nil
}

func idArg(cmd string, args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s requires a mapping id argument", cmd)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid mapping id %q", args[0])
	}
	return id, nil
}

func idArgWithFlags(cmd string, fs *flag.FlagSet, args []string) (int64, error) {
	id, err := idArg(cmd, args)
	if err != nil {
		return 0, err
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 0, err
	}
	return id, nil
}

func printJSON(v any) error {
	payload, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(payload))
	return nil
}

func fatal(logger *logging.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	_ = logger.Sync()
	os.Exit(1)
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <command> [args]\n\n", prog)
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  analyze <name>             activity contexts and merge safety for a name")
	fmt.Fprintln(os.Stderr, "  propose <name>             propose mappings for variants of a name")
	fmt.Fprintln(os.Stderr, "  propose-all                scan all active names and propose mappings")
	fmt.Fprintln(os.Stderr, "  create                     create a manual mapping (see flags)")
	fmt.Fprintln(os.Stderr, "  confirm <id>               confirm a proposed mapping")
	fmt.Fprintln(os.Stderr, "  confirm-all                confirm proposals above a confidence cutoff")
	fmt.Fprintln(os.Stderr, "  reject <id>                delete a proposed or confirmed mapping")
	fmt.Fprintln(os.Stderr, "  list                       list mappings, optionally by status")
	fmt.Fprintln(os.Stderr, "  resolve <name>             player ids a name resolves to")
	fmt.Fprintln(os.Stderr, "  materialize                rewrite facts for confirmed mappings")
	fmt.Fprintln(os.Stderr, "  reverse <id>               undo an applied mapping")
	fmt.Fprintln(os.Stderr, "  dedupe                     remove duplicate participation rows")
	fmt.Fprintln(os.Stderr, "  verify                     check mapping store consistency")
	fmt.Fprintln(os.Stderr, "  export                     dump mappings to a JSON file")
}
