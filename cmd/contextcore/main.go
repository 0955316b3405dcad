// =============================================================================
// ContextCore 命令行工具
// =============================================================================
// 离线检查产物存储与快照的运维工具
//
// 使用方法:
//
//	contextcore artifacts list  --dir ./artifacts [--run run-1]
//	contextcore artifacts head  --dir ./artifacts --id <artifact-id> [--n 10]
//	contextcore artifacts tail  --dir ./artifacts --id <artifact-id> [--n 10]
//	contextcore artifacts grep  --dir ./artifacts --id <artifact-id> --pattern <regexp>
//	contextcore artifacts chunk --dir ./artifacts --id <artifact-id> --start 1 --end 50
//	contextcore snapshots list  --db snapshots.db
//	contextcore config validate --config contextcore.yaml
//	contextcore version
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/MervinPraison/contextcore/artifacts"
	"github.com/MervinPraison/contextcore/config"
	"github.com/MervinPraison/contextcore/persistence"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "artifacts":
		runArtifacts(os.Args[2:])
	case "snapshots":
		runSnapshots(os.Args[2:])
	case "config":
		runConfig(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 📂 artifacts 命令
// =============================================================================

func runArtifacts(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "artifacts requires a subcommand: list, head, tail, grep, chunk")
		os.Exit(1)
	}

	sub := args[0]
	fs := flag.NewFlagSet("artifacts "+sub, flag.ExitOnError)
	dir := fs.String("dir", "./artifacts", "Artifact store directory")
	id := fs.String("id", "", "Artifact id")
	runID := fs.String("run", "", "Filter by run id (list only)")
	n := fs.Int("n", 10, "Number of lines (head/tail)")
	pattern := fs.String("pattern", "", "Regular expression (grep)")
	start := fs.Int("start", 1, "First line, 1-based (chunk)")
	end := fs.Int("end", 0, "Line after the last, 1-based (chunk)")
	fs.Parse(args[1:])

	store, err := artifacts.NewStore(*dir)
	if err != nil {
		fatal(err)
	}
	ctx := context.Background()

	switch sub {
	case "list":
		refs, err := store.List(ctx, *runID)
		if err != nil {
			fatal(err)
		}
		for _, ref := range refs {
			fmt.Printf("%s  %8d bytes  %-16s  %s  %s\n",
				ref.ArtifactID, ref.SizeBytes, ref.MimeType,
				ref.CreatedAt.Format("2006-01-02 15:04:05"), ref.Summary)
		}

	case "head", "tail", "grep", "chunk":
		ref, err := store.Get(ctx, *id)
		if err != nil {
			fatal(err)
		}
		switch sub {
		case "head":
			text, err := store.Head(ctx, ref, *n)
			if err != nil {
				fatal(err)
			}
			fmt.Println(text)
		case "tail":
			text, err := store.Tail(ctx, ref, *n)
			if err != nil {
				fatal(err)
			}
			fmt.Println(text)
		case "grep":
			matches, err := store.Grep(ctx, ref, *pattern)
			if err != nil {
				fatal(err)
			}
			for _, m := range matches {
				fmt.Printf("%d:%s\n", m.LineNumber, m.Line)
			}
		case "chunk":
			text, err := store.Chunk(ctx, ref, *start, *end)
			if err != nil {
				fatal(err)
			}
			fmt.Println(text)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown artifacts subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// =============================================================================
// 💾 snapshots 命令
// =============================================================================

func runSnapshots(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "snapshots requires a subcommand: list")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("snapshots "+args[0], flag.ExitOnError)
	db := fs.String("db", "snapshots.db", "SQLite snapshot database path")
	limit := fs.Int("limit", 0, "Max snapshots to list (0 = all)")
	fs.Parse(args[1:])

	store, err := persistence.NewSQLiteStore(*db, nil)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	switch args[0] {
	case "list":
		all, err := store.List(context.Background(), *limit)
		if err != nil {
			fatal(err)
		}
		for _, s := range all {
			fmt.Printf("%s  %8d bytes  %s  %s\n",
				s.ID, len(s.Blob), s.CreatedAt.Format("2006-01-02 15:04:05"), s.Label)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown snapshots subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

// =============================================================================
// ⚙️ config 命令
// =============================================================================

func runConfig(args []string) {
	if len(args) < 1 || args[0] != "validate" {
		fmt.Fprintln(os.Stderr, "config requires a subcommand: validate")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("config validate", flag.ExitOnError)
	path := fs.String("config", "", "Path to config file")
	fs.Parse(args[1:])

	if _, err := config.Load(*path); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("ContextCore %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`ContextCore - conversation context and artifact inspection

Usage:
  contextcore artifacts list  --dir ./artifacts [--run <run-id>]
  contextcore artifacts head  --dir ./artifacts --id <artifact-id> [--n 10]
  contextcore artifacts tail  --dir ./artifacts --id <artifact-id> [--n 10]
  contextcore artifacts grep  --dir ./artifacts --id <artifact-id> --pattern <regexp>
  contextcore artifacts chunk --dir ./artifacts --id <artifact-id> --start 1 --end 50
  contextcore snapshots list  --db snapshots.db [--limit 20]
  contextcore config validate --config contextcore.yaml
  contextcore version`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
