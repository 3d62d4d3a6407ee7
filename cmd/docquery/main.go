// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/docquery"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. Engine options are appended to every engine the
// commands open.
func newApp(engineOpts ...docquery.Option) *cli.App {
	cmds := &commands{engineOpts: engineOpts}

	return &cli.App{
		Name:  "docquery",
		Usage: "Ask questions about code repositories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the index and catalog",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file to load settings from",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Where file contents come from (github, git)",
			},
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "Base URL of the OpenAI-compatible service",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Model that writes answers",
			},
			&cli.StringFlag{
				Name:  "utility-model",
				Usage: "Model used for query rephrasing and context compression",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Index files of a repository",
				ArgsUsage: "OWNER/REPO",
				Action:    cmds.ingest,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "branch",
						Aliases: []string{"b"},
						Usage:   "Branch to read files from",
						Value:   "main",
					},
					&cli.StringSliceFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "File to ingest (repeatable). Without any, every indexable file is listed from the source",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Email of the user the repository is recorded for",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Repository URL to record in the catalog",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about an ingested repository",
				ArgsUsage: "OWNER/REPO QUESTION...",
				Action:    cmds.ask,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "branch",
						Aliases: []string{"b"},
						Usage:   "Branch to re-read matching files from",
						Value:   "main",
					},
					&cli.BoolFlag{
						Name:  "show-context",
						Usage: "Print the retrieved context before the answer",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a repository and its indexed documents",
				ArgsUsage: "OWNER/REPO",
				Action:    cmds.delete,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Catalog ID of the repository (instead of OWNER/REPO)",
					},
				},
			},
			{
				Name:   "repos",
				Usage:  "List catalogued repositories",
				Action: cmds.repos,
			},
			{
				Name:   "runs",
				Usage:  "List ingestion runs, most recent first",
				Action: cmds.runs,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Show at most this many runs (0 for all)",
						Value: 20,
					},
				},
			},
			{
				Name:  "user",
				Usage: "Manage catalog users",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Register a user",
						ArgsUsage: "EMAIL",
						Action:    cmds.userAdd,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "name",
								Usage: "Display name",
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Show a user and their repositories",
						ArgsUsage: "EMAIL",
						Action:    cmds.userShow,
					},
				},
			},
			{
				Name:      "reindex",
				Usage:     "Re-embed stored chunks with the configured embedding model",
				ArgsUsage: "[OWNER/REPO]",
				Action:    cmds.reindex,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per request",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check that the store can be opened and read",
				Action: cmds.health,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
