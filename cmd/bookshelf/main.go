// Command bookshelf is a terminal client for the personal book library.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookshelf/internal/view"
	"bookshelf/pkg/domain"
)

const usage = `usage: bookshelf [-config file] [-ephemeral] <command> [flags]

commands:
  login    [-id id] [-password pw]     log in and remember the session
  signup   -id id [-password pw] [-name name]
  logout                               forget the session
  whoami                               show the current user
  list     [-q keyword]                list your books
  show     <id>...                     show one or more books
  add      -title t [flags]            register a book
  edit     <id> [flags]                edit a book
  delete   <id>                        delete a book
  cover    -title t [flags]            generate a cover preview without saving
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	cfgPath := flag.String("config", "", "config file (default bookshelf.yaml when present)")
	ephemeral := flag.Bool("ephemeral", false, "keep the session in memory only")
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, *cfgPath, *ephemeral)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	err = run(ctx, a, flag.Arg(0), flag.Args()[1:])
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, args)
	case "signup":
		return a.cmdSignup(ctx, args)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami()
	case "list":
		return a.cmdList(ctx, args)
	case "show":
		return a.cmdShow(ctx, args)
	case "add":
		return a.cmdAdd(ctx, args)
	case "edit":
		return a.cmdEdit(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "cover":
		return a.cmdCover(ctx, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func describe(err error) string {
	switch {
	case domain.IsLoginRequired(err):
		return "please log in first (bookshelf login)"
	case errors.Is(err, view.ErrClosed), errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return domain.UserMessage(err, "something went wrong")
	}
}
