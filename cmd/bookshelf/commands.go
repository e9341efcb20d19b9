package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"bookshelf/internal/cover"
	"bookshelf/internal/session"
	"bookshelf/internal/view"
	"bookshelf/pkg/domain"
)

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	id := fs.String("id", "", "login id")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		*id = prompt("ID: ")
	}
	if *password == "" {
		*password = secret("Password: ")
	}
	v := view.NewLogin(ctx, a.auth)
	defer v.Close()
	msg, err := v.Submit(*id, *password)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	id := fs.String("id", "", "login id")
	password := fs.String("password", "", "password (prompted when empty)")
	name := fs.String("name", "", "display name (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = secret("Password: ")
	}
	v := view.NewSignup(ctx, a.auth)
	defer v.Close()
	msg, err := v.Submit(*id, *password, *name)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func (a *app) cmdWhoami() error {
	s, ok := a.session.Current()
	if !ok {
		return domain.ErrLoginRequired
	}
	fmt.Printf("%s (%s)\n", s.DisplayName(), s.UserID)
	if info, err := session.InspectToken(s.AccessToken); err == nil && !info.ExpiresAt.IsZero() {
		state := "valid until"
		if time.Now().After(info.ExpiresAt) {
			state = "expired at"
		}
		fmt.Printf("access token %s %s\n", state, info.ExpiresAt.Local().Format(time.RFC3339))
	}
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	keyword := fs.String("q", "", "filter by title, author or genre")
	if err := fs.Parse(args); err != nil {
		return err
	}
	v := view.NewList(ctx, a.books, a.session)
	defer v.Close()
	if err := v.Load(); err != nil {
		return err
	}
	v.SetKeyword(*keyword)
	books := v.Visible()
	fmt.Printf("%s's library (%d of %d)\n", v.Greeting(), len(books), len(v.Books()))
	if len(books) == 0 {
		fmt.Println("no books")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tGENRE\tCOVER")
	for _, b := range books {
		coverMark := "-"
		if _, ok := b.CoverSource(); ok {
			coverMark = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.Genre, coverMark)
	}
	return w.Flush()
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return domain.Validation("invalid access")
	}
	if _, err := a.session.RequireUser(); err != nil {
		return err
	}
	if len(args) > 1 {
		books, err := a.books.GetAll(ctx, args)
		if err != nil {
			return err
		}
		for i, b := range books {
			if i > 0 {
				fmt.Println()
			}
			printBook(b)
		}
		return nil
	}
	v := view.NewDetail(ctx, a.books, a.session, args[0], nil)
	defer v.Close()
	if err := v.Load(); err != nil {
		return err
	}
	printBook(v.Snapshot().Book)
	return nil
}

func printBook(b domain.Book) {
	fmt.Printf("%s\n", b.Title)
	if b.Author != "" {
		fmt.Printf("by %s\n", b.Author)
	}
	if b.Genre != "" {
		fmt.Printf("genre: %s\n", b.Genre)
	}
	if url, ok := b.CoverSource(); ok {
		fmt.Printf("cover: %s\n", url)
	} else {
		fmt.Println("cover: (none)")
	}
	fmt.Printf("id: %s\n\n%s\n", b.ID, view.PlainText(b.SummaryText()))
}

// bookFlags are shared by add, edit and cover.
type bookFlags struct {
	fs       *flag.FlagSet
	title    *string
	author   *string
	genre    *string
	summary  *string
	prompt   *string
	apiKey   *string
	model    *string
	size     *string
	quality  *string
	style    *string
	generate *bool
}

func newBookFlags(name string) *bookFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &bookFlags{
		fs:       fs,
		title:    fs.String("title", "", "title"),
		author:   fs.String("author", "", "author"),
		genre:    fs.String("genre", "", "genre"),
		summary:  fs.String("summary", "", "summary"),
		prompt:   fs.String("prompt", "", "custom cover prompt"),
		apiKey:   fs.String("api-key", "", "OpenAI API key (defaults to config)"),
		model:    fs.String("model", "", "image model"),
		size:     fs.String("size", "", "image size"),
		quality:  fs.String("quality", "", "image quality"),
		style:    fs.String("style", "", "image style"),
		generate: fs.Bool("generate", false, "generate a cover before saving"),
	}
}

// apply overwrites the form with every flag given on the command line.
func (b *bookFlags) apply(f view.Form, defaults cover.Options, configKey string) view.Form {
	if f.APIKey == "" {
		f.APIKey = configKey
	}
	if f.Options == cover.DefaultOptions() {
		f.Options = defaults
	}
	b.fs.Visit(func(fl *flag.Flag) {
		v := fl.Value.String()
		switch fl.Name {
		case "title":
			f.Title = v
		case "author":
			f.Author = v
		case "genre":
			f.Genre = v
		case "summary":
			f.Summary = v
		case "prompt":
			f.CoverPrompt = v
		case "api-key":
			f.APIKey = v
		case "model":
			f.Options.Model = v
		case "size":
			f.Options.Size = v
		case "quality":
			f.Options.Quality = v
		case "style":
			f.Options.Style = v
		}
	})
	return f
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	bf := newBookFlags("add")
	if err := bf.fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.session.RequireUser(); err != nil {
		return err
	}
	v := view.NewEditor(ctx, a.editorConfig(), nil)
	defer v.Close()
	return a.saveWithEditor(v, bf)
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return domain.Validation("usage: bookshelf edit <id> [flags]")
	}
	bf := newBookFlags("edit")
	if err := bf.fs.Parse(args[1:]); err != nil {
		return err
	}
	if _, err := a.session.RequireUser(); err != nil {
		return err
	}
	detail := view.NewDetail(ctx, a.books, a.session, args[0], nil)
	defer detail.Close()
	if err := detail.Load(); err != nil {
		return err
	}
	book, ok := detail.EditTarget()
	if !ok {
		return domain.Validation("invalid access")
	}
	v := view.NewEditor(ctx, a.editorConfig(), &book)
	defer v.Close()
	return a.saveWithEditor(v, bf)
}

func (a *app) saveWithEditor(v *view.Editor, bf *bookFlags) error {
	v.SetForm(bf.apply(v.Form(), a.cfg.Images.Options, a.cfg.Images.APIKey))
	if *bf.generate {
		url, err := v.GenerateCover()
		if err != nil {
			return err
		}
		fmt.Println("cover preview:", url)
	}
	saved, err := v.Save()
	if err != nil {
		return err
	}
	if w := v.Warning(); w != "" {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if v.Mode() == view.ModeCreate {
		fmt.Printf("registered %s (%s)\n", saved.Title, saved.ID)
	} else {
		fmt.Printf("updated %s (%s)\n", saved.Title, saved.ID)
	}
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return domain.Validation("usage: bookshelf delete <id>")
	}
	v := view.NewDetail(ctx, a.books, a.session, args[0], &domain.Book{ID: strings.TrimSpace(args[0])})
	defer v.Close()
	if err := v.Delete(); err != nil {
		return err
	}
	fmt.Println("deleted", args[0])
	return nil
}

func (a *app) cmdCover(ctx context.Context, args []string) error {
	bf := newBookFlags("cover")
	if err := bf.fs.Parse(args); err != nil {
		return err
	}
	v := view.NewEditor(ctx, a.editorConfig(), nil)
	defer v.Close()
	v.SetForm(bf.apply(v.Form(), a.cfg.Images.Options, a.cfg.Images.APIKey))
	url, err := v.GenerateCover()
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// secret reads a password from BOOKSHELF_PASSWORD or stdin.
func secret(label string) string {
	if v := os.Getenv("BOOKSHELF_PASSWORD"); v != "" {
		return v
	}
	return prompt(label)
}
