package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	adapthttp "github.com/lesniewskii/weight-tracker/internal/adapter/http"
	"github.com/lesniewskii/weight-tracker/internal/app"
	"github.com/lesniewskii/weight-tracker/internal/domain"
)

var errUsage = errors.New("usage")

func (c *cli) run(ctx context.Context, name string, args []string) error {
	cmds := map[string]func(context.Context, []string) error{
		"login":    c.cmdLogin,
		"register": c.cmdRegister,
		"logout":   c.cmdLogout,
		"me":       c.cmdMe,
		"profile":  c.cmdProfile,
		"add":      c.cmdAdd,
		"edit":     c.cmdEdit,
		"delete":   c.cmdDelete,
		"list":     c.cmdList,
		"goals":    c.cmdGoals,
		"goal":     c.cmdGoal,
		"export":   c.cmdExport,
		"import":   c.cmdImport,
		"view":     c.cmdView,
		"serve":    c.cmdServe,
	}
	cmd, ok := cmds[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usageText)
		return errUsage
	}
	return cmd(ctx, args)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// isSet reports whether the named flag was given on the command line.
func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// toKg converts a weight typed in the display unit to kilograms.
func (c *cli) toKg(v float64) float64 {
	return domain.ConvertWeight(v, c.cfg.Unit, domain.UnitKg)
}

func (c *cli) fromKg(v float64) float64 {
	return domain.ConvertWeight(v, domain.UnitKg, c.cfg.Unit)
}

func readPassword() (string, error) {
	if p := os.Getenv("WEIGHTTRACKER_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// --- auth ---

func (c *cli) cmdLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *password == "" {
		p, err := readPassword()
		if err != nil {
			return err
		}
		*password = p
	}
	sess, err := c.auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s\n", sess.Username)
	return nil
}

func (c *cli) cmdRegister(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "password (prompted when empty)")
	email := fs.String("email", "", "email address")
	height := fs.Float64("height", 0, "height in cm")
	age := fs.Int("age", 0, "age in years")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *password == "" {
		p, err := readPassword()
		if err != nil {
			return err
		}
		*password = p
	}
	reg := domain.Registration{Username: *username, Password: *password, Email: *email}
	if isSet(fs, "height") {
		reg.Height = height
	}
	if isSet(fs, "age") {
		reg.Age = age
	}
	u, err := c.auth.Register(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered and logged in as %s\n", u.Username)
	return nil
}

func (c *cli) cmdLogout(ctx context.Context, _ []string) error {
	if err := c.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "logged out")
	return nil
}

func (c *cli) cmdMe(ctx context.Context, _ []string) error {
	u, err := c.auth.Profile(ctx)
	if err != nil {
		return err
	}
	return c.printJSON(u)
}

func (c *cli) cmdProfile(ctx context.Context, args []string) error {
	fs := newFlagSet("profile")
	email := fs.String("email", "", "email address")
	height := fs.Float64("height", 0, "height in cm")
	age := fs.Int("age", 0, "age in years")
	if err := parse(fs, args); err != nil {
		return err
	}
	var h *float64
	var a *int
	if isSet(fs, "height") {
		h = height
	}
	if isSet(fs, "age") {
		a = age
	}
	u, err := c.auth.UpdateProfile(ctx, *email, h, a)
	if err != nil {
		return err
	}
	return c.printJSON(u)
}

// --- measurements ---

func (c *cli) cmdAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	day := fs.String("date", time.Now().Format(domain.DateLayout), "measurement date, YYYY-MM-DD")
	weight := fs.Float64("weight", 0, "weight in the configured unit")
	notes := fs.String("notes", "", "free text")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.measurements.Add(ctx, *day, c.toKg(*weight), *notes); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %.1f %s on %s\n", *weight, c.cfg.Unit, *day)
	return nil
}

func (c *cli) cmdEdit(ctx context.Context, args []string) error {
	fs := newFlagSet("edit")
	id := fs.Int64("id", 0, "measurement id")
	day := fs.String("date", "", "new date, YYYY-MM-DD")
	weight := fs.Float64("weight", 0, "new weight in the configured unit")
	notes := fs.String("notes", "", "new notes")
	if err := parse(fs, args); err != nil {
		return err
	}

	var patch domain.MeasurementPatch
	if isSet(fs, "date") {
		d, err := domain.ParseDate(*day)
		if err != nil {
			return err
		}
		patch.Date = &d
	}
	if isSet(fs, "weight") {
		kg := c.toKg(*weight)
		patch.Weight = &kg
	}
	if isSet(fs, "notes") {
		patch.Notes = notes
	}
	if err := c.measurements.Edit(ctx, *id, patch); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated measurement %d\n", *id)
	return nil
}

func (c *cli) cmdDelete(ctx context.Context, args []string) error {
	fs := newFlagSet("delete")
	id := fs.Int64("id", 0, "measurement id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == 0 && fs.NArg() == 1 {
		n, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return app.ErrInvalidID
		}
		*id = n
	}
	if err := c.measurements.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted measurement %d\n", *id)
	return nil
}

func (c *cli) cmdList(ctx context.Context, _ []string) error {
	items, err := c.measurements.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tDATE\tWEIGHT (%s)\tNOTES\n", c.cfg.Unit)
	for _, m := range items {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\n", m.ID, m.Date, c.fromKg(m.Weight), m.Notes)
	}
	return tw.Flush()
}

// --- goals ---

func (c *cli) cmdGoals(ctx context.Context, _ []string) error {
	goals, err := c.goals.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tSTART (%s)\tTARGET (%s)\tBY\n", c.cfg.Unit, c.cfg.Unit)
	for _, g := range goals {
		fmt.Fprintf(tw, "%d\t%.1f\t%.1f\t%s\n", g.ID, c.fromKg(g.StartWeight), c.fromKg(g.TargetWeight), g.TargetDate)
	}
	return tw.Flush()
}

func (c *cli) cmdGoal(ctx context.Context, args []string) error {
	fs := newFlagSet("goal")
	start := fs.Float64("start", 0, "start weight in the configured unit")
	target := fs.Float64("target", 0, "target weight in the configured unit")
	by := fs.String("date", "", "target date, YYYY-MM-DD")
	if err := parse(fs, args); err != nil {
		return err
	}
	g, err := c.goals.Create(ctx, c.toKg(*start), c.toKg(*target), *by)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added goal %d: %.1f %s by %s\n", g.ID, *target, c.cfg.Unit, g.TargetDate)
	return nil
}

// --- import / export ---

func (c *cli) cmdExport(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	out := fs.String("o", app.ExportFileName, `output file, "-" for stdout`)
	if err := parse(fs, args); err != nil {
		return err
	}
	data, err := c.transfer.Export(ctx)
	if err != nil {
		return err
	}
	if *out == "-" {
		_, err = c.out.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(c.out, "exported to %s\n", *out)
	return nil
}

func (c *cli) cmdImport(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: weighttracker import <file.csv>")
		return errUsage
	}
	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := c.transfer.Import(ctx, path, f); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "imported %s\n", path)
	return nil
}

// --- view / serve ---

// cmdView runs a single refresh epoch and prints the published view model.
func (c *cli) cmdView(ctx context.Context, _ []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	published := make(chan domain.ViewModel, 1)
	c.refresh.Subscribe(func(vm domain.ViewModel) {
		select {
		case published <- vm:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.refresh.Run(ctx)
	}()

	var vm domain.ViewModel
	select {
	case vm = <-published:
	case <-ctx.Done():
	}
	cancel()
	<-done

	if err := ctx.Err(); err != nil && vm.Epoch == 0 {
		return err
	}
	for _, n := range vm.Notices {
		log.Warnf("%s: %s", n.Section, n.Message)
	}
	return c.printJSON(vm)
}

func (c *cli) cmdServe(ctx context.Context, args []string) error {
	fs := newFlagSet("serve")
	addr := fs.String("addr", c.cfg.Addr, "listen address")
	webDir := fs.String("web", c.cfg.WebDir, "static web client directory, empty to disable")
	if err := parse(fs, args); err != nil {
		return err
	}

	srv := adapthttp.New(adapthttp.Services{
		View:         c.refresh,
		Measurements: c.measurements,
		Goals:        c.goals,
		Transfer:     c.transfer,
		Auth:         c.auth,
	}, adapthttp.WithMetrics(c.metrics, c.registry), adapthttp.WithWebDir(existingDir(*webDir)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.refresh.Run(ctx)
	}()

	err := srv.Serve(ctx, *addr)
	cancel()
	<-done
	return err
}

func existingDir(dir string) string {
	if dir == "" {
		return ""
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		log.Debugf("web dir [%s] not found, serving the API only", dir)
		return ""
	}
	return dir
}
