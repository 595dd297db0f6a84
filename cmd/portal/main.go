// cmd/portal/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"applicant-portal/internal/common/config"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"login", "sign in and store the token", runLogin},
	{"logout", "forget the stored token", runLogout},
	{"signup", "create an applicant account", runSignup},
	{"verify-email", "confirm an email address with the emailed token", runVerifyEmail},
	{"resend-verification", "send the verification email again", runResendVerification},
	{"forgot-password", "request a password reset email", runForgotPassword},
	{"reset-password", "set a new password with the emailed token", runResetPassword},
	{"change-password", "change the password of the signed-in account", runChangePassword},
	{"me", "show the signed-in profile", runMe},
	{"profile", "update name or phone", runProfile},
	{"submit", "fill the new-application wizard from a draft file and submit it", runSubmit},
	{"edit", "edit an existing application from a draft file", runEdit},
	{"withdraw", "withdraw an application (irreversible)", runWithdraw},
	{"list", "list your applications", runList},
	{"show", "show one application", runShow},
	{"status", "count your applications by status", runStatus},
	{"download", "download or view a stored document", runDownload},
}

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: configs/config.yaml)")
	flag.Usage = help
	flag.Parse()

	if flag.NArg() < 1 {
		help()
		os.Exit(1)
	}
	name, args := flag.Arg(0), flag.Args()[1:]

	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		help()
		os.Exit(1)
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting portal: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cmd.run(ctx, a, args)
	stop()

	code := a.errs.HandleCommandError(cmd.name, err)
	if err != nil {
		fmt.Fprintln(a.errOut, renderErr(err))
	}
	a.close()
	os.Exit(code)
}

func help() {
	fmt.Println("Usage: portal [-config file] <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, c := range commands {
		fmt.Printf("  %-20s %s\n", c.name, c.usage)
	}
	fmt.Println()
	fmt.Println("Run 'portal <command> -h' for command flags.")
}
