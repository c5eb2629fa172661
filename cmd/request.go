package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"bmcprobe/internal/app"
	"bmcprobe/internal/commands"
	"bmcprobe/internal/domain"
)

// requireApp returns the initialized application.
func requireApp() (*app.App, error) {
	a := GetApp()
	if a == nil {
		return nil, errors.New("application not initialized")
	}
	return a, nil
}

// resolveCheckRequest builds the check target from --target or --url and
// obtains the password from --password, BMCPROBE_PASSWORD or a prompt.
func resolveCheckRequest(ctx context.Context, a *app.App) (commands.CheckRequest, error) {
	var target domain.Target

	if ref := viper.GetString("target"); ref != "" {
		saved, err := a.ConfigRepo.FindTarget(ctx, ref)
		if err != nil {
			return commands.CheckRequest{}, fmt.Errorf("failed to find target: %w", err)
		}
		target = saved
		if viper.IsSet("username") && viper.GetString("username") != "" {
			target.Username = viper.GetString("username")
		}
	} else {
		url := viper.GetString("url")
		if url == "" {
			return commands.CheckRequest{}, errors.New("either --url or --target must be specified (or set BMCPROBE_URL)")
		}
		target = domain.Target{URL: url, Username: viper.GetString("username")}
	}

	password := viper.GetString("password")
	if password == "" {
		var err error
		password, err = a.PasswordReader.ReadPassword(ctx,
			fmt.Sprintf("Password for %s@%s: ", target.Username, target.BaseURL()))
		if err != nil {
			return commands.CheckRequest{}, fmt.Errorf("failed to read password: %w", err)
		}
	}

	a.Logger.DebugContext(ctx, "Resolved target",
		"bmc", target.BaseURL(),
		"username", target.Username,
		"insecure", viper.GetBool("insecure"))

	return commands.CheckRequest{
		Target:          target,
		Credential:      domain.Credential{Username: target.Username, Secret: password},
		InsecureSkipTLS: viper.GetBool("insecure"),
	}, nil
}
