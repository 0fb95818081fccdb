package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
)

// selfUpdate replaces the running binary with the latest release of repo
func selfUpdate(ctx context.Context, repo, current string) error {
	if current == "dev" {
		return errors.New("development builds cannot be updated; install a release build")
	}

	fmt.Println(infoStyle.Render("Checking " + repo + " for updates..."))

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil {
		return fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", repo)
	}

	if latest.LessOrEqual(current) {
		fmt.Println(successStyle.Render(fmt.Sprintf("Already up to date (%s)", current)))
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to install %s: %w", latest.Version(), err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Updated %s -> %s", current, latest.Version())))
	return nil
}
