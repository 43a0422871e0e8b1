package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

// settingEntry is one row of `settings list`.
type settingEntry struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	Overridden bool   `json:"overridden"`
}

// maskSecret keeps the last four characters of an API key.
func maskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

// validateSetting rejects unknown keys and values the resolvers could not parse.
func validateSetting(key, value string) error {
	if !settings.IsKnown(key) {
		return fmt.Errorf("%w: unknown setting %q", shared.ErrInvalidArgument, key)
	}

	switch {
	case key == settings.SonarrDefaultSeriesType:
		if !slices.Contains(models.SeriesTypes, value) {
			return fmt.Errorf("%w: %s must be one of %s", shared.ErrInvalidArgument, key, strings.Join(models.SeriesTypes, ", "))
		}
	case strings.HasSuffix(key, "Enabled"):
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s must be true or false", shared.ErrInvalidArgument, key)
		}
	case strings.HasSuffix(key, "Id"):
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%w: %s must be a number", shared.ErrInvalidArgument, key)
		}
	case strings.HasSuffix(key, "Url"):
		if value != "" && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("%w: %s must start with http:// or https://", shared.ErrInvalidArgument, key)
		}
	}
	return nil
}

// SettingsList prints every effective setting, marking database overrides.
func (r *Runner) SettingsList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.settingsStore()
	if err != nil {
		return err
	}
	lister, ok := store.(settings.Lister)
	if !ok {
		return errors.New("settings store cannot be listed")
	}
	overrides, err := r.overrideStore()
	if err != nil {
		return err
	}

	values, err := lister.All(ctx)
	if err != nil {
		return err
	}
	overridden, err := overrides.All(ctx)
	if err != nil {
		return err
	}

	showSecrets := cmd.Bool("show-secrets")
	entries := make([]settingEntry, 0, len(values))
	for _, key := range settings.SortedKeys(values) {
		value := values[key]
		if settings.IsSecret(key) && !showSecrets {
			value = maskSecret(value)
		}
		_, isOverride := overridden[key]
		entries = append(entries, settingEntry{Key: key, Value: value, Overridden: isOverride})
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		r.writePlain("No settings configured. Run 'arrx setup config' to create %s\n", r.configPath)
		return nil
	}
	for _, e := range entries {
		marker := " "
		if e.Overridden {
			marker = "*"
		}
		r.writePlain("%s %s = %s\n", marker, e.Key, e.Value)
	}
	r.writePlainln("* overridden in the database")
	return nil
}

// SettingsGet prints the effective value of one setting.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}
	if !settings.IsKnown(key) {
		return fmt.Errorf("%w: unknown setting %q", shared.ErrInvalidArgument, key)
	}
	store, err := r.settingsStore()
	if err != nil {
		return err
	}

	value, ok, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrNotConfigured, key)
	}
	return r.writePlain("%s\n", value)
}

// SettingsSet stores a database override for one setting.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	key, value := cmd.StringArg("key"), cmd.StringArg("value")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}
	if err := validateSetting(key, value); err != nil {
		return err
	}
	overrides, err := r.overrideStore()
	if err != nil {
		return err
	}

	if err := overrides.Set(ctx, key, value); err != nil {
		return err
	}
	r.logger.Debug("setting stored", "key", key)

	if settings.IsSecret(key) {
		value = maskSecret(value)
	}
	return r.writePlain("✓ %s = %s\n", key, value)
}

// SettingsUnset removes a database override so the config file value applies again.
func (r *Runner) SettingsUnset(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}
	overrides, err := r.overrideStore()
	if err != nil {
		return err
	}

	if err := overrides.Delete(ctx, key); err != nil {
		return err
	}
	return r.writePlain("✓ %s reset\n", key)
}

// SettingsImport stores the URLs and API keys of a sectioned credentials file as overrides.
func (r *Runner) SettingsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}

	var in io.Reader = r.input
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open settings file: %w", err)
		}
		defer f.Close()
		in = f
	}

	values, err := settings.ParseSettingsFile(in)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: no [radarr], [sonarr] or [lidarr] sections found", shared.ErrInvalidInput)
	}
	for key, value := range values {
		if err := validateSetting(key, value); err != nil {
			return err
		}
	}

	overrides, err := r.overrideStore()
	if err != nil {
		return err
	}
	keys, err := settings.Import(ctx, overrides, values)
	if err != nil {
		return err
	}

	r.writePlain("✓ Imported %d settings:\n", len(keys))
	for _, key := range keys {
		r.writePlain("  %s\n", key)
	}
	return nil
}
