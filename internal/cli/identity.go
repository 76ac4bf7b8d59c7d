package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"trivia-client/internal/config"
	"trivia-client/internal/infra/local"
)

func settingsStore(opts *rootOptions) (*local.SettingsStore, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	return local.NewSettingsStore(cfg.Identity.Path), nil
}

// NewIdentityCmd manages the locally stored display name.
func NewIdentityCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show or set your display name",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored display name",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(opts)
			if err != nil {
				return err
			}
			name, ok, err := store.Identity(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no display name set")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set NAME",
		Short: "Store a display name (2 to 20 characters)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(opts)
			if err != nil {
				return err
			}
			name, err := store.SetIdentity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "display name set to %s\n", name)
			return nil
		},
	})
	return cmd
}

// NewSettingsCmd shows and updates the sound and vibration preferences.
func NewSettingsCmd(opts *rootOptions) *cobra.Command {
	var sound, vibration bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change sound and vibration preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settingsStore(opts)
			if err != nil {
				return err
			}
			current, err := store.Settings(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sound") || cmd.Flags().Changed("vibration") {
				if cmd.Flags().Changed("sound") {
					current.SoundEnabled = sound
				}
				if cmd.Flags().Changed("vibration") {
					current.VibrationEnabled = vibration
				}
				if err := store.UpdateToggles(cmd.Context(), current.SoundEnabled, current.VibrationEnabled); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sound: %t\nvibration: %t\n", current.SoundEnabled, current.VibrationEnabled)
			return nil
		},
	}
	cmd.Flags().BoolVar(&sound, "sound", true, "play sound effects")
	cmd.Flags().BoolVar(&vibration, "vibration", true, "vibrate on answers")
	return cmd
}
