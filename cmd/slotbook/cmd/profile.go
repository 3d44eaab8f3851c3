package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage configuration profiles for the booking pages you use often.

A profile pins a booking link plus your preferred timezone and contact
details, so 'slotbook -p work book' goes straight to the picker.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAdd,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a profile's settings",
	Long: `Edit a profile's settings using flags.

Example:
  slotbook profile edit work --timezone=Europe/Berlin
  slotbook profile edit standup --link="https://cal.example.com/gr/standup"`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileEdit,
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runProfileRemove,
}

// profileSettings are the keys a profile can pin, shared by add and
// edit so the two commands never drift apart.
var profileSettings = []struct {
	flag string
	key  string
}{
	{"link", "link"},
	{"timezone", "timezone"},
	{"name", "name"},
	{"email", "email"},
	{"history-file", "history_file"},
	{"log-file", "log_file"},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)
	profileCmd.AddCommand(profileEditCmd)
	profileCmd.AddCommand(profileRemoveCmd)

	for _, c := range []*cobra.Command{profileAddCmd, profileEditCmd} {
		c.Flags().String("link", "", "Booking page URL")
		c.Flags().String("timezone", "", "IANA timezone for slot display")
		c.Flags().String("name", "", "Name to prefill on guest forms")
		c.Flags().String("email", "", "Email to prefill on guest forms")
		c.Flags().String("history-file", "", "Booking ledger path")
		c.Flags().String("log-file", "", "Log file path")
		c.Flags().Bool("format-24h", false, "Show slot times in 24-hour clock")
	}
}

func runProfileList(cmd *cobra.Command, args []string) error {
	profiles := viper.GetStringMap("profiles")
	defaultProfile := viper.GetString("default_profile")

	if len(profiles) == 0 {
		fmt.Println("No profiles configured.")
		fmt.Println("\nAdd one with: slotbook profile add <name> --link=<booking-url>")
		return nil
	}

	fmt.Println("Available profiles:")
	fmt.Println("─────────────────────────────────────────────────")

	for name := range profiles {
		marker := "  "
		if name == defaultProfile {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, name)
	}

	fmt.Println("─────────────────────────────────────────────────")
	if defaultProfile != "" {
		fmt.Printf("Default: %s\n", defaultProfile)
	}
	fmt.Println("\nUse 'slotbook profile show <name>' for details")

	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		name = viper.GetString("default_profile")
		if name == "" {
			return fmt.Errorf("no profile specified and no default profile set")
		}
	}

	profileKey := "profiles." + name
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", name)
	}

	settings := viper.GetStringMap(profileKey)

	fmt.Printf("Profile: %s\n", name)
	if name == viper.GetString("default_profile") {
		fmt.Println("(default)")
	}
	fmt.Println("─────────────────────────────────────────────────")

	fmt.Println("\n🔗 Booking page:")
	printSetting(settings, "link", "link")

	fmt.Println("\n🙋 Contact:")
	printSetting(settings, "name", "name")
	printSetting(settings, "email", "email")

	fmt.Println("\n⚙️  Display:")
	printSetting(settings, "timezone", "timezone")
	printSetting(settings, "format_24h", "format-24h")

	fmt.Println("\n📁 Files:")
	printSetting(settings, "history_file", "history-file")
	printSetting(settings, "log_file", "log-file")

	fmt.Println()
	return nil
}

func printSetting(settings map[string]interface{}, key, displayKey string) {
	if val, ok := settings[key]; ok {
		fmt.Printf("  %s: %v\n", displayKey, val)
	}
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	profileKey := "profiles." + name
	if viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' already exists. Use 'slotbook profile edit %s' to modify it", name, name)
	}

	profile := make(map[string]interface{})
	collectProfileFlags(cmd, profile)

	if err := saveProfileToConfig(name, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' created\n", name)
	fmt.Printf("\nUse it with: slotbook -p %s\n", name)
	fmt.Printf("Set as default: slotbook profile default %s\n", name)

	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	name := args[0]

	profileKey := "profiles." + name
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", name)
	}

	if err := setDefaultProfileInConfig(name); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	fmt.Printf("✓ Default profile set to '%s'\n", name)
	return nil
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	name := args[0]

	profileKey := "profiles." + name
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found. Use 'slotbook profile add %s' to create it", name, name)
	}

	existing := viper.GetStringMap(profileKey)
	profile := make(map[string]interface{})
	for k, v := range existing {
		profile[k] = v
	}

	if !collectProfileFlags(cmd, profile) {
		fmt.Println("No changes specified. Use flags to update settings:")
		fmt.Println("  slotbook profile edit", name, "--timezone=Europe/Berlin")
		return nil
	}

	if err := saveProfileToConfig(name, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' updated\n", name)
	return nil
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	config, err := readConfigFile()
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok || profiles[name] == nil {
		return fmt.Errorf("profile '%s' not found", name)
	}
	delete(profiles, name)
	config["profiles"] = profiles
	if config["default_profile"] == name {
		delete(config, "default_profile")
	}

	if err := writeConfigFile(config); err != nil {
		return fmt.Errorf("failed to remove profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' removed\n", name)
	return nil
}

// collectProfileFlags copies changed flags into profile, reporting
// whether anything changed.
func collectProfileFlags(cmd *cobra.Command, profile map[string]interface{}) bool {
	changed := false
	for _, s := range profileSettings {
		if cmd.Flags().Changed(s.flag) {
			val, _ := cmd.Flags().GetString(s.flag)
			profile[s.key] = val
			changed = true
		}
	}
	if cmd.Flags().Changed("format-24h") {
		val, _ := cmd.Flags().GetBool("format-24h")
		profile["format_24h"] = val
		changed = true
	}
	return changed
}

// Config file manipulation functions

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "slotbook", "config.yaml")
}

func readConfigFile() (map[string]interface{}, error) {
	configPath := getConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

func writeConfigFile(config map[string]interface{}) error {
	configPath := getConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func saveProfileToConfig(name string, profile map[string]interface{}) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok {
		profiles = make(map[string]interface{})
	}

	profiles[name] = profile
	config["profiles"] = profiles

	return writeConfigFile(config)
}

func setDefaultProfileInConfig(name string) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	config["default_profile"] = name

	return writeConfigFile(config)
}
