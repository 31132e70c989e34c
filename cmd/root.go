package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/TFMV/fgr/internal/search"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	version = "0.2.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fgr [options] [path]",
	Short: "Find git repositories",
	Long: `fgr searches a directory tree for git repositories and prints the root
of every repository it finds, one per line. Repositories nested inside a
repository that was already found are not reported.

Examples:
  fgr ~/src
  fgr --all --max-depth=4 /work
  fgr --follow-symlinks --paranoid
  fgr --format='{base} {dir}' ~/src
  fgr --exec='git -C {} fetch' ~/src`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		return runFind(cmd, path)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Traversal flags, shared with the watch command
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.fgr.yaml)")
	flags.BoolP("all", "a", false, "Do not ignore directories starting with '.'")
	flags.BoolP("follow-symlinks", "s", false, "Follow symlinks rather than ignoring them")
	flags.String("symlinks", "skip", "Symlink strategy (skip|follow)")
	flags.BoolP("paranoid", "p", false, "Confirm each repository with 'git rev-parse HEAD'")
	flags.Bool("descend-rejected", false, "Keep searching below a directory rejected by --paranoid")
	flags.BoolP("verbose", "v", false, "Output detailed messages to standard error")
	flags.Bool("debug", false, "Enable debug logging")
	flags.IntP("max-depth", "d", search.DefaultMaxDepth, "Maximum depth when recursively scanning subdirectories")
	flags.Bool("any-depth", false, "Drop the max-depth limit, allowing unlimited depth")
	flags.String("color", "auto", "Colorize diagnostics (auto|always|never)")
	flags.String("log-file", "", "Also write diagnostics to this file (rotated)")
	rootCmd.MarkFlagsMutuallyExclusive("max-depth", "any-depth")

	// Output flags
	rootCmd.Flags().String("format", "", "Format string for each repository ({}, {base}, {dir}, {depth})")
	rootCmd.Flags().String("exec", "", "Command to execute for each repository")
	rootCmd.Flags().Bool("json", false, "Print one JSON object per repository")
	rootCmd.Flags().Bool("nfc", false, "Normalize printed paths to Unicode NFC")
	rootCmd.Flags().Bool("stats", false, "Print a summary to standard error when done")
	rootCmd.MarkFlagsMutuallyExclusive("format", "exec", "json")

	// Bind flags to viper
	for _, name := range []string{
		"all", "follow-symlinks", "symlinks", "paranoid", "descend-rejected", "verbose",
		"debug", "max-depth", "any-depth", "color", "log-file",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
	for _, name := range []string{"format", "exec", "json", "nfc", "stats"} {
		viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			path = cfgFile
		}
		viper.SetConfigFile(path)
	} else {
		// Search config in home directory with name ".fgr" (without extension).
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".fgr")
	}

	viper.SetEnvPrefix("fgr")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// A missing config file is fine; the flags and defaults apply.
	_ = viper.ReadInConfig()
}

// walkOptions builds search options for root from flags, config and env.
func walkOptions(root string, logger *zap.Logger) (search.Options, error) {
	opts := search.DefaultOptions(root)

	mode, err := search.ParseSymlinkMode(viper.GetString("symlinks"))
	if err != nil {
		return opts, err
	}
	if viper.GetBool("follow-symlinks") {
		mode = search.SymlinkFollow
	}
	opts.Symlinks = mode

	maxDepth := viper.GetInt("max-depth")
	if maxDepth < 0 {
		return opts, fmt.Errorf("invalid max-depth value: %d", maxDepth)
	}
	if viper.GetBool("any-depth") {
		maxDepth = search.UnlimitedDepth
	}
	opts.MaxDepth = maxDepth

	opts.ShowAll = viper.GetBool("all")
	opts.Paranoid = viper.GetBool("paranoid")
	opts.DescendRejected = viper.GetBool("descend-rejected")
	opts.Logger = logger
	return opts, nil
}

// newLogger creates the diagnostics logger from flags, config and env.
func newLogger() (*zap.Logger, error) {
	color, err := colorEnabled(viper.GetString("color"), os.Stderr.Fd())
	if err != nil {
		return nil, err
	}

	// Genuine errors are shown regardless of verbosity.
	level := search.LogLevelError
	if viper.GetBool("verbose") {
		level = search.LogLevelInfo
	}
	if viper.GetBool("debug") {
		level = search.LogLevelDebug
	}

	logFile, err := homedir.Expand(viper.GetString("log-file"))
	if err != nil {
		return nil, fmt.Errorf("invalid log-file value: %w", err)
	}

	return search.NewLogger(search.LoggerOptions{
		Level:   level,
		Color:   color,
		LogFile: logFile,
	}), nil
}

// colorEnabled decides whether diagnostics written to fd are coloured.
func colorEnabled(mode string, fd uintptr) (bool, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, fmt.Errorf("invalid color value: %s (expected auto, always or never)", mode)
	}
}

func runFind(cmd *cobra.Command, path string) error {
	// Resolve the root before anything else; failure here is fatal.
	root, err := search.ResolveRoot(path)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := walkOptions(root, logger)
	if err != nil {
		return err
	}

	checkValidator(opts, logger)

	stats, err := search.Walk(context.Background(), opts, newHandler(newPrinter(cmd), logger))
	if err != nil {
		return err
	}

	if viper.GetBool("stats") {
		fmt.Fprintln(cmd.ErrOrStderr(), stats.String())
	}
	return nil
}

// checkValidator reports once, before walking, that paranoid mode cannot run
// the git validator.
func checkValidator(opts search.Options, logger *zap.Logger) {
	if !opts.Paranoid || opts.Validator != nil {
		return
	}
	if err := search.CheckGit(); err != nil {
		logger.Error("paranoid mode needs git, every repository will be rejected", zap.Error(err))
	}
}
