package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Search root
	searchDir string

	// Filtering
	includePatterns string
	excludePatterns string
	maxSizeBytes    int64
	maxDepth        int
	showHidden      bool
	noIgnore        bool

	// Output
	resultFile      string
	logFile         string
	printToStdout   bool
	copyToClipboard bool
	pdfOutputFile   string

	// Processing
	numThreads int

	// Web Specific
	traverseLinks bool
	linkDepth     int

	// Interactive Mode
	interactiveMode bool
)

// version is the application version, set via ldflags.
var version string = "dev"

var rootCmd = &cobra.Command{
	Use:   "specific-grep <search string> [flags]",
	Short: "specific-grep searches a directory tree for a literal string in parallel.",
	Long: `specific-grep recursively scans a directory (or a Git/web URL staged into a
temporary directory) for lines containing a literal substring. The file list
is split evenly across a fixed number of workers; each match is reported with
the worker that found it, the file path, the line number and the line itself.`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		needle := args[0]

		if !isValidFilename(resultFile) {
			fmt.Fprintf(os.Stderr, "Error: invalid result filename %q\n", resultFile)
			os.Exit(1)
		}
		if !isValidFilename(logFile) {
			fmt.Fprintf(os.Stderr, "Error: invalid log filename %q\n", logFile)
			os.Exit(1)
		}

		if interactiveMode {
			selected, err := runInteractiveFinder()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Interactive mode error: %v\n", err)
				os.Exit(1)
			}
			if selected == "" {
				// User aborted the selection
				os.Exit(0)
			}
			searchDir = selected
		}

		diag := NewDiagnostics()

		// Git and web URLs get staged into a temporary directory first, so
		// the search itself always runs over a local tree.
		var tempDirsToClean []string
		defer func() {
			for _, dir := range tempDirsToClean {
				_ = os.RemoveAll(dir)
			}
		}()

		root := searchDir
		switch {
		case isWebURL(searchDir):
			staged, err := stageWebURL(searchDir, diag)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", searchDir, err)
				os.Exit(1)
			}
			tempDirsToClean = append(tempDirsToClean, staged)
			root = staged
		case isGitURL(searchDir):
			cloned, err := cloneGitRepo(searchDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", searchDir, err)
				os.Exit(1)
			}
			tempDirsToClean = append(tempDirsToClean, cloned)
			root = cloned
		}

		result, err := searchDirectory(needle, root, numThreads, diag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			// Run the deferred temp dir cleanup before exiting.
			for _, dir := range tempDirsToClean {
				_ = os.RemoveAll(dir)
			}
			os.Exit(1)
		}

		summary := buildSummary(result, diag)
		report := formatReport(needle, result, summary)

		if err := deliverReport(report, resultFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if pdfOutputFile != "" {
			if err := generatePDF(needle, result, summary, pdfOutputFile); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating PDF: %v\n", err)
			}
		}

		writeRunLog(logFile, needle, summary, diag)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// --- Flag Definitions & Viper Binding ---

	// Search root
	rootCmd.Flags().StringVarP(&searchDir, "dir", "d", ".", "Directory to search in; also accepts a Git or http(s) URL")
	viper.BindPFlag("dir", rootCmd.Flags().Lookup("dir"))

	// Filtering
	rootCmd.Flags().StringVarP(&includePatterns, "include", "i", "", "Patterns to include (comma-separated, e.g. *.go,*.txt)")
	viper.BindPFlag("include", rootCmd.Flags().Lookup("include"))
	rootCmd.Flags().StringVarP(&excludePatterns, "exclude", "e", "", "Patterns to exclude (comma-separated)")
	viper.BindPFlag("exclude", rootCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("default_excludes", rootCmd.Flags().Lookup("exclude"))
	rootCmd.Flags().Int64Var(&maxSizeBytes, "max-size", 0, "Maximum file size in bytes (0 for no limit)")
	viper.BindPFlag("max_size", rootCmd.Flags().Lookup("max-size"))
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum directory depth to traverse (0 for no limit)")
	viper.BindPFlag("max_depth", rootCmd.Flags().Lookup("max-depth"))
	rootCmd.Flags().BoolVarP(&showHidden, "hidden", "H", false, "Search hidden files and directories")
	viper.BindPFlag("hidden", rootCmd.Flags().Lookup("hidden"))
	rootCmd.Flags().BoolVar(&noIgnore, "no-ignore", false, "Don't respect the root .gitignore file")
	viper.BindPFlag("no_ignore", rootCmd.Flags().Lookup("no-ignore"))

	// Output
	rootCmd.Flags().StringVarP(&resultFile, "result-file", "r", defaultFilename(".txt"), "Result filename")
	viper.BindPFlag("result_file", rootCmd.Flags().Lookup("result-file"))
	rootCmd.Flags().StringVarP(&logFile, "log-file", "l", defaultFilename(".log"), "Log filename")
	viper.BindPFlag("log_file", rootCmd.Flags().Lookup("log-file"))
	rootCmd.Flags().BoolVarP(&printToStdout, "print", "p", false, "Print results to stdout instead of the result file")
	viper.BindPFlag("print", rootCmd.Flags().Lookup("print"))
	rootCmd.Flags().BoolVarP(&copyToClipboard, "clipboard", "c", false, "Copy results to clipboard instead of the result file")
	viper.BindPFlag("clipboard", rootCmd.Flags().Lookup("clipboard"))
	rootCmd.Flags().StringVar(&pdfOutputFile, "pdf", "", "Additionally save the report as a PDF")
	viper.BindPFlag("pdf", rootCmd.Flags().Lookup("pdf"))

	// Processing
	rootCmd.Flags().IntVarP(&numThreads, "threads", "t", 4, "Number of worker threads")
	viper.BindPFlag("threads", rootCmd.Flags().Lookup("threads"))

	// Web Specific
	rootCmd.Flags().BoolVar(&traverseLinks, "traverse-links", false, "Traverse links when searching a web URL")
	viper.BindPFlag("traverse_links", rootCmd.Flags().Lookup("traverse-links"))
	rootCmd.Flags().IntVar(&linkDepth, "link-depth", 1, "Maximum depth to traverse links")
	viper.BindPFlag("link_depth", rootCmd.Flags().Lookup("link-depth"))

	// Interactive Mode
	rootCmd.Flags().BoolVar(&interactiveMode, "interactive", false, "Pick the search directory with a fuzzy finder")
	viper.BindPFlag("interactive", rootCmd.Flags().Lookup("interactive"))

	// Viper defaults
	viper.SetDefault("threads", 4)
	viper.SetDefault("max_size", 0)
	viper.SetDefault("max_depth", 0)
	viper.SetDefault("hidden", false)
	viper.SetDefault("no_ignore", false)
	viper.SetDefault("traverse_links", false)
	viper.SetDefault("link_depth", 1)
	viper.SetDefault("default_excludes", []string{".git"})
}

// initConfig reads in the config file and SPECIFIC_GREP_* environment
// variables if set.
func initConfig() {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	viper.AddConfigPath(filepath.Join(home, ".config", "specific-grep"))
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SPECIFIC_GREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}

	if !rootCmd.Flags().Changed("exclude") {
		excludePatterns = strings.Join(viper.GetStringSlice("default_excludes"), ",")
	}
	if !rootCmd.Flags().Changed("threads") {
		numThreads = viper.GetInt("threads")
	}
}

// defaultFilename derives the default result/log filename from the program
// name, the way the tool has always done it.
func defaultFilename(ext string) string {
	name := filepath.Base(os.Args[0])
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	if name == "" || name == "." {
		name = "specific-grep"
	}
	return name + ext
}

func main() {
	rootCmd.Execute()
}
