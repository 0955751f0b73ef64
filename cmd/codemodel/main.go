package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"codemodel/internal/config"
	"codemodel/internal/extractor"
	"codemodel/internal/git"
	"codemodel/internal/index"
	"codemodel/internal/logging"
	"codemodel/internal/metadata"
	"codemodel/internal/reflection"
	"codemodel/internal/storage"
	"codemodel/internal/symbols"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	rootCmd = &cobra.Command{
		Use:           "codemodel",
		Short:         "Inspect the static code model of a project",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	configPath string
	dbPath     string

	cfg    *config.Config
	logger *zap.Logger

	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	warn  = color.New(color.FgYellow).SprintFunc()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "codemodel.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the snapshot database (SQLite); overrides the configuration")

	scanCmd.Flags().Bool("symbols", true, "Write symbol stores next to the extracted units")
	updateCmd.Flags().String("base", "HEAD", "Git revision to diff against")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(assembliesCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(symbolsCmd)
}

func setup() error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Model.DB = dbPath
	}
	logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
	return err
}

func newIndexer() *index.Indexer {
	var ext *extractor.Extractor
	if cfg.Model.Sources {
		ext = extractor.NewExtractor(extractor.WithLogger(logger))
	}
	return index.NewIndexer(ext, index.WithSymbols(cfg.Symbols.Enabled), index.WithLogger(logger))
}

// loadPolicy builds the static model from the stored snapshot.
func loadPolicy(ctx context.Context) (*metadata.Policy, error) {
	store, err := storage.NewSQLiteStore(cfg.Model.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	manifests, err := store.LoadManifests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(manifests) == 0 {
		return nil, fmt.Errorf("snapshot %s is empty; run scan first", cfg.Model.DB)
	}
	b := metadata.NewBuilder(logger)
	for _, m := range manifests {
		b.Add(m)
	}
	model, err := b.Build()
	if err != nil {
		return nil, err
	}

	var opts []metadata.Option
	if cfg.Symbols.Enabled {
		var ropts []symbols.Option
		if dir := cfg.Symbols.ShadowCopyDir; dir != "" {
			ropts = append(ropts, symbols.WithShadowCopies(shadowCopies(dir, cfg.Project.Root)))
		}
		ropts = append(ropts, symbols.WithLogger(logger))
		opts = append(opts, metadata.WithSymbols(symbols.NewResolver(symbols.NewSQLiteBinder(logger), ropts...)))
	}
	opts = append(opts, metadata.WithLogger(logger))
	return metadata.NewPolicy(model, opts...), nil
}

// shadowCopies maps units copied below dir back to the same relative path
// below root.
func shadowCopies(dir, root string) symbols.ShadowCopyFunc {
	return func(unitPath string) (string, bool) {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return "", false
		}
		rel, err := filepath.Rel(absDir, unitPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", false
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return "", false
		}
		return filepath.Join(absRoot, rel), true
	}
}

func lookupType(p *metadata.Policy, name string) (reflection.TypeInfo, error) {
	t, ok := p.Type(name)
	if !ok {
		return nil, fmt.Errorf("type %s not found", name)
	}
	return t, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan the project and store a snapshot of its declarations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}
		ctx := cmd.Context()
		if cmd.Flags().Changed("symbols") {
			cfg.Symbols.Enabled, _ = cmd.Flags().GetBool("symbols")
		}

		fmt.Printf("Scanning %s\n", bold(root))
		snap, err := newIndexer().Scan(ctx, root, cfg.Model.Manifests...)
		if err != nil {
			return err
		}
		// Build once so that a broken snapshot is never stored.
		model, err := snap.Model(logger)
		if err != nil {
			return fmt.Errorf("invalid model: %w", err)
		}

		store, err := storage.NewSQLiteStore(cfg.Model.DB)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		if err := store.SaveManifests(ctx, snap.Manifests); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		fmt.Printf("%s %d assemblies (%d Go packages) saved to %s\n",
			green("done:"), len(model.Assemblies())-1, len(snap.Packages), cfg.Model.DB)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-extract the Go packages changed since a git revision",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		base, _ := cmd.Flags().GetString("base")
		root := cfg.Project.Root

		changes, err := git.ChangedFiles(ctx, root, base)
		if err != nil {
			return err
		}
		dirs := git.PackageDirs(changes)
		if len(dirs) == 0 {
			fmt.Println("No Go packages changed.")
			return nil
		}

		updated, removed, err := newIndexer().Reindex(ctx, root, dirs)
		if err != nil {
			return err
		}

		store, err := storage.NewSQLiteStore(cfg.Model.DB)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		manifests, err := store.LoadManifests(ctx)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		manifests = mergeManifests(manifests, updated, removed)
		if err := store.SaveManifests(ctx, manifests); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		fmt.Printf("%s %d packages updated, %d removed\n", green("done:"), len(updated), len(removed))
		return nil
	},
}

// mergeManifests replaces the stored manifests of re-extracted or removed
// units. New units are appended.
func mergeManifests(stored []*metadata.Manifest, updated []*extractor.Package, removed []string) []*metadata.Manifest {
	replaced := make(map[string]*metadata.Manifest, len(updated))
	for _, p := range updated {
		replaced[p.Manifest.Assemblies[0].Name] = p.Manifest
	}

	var out []*metadata.Manifest
	for _, m := range stored {
		name := m.Assemblies[0].Name
		if slices.Contains(removed, name) {
			continue
		}
		if r, ok := replaced[name]; ok {
			out = append(out, r)
			delete(replaced, name)
			continue
		}
		out = append(out, m)
	}
	for _, p := range updated {
		if _, ok := replaced[p.Manifest.Assemblies[0].Name]; ok {
			out = append(out, p.Manifest)
		}
	}
	return out
}

var assembliesCmd = &cobra.Command{
	Use:   "assemblies",
	Short: "List the assemblies of the stored snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewSQLiteStore(cfg.Model.DB)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		records, err := store.ListAssemblies(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("%-30s %-10s %4d types  %s\n", bold(r.Name), r.Version, r.Types, faint(r.Source))
		}
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:   "types [assembly]",
	Short: "List the types of the model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPolicy(cmd.Context())
		if err != nil {
			return err
		}
		for _, a := range p.Assemblies() {
			if len(args) > 0 && a.Name() != args[0] {
				continue
			}
			fmt.Println(bold(a.Name()))
			for _, t := range a.Types() {
				fmt.Printf("  %-10s %s\n", faint(typeKind(t)), t.FullName())
			}
		}
		return nil
	},
}

func typeKind(t reflection.TypeInfo) string {
	switch {
	case reflection.IsInterface(t):
		return "interface"
	case reflection.IsEnum(t):
		return "enum"
	case reflection.IsValueType(t):
		return "struct"
	default:
		return "class"
	}
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <type>",
	Short: "Describe a type, its attributes and members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPolicy(cmd.Context())
		if err != nil {
			return err
		}
		t, err := lookupType(p, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s %s\n", faint(typeKind(t)), bold(t.FullName()))
		if base := t.BaseType(); base != nil {
			fmt.Printf("  base       %s\n", base)
		}
		for _, i := range t.Interfaces() {
			fmt.Printf("  implements %s\n", i)
		}
		for a := range t.AttributeInfos(nil, true) {
			fmt.Printf("  %s\n", a)
		}
		if loc, err := t.CodeLocation(); err == nil && !loc.IsUnknown() {
			fmt.Printf("  at         %s\n", faint(loc))
		}

		const flags = reflection.BindingAll
		for _, f := range t.Fields(flags) {
			fmt.Printf("  field      %s %s\n", f.Name(), faint(f.ValueType()))
		}
		for _, prop := range t.Properties(flags) {
			fmt.Printf("  property   %s %s\n", prop.Name(), faint(prop.ValueType()))
		}
		for _, c := range t.Constructors(flags) {
			fmt.Printf("  ctor       %s\n", c)
		}
		for _, m := range t.Methods(flags) {
			fmt.Printf("  method     %s\n", m)
			for a := range m.AttributeInfos(nil, true) {
				fmt.Printf("             %s\n", faint(a))
			}
		}
		return nil
	},
}

var locateCmd = &cobra.Command{
	Use:   "locate <type>...",
	Short: "Print the source locations of the methods of types",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPolicy(cmd.Context())
		if err != nil {
			return err
		}

		var methods []reflection.MethodInfo
		for _, name := range args {
			t, err := lookupType(p, name)
			if err != nil {
				return err
			}
			methods = append(methods, t.Methods(reflection.BindingAll|reflection.BindingDeclaredOnly)...)
		}

		locations := make([]reflection.CodeLocation, len(methods))
		g, _ := errgroup.WithContext(cmd.Context())
		g.SetLimit(8)
		for i, m := range methods {
			g.Go(func() error {
				loc, err := m.CodeLocation()
				if err != nil {
					return fmt.Errorf("%s: %w", m, err)
				}
				locations[i] = loc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, m := range methods {
			loc := locations[i]
			if loc.IsUnknown() {
				fmt.Printf("%s\t%s\n", m, warn("unknown"))
				continue
			}
			fmt.Printf("%s\t%s\n", m, loc)
		}
		return nil
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <unit> <token>...",
	Short: "Look up method tokens in the symbol store of a unit",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit := args[0]
		r := symbols.NewResolver(symbols.NewSQLiteBinder(logger), symbols.WithLogger(logger))
		defer r.Close()

		fmt.Printf("%s %s\n", bold(unit), faint(symbols.StorePath(unit)))
		for _, arg := range args[1:] {
			token, err := strconv.ParseInt(arg, 0, 64)
			if err != nil {
				return fmt.Errorf("token %q: %w", arg, err)
			}
			loc, err := r.SourceLocation(unit, int(token))
			if err != nil {
				return err
			}
			if loc.IsUnknown() {
				fmt.Printf("  %#x\t%s\n", token, warn("unknown"))
				continue
			}
			fmt.Printf("  %#x\t%s\n", token, loc)
		}
		return nil
	},
}
