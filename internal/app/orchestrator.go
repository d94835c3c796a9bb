package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/justyntemme/shelf/internal/config"
	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/fs"
	"github.com/justyntemme/shelf/internal/logging"
	"github.com/justyntemme/shelf/internal/search"
	"github.com/justyntemme/shelf/internal/store"
	"github.com/justyntemme/shelf/internal/volume"
)

// Orchestrator owns the long-lived components built from configuration.
type Orchestrator struct {
	cfg     config.Config
	store   store.Store
	browser *Browser
}

// NewOrchestrator opens the store and builds providers, volumes and the
// browser. Close releases them.
func NewOrchestrator(ctx context.Context, cfg config.Config) (*Orchestrator, error) {
	st, err := store.Open(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sources, err := buildSources(ctx, cfg.Trees)
	if err != nil {
		st.Close()
		return nil, err
	}

	var tree *fs.TreeProvider
	if len(sources) > 0 {
		tree = fs.NewTreeProvider(st, sources...)
	}
	perms := NewStorePermissions(st, cfg.Permissions.StorageRead)
	providers := fs.NewProviders(tree, fs.NewPathProvider()).WithStorageGate(perms)

	var mounts volume.MultiSource
	if cfg.Volumes.System {
		mounts = append(mounts, volume.SystemSource())
	}
	if len(cfg.Volumes.Extra) > 0 {
		mounts = append(mounts, volume.StaticSource(cfg.Volumes.Extra))
	}

	filter := fs.NewExtensionFilter(cfg.Documents.Extensions...)
	b := NewBrowser(Deps{
		Provider:    providers,
		Prefs:       st,
		Volumes:     volume.NewRegistry(mounts, cfg.Volumes.PrivateMarker),
		Lister:      fs.NewLister(filter),
		Engine:      search.NewEngine(filter, cfg.Search.Limit),
		Permissions: perms,
		Opener:      NewSystemOpener(filter),
		Grants:      st,
	})

	return &Orchestrator{cfg: cfg, store: st, browser: b}, nil
}

// buildSources turns tree declarations into sources. Options are decoded
// strictly so a typo fails startup rather than silently exporting nothing.
func buildSources(ctx context.Context, trees []config.TreeConfig) ([]fs.TreeSource, error) {
	var sources []fs.TreeSource
	for _, t := range trees {
		switch t.Type {
		case "dir":
			var opts config.DirTreeOptions
			if err := config.DecodeOptions(t.Options, &opts); err != nil {
				return nil, fmt.Errorf("tree %s: %w", t.Authority, err)
			}
			src, err := fs.NewDirSource(t.Authority, opts.RootID, opts.Path)
			if err != nil {
				return nil, fmt.Errorf("tree %s: %w", t.Authority, err)
			}
			sources = append(sources, src)
			logging.Info("document tree", logging.String("authority", t.Authority), logging.String("uri", fs.TreeIdentifier(t.Authority, src.RootDocID())))
		case "s3":
			var opts fs.S3SourceConfig
			if err := config.DecodeOptions(t.Options, &opts); err != nil {
				return nil, fmt.Errorf("tree %s: %w", t.Authority, err)
			}
			src, err := fs.NewS3Source(ctx, t.Authority, opts)
			if err != nil {
				return nil, fmt.Errorf("tree %s: %w", t.Authority, err)
			}
			sources = append(sources, src)
			logging.Info("document tree", logging.String("authority", t.Authority), logging.String("uri", fs.TreeIdentifier(t.Authority, src.RootDocID())))
		default:
			return nil, fmt.Errorf("tree %s: unknown type %q", t.Authority, t.Type)
		}
	}
	return sources, nil
}

// Browser returns the operation surface.
func (o *Orchestrator) Browser() *Browser { return o.browser }

// Run restores the saved root and serves the shell until it exits.
func (o *Orchestrator) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sh := NewShell(o.browser, in, out)

	v, err := o.browser.Restore(ctx)
	sh.render(v, err)

	err = sh.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops searches and closes the store.
func (o *Orchestrator) Close() error {
	o.browser.Close()
	return o.store.Close()
}

// Options are the command-line inputs to Main.
type Options struct {
	ConfigPath string
	Debug      bool
}

// Main loads configuration and runs the shell on stdin/stdout until quit
// or an interrupt.
func Main(opts Options) error {
	mgr := config.NewManager(opts.ConfigPath)
	if err := mgr.Load(); err != nil {
		return err
	}
	cfg := mgr.Get()

	if opts.Debug {
		cfg.Logging.Level = "debug"
		debug.EnableAll()
	}
	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Sync()

	if perr := mgr.ParseError(); perr != nil {
		fmt.Fprintf(os.Stderr, "config %s ignored: %v\n", mgr.Path(), perr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, err := NewOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer o.Close()

	logging.Info("shelf started", logging.String("config", mgr.Path()), logging.String("store", cfg.Store.Type))
	return o.Run(ctx, os.Stdin, os.Stdout)
}
