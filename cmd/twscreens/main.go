package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"github.com/gotailwindcss/screens"
	"github.com/gotailwindcss/screens/twconfig"
	"github.com/gotailwindcss/screens/twextract"
	"github.com/gotailwindcss/screens/twhandler"
	"github.com/gotailwindcss/screens/twscan"
)

var (
	app        = kingpin.New("twscreens", "Derive media-query extraction config from Tailwind screens")
	v          = app.Flag("verbose", "Print verbose output").Short('v').Bool()
	configPath = app.Flag("config", "Tailwind configuration file (YAML or JSON)").Short('c').Envar("TWSCREENS_CONFIG").Default("tailwind.config.yaml").String()
	strict     = app.Flag("strict", "Fail when two screens produce the same media query").Bool()
	normalize  = app.Flag("normalize", "Compare media queries ignoring insignificant whitespace").Bool()

	queries       = app.Command("queries", "Print the media query of every screen")
	queriesFormat = queries.Flag("format", "Output format").Default("text").Enum("text", "json", "yaml")

	postcss         = app.Command("postcss", "Write the postcss-extract-media-query configuration")
	postcssOutput   = postcss.Flag("output", "Output file name, use hyphen for stdout; .js and .cjs files are written as modules").Short('o').Default("-").String()
	postcssDist     = postcss.Flag("dist", "Directory the plugin writes split stylesheets to, relative to the config file").Default("dist").String()
	postcssUsedOnly = postcss.Flag("used-only", "Only include screens used by the content files").Bool()
	postcssJS       = postcss.Flag("js", "Write a module instead of JSON when writing to stdout").Bool()

	scan = app.Command("scan", "Print the screens used by the content files")

	serve       = app.Command("serve", "Serve extraction configs for the config files next to --config")
	serveAddr   = serve.Flag("addr", "Listen address").Default("127.0.0.1:8080").String()
	servePrefix = serve.Flag("prefix", "URL path prefix").Default("/").String()
	serveDist   = serve.Flag("dist", "Output path put into served configs").Default("dist").String()
)

var logger *zap.Logger

func main() {

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger = newLogger(*v)
	defer logger.Sync()

	var err error
	switch cmd {
	case queries.FullCommand():
		err = runQueries(os.Stdout)
	case postcss.FullCommand():
		err = runPostcss(os.Stdout)
	case scan.FullCommand():
		err = runScan(os.Stdout)
	case serve.FullCommand():
		err = runServe()
	default:
		fmt.Fprintf(os.Stderr, "No command specified\n")
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("Failed", zap.String("command", cmd), zap.Error(err))
	}

}

func loadConfig() (*twconfig.Config, error) {
	logger.Debug("Loading configuration", zap.String("path", *configPath))
	cfg, err := twconfig.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", *configPath, err)
	}
	return cfg, nil
}

func translator() *screens.Translator {
	policy := screens.CollisionOverwrite
	if *strict {
		policy = screens.CollisionError
	}
	return screens.NewTranslator(
		screens.WithLogger(logger),
		screens.WithCollisionPolicy(policy),
		screens.WithNormalize(*normalize),
	)
}

func runQueries(w io.Writer) error {

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	qm, err := translator().Translate(cfg.ResolveScreens())
	if err != nil {
		return err
	}

	switch *queriesFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(qm)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(qm)
	}

	var werr error
	qm.Each(func(q, name string) {
		if werr == nil {
			_, werr = fmt.Fprintf(w, "%s\t%s\n", name, q)
		}
	})
	return werr
}

func runPostcss(w io.Writer) error {

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tbl := cfg.ResolveScreens()
	if *postcssUsedOnly {
		used, err := usedScreens(cfg, tbl)
		if err != nil {
			return err
		}
		tbl = tbl.Subset(used...)
	}

	qm, err := translator().Translate(tbl)
	if err != nil {
		return err
	}

	dist := *postcssDist
	if !filepath.IsAbs(dist) {
		dist = filepath.Join(cfg.Dir, dist)
	}
	xc := twextract.New(qm, dist)

	outpath := *postcssOutput
	if outpath == "" || outpath == "-" {
		logger.Debug("Using stdout")
		if *postcssJS {
			return xc.WriteJS(w)
		}
		return xc.WriteJSON(w)
	}

	wrote, err := xc.WriteFile(outpath)
	if err != nil {
		return err
	}
	if wrote {
		logger.Info("Wrote extraction config", zap.String("file", outpath), zap.Int("queries", qm.Len()))
	} else {
		logger.Info("Extraction config is up to date", zap.String("file", outpath))
	}
	return nil
}

func runScan(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	used, err := usedScreens(cfg, cfg.ResolveScreens())
	if err != nil {
		return err
	}
	for _, name := range used {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

func usedScreens(cfg *twconfig.Config, tbl *screens.Table) ([]string, error) {
	if len(cfg.Content) == 0 {
		return nil, errors.New("no content patterns configured, cannot determine used screens")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := twscan.New(tbl)
	s.SetLogger(logger)
	n, err := s.ScanContent(ctx, cfg.Dir, cfg.ContentPatterns())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// nothing scanned would prune every screen
		return nil, fmt.Errorf("no content files matched %q under %s", cfg.Content, cfg.Dir)
	}
	used := s.Used()
	logger.Debug("Content scanned", zap.Int("files", n), zap.Strings("used", used))
	return used, nil
}

func runServe() error {

	dir, err := filepath.Abs(filepath.Dir(*configPath))
	if err != nil {
		return err
	}

	h := twhandler.New(http.Dir(dir), *servePrefix, *serveDist)
	h.SetLogger(logger)

	srv := &http.Server{
		Addr:              *serveAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		shutdown(sctx, srv)
	}()

	logger.Info("Serving extraction configs", zap.String("addr", *serveAddr), zap.String("dir", dir))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdown stops srv, waiting for active requests until ctx is done.
func shutdown(ctx context.Context, srv *http.Server) {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Server shutdown failed", zap.Error(err))
	}
}
