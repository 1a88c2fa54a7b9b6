// Command bionic transforms text for bionic reading: the leading part of
// each word is emphasized so the eye can anchor on it. It reads plain text,
// PDF and HTML sources, exports standalone documents, keeps a catalog of
// opened files and serves a live preview page.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/machenxing/bionic/core/bionic"
	"github.com/machenxing/bionic/core/encoding"
	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/core/pagerange"
	"github.com/machenxing/bionic/core/sqlite"
	"github.com/machenxing/bionic/internal/export"
	"github.com/machenxing/bionic/internal/library"
	"github.com/machenxing/bionic/internal/logging"
	"github.com/machenxing/bionic/internal/settings"
	"github.com/machenxing/bionic/internal/sources"
	"github.com/machenxing/bionic/internal/web"

	// Register the bundled source extractors.
	_ "github.com/machenxing/bionic/internal/sources/html"
	_ "github.com/machenxing/bionic/internal/sources/pdf"
	_ "github.com/machenxing/bionic/internal/sources/txt"
)

const version = "0.1.0"

// CLI defines the command-line interface for bionic.
var CLI struct {
	// Global flags
	Config    string `help:"Settings file path (defaults to the per-user config)" type:"path"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	// Command groups (noun-first organization)
	Transform TransformCmd  `cmd:"" help:"Transform a document or stdin to emphasized markup"`
	Export    ExportCmd     `cmd:"" help:"Export a document as standalone HTML or a tar.xz bundle"`
	Serve     ServeCmd      `cmd:"" help:"Start the live preview server"`
	Library   LibraryGroup  `cmd:"" help:"Document catalog operations"`
	Settings  SettingsGroup `cmd:"" help:"Reader settings"`
	Version   VersionCmd    `cmd:"" help:"Print version information"`
}

// loadSettings reads the settings file named by --config, or the per-user
// default. A missing file yields defaults.
func loadSettings() (settings.Settings, *settings.FileRepository, error) {
	path := CLI.Config
	if path == "" {
		var err error
		path, err = settings.DefaultPath()
		if err != nil {
			return settings.Default(), nil, err
		}
	}
	repo := settings.NewFileRepository(path)
	st, err := repo.Load()
	return st, repo, err
}

// readDocument loads a document from a source file, or from stdin when the
// path is "-". An empty pages string selects every page.
func readDocument(path, pages string) (*sources.Document, error) {
	var selection *pagerange.Set
	if pages != "" {
		var err error
		selection, err = pagerange.Parse(pages)
		if err != nil {
			return nil, err
		}
	}

	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return &sources.Document{
			Title:  "stdin",
			Format: "txt",
			Text:   encoding.StripBOM(string(data)),
		}, nil
	}
	return sources.Extract(path, sources.Options{Pages: selection})
}

// TransformCmd renders a document to the terminal or a file.
type TransformCmd struct {
	Path   string  `arg:"" help:"Source file, or - for stdin"`
	Ratio  float64 `help:"Emphasis ratio (0.10-0.90); overrides settings" default:"0"`
	Format string  `help:"Output format: text (ANSI bold), html, or json spans" enum:"text,html,json" default:"text"`
	Pages  string  `help:"Page selection for paged sources, e.g. 1-3,7,12-"`
	Output string  `short:"o" help:"Write to file instead of stdout" type:"path"`
}

// jsonSpan is the wire form of one layout span.
type jsonSpan struct {
	Class      string `json:"class"`
	Emphasized string `json:"emphasized,omitempty"`
	Plain      string `json:"plain,omitempty"`
}

func (c *TransformCmd) Run() error {
	st, _, err := loadSettings()
	if err != nil {
		return err
	}
	ratio := st.Ratio()
	if c.Ratio != 0 {
		ratio = bionic.ClampRatio(c.Ratio)
	}

	doc, err := readDocument(c.Path, c.Pages)
	if err != nil {
		return err
	}

	var out string
	switch c.Format {
	case "html":
		m := bionic.Markup{Open: "<b>", Close: "</b>", Escape: encoding.EscapeHTML}
		out = bionic.Transform(doc.Text, ratio, m)
	case "json":
		spans := bionic.Layout(bionic.Tokenize(doc.Text), ratio)
		encoded := make([]jsonSpan, len(spans))
		for i, s := range spans {
			encoded[i] = jsonSpan{Class: s.Class.String(), Emphasized: s.Emphasized, Plain: s.Plain}
		}
		data, err := json.MarshalIndent(encoded, "", "  ")
		if err != nil {
			return err
		}
		out = string(data)
	default:
		out = bionic.Transform(doc.Text, ratio, bionic.ANSI)
	}

	w := os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", c.Output, err)
		}
		defer f.Close()
		w = f
	}
	if _, err := io.WriteString(w, out); err != nil {
		return err
	}
	if c.Output == "" && !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	return nil
}

// ExportCmd writes a standalone document.
type ExportCmd struct {
	Path   string  `arg:"" help:"Source file, or - for stdin"`
	Output string  `arg:"" help:"Destination file" type:"path"`
	Format string  `help:"Export format" enum:"html,bundle" default:"html"`
	Ratio  float64 `help:"Emphasis ratio (0.10-0.90); overrides settings" default:"0"`
	Pages  string  `help:"Page selection for paged sources"`
}

func (c *ExportCmd) Run() error {
	st, _, err := loadSettings()
	if err != nil {
		return err
	}
	if c.Ratio != 0 {
		st.BoldRatio = int(math.Round(bionic.ClampRatio(c.Ratio) * 100))
	}

	doc, err := readDocument(c.Path, c.Pages)
	if err != nil {
		return err
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", c.Output, err)
	}
	defer f.Close()

	switch c.Format {
	case "bundle":
		err = export.WriteBundle(f, doc, st)
	default:
		err = export.WriteHTML(f, doc, st)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported %s to %s\n", doc.Title, c.Output)
	return nil
}

// ServeCmd starts the preview server.
type ServeCmd struct {
	Port    int    `help:"Listen port" default:"8080"`
	Library string `help:"Catalog database path (defaults to the per-user catalog)" type:"path"`
}

func (c *ServeCmd) Run() error {
	st, _, err := loadSettings()
	if err != nil {
		return err
	}

	libPath := c.Library
	if libPath == "" {
		libPath, err = library.DefaultPath()
		if err != nil {
			return err
		}
	}
	store, err := library.Open(libPath)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := web.NewServer(web.Config{Port: c.Port, Settings: st, Library: store})
	if err != nil {
		return err
	}
	return srv.Start()
}

// LibraryGroup contains catalog operations.
type LibraryGroup struct {
	List   LibraryListCmd   `cmd:"" help:"List cataloged documents, most recent first"`
	Add    LibraryAddCmd    `cmd:"" help:"Add a document to the catalog"`
	Remove LibraryRemoveCmd `cmd:"" help:"Remove a document by ID or path"`
	Clear  LibraryClearCmd  `cmd:"" help:"Remove every catalog entry"`
}

func openLibrary(path string) (*library.Store, error) {
	if path == "" {
		var err error
		path, err = library.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return library.Open(path)
}

// LibraryListCmd lists catalog entries.
type LibraryListCmd struct {
	Database string `help:"Catalog database path" type:"path"`
	Limit    int    `help:"Maximum entries to show (0 for all)" default:"20"`
}

func (c *LibraryListCmd) Run() error {
	path := c.Database
	if path == "" {
		var err error
		path, err = library.DefaultPath()
		if err != nil {
			return err
		}
	}
	// Listing never needs the write lock, and a catalog that was never
	// created is just empty.
	store, err := library.OpenReadOnly(path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			fmt.Println("Catalog is empty.")
			return nil
		}
		return err
	}
	defer store.Close()

	entries, err := store.Recent(c.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-20s  %-5s  %8d bytes  %s\n",
			e.ID, e.Title, e.Format, e.SizeBytes, e.LastOpened.Format("2006-01-02 15:04"))
	}
	return nil
}

// LibraryAddCmd extracts a document and catalogs it.
type LibraryAddCmd struct {
	Path     string `arg:"" help:"Source file" type:"existingfile"`
	Database string `help:"Catalog database path" type:"path"`
}

func (c *LibraryAddCmd) Run() error {
	store, err := openLibrary(c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := sources.Extract(c.Path, sources.Options{})
	if err != nil {
		return err
	}
	id, err := store.Add(doc)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%s)\n", doc.Title, id)
	return nil
}

// LibraryRemoveCmd removes a catalog entry.
type LibraryRemoveCmd struct {
	ID       string `arg:"" help:"Entry ID or source path"`
	Database string `help:"Catalog database path" type:"path"`
}

func (c *LibraryRemoveCmd) Run() error {
	store, err := openLibrary(c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Remove(c.ID); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", c.ID)
	return nil
}

// LibraryClearCmd empties the catalog.
type LibraryClearCmd struct {
	Database string `help:"Catalog database path" type:"path"`
}

func (c *LibraryClearCmd) Run() error {
	store, err := openLibrary(c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Clear()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d entries\n", n)
	return nil
}

// SettingsGroup contains settings operations.
type SettingsGroup struct {
	Show  SettingsShowCmd  `cmd:"" help:"Print current settings"`
	Set   SettingsSetCmd   `cmd:"" help:"Change a setting"`
	Reset SettingsResetCmd `cmd:"" help:"Restore default settings"`
}

// SettingsShowCmd prints the active settings.
type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run() error {
	st, _, err := loadSettings()
	if err != nil {
		return err
	}
	for _, key := range settings.Keys() {
		value, err := st.Get(key)
		if err != nil {
			return err
		}
		fmt.Printf("%-15s %s\n", key, value)
	}
	return nil
}

// SettingsSetCmd updates one setting and persists the file.
type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting name (see 'settings show')"`
	Value string `arg:"" help:"New value"`
}

func (c *SettingsSetCmd) Run() error {
	st, repo, err := loadSettings()
	if err != nil {
		return err
	}
	if err := st.Set(c.Key, c.Value); err != nil {
		return err
	}
	if err := repo.Save(st); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", c.Key, c.Value)
	return nil
}

// SettingsResetCmd writes the defaults back to disk.
type SettingsResetCmd struct{}

func (c *SettingsResetCmd) Run() error {
	_, repo, err := loadSettings()
	if err != nil {
		return err
	}
	if err := repo.Save(settings.Default()); err != nil {
		return err
	}
	fmt.Println("Settings reset to defaults.")
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("bionic version %s\n", version)
	fmt.Printf("Supported formats: %s\n", strings.Join(sources.Formats(), ", "))
	info := sqlite.GetInfo()
	fmt.Printf("SQLite driver: %s (%s)\n", info.DriverName, info.DriverType)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("bionic"),
		kong.Description("Bionic reading text transformer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
