package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// Markers maps the UI elements scenarios touch to their data-testid values.
type Markers struct {
	List       string `yaml:"list" toml:"list"`
	Item       string `yaml:"item" toml:"item"`
	Add        string `yaml:"add" toml:"add"`
	Title      string `yaml:"title" toml:"title"`
	Content    string `yaml:"content" toml:"content"`
	Save       string `yaml:"save" toml:"save"`
	Delete     string `yaml:"delete" toml:"delete"`
	Search     string `yaml:"search" toml:"search"`
	Validation string `yaml:"validation" toml:"validation"`
	Error      string `yaml:"error" toml:"error"`
}

// DefaultMarkers are the test ids a conforming UI carries.
func DefaultMarkers() Markers {
	return Markers{
		List:       "notes-list",
		Item:       "note-item",
		Add:        "add-note",
		Title:      "note-title",
		Content:    "note-content",
		Save:       "save-note",
		Delete:     "delete-note",
		Search:     "search-notes",
		Validation: "validation-error",
		Error:      "error",
	}
}

// WithDefaults fills empty markers from DefaultMarkers.
func (m Markers) WithDefaults() Markers {
	d := DefaultMarkers()
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Markers{
		List:       pick(m.List, d.List),
		Item:       pick(m.Item, d.Item),
		Add:        pick(m.Add, d.Add),
		Title:      pick(m.Title, d.Title),
		Content:    pick(m.Content, d.Content),
		Save:       pick(m.Save, d.Save),
		Delete:     pick(m.Delete, d.Delete),
		Search:     pick(m.Search, d.Search),
		Validation: pick(m.Validation, d.Validation),
		Error:      pick(m.Error, d.Error),
	}
}

// Selector returns the CSS selector for a test id.
func Selector(testID string) string {
	return fmt.Sprintf(`[data-testid=%q]`, testID)
}

// BrowserOptions configure the headless Chrome instance.
type BrowserOptions struct {
	ExecPath string
	Headful  bool
}

// Browser owns one Chrome process; each scenario gets its own tab.
type Browser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	rootCtx     context.Context
	cancelRoot  context.CancelFunc
}

// NewBrowser starts Chrome and opens a blank tab to keep it alive.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	allocOpts = append(allocOpts, chromedp.NoSandbox)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	rootCtx, cancelRoot := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(rootCtx); err != nil {
		cancelRoot()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return &Browser{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		rootCtx:     rootCtx,
		cancelRoot:  cancelRoot,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancelRoot()
	b.cancelAlloc()
}

// NewPage opens a tab. Closing the page closes the tab.
func (b *Browser) NewPage(markers Markers) (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.rootCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &Page{tab: tabCtx, cancel: cancel, markers: markers}, nil
}

// Page drives one tab of the notes UI.
type Page struct {
	tab     context.Context
	cancel  context.CancelFunc
	markers Markers
}

func (p *Page) Close() {
	p.cancel()
}

// run executes actions in the tab. The tab outlives ctx; only this call is bounded by it.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tab)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Open navigates to url and waits for the notes list.
func (p *Page) Open(ctx context.Context, url string) error {
	return p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady(Selector(p.markers.List), chromedp.ByQuery),
	)
}

// Reload reloads the page and waits for the notes list.
func (p *Page) Reload(ctx context.Context) error {
	return p.run(ctx,
		chromedp.Reload(),
		chromedp.WaitReady(Selector(p.markers.List), chromedp.ByQuery),
	)
}

// StartNote clicks the add action and waits for the title field.
func (p *Page) StartNote(ctx context.Context) error {
	return p.run(ctx,
		chromedp.Click(Selector(p.markers.Add), chromedp.ByQuery),
		chromedp.WaitVisible(Selector(p.markers.Title), chromedp.ByQuery),
	)
}

// FillNote replaces the editor's title and content.
func (p *Page) FillNote(ctx context.Context, title, content string) error {
	titleSel := Selector(p.markers.Title)
	contentSel := Selector(p.markers.Content)
	actions := []chromedp.Action{
		chromedp.WaitVisible(titleSel, chromedp.ByQuery),
		chromedp.Clear(titleSel, chromedp.ByQuery),
	}
	if title != "" {
		actions = append(actions, chromedp.SendKeys(titleSel, title, chromedp.ByQuery))
	}
	actions = append(actions, chromedp.Clear(contentSel, chromedp.ByQuery))
	if content != "" {
		actions = append(actions, chromedp.SendKeys(contentSel, content, chromedp.ByQuery))
	}
	return p.run(ctx, actions...)
}

func (p *Page) Save(ctx context.Context) error {
	return p.run(ctx, chromedp.Click(Selector(p.markers.Save), chromedp.ByQuery))
}

func (p *Page) Delete(ctx context.Context) error {
	return p.run(ctx, chromedp.Click(Selector(p.markers.Delete), chromedp.ByQuery))
}

// Search types query into the search field.
func (p *Page) Search(ctx context.Context, query string) error {
	sel := Selector(p.markers.Search)
	return p.run(ctx,
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, query, chromedp.ByQuery),
	)
}

// evalJS builds a script calling fn with JSON-encoded arguments.
func evalJS(fn string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", err
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

const itemTitlesJS = `function (item) {
  return Array.from(document.querySelectorAll('[data-testid="' + item + '"]'))
    .map(function (el) { return el.textContent.trim(); });
}`

// ItemTitles returns the text of every rendered note item.
func (p *Page) ItemTitles(ctx context.Context) ([]string, error) {
	script, err := evalJS(itemTitlesJS, p.markers.Item)
	if err != nil {
		return nil, err
	}
	var titles []string
	if err := p.run(ctx, chromedp.Evaluate(script, &titles)); err != nil {
		return nil, err
	}
	return titles, nil
}

// HasItem reports whether a note item shows title.
func (p *Page) HasItem(ctx context.Context, title string) (bool, error) {
	titles, err := p.ItemTitles(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range titles {
		if t == title || strings.Contains(t, title) {
			return true, nil
		}
	}
	return false, nil
}

const clickItemJS = `function (item, title) {
  var items = Array.from(document.querySelectorAll('[data-testid="' + item + '"]'));
  var match = items.find(function (el) { return el.textContent.indexOf(title) >= 0; });
  if (!match) { return false; }
  match.click();
  return true;
}`

// OpenItem clicks the note item showing title and waits for the editor.
func (p *Page) OpenItem(ctx context.Context, title string) error {
	script, err := evalJS(clickItemJS, p.markers.Item, title)
	if err != nil {
		return err
	}
	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no note item shows %q", title)
	}
	return p.run(ctx, chromedp.WaitVisible(Selector(p.markers.Title), chromedp.ByQuery))
}

const visibleJS = `function (testID) {
  var el = document.querySelector('[data-testid="' + testID + '"]');
  if (!el || el.hidden) { return false; }
  var style = window.getComputedStyle(el);
  if (style.display === 'none' || style.visibility === 'hidden') { return false; }
  return el.getClientRects().length > 0;
}`

// Visible reports whether the element with testID is rendered and shown.
func (p *Page) Visible(ctx context.Context, testID string) (bool, error) {
	script, err := evalJS(visibleJS, testID)
	if err != nil {
		return false, err
	}
	var visible bool
	if err := p.run(ctx, chromedp.Evaluate(script, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

// ErrorShown reports whether the generic error marker is visible.
func (p *Page) ErrorShown(ctx context.Context) (bool, error) {
	return p.Visible(ctx, p.markers.Error)
}
