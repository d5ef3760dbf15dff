package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vanderheijden86/navplus/pkg/forest"
	"github.com/vanderheijden86/navplus/pkg/ui"
)

// NewBrowser renders the primary tree of res and returns a browser opened
// at the session's start location.
func (s *Session) NewBrowser(ctx context.Context, res forest.Result, opts ...ui.Option) (*ui.Model, error) {
	pri := s.Primary()
	if err := pri.Render(ctx, res.Forest); err != nil {
		return nil, err
	}

	layout := ui.DefaultLayout()
	layout.MinWidth, layout.Gutter = s.cfg.UI.MinWidth, s.cfg.UI.Gutter
	opts = append([]ui.Option{
		ui.WithDocRoot(s.URLRoot),
		ui.WithIndented(res.Indented),
		ui.WithLayout(layout),
		ui.WithLogger(s.log),
		ui.WithSaveDebounce(s.cfg.Widget.SaveDebounce),
		ui.WithPaneDefaults(s.cfg.UI.DualNav, s.cfg.UI.PriWidth, s.cfg.UI.SecWidth),
	}, opts...)
	m := ui.NewModel(ctx, s.Project, pri, s.Page, opts...)

	start := s.StartLocation(ctx, res.Forest)
	if err := m.Open(start); err != nil {
		s.log.Warn("opening start location", zap.String("href", start), zap.Error(err))
	}
	return m, nil
}

// Browse runs the terminal browser until the user quits. The forest is
// rebuilt and reloaded whenever the documentation is regenerated.
func (s *Session) Browse(ctx context.Context, res forest.Result, opts ...tea.ProgramOption) error {
	m, err := s.NewBrowser(ctx, res)
	if err != nil {
		return err
	}

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)

	w, err := s.Watch(func() { s.reload(ctx, p.Send) })
	if err != nil {
		s.log.Warn("not watching for regeneration", zap.Error(err))
	} else {
		defer func() { _ = w.Stop() }()
	}

	_, runErr := p.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	return multierr.Append(runErr, m.Close(context.WithoutCancel(ctx)))
}

// reload rebuilds the forest and hands it to send.
func (s *Session) reload(ctx context.Context, send func(tea.Msg)) {
	res, err := s.Build(ctx)
	if err != nil && !errors.Is(err, forest.ErrNoSections) {
		s.log.Warn("rebuilding navigation", zap.Error(err))
		return
	}
	s.log.Info("navigation rebuilt", zap.Bool("cached", res.FromCache), zap.Strings("sections", res.Forest.Names()))
	send(ui.ReloadMsg{Forest: res.Forest, Indented: res.Indented})
}
