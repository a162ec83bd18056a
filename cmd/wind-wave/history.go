package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/phuslu/log"
	"github.com/urfave/cli/v2"

	"github.com/ngmaloney/wind-wave/internal/ledger"
	"github.com/ngmaloney/wind-wave/internal/models"
	"github.com/ngmaloney/wind-wave/internal/ui"
)

func historyAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return cli.Exit(err, exitConfig)
	}

	repo := ledger.NewRepository(ledger.DBPath(cfg.WorkDir))
	limit := cCtx.Int("limit")
	load := func() ([]models.HistoryEntry, error) {
		return repo.Recent(limit)
	}

	interactive := !cCtx.Bool("plain") && cCtx.App.Writer == os.Stdout && log.IsTerminal(os.Stdout.Fd())
	if interactive {
		p := tea.NewProgram(ui.NewModel(load), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return cli.Exit(fmt.Sprintf("running history browser: %v", err), exitFailed)
		}
		return nil
	}

	entries, err := load()
	if err != nil {
		return cli.Exit(err, exitFailed)
	}
	fmt.Fprintln(cCtx.App.Writer, ui.RenderHistory(entries))
	return nil
}
