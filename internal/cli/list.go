package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/filter"
	"github.com/adorostkar/gorate/internal/model"
	"github.com/adorostkar/gorate/internal/ui"
)

var listQuery string

var listCmd = &cobra.Command{
	Use:   "list [folders...]",
	Short: "Print the movies matching a query",
	Long: `Scan the folders and print every movie whose searched columns contain
all words of the query, followed by the number of movies found.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "space separated search terms")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	lib, closeFn, err := newLibrary(cfg, args)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := lib.Reload(cmd.Context(), nil); err != nil {
		return err
	}
	return printMovies(cmd.OutOrStdout(), lib.Movies(), cfg, listQuery)
}

func printMovies(w io.Writer, movies []model.Movie, cfg config.Config, query string) error {
	data := make([][]string, len(movies))
	for i, m := range movies {
		data[i] = m.Cells()
	}
	rows := filter.NewRows(model.Columns, data)

	var label filter.TextLabel
	f, err := filter.New(filter.Options{SearchColumns: cfg.SearchColumns}, filter.Query(query), rows, &label)
	if err != nil {
		return err
	}
	if _, err := f.Apply(); err != nil {
		return err
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorBorder)).
		Headers(model.Columns...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, i := range rows.VisibleIndexes() {
		cells := append([]string(nil), data[i]...)
		if rate := movies[i].Rate; rate > 0 {
			cells[model.ColumnRating] = ui.RatingStyle(rate).Render(cells[model.ColumnRating])
		}
		t.Row(cells...)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, label.Text)
	return err
}
