package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
	"github.com/raysh454/trimetric/internal/score"
)

const (
	tableOut = "table"
	jsonOut  = "json"
)

type printer struct {
	w      io.Writer
	format string

	red, green, yellow, bold func(...any) string
}

// newPrinter resolves an empty format to table on a terminal and json
// otherwise. Colors are used only for tables written to a terminal.
func newPrinter(w io.Writer, format string) *printer {
	tty := isTerminal(w)
	if format == "" {
		format = jsonOut
		if tty {
			format = tableOut
		}
	}
	p := &printer{w: w, format: format}
	if tty && format == tableOut {
		p.red = color.New(color.FgRed).SprintFunc()
		p.green = color.New(color.FgGreen).SprintFunc()
		p.yellow = color.New(color.FgYellow).SprintFunc()
		p.bold = color.New(color.Bold).SprintFunc()
	} else {
		p.red, p.green, p.yellow, p.bold = fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(p.w)
	defer func() { _ = table.Close() }()

	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func (p *printer) linef(format string, args ...any) error {
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fraction(t score.Total) string {
	return num(t.Total) + " / " + num(t.MaxTotal)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// grade colors a percentage: green from 70, yellow from 40, red below.
func (p *printer) grade(v float64) string {
	switch {
	case v >= 70:
		return p.green(percent(v))
	case v >= 40:
		return p.yellow(percent(v))
	default:
		return p.red(percent(v))
	}
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return num(*v)
}

func (p *printer) schema(s *schema.Schema) error {
	if p.format == jsonOut {
		return p.json(s)
	}
	var rows [][]string
	for _, pl := range s.Pillars() {
		for _, c := range pl.Categories {
			for _, f := range c.Factors {
				rows = append(rows, []string{
					model.FactorRef{PillarID: pl.ID, CategoryID: c.ID, FactorKey: f.Key}.String(),
					f.Label,
					num(f.Max),
					strconv.Itoa(len(f.Criteria)),
				})
			}
		}
	}
	if err := p.table([]string{"Factor", "Label", "Max", "Criteria"}, rows); err != nil {
		return err
	}
	return p.linef("Schema %s: %d factors", s.Version(), s.FactorCount())
}

func (p *printer) firms(firms []model.Firm) error {
	if p.format == jsonOut {
		if firms == nil {
			firms = []model.Firm{}
		}
		return p.json(firms)
	}
	rows := make([][]string, 0, len(firms))
	for _, f := range firms {
		rows = append(rows, []string{f.Slug, f.Name, f.ID, f.CreatedAt.Format(time.DateOnly)})
	}
	return p.table([]string{"Slug", "Name", "ID", "Created"}, rows)
}

func (p *printer) firm(f *model.Firm) error {
	if p.format == jsonOut {
		return p.json(f)
	}
	return p.linef("Created firm %s (%s) id=%s", p.bold(f.Name), f.Slug, f.ID)
}

func (p *printer) breakdown(b *score.Breakdown) error {
	if p.format == jsonOut {
		return p.json(b)
	}
	var rows [][]string
	for _, pl := range b.Pillars {
		rows = append(rows, []string{p.bold(pl.Name), "", fraction(pl.Total), p.grade(pl.Percent)})
		for _, c := range pl.Categories {
			rows = append(rows, []string{"  " + c.Name, "", fraction(c.Total), percent(c.Total.Percent())})
			for _, f := range c.Factors {
				value := num(f.Value)
				if !f.Recorded {
					value = "-"
				}
				rows = append(rows, []string{"    " + f.Label, f.Criterion, value + " / " + num(f.Max), ""})
			}
		}
	}
	if err := p.table([]string{"Item", "Criterion", "Score", "Percent"}, rows); err != nil {
		return err
	}
	return p.linef("%s: %s (%s), PTI %s", p.bold(b.FirmName), fraction(b.Total), p.grade(b.Percent), optional(b.PTIScore))
}

// committed reports a saved factor with the totals it now contributes to.
func (p *printer) committed(s *schema.Schema, ref model.FactorRef, doc *model.ScoresData) error {
	if p.format == jsonOut {
		return p.json(doc)
	}
	pl, _ := s.Pillar(ref.PillarID)
	c, _ := pl.Category(ref.CategoryID)
	cat := score.CategoryScore(ref.PillarID, ref.CategoryID, c.Factors, doc)
	firm := score.FirmScore(s, doc)
	return p.linef("%s = %s (%s %s, firm %s)",
		ref, p.green(num(doc.Value(ref.PillarID, ref.CategoryID, ref.FactorKey))),
		c.Name, fraction(cat), fraction(firm))
}

func (p *printer) history(events []model.ScoreEvent) error {
	if p.format == jsonOut {
		if events == nil {
			events = []model.ScoreEvent{}
		}
		return p.json(events)
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		ref := model.FactorRef{PillarID: e.PillarID, CategoryID: e.CategoryID, FactorKey: e.FactorKey}
		rows = append(rows, []string{
			strconv.FormatInt(e.Revision, 10),
			e.CreatedAt.Format(time.RFC3339),
			ref.String(),
			optional(e.OldValue),
			num(e.NewValue),
		})
	}
	return p.table([]string{"Revision", "When", "Factor", "Old", "New"}, rows)
}

func (p *printer) issues(issues []score.Issue) error {
	if p.format == jsonOut {
		if issues == nil {
			issues = []score.Issue{}
		}
		return p.json(issues)
	}
	if len(issues) == 0 {
		return p.linef("%s", p.green("no integrity issues"))
	}
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{p.red(string(is.Kind)), is.Ref.String(), optional(is.Value), num(is.Max), is.Message})
	}
	return p.table([]string{"Kind", "Factor", "Value", "Max", "Message"}, rows)
}
