package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/models"
	"github.com/san-kum/pidlab/internal/sim"
	"go.uber.org/zap"
)

const (
	panelWidth    = 46
	minPlotWidth  = 30
	minPlotHeight = 8
	defaultWidth  = 120
	defaultHeight = 32
)

type TickMsg time.Time

type field struct {
	label string
	param string
	env   bool
	step  float64
}

// Tunable fields in panel order. The first four belong to the selected model.
var fields = []field{
	{"Kp", control.ParamKp, false, 0.1},
	{"Ki", control.ParamKi, false, 0.01},
	{"Kd", control.ParamKd, false, 0.1},
	{"Accel limit", models.ParamMaxAccel, false, 0.5},
	{"Setpoint", dynamo.ParamSetpoint, true, 5},
	{"Damping", dynamo.ParamDamping, true, 0.05},
	{"Force", dynamo.ParamAppliedForce, true, 0.5},
	{"Timestep", dynamo.ParamTimestep, true, 0.001},
	{"Max accel", dynamo.ParamMaxAccel, true, 0.5},
}

// App hosts a driver in a bubbletea program and ticks it once per frame.
type App struct {
	driver        *sim.Driver
	log           *zap.Logger
	fps           int
	selected      int
	field         int
	bounds        *Bounds
	width, height int
	status        string
}

func NewApp(driver *sim.Driver, fps int, log *zap.Logger) App {
	if fps <= 0 {
		fps = 60
	}
	if log == nil {
		log = zap.NewNop()
	}
	return App{
		driver: driver,
		log:    log,
		fps:    fps,
		bounds: NewBounds(fps),
		width:  defaultWidth,
		height: defaultHeight,
	}
}

func (a App) Init() tea.Cmd {
	return a.tick()
}

func (a App) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(a.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and runs one driver tick per frame.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			return a, tea.Quit
		}
		a.handleKey(msg.String())
	case TickMsg:
		if _, err := a.driver.Tick(); err != nil {
			a.fail(err)
		}
		a.updateBounds()
		return a, a.tick()
	}
	return a, nil
}

func (a *App) handleKey(key string) {
	reg := a.driver.Registry()
	a.status = ""

	switch key {
	case " ":
		a.driver.SetRunning(!a.driver.Running())
	case "r":
		if err := a.driver.ResetSimulation(); err != nil {
			a.fail(err)
		}
	case "a":
		reg.Add(fmt.Sprintf("Model %d", reg.Len()+1))
		a.selected = reg.Len() - 1
	case "d":
		if id, ok := a.selectedID(); ok {
			if _, err := reg.Duplicate(id); err != nil {
				a.fail(err)
				return
			}
			a.selected = reg.Len() - 1
		}
	case "x":
		if id, ok := a.selectedID(); ok {
			reg.Remove(id)
			a.selected = min(a.selected, max(reg.Len()-1, 0))
		}
	case "tab":
		if n := reg.Len(); n > 0 {
			a.selected = (a.selected + 1) % n
		}
	case "shift+tab":
		if n := reg.Len(); n > 0 {
			a.selected = (a.selected - 1 + n) % n
		}
	case "up", "k":
		a.field = (a.field - 1 + len(fields)) % len(fields)
	case "down", "j":
		a.field = (a.field + 1) % len(fields)
	case "right", "l":
		a.adjust(1)
	case "left", "h":
		a.adjust(-1)
	case "L":
		a.adjust(10)
	case "H":
		a.adjust(-10)
	case "t":
		NextTheme()
	}
}

func (a *App) fail(err error) {
	a.status = err.Error()
	a.log.Warn("action rejected", zap.Error(err))
}

func (a App) selectedID() (models.ID, bool) {
	ids := a.driver.Registry().IDs()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[min(a.selected, len(ids)-1)], true
}

// adjust moves the active field by steps increments of its step size.
func (a *App) adjust(steps float64) {
	reg := a.driver.Registry()
	f := fields[a.field]

	if f.env {
		env := reg.Environment()
		v := snap(env.GetParams()[f.param]+steps*f.step, f.step)
		if f.param == dynamo.ParamTimestep {
			v = math.Max(v, dynamo.TimestepRange.Min)
		}
		if err := reg.TuneEnvironment(f.param, v); err != nil {
			a.fail(err)
		}
		return
	}

	id, ok := a.selectedID()
	if !ok {
		return
	}
	m, _ := reg.Model(id)
	v := snap(m.GetParams()[f.param]+steps*f.step, f.step)
	if f.param == models.ParamMaxAccel {
		v = math.Max(v, 0)
	}
	if err := reg.Tune(id, f.param, v); err != nil {
		a.fail(err)
	}
}

func snap(v, step float64) float64 {
	return math.Round(v/step) * step
}

func (a *App) updateBounds() {
	reg := a.driver.Registry()
	data := make([][]float64, 0, reg.Len())
	for _, id := range reg.IDs() {
		h, _ := reg.History(id)
		data = append(data, h.Values())
	}
	a.bounds.Update(data...)
}

// View renders the plot and the side panel.
func (a App) View() string {
	reg := a.driver.Registry()
	plotW := max(a.width-panelWidth-16, minPlotWidth)
	plotH := max(a.height-10, minPlotHeight)

	series := make([]plotSeries, 0, reg.Len())
	for i, id := range reg.IDs() {
		h, _ := reg.History(id)
		series = append(series, plotSeries{
			data:  Resample(h, plotW, XMax),
			color: CurrentTheme.SeriesColor(i),
		})
	}
	lo, hi := a.bounds.Range()
	chart := renderPlot(series, reg.Setpoint(), plotW, plotH, lo, hi)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		graphStyle.Render(chart),
		panelStyle.Render(a.panel()),
	)
}

func (a App) panel() string {
	reg := a.driver.Registry()
	env := reg.Environment()
	state := a.driver.State().String()

	var s strings.Builder
	s.WriteString(headerStyle().Render("PID LAB") + "\n")
	s.WriteString(statusStyle(state).Render(strings.ToUpper(state)) + "\n\n")

	s.WriteString("MODELS\n")
	if reg.Len() == 0 {
		s.WriteString(labelStyle.Render("  (none)") + "\n")
	}
	sel, hasSel := a.selectedID()
	for i, m := range reg.Models() {
		marker := "  "
		if hasSel && m.ID() == sel {
			marker = "> "
		}
		line := fmt.Sprintf("%-18s %8.2f", truncate(m.Name(), 18), m.Value())
		s.WriteString(marker + CurrentTheme.SeriesStyle(i).Render(line) + "\n")
	}

	s.WriteString("\n" + Separator(panelWidth-6) + "\n")

	var params map[string]float64
	if m, ok := reg.Model(sel); hasSel && ok {
		params = m.GetParams()
	}
	envParams := env.GetParams()
	for i, f := range fields {
		if i == 4 {
			s.WriteString("\nENVIRONMENT\n")
		}
		val := "-"
		switch {
		case f.env:
			val = fmt.Sprintf("%.3f", envParams[f.param])
		case params != nil && f.param == models.ParamMaxAccel && params[f.param] == 0:
			val = "inherit"
		case params != nil:
			val = fmt.Sprintf("%.3f", params[f.param])
		}
		if i == a.field {
			s.WriteString(activeStyle().Render(fmt.Sprintf("> %-12s %s", f.label, val)) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(f.label) + valueStyle.Render(val) + "\n")
		}
	}

	if hasSel {
		h, _ := reg.History(sel)
		s.WriteString("\nRESPONSE\n")
		scores := metrics.Evaluate(h, metrics.Default(env)...)
		for _, name := range []string{"overshoot_pct", "rise_time", "settling_time", "iae"} {
			s.WriteString("  " + labelStyle.Render(name) + valueStyle.Render(formatMetric(scores[name])) + "\n")
		}
	}

	if a.status != "" {
		s.WriteString("\n" + errorStyle().Render(a.status) + "\n")
	}

	s.WriteString(helpStyle.Render("SPC:Run/Pause R:Reset Q:Quit\nA:Add D:Dup X:Remove Tab:Model\n↑↓:Field ←→:Adjust H/L:x10 T:Theme"))
	return s.String()
}

func formatMetric(v float64) string {
	if v == metrics.NotReached {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
