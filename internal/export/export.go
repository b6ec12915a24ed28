package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPNG  Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or png)", s)
	}
}

type Trajectory struct {
	ID      models.ID          `json:"id"`
	Name    string             `json:"name"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Samples dynamo.Series      `json:"samples"`
}

// Data is one exported session: the shared environment and every model's
// trajectory in display order.
type Data struct {
	Horizon      float64            `json:"horizon"`
	Environment  dynamo.Environment `json:"environment"`
	Trajectories []Trajectory       `json:"trajectories"`
}

func FromResult(res *experiment.Result, env dynamo.Environment, horizon float64) Data {
	d := Data{
		Horizon:      horizon,
		Environment:  env,
		Trajectories: make([]Trajectory, 0, len(res.Traces)),
	}
	for _, tr := range res.Traces {
		d.Trajectories = append(d.Trajectories, Trajectory{
			ID:      tr.ID,
			Name:    tr.Name,
			Metrics: res.Metrics[tr.ID],
			Samples: tr.Samples,
		})
	}
	return d
}

func Write(w io.Writer, format Format, d Data) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, d)
	case FormatJSON:
		return WriteJSON(w, d)
	case FormatPNG:
		return WritePNG(w, d, DefaultWidth, DefaultHeight)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile writes d to path, or to stdout when path is "-".
func WriteFile(path string, format Format, d Data) error {
	if path == "-" {
		return Write(os.Stdout, format, d)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, format, d); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func WriteJSON(w io.Writer, d Data) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(d)
}

// WriteCSV writes one row per sample in long format.
func WriteCSV(w io.Writer, d Data) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"model_id", "model", "time", "value", "setpoint"}); err != nil {
		return err
	}

	sp := strconv.FormatFloat(d.Environment.Setpoint, 'f', -1, 64)
	for _, tr := range d.Trajectories {
		id := strconv.Itoa(int(tr.ID))
		for _, s := range tr.Samples {
			row := []string{
				id,
				tr.Name,
				strconv.FormatFloat(s.T, 'f', 6, 64),
				strconv.FormatFloat(s.V, 'f', 6, 64),
				sp,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
