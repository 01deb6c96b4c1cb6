package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
	"github.com/pixelfolio/cli/pkg/config"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

var out io.Writer = color.Output

// SetWriter redirects all output; nil restores the terminal
func SetWriter(w io.Writer) {
	if w == nil {
		w = color.Output
	}
	out = w
}

// Writer returns the current destination
func Writer() io.Writer {
	return out
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() OutputFormat {
	switch config.GetString("output.format") {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// ValidateOutputFormat checks if format is valid
func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Field is one labeled value of a record, printed in order
type Field struct {
	Key   string
	Value interface{}
}

// Print outputs data as JSON, under title when not in JSON mode
func Print(title string, data interface{}) error {
	if GetOutputFormat() != FormatJSON && title != "" {
		fmt.Fprintf(out, "%s:\n", title)
	}
	return printJSON(data)
}

// PrintList prints rows as a table, or data as JSON in JSON mode
func PrintList(title string, data interface{}, headers []string, rows [][]string) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(data)
	}
	if title != "" {
		color.New(color.Bold).Fprintln(out, title)
	}
	printTable(headers, rows)
	return nil
}

// PrintRecord outputs a single record. data is what JSON mode emits.
func PrintRecord(title string, data interface{}, fields []Field) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(data)
	case FormatTable:
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Key, fmt.Sprintf("%v", f.Value)})
		}
		printTable([]string{"Field", "Value"}, rows)
		return nil
	default:
		if title != "" {
			color.New(color.Bold, color.Underline).Fprintln(out, title)
		}
		bold := color.New(color.Bold)
		for _, f := range fields {
			bold.Fprint(out, f.Key+": ")
			fmt.Fprintf(out, "%v\n", f.Value)
		}
		return nil
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(out, msg+"\n", args...)
}

// PrintError prints an error message
func PrintError(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(out, "Error: "+msg+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(out, msg+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(out, "Warning: "+msg+"\n", args...)
}

func printJSON(data interface{}) error {
	s, err := FormatAsPrettyJSON(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)
	return nil
}

func printTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// FormatAsJSON converts data to a compact JSON string
func FormatAsJSON(data interface{}) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FormatAsPrettyJSON converts data to an indented JSON string
func FormatAsPrettyJSON(data interface{}) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
