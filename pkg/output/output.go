package output

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/aditya-makadiya/sociofeed/pkg/config"
	"github.com/fatih/color"
	json "github.com/json-iterator/go"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

var out io.Writer = color.Output

// SetOutput redirects everything this package prints; nil restores the terminal
func SetOutput(w io.Writer) {
	if w == nil {
		w = color.Output
	}
	out = w
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

// Print outputs data in the configured format with optional title
func Print(title string, data interface{}) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(data)
	}
	// Table format doesn't make sense for generic objects, fall back to text
	if title != "" {
		fmt.Fprintf(out, "%s:\n", title)
	}
	return printJSON(data)
}

// PrintList outputs rows as a table, or items as JSON
func PrintList(title string, items interface{}, columns []string, rows [][]string) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(items)
	default:
		if title != "" {
			bold.Fprintln(out, title)
		}
		printTable(columns, rows)
		return nil
	}
}

// PrintRecord outputs a single record in the configured format, keys sorted
func PrintRecord(title string, record map[string]interface{}) error {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(record)
	case FormatTable:
		rows := make([][]string, 0, len(record))
		for _, k := range keys {
			rows = append(rows, []string{k, fmt.Sprintf("%v", record[k])})
		}
		printTable([]string{"Field", "Value"}, rows)
		return nil
	default:
		if title != "" {
			fmt.Fprintf(out, "%s:\n", title)
		}
		for _, k := range keys {
			bold.Fprint(out, k+": ")
			fmt.Fprintf(out, "%v\n", record[k])
		}
		return nil
	}
}

var bold = color.New(color.Bold)

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

// PrintLine prints s followed by a newline
func PrintLine(s string) {
	fmt.Fprintln(out, s)
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

	for i, h := range headers {
		bold.Fprint(w, h)
		if i < len(headers)-1 {
			fmt.Fprint(w, "\t")
		}
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(w, cell)
			if i < len(row)-1 {
				fmt.Fprint(w, "\t")
			}
		}
		fmt.Fprintln(w)
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
