package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV decodes delimited text into string records.
func readCSV(data []byte, settings config.CSVSettings) ([][]string, error) {
	decoded, err := decodeText(data, settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(decoded)))
	configureReader(reader, settings, decoded)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	return records, nil
}

// decodeText converts data from the configured encoding to UTF-8.
func decodeText(data []byte, enc string) ([]byte, error) {
	var decoder *encoding.Decoder

	switch strings.ToUpper(enc) {
	case "", "UTF-8", "UTF8":
		return bytes.TrimPrefix(data, utf8BOM), nil
	case "ISO-8859-1", "LATIN1":
		decoder = charmap.ISO8859_1.NewDecoder()
	case "WINDOWS-1252", "CP1252":
		decoder = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}

	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s text: %w", enc, err)
	}
	return out, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings, data []byte) {
	switch settings.Delimiter {
	case "", "auto", "AUTO":
		reader.Comma = sniffDelimiter(data)
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		reader.Comma = []rune(settings.Delimiter)[0]
	}

	// Exports are hand-edited; tolerate ragged rows and stray quotes.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// sniffDelimiter picks the most frequent candidate delimiter on the first
// line, ignoring quoted text. Spanish-locale exports commonly use ';'.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	candidates := []rune{',', ';', '\t', '|'}
	counts := make(map[rune]int, len(candidates))

	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := ','
	for _, c := range candidates {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
