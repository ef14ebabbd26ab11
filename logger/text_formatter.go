package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
)

var baseTimestamp = time.Now()

type textFormatter struct {
	TextFormatConfig
	json jsonFormatter
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	formatted := f.ForceFormatting || isTerminal(entry.Logger.Out)
	if !formatted {
		return f.json.Format(entry)
	}
	colored := !f.DisableColors && isTerminal(entry.Logger.Out)

	ns, _ := entry.Data["ns"].(string)

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	if !f.DisableTimestamp {
		if !f.FullTimestamp {
			t := entry.Time.Sub(baseTimestamp) / time.Second
			entry.Data["time"] = fmt.Sprintf("%04d", int(t))
		} else {
			entry.Data["time"] = entry.Time.Format(f.TimestampFormat)
		}
	}

	var levelColor aurora.Color
	switch entry.Level {
	case logrus.DebugLevel:
		levelColor = aurora.MagentaFg
	case logrus.WarnLevel:
		levelColor = aurora.YellowFg
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = aurora.RedFg
	default:
		levelColor = aurora.CyanFg
	}

	paint := func(s string, c aurora.Color) interface{} {
		if !colored {
			return s
		}
		return aurora.Colorize(s, c)
	}

	fmt.Fprintf(b, "%s%-20s %s\n", f.Indent, paint(ns, levelColor|aurora.BoldFm), entry.Message)

	for _, k := range f.sortKeys(entry) {
		v := entry.Data[k]

		switch v.(type) {
		case string, bool, error, fmt.Stringer:
		case int, int8, int16, int32, int64:
		case uint, uint8, uint16, uint32, uint64:
		case float32, float64:
		default:
			v = pretty.Sprint(v)
		}

		if s, ok := v.(string); ok {
			v = strings.Join(strings.Split(s, "\n"), "\n"+strings.Repeat(" ", 21))
		}

		fmt.Fprintf(b, "%s%-20s %v\n", f.Indent, paint(k, levelColor), v)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *textFormatter) sortKeys(entry *logrus.Entry) []string {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		// "ns" is printed in the heading.
		if k != "ns" {
			keys = append(keys, k)
		}
	}
	if !f.DisableSorting {
		sort.Strings(keys)
	}
	return keys
}
