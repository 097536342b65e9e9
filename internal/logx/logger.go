package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	logJSON bool
	logText bool
}

func New(logFilePath string, logJSON, logText bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		console: os.Stdout,
		file:    file,
		logJSON: logJSON,
		logText: logText,
	}, nil
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func (l *Logger) Info(msg string) {
	l.log(LogEntry{Timestamp: time.Now(), Level: "INFO", Message: msg})
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(msg string) {
	l.log(LogEntry{Timestamp: time.Now(), Level: "WARN", Message: msg})
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(msg string, err error) {
	entry := LogEntry{Timestamp: time.Now(), Level: "ERROR", Message: msg}
	if err != nil {
		entry.Error = err.Error()
	}
	l.log(entry)
}

// LogUnit records the outcome of one render unit (a clip or a month video).
func (l *Logger) LogUnit(unit string, err error) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   "rendered " + unit,
		Unit:      unit,
	}
	if err != nil {
		entry.Level = "ERROR"
		entry.Message = "failed " + unit
		entry.Error = err.Error()
	}
	l.log(entry)
}

func (l *Logger) log(entry LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeEntry(entry)
}

func (l *Logger) writeEntry(entry LogEntry) {
	if l.logJSON && l.file != nil {
		data, _ := json.Marshal(entry)
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}

	if l.logText && l.file != nil {
		line := fmt.Sprintf("[%s] %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Level,
			entry.Message,
		)
		if entry.Error != "" {
			line = fmt.Sprintf("[%s] %s %s - Error: %s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.Level,
				entry.Message,
				entry.Error,
			)
		}
		l.file.WriteString(line)
	}

	if entry.Level != "INFO" || entry.Unit == "" {
		fmt.Fprintf(l.console, "%s %s\n", entry.Level, entry.Message)
	}
}

func (l *Logger) Summary(summary types.RunSummary) {
	fmt.Fprintln(l.console, "\n=== YearReel Summary ===")
	fmt.Fprintf(l.console, "Files scanned:     %d\n", summary.ScannedFiles)
	fmt.Fprintf(l.console, "Files assigned:    %d\n", summary.Assigned)
	fmt.Fprintf(l.console, "Wrong year:        %d\n", summary.SkippedWrongYear)
	fmt.Fprintf(l.console, "Unresolved dates:  %d\n", summary.Unresolved)
	fmt.Fprintf(l.console, "Scan failures:     %d\n", summary.ScanFailed)
	fmt.Fprintf(l.console, "Clips rendered:    %d\n", summary.ClipsRendered)
	fmt.Fprintf(l.console, "Clips from cache:  %d\n", summary.ClipsCached)
	fmt.Fprintf(l.console, "Months rendered:   %d\n", summary.MonthsRendered)
	fmt.Fprintf(l.console, "Months skipped:    %d\n", summary.MonthsSkipped)
	for source, count := range summary.DateSources {
		fmt.Fprintf(l.console, "  date via %-9s %d\n", string(source)+":", count)
	}
	fmt.Fprintf(l.console, "Duration:          %s\n", summary.Duration.Round(time.Second))
	fmt.Fprintln(l.console, "========================")
}

func (l *Logger) Progress(current, total int, filename string) {
	fmt.Fprintf(l.console, "\r[%d/%d] %s", current, total, filename)
}
