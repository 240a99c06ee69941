package metrics

import (
	"fmt"
	"log"
	"os"
	"path"
)

type Logger interface {
	Log(info *RunInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *RunInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultMaxLogFileSize = 64 * 1024 * 1024

// FileLogger appends JSON run records to a log file, rotating it once when
// it reaches MaxLogFileSize. Extraction runs are batch jobs, so a single
// synchronous writer is enough.
type FileLogger struct {
	LogDir         string
	MaxLogFileSize int64
	Verbose        bool

	f *os.File
}

func NewFileLogger(logDir string, maxLogFileSize int64, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	return &FileLogger{
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		Verbose:        verbose,
	}
}

func (l *FileLogger) Log(info *RunInfo) {
	infoStr, err := info.ToJSON()
	if err != nil {
		log.Printf("FileLogger: info.ToJSON() error: %v", err)
		return
	}

	f, err := l.logFile()
	if err != nil {
		log.Printf("FileLogger: log open error: %v", err)
		return
	}
	if _, err := f.WriteString(infoStr); err != nil {
		log.Printf("FileLogger: write error: %v", err)
		return
	}
	f.Sync()
}

func (l *FileLogger) logFile() (*os.File, error) {
	if l.f != nil {
		if err := l.tryRotate(); err != nil {
			return nil, err
		}
	}
	if l.f == nil {
		f, err := os.OpenFile(l.logPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		l.f = f
	}
	return l.f, nil
}

func (l *FileLogger) logPath() string {
	return path.Join(l.LogDir, "extract.log")
}

func (l *FileLogger) tryRotate() error {
	info, err := l.f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.MaxLogFileSize {
		return nil
	}

	l.f.Close()
	l.f = nil
	rotated := fmt.Sprintf("%s.1", l.logPath())
	if err := os.Rename(l.logPath(), rotated); err != nil {
		return err
	}
	if l.Verbose {
		log.Printf("FileLogger: log file rotated: %v", rotated)
	}
	return nil
}
