package logx

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

const (
	defaultLogFile    = "./logs/lightsync.log"
	defaultMaxSizeMB  = 100
	defaultMaxAgeDays = 7
)

var (
	mu               sync.RWMutex
	lumberjackLogger = &lumberjack.Logger{
		Filename: getLogFilename(),
		MaxSize:  getEnvInt("LOGFILE_MAX_SIZE_MB", defaultMaxSizeMB),   // megabytes
		MaxAge:   getEnvInt("LOGFILE_MAX_AGE_DAYS", defaultMaxAgeDays), // days
	}

	logger = log.New(lumberjackLogger, "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

func getLogFilename() string {
	if logFile := os.Getenv("LOGFILE"); logFile != "" {
		return "./logs/" + logFile
	}
	return defaultLogFile
}

func getEnvInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// Configure replaces the rotating file sink. Zero values keep the current setting.
func Configure(filename string, maxSizeMB, maxAgeDays int) {
	mu.Lock()
	defer mu.Unlock()

	next := &lumberjack.Logger{
		Filename: lumberjackLogger.Filename,
		MaxSize:  lumberjackLogger.MaxSize,
		MaxAge:   lumberjackLogger.MaxAge,
	}
	if filename != "" {
		next.Filename = filename
	}
	if maxSizeMB > 0 {
		next.MaxSize = maxSizeMB
	}
	if maxAgeDays > 0 {
		next.MaxAge = maxAgeDays
	}
	_ = lumberjackLogger.Close()
	lumberjackLogger = next
	logger = log.New(lumberjackLogger, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

func printf(color, level, category string, content []interface{}) {
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[%s][%s]%s", color, level, category, ColorReset)
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Printf("%s: %s", coloredCategory, message)
}

func Info(category string, content ...interface{}) {
	printf(ColorGreen, "INFO", category, content)
}

func Error(category string, content ...interface{}) {
	printf(ColorRed, "ERROR", category, content)
}

func Warn(category string, content ...interface{}) {
	printf(ColorYellow, "WARN", category, content)
}

func Debug(category string, content ...interface{}) {
	printf(ColorBlue, "DEBUG", category, content)
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
