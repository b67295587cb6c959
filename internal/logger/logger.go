// Package logger provides the gateway's leveled, colorized console logger.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	defaultStdout io.Writer = os.Stdout
	defaultStderr io.Writer = os.Stderr

	currentStdout io.Writer = defaultStdout
	currentStderr io.Writer = defaultStderr

	debugLogger = log.New(currentStdout, "", 0)
	infoLogger  = log.New(currentStdout, "", 0)
	warnLogger  = log.New(currentStdout, "", 0)
	errorLogger = log.New(currentStderr, "", 0)
	fatalLogger = log.New(currentStderr, "", 0)
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
	colorWhite  = "\033[97m"
	colorYellow = "\033[33m"
)

// Log levels, ordered from most to least verbose.
const (
	DEBUG = iota
	INFO
	WARN
	ERROR
	FATAL
)

var currentLogLevel = INFO

func init() {
	// Load .env/.env.local if present; ignored when absent.
	godotenv.Load(".env", ".env.local")
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetOutput redirects all loggers; used by tests to capture output.
func SetOutput(stdout, stderr io.Writer) {
	currentStdout = stdout
	currentStderr = stderr

	debugLogger.SetOutput(stdout)
	infoLogger.SetOutput(stdout)
	warnLogger.SetOutput(stdout)
	errorLogger.SetOutput(stderr)
	fatalLogger.SetOutput(stderr)
}

// ResetOutput restores stdout/stderr as the log destinations.
func ResetOutput() {
	SetOutput(defaultStdout, defaultStderr)
}

// SetLevel sets the minimum level that will be logged. An unrecognized or
// empty value defaults to INFO.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		currentLogLevel = DEBUG
	case "warn":
		currentLogLevel = WARN
	case "error":
		currentLogLevel = ERROR
	case "fatal":
		currentLogLevel = FATAL
	default:
		currentLogLevel = INFO
	}
}

func logAt(logger *log.Logger, level, color, format string, args ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	logger.Printf("%s[%s] %s: %s%s\n", color, timestamp, level, message, colorReset)
}

// Debug logs a debug-level message.
func Debug(format string, args ...interface{}) {
	if currentLogLevel <= DEBUG {
		logAt(debugLogger, "DEBUG", colorGray, format, args...)
	}
}

// Info logs an info-level message.
func Info(format string, args ...interface{}) {
	if currentLogLevel <= INFO {
		logAt(infoLogger, "INFO", colorWhite, format, args...)
	}
}

// Warn logs a warn-level message.
func Warn(format string, args ...interface{}) {
	if currentLogLevel <= WARN {
		logAt(warnLogger, "WARN", colorYellow, format, args...)
	}
}

// Error logs an error-level message.
func Error(format string, args ...interface{}) {
	if currentLogLevel <= ERROR {
		logAt(errorLogger, "ERROR", colorRed, format, args...)
	}
}

// Fatal logs a fatal-level message and exits the process.
func Fatal(format string, args ...interface{}) {
	logAt(fatalLogger, "FATAL", colorRed, format, args...)
	os.Exit(1)
}
