package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

var (
	// Log is the logger for normal use
	Log *log.Logger
	// Error is the Logger for errors
	Error *log.Logger

	level int32 = 1
)

const errLogName = "error.log"

// Init creates logger instance to loggers
func Init() {
	initLogger()
	initErrorLogger()
}

// InitStd sets up both loggers without the error log file. Used by tests.
func InitStd() {
	initLogger()
	Error = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func initLogger() {
	flag := log.Ldate | log.Ltime
	Log = log.New(os.Stdout, "", flag)
}

func initErrorLogger() {
	f, err := os.OpenFile(errLogName, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		panic(err)
	}

	errHandler := io.MultiWriter(os.Stderr, f)
	flag := log.Ldate | log.Ltime | log.Lshortfile
	Error = log.New(errHandler, "", flag)
}

// UpdatePrefix Sets new prefix
func UpdatePrefix(prefix string) {
	if prefix != "" {
		prefix = fmt.Sprintf("[%s] ", prefix)
	}
	Log.SetPrefix(prefix)
	Error.SetPrefix(prefix)
}

// SetLevel changes the verbosity used by Debugf.
func SetLevel(l int) {
	atomic.StoreInt32(&level, int32(l))
}

// Printf is the alias for Log.Printf
func Printf(format string, v ...interface{}) {
	if Log == nil {
		return
	}
	Log.Printf(format, v...)
}

// Println is the alias for Log.Println
func Println(v ...interface{}) {
	if Log == nil {
		return
	}
	Log.Println(v...)
}

// Debugf prints only when debug level is 2 or above.
func Debugf(format string, v ...interface{}) {
	if atomic.LoadInt32(&level) < 2 {
		return
	}
	Printf(format, v...)
}

// Errorf writes to the error logger.
func Errorf(format string, v ...interface{}) {
	if Error == nil {
		return
	}
	Error.Output(2, fmt.Sprintf(format, v...))
}
