/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package nlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is something that can print, using Logf, a format string
type Logger interface {
	Logf(format string, v ...any)
}

// subsystemLogger is a logger that handles only one file out of all that are opened by its ServiceLogger
type subsystemLogger struct {
	subsystem string
	logger    *ServiceLogger
}

func (s *subsystemLogger) Logf(format string, v ...any) {
	s.logger.Logf(s.subsystem, format, v...)
}

// logEntry is the couple (subsystem, formatted string) travelling on the log channel
type logEntry struct {
	subsystem string
	formatted string
}

// ServiceLogger writes each registered subsystem to its own file, through a dedicated logrus logger.
// It's safe to share amongst goroutines: formatting happens on the caller, writing happens on Run.
type ServiceLogger struct {
	folder string // Every subsystem file is created inside this folder
	level  logrus.Level

	fileMapper map[string]*os.File      // Maps a subsystem to its file (kept only to close it later)
	logMapper  map[string]*logrus.Entry // Maps a subsystem to the entry carrying its field

	lock    sync.RWMutex
	enabled bool

	inbox chan logEntry
}

// NewServiceLogger creates the log folder and returns a logger that writes there once Run is called.
// level is a logrus level name, an empty string means "info".
func NewServiceLogger(folder string, logging bool, level string) (*ServiceLogger, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, err
	}
	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	return &ServiceLogger{
		folder:     folder,
		level:      lvl,
		fileMapper: make(map[string]*os.File),
		logMapper:  make(map[string]*logrus.Entry),
		enabled:    logging,
		inbox:      make(chan logEntry, 600),
	}, nil
}

// RegisterSubsystem opens <folder>/<subsystem>.log and returns a Logger bound to it
func (n *ServiceLogger) RegisterSubsystem(subsystem string) (Logger, error) {
	path := filepath.Join(n.folder, subsystem+".log")
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(file)
	l.SetLevel(n.level)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})

	n.lock.Lock()
	defer n.lock.Unlock()
	n.logMapper[subsystem] = l.WithField("subsystem", subsystem)
	n.fileMapper[subsystem] = file
	return &subsystemLogger{subsystem, n}, nil
}

// GetSubsystemLogger retrieves a subsystem logger, if previously registered
func (n *ServiceLogger) GetSubsystemLogger(subsystem string) (Logger, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()

	if _, ok := n.logMapper[subsystem]; !ok {
		return nil, fmt.Errorf("The subsystem %s was not registered", subsystem)
	}
	return &subsystemLogger{subsystem, n}, nil
}

func (n *ServiceLogger) EnableLogging() {
	n.lock.Lock()
	n.enabled = true
	n.lock.Unlock()
}

func (n *ServiceLogger) DisableLogging() {
	n.lock.Lock()
	n.enabled = false
	n.lock.Unlock()
}

// Logf formats the entry and queues it for the subsystem's file
func (n *ServiceLogger) Logf(subsystem, format string, v ...any) {
	n.inbox <- logEntry{subsystem, fmt.Sprintf(format, v...)}
}

// Run writes queued entries until ctx is done, then drains what is left and closes the files
func (n *ServiceLogger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			n.drain()
			n.CloseAll()
			return
		case msg := <-n.inbox:
			n.actualWrite(msg.subsystem, msg.formatted)
		}
	}
}

func (n *ServiceLogger) drain() {
	for {
		select {
		case msg := <-n.inbox:
			n.actualWrite(msg.subsystem, msg.formatted)
		default:
			return
		}
	}
}

func (n *ServiceLogger) actualWrite(subsystem, formatted string) error {
	n.lock.RLock()
	enabled := n.enabled
	entry, ok := n.logMapper[subsystem]
	n.lock.RUnlock()

	if !ok {
		return fmt.Errorf("Logger is not setup for subsystem %s", subsystem)
	}
	if enabled {
		entry.Info(formatted)
	}
	return nil
}

// CloseAll closes all the open files that the subsystems are using
func (n *ServiceLogger) CloseAll() {
	n.lock.Lock()
	defer n.lock.Unlock()

	for _, file := range n.fileMapper {
		file.Sync()
		file.Close()
	}
	clear(n.fileMapper)
	clear(n.logMapper)
}

// Discard is a Logger that drops everything, handy when a component is built without a ServiceLogger
type Discard struct{}

func (Discard) Logf(string, ...any) {}
