package board

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/markusressel/fancontrol/internal/util"
)

// PidFileLock is the single-instance guard. Only one process may own the PWM
// register, so acquiring the lock with another live owner is a startup error.
type PidFileLock struct {
	Path string

	acquired bool
}

func NewPidFileLock(path string) *PidFileLock {
	return &PidFileLock{
		Path: path,
	}
}

// Acquire claims the pidfile. A pidfile naming a live process fails with that
// PID in the error, a stale one is removed and taken over.
func (l *PidFileLock) Acquire() error {
	if util.FileExists(l.Path) {
		existingPid, err := readPid(l.Path)
		if err == nil && pidIsAlive(existingPid) {
			return fmt.Errorf("file %s exists and process %d is running, is fancontrol already running?", l.Path, existingPid)
		}

		ui.Debug("Removing stale pidfile %s", l.Path)
		if err = os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stale pidfile %s cannot be removed: %s", l.Path, err.Error())
		}
	}

	pid := os.Getpid()
	if err := os.WriteFile(l.Path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("cannot create pidfile: %s: %s", l.Path, err.Error())
	}

	l.acquired = true
	return nil
}

func (l *PidFileLock) Release() {
	if !l.acquired {
		return
	}
	_ = os.Remove(l.Path)
	l.acquired = false
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, err
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s: %d", path, pid)
	}
	return pid, nil
}

// pidIsAlive probes a process with signal 0. EPERM means the process exists
// but belongs to someone else, which still counts as alive.
func pidIsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}
