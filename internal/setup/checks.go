// Package setup checks that the host can talk DDC/CI: ddcutil is installed,
// the i2c-dev module is loaded and the current user may open the i2c nodes.
package setup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/bnema/monitor-switch/internal/logger"
	"golang.org/x/sys/unix"
)

// Status of a single check
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	default:
		return "fail"
	}
}

// Result is the outcome of one check with a hint on how to fix it
type Result struct {
	Name   string
	Status Status
	Detail string
	Hint   string
}

// Report collects every check result
type Report struct {
	Results []Result
}

// OK reports whether no check failed. Warnings do not count.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return false
		}
	}
	return true
}

// Checker runs host checks. Zero fields use the real system.
type Checker struct {
	DdcutilPath string // Configured ddcutil binary, empty to search PATH
	DevDir      string // Defaults to /dev
	SysDir      string // Defaults to /sys

	lookPath func(string) (string, error)
	access   func(path string, mode uint32) error
	geteuid  func() int
}

// NewChecker creates a checker for the running system
func NewChecker(ddcutilPath string) *Checker {
	return &Checker{DdcutilPath: ddcutilPath}
}

func (c *Checker) defaults() {
	if c.DevDir == "" {
		c.DevDir = "/dev"
	}
	if c.SysDir == "" {
		c.SysDir = "/sys"
	}
	if c.lookPath == nil {
		c.lookPath = exec.LookPath
	}
	if c.access == nil {
		c.access = unix.Access
	}
	if c.geteuid == nil {
		c.geteuid = os.Geteuid
	}
}

// Run performs all checks in order
func (c *Checker) Run() Report {
	c.defaults()

	report := Report{}
	report.Results = append(report.Results, c.checkDdcutil())
	report.Results = append(report.Results, c.checkModule())

	nodes := c.i2cNodes()
	report.Results = append(report.Results, c.checkNodes(nodes))
	report.Results = append(report.Results, c.checkAccess(nodes))

	for _, res := range report.Results {
		logger.Debugf("setup check %s: %s %s", res.Name, res.Status, res.Detail)
	}
	return report
}

func (c *Checker) checkDdcutil() Result {
	name := "ddcutil"
	if c.DdcutilPath != "" {
		name = c.DdcutilPath
	}

	path, err := c.lookPath(name)
	if err != nil {
		return Result{
			Name:   "ddcutil",
			Status: StatusFail,
			Detail: fmt.Sprintf("%s not found", name),
			Hint:   "install ddcutil from your distribution's packages",
		}
	}
	return Result{Name: "ddcutil", Status: StatusOK, Detail: path}
}

func (c *Checker) checkModule() Result {
	if _, err := os.Stat(filepath.Join(c.SysDir, "module", "i2c_dev")); err != nil {
		return Result{
			Name:   "i2c-dev module",
			Status: StatusWarn,
			Detail: "not loaded (it may be built into the kernel)",
			Hint:   "sudo modprobe i2c-dev, and add it to /etc/modules-load.d/ to persist",
		}
	}
	return Result{Name: "i2c-dev module", Status: StatusOK, Detail: "loaded"}
}

func (c *Checker) i2cNodes() []string {
	nodes, err := filepath.Glob(filepath.Join(c.DevDir, "i2c-*"))
	if err != nil {
		return nil
	}
	sort.Strings(nodes)
	return nodes
}

func (c *Checker) checkNodes(nodes []string) Result {
	if len(nodes) == 0 {
		return Result{
			Name:   "i2c devices",
			Status: StatusFail,
			Detail: fmt.Sprintf("no %s/i2c-* nodes", c.DevDir),
			Hint:   "load the i2c-dev module",
		}
	}
	return Result{Name: "i2c devices", Status: StatusOK, Detail: fmt.Sprintf("%d found", len(nodes))}
}

func (c *Checker) checkAccess(nodes []string) Result {
	if c.geteuid() == 0 {
		return Result{Name: "i2c access", Status: StatusOK, Detail: "running as root"}
	}
	if len(nodes) == 0 {
		return Result{Name: "i2c access", Status: StatusWarn, Detail: "nothing to check"}
	}

	var denied []string
	for _, node := range nodes {
		if err := c.access(node, unix.R_OK|unix.W_OK); err != nil {
			denied = append(denied, filepath.Base(node))
		}
	}

	switch {
	case len(denied) == 0:
		return Result{Name: "i2c access", Status: StatusOK, Detail: "read/write on all nodes"}
	case len(denied) < len(nodes):
		return Result{
			Name:   "i2c access",
			Status: StatusWarn,
			Detail: fmt.Sprintf("no access to %v", denied),
			Hint:   "add yourself to the i2c group: sudo usermod -aG i2c $USER",
		}
	default:
		return Result{
			Name:   "i2c access",
			Status: StatusFail,
			Detail: "no read/write access to any i2c node",
			Hint:   "add yourself to the i2c group: sudo usermod -aG i2c $USER",
		}
	}
}
