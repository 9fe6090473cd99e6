// Package resources validates CPU and memory requests for a notebook server
// and builds the kubectl JSON patch that applies them.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Bounds limits a quantity: the request may not be below Min and the limit
// may not exceed Max.
type Bounds struct {
	Min  float64
	Max  float64
	Unit string
}

// Default bounds for a notebook server.
var (
	CPUBounds = Bounds{Min: 0.1, Max: 14, Unit: "CPU cores"}
	RAMBounds = Bounds{Min: 1, Max: 48, Unit: "GiB of RAM"}
)

// Quantity is a request/limit pair.
type Quantity struct {
	Request float64
	Limit   float64
}

// Normalize defaults a missing limit to the request and validates the pair.
func Normalize(request float64, limit *float64, b Bounds) (Quantity, error) {
	q := Quantity{Request: request, Limit: request}
	if limit != nil {
		q.Limit = *limit
	}
	if !finite(q.Request) || !finite(q.Limit) {
		return q, fmt.Errorf("%s must be finite numbers", b.Unit)
	}

	if q.Request < b.Min {
		return q, fmt.Errorf("cannot have less than %s %s specified", Format(b.Min), b.Unit)
	}
	if q.Limit > b.Max {
		return q, fmt.Errorf("cannot have more than %s %s specified", Format(b.Max), b.Unit)
	}
	if q.Request > q.Limit {
		return q, fmt.Errorf("cannot have requested %s be greater than limit", b.Unit)
	}
	return q, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Format renders a quantity without a decimal part when it is whole.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PatchOp is one JSON patch operation.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

const resourcePath = "/spec/template/spec/containers/0/resources"

// Patch returns the JSON patch operations replacing the notebook's first
// container resources.
func Patch(cpu, ram Quantity) []PatchOp {
	return []PatchOp{
		{Op: "replace", Path: resourcePath + "/limits/cpu", Value: Format(cpu.Limit)},
		{Op: "replace", Path: resourcePath + "/limits/memory", Value: Format(ram.Limit) + "Gi"},
		{Op: "replace", Path: resourcePath + "/requests/cpu", Value: Format(cpu.Request)},
		{Op: "replace", Path: resourcePath + "/requests/memory", Value: Format(ram.Request) + "Gi"},
	}
}

// Command renders the shell command that patches the current notebook
// server. NB_PREFIX and NB_NAMESPACE are expanded by the shell.
func Command(cpu, ram Quantity) (string, error) {
	ops := Patch(cpu, ram)
	lines := make([]string, 0, len(ops))
	for _, op := range ops {
		b, err := json.Marshal(op)
		if err != nil {
			return "", fmt.Errorf("marshaling patch: %w", err)
		}
		lines = append(lines, "    "+string(b))
	}
	return "kubectl patch notebook ${NB_PREFIX##*/} -n $NB_NAMESPACE --type='json' -p=" +
		"'[\n" + strings.Join(lines, ",\n") + "]'", nil
}

// Runner executes a shell command and returns its exit code.
type Runner interface {
	Run(ctx context.Context, command string, stdout, stderr io.Writer) (int, error)
}

// ShellRunner runs commands with sh -c.
type ShellRunner struct{}

// Run executes command through the shell.
func (ShellRunner) Run(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("running kubectl: %w", err)
	}
	return 0, nil
}

// Request is a user's resource adjustment.
type Request struct {
	CPURequest float64
	RAMRequest float64
	CPULimit   *float64
	RAMLimit   *float64
	// Zero bounds fall back to CPUBounds and RAMBounds.
	CPUBounds Bounds
	RAMBounds Bounds
}

func orDefault(b, def Bounds) Bounds {
	if b.Max == 0 {
		return def
	}
	if b.Unit == "" {
		b.Unit = def.Unit
	}
	return b
}

// Adjust validates req, prints the chosen values and the command to out,
// and runs the command unless dryRun is set. It returns the command's exit
// code.
func Adjust(ctx context.Context, req Request, runner Runner, out io.Writer, dryRun bool) (int, error) {
	fmt.Fprintln(out, "Adjust notebook server to user specification...")

	cpu, err := Normalize(req.CPURequest, req.CPULimit, orDefault(req.CPUBounds, CPUBounds))
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "CPU requested: %s CPU cores\n", Format(cpu.Request))
	fmt.Fprintf(out, "CPU limit: %s CPU cores\n", Format(cpu.Limit))

	ram, err := Normalize(req.RAMRequest, req.RAMLimit, orDefault(req.RAMBounds, RAMBounds))
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "RAM requested: %s GiB RAM\n", Format(ram.Request))
	fmt.Fprintf(out, "RAM limit: %s GiB RAM\n", Format(ram.Limit))

	command, err := Command(cpu, ram)
	if err != nil {
		return 0, err
	}
	fmt.Fprintln(out, "Execute command:", command)
	if dryRun {
		return 0, nil
	}

	code, err := runner.Run(ctx, command, out, out)
	if err != nil {
		return code, err
	}
	fmt.Fprintln(out, "Return code of kubectl command:", code)
	return code, nil
}
