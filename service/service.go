// Package service implements the "service" subcommand: generating,
// installing and starting a systemd unit that runs the file server.
package service

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// Options collects everything needed to build and install a unit.
type Options struct {
	Name string // service display name
	Dir  string // directory to serve
	Host string
	Port int
	Exec string // absolute path of the server binary

	Install bool // write the unit file
	User    bool // install as a user service under ~/.config/systemd/user
	Enable  bool // systemctl enable after installing
	Start   bool // systemctl start after enabling
	DryRun  bool // print the unit and exit
	Force   bool // overwrite an existing unit file
}

var (
	infof = color.New(color.FgCyan).PrintfFunc()
	okf   = color.New(color.FgGreen).PrintfFunc()
	warnf = color.New(color.FgYellow).PrintfFunc()
)

// Run parses the subcommand arguments and executes the requested
// action. It is invoked from main as `dirserve service [flags]`.
func Run(args []string) error {
	fs := flag.NewFlagSet("service", flag.ExitOnError)
	name    := fs.String("name", "File Server", "Service display name")
	dir     := fs.String("dir", "", "Directory to serve (required)")
	host    := fs.String("host", "0.0.0.0", "Address the service binds to")
	port    := fs.Int("port", 8000, "Port the service listens on")
	binPath := fs.String("exec", "", "Server binary to run (default: the current executable)")
	install := fs.Bool("install", false, "Install the unit into systemd")
	user    := fs.Bool("user", false, "Create a user service (~/.config/systemd/user) and use systemctl --user")
	enable  := fs.Bool("enable", false, "Enable the service after installing")
	start   := fs.Bool("start", false, "Start the service after enabling")
	dryRun  := fs.Bool("dry-run", false, "Print the unit file and exit")
	force   := fs.Bool("force", false, "Overwrite an existing unit if present")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dir == "" {
		return fmt.Errorf("service: -dir is required")
	}

	exe := *binPath
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("service: could not locate the server binary, specify with -exec: %w", err)
		}
		exe = self
	}

	opts := Options{
		Name: *name, Dir: *dir, Host: *host, Port: *port, Exec: exe,
		Install: *install, User: *user, Enable: *enable, Start: *start,
		DryRun: *dryRun, Force: *force,
	}
	return run(opts)
}

func run(opts Options) error {
	if _, err := os.Stat(opts.Dir); err != nil {
		return fmt.Errorf("service: directory %q: %w", opts.Dir, err)
	}

	slug, unit, err := BuildUnit(opts)
	if err != nil {
		return err
	}
	dest, err := unitPath(slug, opts.User)
	if err != nil {
		return err
	}

	if opts.DryRun {
		infof("# Unit file would be written to: %s\n", dest)
		fmt.Print(unit)
		return nil
	}
	if !opts.Install {
		infof("# Unit file preview (use -install to write):\n")
		fmt.Print(unit)
		return nil
	}

	if err := writeUnit(dest, unit, opts.Force, opts.User); err != nil {
		return err
	}
	okf("Wrote unit to %s\n", dest)

	infof("Reloading systemd daemon...\n")
	if err := systemctl(opts.User, "daemon-reload"); err != nil {
		warnf("Warning: systemctl daemon-reload failed: %v\n", err)
	}

	if opts.Enable {
		if err := systemctl(opts.User, "enable", slug+".service"); err != nil {
			warnf("Warning: failed to enable service: %v\n", err)
		} else {
			okf("Service enabled\n")
		}
	}
	if opts.Start {
		if err := systemctl(opts.User, "start", slug+".service"); err != nil {
			warnf("Warning: failed to start service: %v\n", err)
		} else {
			okf("Service started\n")
		}
	}
	return nil
}

var slugSquash = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a unit-safe name from the service display name.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugSquash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "file-server"
	}
	return s
}

// BuildUnit renders the systemd unit text for opts and returns it with
// the slugified unit name.
func BuildUnit(opts Options) (slug, unit string, err error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return "", "", fmt.Errorf("service: directory %q: %w", opts.Dir, err)
	}
	slug = Slugify(opts.Name)
	unit = fmt.Sprintf(`[Unit]
Description=%s File Server Service
After=network.target

[Service]
Type=simple
WorkingDirectory=%s
ExecStart=%s -dir %q -host %s -port %d
Restart=on-failure
RestartSec=5
StandardOutput=journal
StandardError=journal

[Install]
WantedBy=multi-user.target
`, opts.Name, filepath.Dir(opts.Exec), opts.Exec, dir, opts.Host, opts.Port)
	return slug, unit, nil
}

// unitPath returns the destination path for the unit file.
func unitPath(slug string, user bool) (string, error) {
	if !user {
		return filepath.Join("/etc/systemd/system", slug+".service"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("service: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "systemd", "user")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("service: %w", err)
	}
	return filepath.Join(dir, slug+".service"), nil
}

// writeUnit writes the unit file, escalating through sudo tee when the
// destination is system-wide and the process is not root.
func writeUnit(dest, content string, force, user bool) error {
	if _, err := os.Stat(dest); err == nil && !force {
		return fmt.Errorf("service: %s exists; use -force to overwrite", dest)
	}
	if user || os.Geteuid() == 0 {
		return os.WriteFile(dest, []byte(content), 0o644)
	}
	cmd := exec.Command("sudo", "tee", dest)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("service: failed to write unit via sudo: %w", err)
	}
	return nil
}

// systemctl runs a systemctl command, prefixing sudo for system-wide
// units when not running as root.
func systemctl(user bool, args ...string) error {
	var cmd *exec.Cmd
	switch {
	case user:
		cmd = exec.Command("systemctl", append([]string{"--user"}, args...)...)
	case os.Geteuid() != 0:
		cmd = exec.Command("sudo", append([]string{"systemctl"}, args...)...)
	default:
		cmd = exec.Command("systemctl", args...)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
