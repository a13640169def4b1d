package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/darbyjohnston/DJV-sub020/internal/adapter"
	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
	"github.com/darbyjohnston/DJV-sub020/internal/memory"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
	"github.com/darbyjohnston/DJV-sub020/internal/service"
	"github.com/darbyjohnston/DJV-sub020/internal/tui"
	"github.com/darbyjohnston/DJV-sub020/internal/worker"
)

// stdoutIsTerminal is replaced in tests
var stdoutIsTerminal = func(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "djv [path]",
		Short: "Image sequence viewer",
		Long: `djv plays image sequences and movie frames from disk with a shared
frame cache and background decoding.

With a directory (or nothing) it opens the clip picker; with a clip it
plays it. When output is not a terminal the clip is played headless.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.command(a.runRoot),
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default $HOME/.config/djv/config.yaml)")

	cmd.AddCommand(
		createPlayCmd(a),
		createInfoCmd(a),
		createListCmd(a),
		createConfigCmd(a),
	)
	return cmd
}

func (a *app) runRoot(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	if !stdoutIsTerminal(cmd.OutOrStdout()) {
		if isDir(path) {
			return errors.New("no clip given and output is not a terminal")
		}
		return a.play(cmd, path, playOptions{mode: playback.Once.String()})
	}
	return a.view(cmd, path)
}

// view runs the interactive viewer
func (a *app) view(cmd *cobra.Command, path string) error {
	opts := tui.Options{Dir: path, Config: a.cfg, Logger: a.logger}
	if !isDir(path) {
		w, err := a.openWindow(cmd.Context(), path)
		if err != nil {
			return err
		}
		opts.Window = w
		opts.Dir = ""
	}

	observer := tui.NewConfigObserver()
	opts.ConfigEvents = observer.Events()
	adapter.WatchConfig(observer.OnChange)

	p := tea.NewProgram(
		tui.NewModel(a.svc, opts),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	a.logger.Info("starting TUI")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

type playOptions struct {
	frames     uint64
	speed      float64
	mode       string
	reverse    bool
	everyFrame bool
}

func createPlayCmd(a *app) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play <path|name>",
		Short: "Play a clip without the viewer",
		Long: `Play a clip headless at its frame rate and report what was presented,
dropped and waited for. A name that is not a file is matched against the
clips of its directory.`,
		Args: cobra.ExactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			return a.play(cmd, args[0], opts)
		}),
	}
	cmd.Flags().Uint64VarP(&opts.frames, "frames", "n", 0, "stop after this many frames (0 plays until the end)")
	cmd.Flags().Float64Var(&opts.speed, "speed", 0, "frames per second (0 uses the config or the clip rate)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "loop mode: once, loop or pingpong")
	cmd.Flags().BoolVar(&opts.reverse, "reverse", false, "play backwards")
	cmd.Flags().BoolVar(&opts.everyFrame, "every-frame", false, "wait for every frame instead of dropping late ones")
	return cmd
}

func (a *app) play(cmd *cobra.Command, arg string, opts playOptions) error {
	w, err := a.openWindow(cmd.Context(), arg)
	if err != nil {
		return err
	}
	defer w.Close()

	if opts.mode != "" {
		mode, err := playback.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		w.SetMode(mode)
	}
	if opts.everyFrame {
		w.SetEveryFrame(true)
	}

	speed := opts.speed
	if speed <= 0 {
		speed = a.cfg.Playback.Speed
	}
	playerOpts := service.PlayerOptions{
		MaxFrames: opts.frames,
		Logger:    a.logger,
	}
	if speed > 0 {
		playerOpts.Speed = domain.SpeedFromFPS(speed)
	}
	if opts.reverse {
		playerOpts.Direction = playback.Reverse
	}

	stats, err := service.NewPlayer(w, playerOpts).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames in %s (%.2f fps), %d dropped, %d stalls\n",
		w.File().Name(), stats.Presented, stats.Elapsed.Round(time.Millisecond),
		stats.FPS(), stats.Dropped, stats.Stalls)
	return nil
}

func createInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>...",
		Short: "Print clip metadata",
		Long:  "Open each clip and print its frame range, pixel layout and rate. Exits non-zero if any clip cannot be opened.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.command(a.runInfo),
	}
}

func (a *app) runInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		info, err := a.svc.Info(cmd.Context(), path)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}
		printInfo(out, path, info)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d clips could not be opened", failed, len(args))
	}
	return nil
}

func printInfo(out io.Writer, path string, info domain.Info) {
	fmt.Fprintln(out, path)
	fmt.Fprintf(out, "  file:   %s\n", info.FileName)
	fmt.Fprintf(out, "  pixel:  %s\n", info.Pixel)
	if info.Sequence.IsValid() {
		fmt.Fprintf(out, "  frames: %s (%d)\n", info.Sequence, info.FrameCount())
	} else {
		fmt.Fprintf(out, "  frames: %d\n", info.FrameCount())
	}
	fmt.Fprintf(out, "  speed:  %s fps\n", info.Speed)
}

func createListCmd(a *app) *cobra.Command {
	var recent bool
	cmd := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List the clips of a directory",
		Long:  "List the clips of a directory with numbered files grouped into sequences, probing each for its metadata.",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			if recent {
				for _, path := range a.svc.Recent() {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				return nil
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return a.list(cmd, dir)
		}),
	}
	cmd.Flags().BoolVar(&recent, "recent", false, "list recently opened clips instead")
	return cmd
}

func (a *app) list(cmd *cobra.Command, dir string) error {
	clips, err := a.svc.Browse(dir)
	if err != nil {
		return err
	}
	if len(clips) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no clips in %s\n", dir)
		return nil
	}

	probed := make(map[string]worker.InfoResult, len(clips))
	err = a.svc.Probe(cmd.Context(), clips, func(r worker.InfoResult) {
		probed[r.Path] = r
	})
	if err != nil {
		return err
	}

	sort.SliceStable(clips, func(i, j int) bool { return clips[i].Name() < clips[j].Name() })
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("NAME", "FRAMES", "PIXEL", "SPEED", "SIZE")
	for _, clip := range clips {
		t.Row(listRow(clip, probed[clip.Path()])...)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func listRow(clip fileseq.FileInfo, r worker.InfoResult) []string {
	frames := "1"
	if seq := clip.Sequence(); seq.IsValid() {
		frames = fmt.Sprintf("%d", seq.FrameCount())
	}
	size := memory.FormatSize(uint64(max(clip.Size, 0)))
	if r.Err != nil || r.Path == "" {
		return []string{clip.Name(), frames, "unreadable", "-", size}
	}
	return []string{clip.Name(), frames, r.Info.Pixel.String(), r.Info.Speed.String(), size}
}

func createConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: a.command(func(cmd *cobra.Command, _ []string) error {
			if err := adapter.SaveConfig(a.cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration saved")
			return nil
		}),
	})
	return cmd
}
